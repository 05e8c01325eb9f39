package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"club-platform/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AwardService struct {
	DB *gorm.DB
}

func NewAwardService(db *gorm.DB) *AwardService {
	return &AwardService{DB: db}
}

type AwardInput struct {
	TeamID *string `json:"team_id"`
	UserID *string `json:"user_id"`
	Title  string  `json:"title" validate:"required,max=120"`
	Rank   int     `json:"rank" validate:"required,min=1"`
}

// CreateAward records a placing for exactly one team or one user of the event.
func (s *AwardService) CreateAward(ctx context.Context, eventID string, in AwardInput) (*models.Award, error) {
	if (in.TeamID == nil) == (in.UserID == nil) {
		return nil, withMessage(ErrInvalidInput, "an award goes to exactly one team or one user")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, withMessage(ErrInvalidInput, "title is required")
	}
	if in.Rank < 1 {
		return nil, withMessage(ErrInvalidInput, "rank must be 1 or greater")
	}

	award := models.Award{
		ID:      uuid.NewString(),
		EventID: eventID,
		TeamID:  in.TeamID,
		UserID:  in.UserID,
		Title:   strings.TrimSpace(in.Title),
		Rank:    in.Rank,
	}
	err := runInTx(ctx, s.DB, "create award", func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.Select("id").First(&event, "id = ?", eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if in.TeamID != nil {
			var n int64
			if err := tx.Model(&models.Team{}).Where("id = ? AND event_id = ?", *in.TeamID, eventID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return ErrTeamNotFound
			}
		} else {
			var n int64
			if err := tx.Model(&models.Registration{}).Where("user_id = ? AND event_id = ?", *in.UserID, eventID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return ErrNotRegistered
			}
		}
		return tx.Create(&award).Error
	})
	if err != nil {
		return nil, err
	}
	log.Printf("🏆 [AWARD] %q (rank %d) in event %s", award.Title, award.Rank, eventID)
	return &award, nil
}

func (s *AwardService) ListAwards(ctx context.Context, eventID string) ([]models.Award, error) {
	var awards []models.Award
	if err := s.DB.WithContext(ctx).
		Preload("Team").
		Preload("User").
		Where("event_id = ?", eventID).
		Order("rank ASC").
		Find(&awards).Error; err != nil {
		return nil, storeError("list awards", err)
	}
	return awards, nil
}
