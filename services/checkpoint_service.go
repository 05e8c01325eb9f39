package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"club-platform/metrics"
	"club-platform/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultCheckpointXP is awarded per approved checkpoint unless the event
// sets its own amount.
const DefaultCheckpointXP int64 = 100

type CheckpointService struct {
	DB       *gorm.DB
	XPReward int64
	Now      func() time.Time
}

func NewCheckpointService(db *gorm.DB, xpReward int64) *CheckpointService {
	if xpReward <= 0 {
		xpReward = DefaultCheckpointXP
	}
	return &CheckpointService{DB: db, XPReward: xpReward, Now: time.Now}
}

// ApprovalResult carries the user's XP after an approval. Granted is zero when
// the checkpoint had already paid out.
type ApprovalResult struct {
	Checkpoint *models.Checkpoint `json:"checkpoint"`
	UserID     string             `json:"user_id"`
	Granted    int64              `json:"granted"`
	NewXP      int64              `json:"new_xp"`
}

// SubmitCheckpoint creates or replaces the checkpoint for (registration, week).
// A resubmission clears any earlier review decision.
func (s *CheckpointService) SubmitCheckpoint(ctx context.Context, registrationID string, week int, content string) (*models.Checkpoint, error) {
	if week < 1 {
		return nil, ErrInvalidWeek
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrMissingContent
	}

	var cp models.Checkpoint
	err := runInTx(ctx, s.DB, "submit checkpoint", func(tx *gorm.DB) error {
		cp = models.Checkpoint{}
		var reg models.Registration
		if err := tx.Select("id").First(&reg, "id = ?", registrationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotRegistered
			}
			return err
		}

		now := s.now()
		err := forUpdate(tx).
			Where("registration_id = ? AND week_number = ?", registrationID, week).
			First(&cp).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			cp = models.Checkpoint{
				ID:             uuid.NewString(),
				RegistrationID: registrationID,
				WeekNumber:     week,
				Content:        content,
				SubmittedAt:    now,
			}
			if err := tx.Create(&cp).Error; err != nil {
				if isUniqueViolation(err) {
					// Lost a race with a concurrent first submission; redo as an update.
					return errRetryTx
				}
				return err
			}
			return nil
		case err != nil:
			return err
		}

		// Feedback is kept so the participant can still see what was asked.
		if err := tx.Model(&cp).Updates(map[string]any{
			"content":        content,
			"is_approved":    nil,
			"submitted_at":   now,
			"reviewed_at":    nil,
			"reviewed_by_id": nil,
		}).Error; err != nil {
			return err
		}
		return tx.First(&cp, "id = ?", cp.ID).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.CheckpointSubmissions.Inc()
	log.Printf("📝 [CHECKPOINT] registration=%s week=%d submitted (checkpoint=%s)", registrationID, week, cp.ID)
	return &cp, nil
}

// SubmitCheckpointForEvent resolves the caller's registration for an event
// and submits on it.
func (s *CheckpointService) SubmitCheckpointForEvent(ctx context.Context, userID, eventID string, week int, content string) (*models.Checkpoint, error) {
	var reg models.Registration
	err := s.DB.WithContext(ctx).Select("id").
		Where("user_id = ? AND event_id = ?", userID, eventID).
		First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, storeError("find registration", err)
	}
	return s.SubmitCheckpoint(ctx, reg.ID, week, content)
}

// ApproveCheckpoint marks a pending checkpoint approved and, the first time
// only, adds the reward to the owner's stored XP.
func (s *CheckpointService) ApproveCheckpoint(ctx context.Context, checkpointID, reviewerID string) (*ApprovalResult, error) {
	var res ApprovalResult
	err := runInTx(ctx, s.DB, "approve checkpoint", func(tx *gorm.DB) error {
		res = ApprovalResult{}

		var cp models.Checkpoint
		if err := forUpdate(tx).
			Preload("Registration").
			First(&cp, "id = ?", checkpointID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCheckpointNotFound
			}
			return err
		}
		if cp.IsApproved != nil {
			return withMessage(ErrNotPendingReview, "checkpoint is %s; only a resubmission reopens it", cp.State())
		}
		if cp.Registration == nil {
			return ErrRegistrationNotFound
		}
		userID := cp.Registration.UserID

		updates := map[string]any{
			"is_approved": true,
			"reviewed_at": s.now(),
		}
		if reviewerID != "" {
			updates["reviewed_by_id"] = reviewerID
		}

		var reward int64
		if !cp.XPGranted {
			var event models.Event
			if err := tx.Select("id", "checkpoint_xp").First(&event, "id = ?", cp.Registration.EventID).Error; err != nil {
				return err
			}
			reward = s.rewardFor(&event)
			updates["xp_granted"] = true
		}

		if err := tx.Model(&models.Checkpoint{}).Where("id = ?", cp.ID).Updates(updates).Error; err != nil {
			return err
		}

		if reward > 0 {
			inc := addXP(tx, userID, reward)
			if inc.Error != nil {
				return inc.Error
			}
			if inc.RowsAffected == 0 {
				return ErrUserNotFound
			}
			cpID := cp.ID
			entry := models.XPLedgerEntry{
				ID:           uuid.NewString(),
				UserID:       userID,
				EventID:      cp.Registration.EventID,
				CheckpointID: &cpID,
				Amount:       reward,
				Reason:       fmt.Sprintf("checkpoint week %d approved", cp.WeekNumber),
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}

		var user models.User
		if err := tx.Select("id", "xp").First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if err := tx.First(&cp, "id = ?", cp.ID).Error; err != nil {
			return err
		}
		cp.Registration = nil

		res = ApprovalResult{Checkpoint: &cp, UserID: userID, Granted: reward, NewXP: user.XP}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CheckpointReviews.WithLabelValues("approved").Inc()
	if res.Granted > 0 {
		metrics.XPGranted.Add(float64(res.Granted))
		log.Printf("🎮 [CHECKPOINT] %s approved: user=%s +%d XP → %d", checkpointID, res.UserID, res.Granted, res.NewXP)
	} else {
		log.Printf("✅ [CHECKPOINT] %s approved after resubmission: user=%s XP already granted, stays %d", checkpointID, res.UserID, res.NewXP)
	}
	return &res, nil
}

// RejectCheckpoint requests changes on a pending checkpoint. Feedback is mandatory.
func (s *CheckpointService) RejectCheckpoint(ctx context.Context, checkpointID, feedback, reviewerID string) (*models.Checkpoint, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return nil, ErrMissingFeedback
	}

	var cp models.Checkpoint
	err := runInTx(ctx, s.DB, "reject checkpoint", func(tx *gorm.DB) error {
		cp = models.Checkpoint{}
		if err := forUpdate(tx).
			First(&cp, "id = ?", checkpointID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCheckpointNotFound
			}
			return err
		}
		if cp.IsApproved != nil {
			return withMessage(ErrNotPendingReview, "checkpoint is %s; only a resubmission reopens it", cp.State())
		}
		updates := map[string]any{
			"is_approved": false,
			"feedback":    feedback,
			"reviewed_at": s.now(),
		}
		if reviewerID != "" {
			updates["reviewed_by_id"] = reviewerID
		}
		if err := tx.Model(&cp).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&cp, "id = ?", cp.ID).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.CheckpointReviews.WithLabelValues("changes_requested").Inc()
	log.Printf("↩️ [CHECKPOINT] %s changes requested", checkpointID)
	return &cp, nil
}

// ListCheckpoints returns a registration's checkpoints by week.
func (s *CheckpointService) ListCheckpoints(ctx context.Context, registrationID string) ([]models.Checkpoint, error) {
	var cps []models.Checkpoint
	if err := s.DB.WithContext(ctx).
		Where("registration_id = ?", registrationID).
		Order("week_number ASC").
		Find(&cps).Error; err != nil {
		return nil, storeError("list checkpoints", err)
	}
	return cps, nil
}

// ListPendingReviews returns unreviewed checkpoints for an event, oldest submission first.
func (s *CheckpointService) ListPendingReviews(ctx context.Context, eventID string) ([]models.Checkpoint, error) {
	var cps []models.Checkpoint
	if err := s.DB.WithContext(ctx).
		Joins("JOIN registrations ON registrations.id = checkpoints.registration_id").
		Where("registrations.event_id = ? AND checkpoints.is_approved IS NULL", eventID).
		Order("checkpoints.submitted_at ASC").
		Find(&cps).Error; err != nil {
		return nil, storeError("list pending reviews", err)
	}
	return cps, nil
}

func (s *CheckpointService) rewardFor(event *models.Event) int64 {
	if event.CheckpointXP > 0 {
		return event.CheckpointXP
	}
	return s.XPReward
}

func (s *CheckpointService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
