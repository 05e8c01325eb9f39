package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"club-platform/models"

	"gorm.io/gorm"
)

// DomainService handles admin decisions on a registration after it exists:
// domain assignment and acceptance status.
type DomainService struct {
	DB *gorm.DB
}

func NewDomainService(db *gorm.DB) *DomainService {
	return &DomainService{DB: db}
}

// AssignDomain sets the registration's domain, replacing any earlier choice.
// The domain must be one the owning event offers.
func (s *DomainService) AssignDomain(ctx context.Context, registrationID, domain string) (*models.Registration, error) {
	domain = strings.TrimSpace(domain)

	var reg models.Registration
	err := runInTx(ctx, s.DB, "assign domain", func(tx *gorm.DB) error {
		reg = models.Registration{}
		if err := tx.First(&reg, "id = ?", registrationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}

		var event models.Event
		if err := tx.Select("id", "domains").First(&event, "id = ?", reg.EventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if !event.HasDomain(domain) {
			return withMessage(ErrInvalidDomain, "domain %q is not offered by this event", domain)
		}

		if err := tx.Model(&reg).Update("assigned_domain", domain).Error; err != nil {
			return err
		}
		reg.AssignedDomain = &domain
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🧭 [DOMAIN] registration=%s assigned to %q", registrationID, domain)
	return &reg, nil
}

func (s *DomainService) SetRegistrationStatus(ctx context.Context, registrationID string, status models.RegistrationStatus) (*models.Registration, error) {
	if !status.Valid() {
		return nil, withMessage(ErrInvalidInput, "unknown registration status %q", status)
	}

	var reg models.Registration
	if err := s.DB.WithContext(ctx).First(&reg, "id = ?", registrationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, storeError("get registration", err)
	}
	if err := s.DB.WithContext(ctx).Model(&reg).Update("status", status).Error; err != nil {
		return nil, storeError("update registration status", err)
	}
	reg.Status = status

	log.Printf("📋 [DOMAIN] registration=%s status → %s", registrationID, status)
	return &reg, nil
}

// RosterEntry is one row of the domain assignment screen.
type RosterEntry struct {
	RegistrationID   string                    `json:"registration_id"`
	UserID           string                    `json:"user_id"`
	DisplayName      string                    `json:"display_name"`
	Email            string                    `json:"email"`
	DomainPriorities []string                  `json:"domain_priorities"`
	AssignedDomain   *string                   `json:"assigned_domain,omitempty"`
	Status           models.RegistrationStatus `json:"status"`
}

// ListDomainRoster returns an event's registrants with their stated
// priorities, in registration order.
func (s *DomainService) ListDomainRoster(ctx context.Context, eventID string) ([]RosterEntry, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Event{}).Where("id = ?", eventID).Count(&count).Error; err != nil {
		return nil, storeError("get event", err)
	}
	if count == 0 {
		return nil, ErrEventNotFound
	}

	var regs []models.Registration
	if err := s.DB.WithContext(ctx).
		Preload("User").
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&regs).Error; err != nil {
		return nil, storeError("list registrations", err)
	}

	roster := make([]RosterEntry, 0, len(regs))
	for _, r := range regs {
		entry := RosterEntry{
			RegistrationID:   r.ID,
			UserID:           r.UserID,
			DomainPriorities: r.Priorities(),
			AssignedDomain:   r.AssignedDomain,
			Status:           r.Status,
		}
		if r.User != nil {
			entry.DisplayName = r.User.DisplayName
			entry.Email = r.User.Email
		}
		roster = append(roster, entry)
	}
	return roster, nil
}
