package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"club-platform/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type EventService struct {
	DB                 *gorm.DB
	DefaultMaxTeamSize int
	Now                func() time.Time
}

func NewEventService(db *gorm.DB, defaultMaxTeamSize int) *EventService {
	if defaultMaxTeamSize < 1 {
		defaultMaxTeamSize = 4
	}
	return &EventService{DB: db, DefaultMaxTeamSize: defaultMaxTeamSize, Now: time.Now}
}

// EventInput is what an admin supplies to create an event.
type EventInput struct {
	Title                string                     `json:"title" validate:"required,min=3,max=200"`
	Type                 models.EventType           `json:"type" validate:"required"`
	Description          string                     `json:"description"`
	MaxTeamSize          int                        `json:"max_team_size" validate:"omitempty,min=1,max=50"`
	RegistrationFields   []models.RegistrationField `json:"registration_fields" validate:"dive"`
	Domains              []string                   `json:"domains" validate:"dive,required"`
	CheckpointXP         int64                      `json:"checkpoint_xp" validate:"omitempty,min=0"`
	RegistrationStartsAt *time.Time                 `json:"registration_starts_at"`
	RegistrationEndsAt   *time.Time                 `json:"registration_ends_at"`
	StartsAt             *time.Time                 `json:"starts_at"`
	EndsAt               *time.Time                 `json:"ends_at"`
}

func (in *EventInput) check() error {
	if strings.TrimSpace(in.Title) == "" {
		return withMessage(ErrInvalidInput, "title is required")
	}
	if !in.Type.Valid() {
		return withMessage(ErrInvalidInput, "unknown event type %q", in.Type)
	}
	if in.RegistrationStartsAt != nil && in.RegistrationEndsAt != nil && !in.RegistrationEndsAt.After(*in.RegistrationStartsAt) {
		return withMessage(ErrInvalidInput, "registration window ends before it starts")
	}
	if in.StartsAt != nil && in.EndsAt != nil && !in.EndsAt.After(*in.StartsAt) {
		return withMessage(ErrInvalidInput, "event ends before it starts")
	}
	names := map[string]bool{}
	for _, f := range in.RegistrationFields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return withMessage(ErrInvalidInput, "registration field name is required")
		}
		if names[name] {
			return withMessage(ErrInvalidInput, "registration field %q defined twice", name)
		}
		names[name] = true
	}
	domains := map[string]bool{}
	for _, d := range in.Domains {
		d = strings.TrimSpace(d)
		if d == "" || domains[d] {
			return withMessage(ErrInvalidInput, "domains must be non-empty and distinct")
		}
		domains[d] = true
	}
	return nil
}

// CreateEvent stores a new upcoming event. The slug comes from the title and
// gets a numeric suffix when taken.
func (s *EventService) CreateEvent(ctx context.Context, in EventInput) (*models.Event, error) {
	if err := in.check(); err != nil {
		return nil, err
	}

	maxTeam := in.MaxTeamSize
	if maxTeam == 0 {
		if in.Type.SoloByDefault() {
			maxTeam = 1
		} else {
			maxTeam = s.DefaultMaxTeamSize
		}
	}

	event := models.Event{
		Title:                strings.TrimSpace(in.Title),
		Type:                 in.Type,
		Status:               models.EventStatusUpcoming,
		Description:          in.Description,
		MaxTeamSize:          maxTeam,
		CheckpointXP:         in.CheckpointXP,
		RegistrationStartsAt: in.RegistrationStartsAt,
		RegistrationEndsAt:   in.RegistrationEndsAt,
		StartsAt:             in.StartsAt,
		EndsAt:               in.EndsAt,
	}
	for i := range in.RegistrationFields {
		in.RegistrationFields[i].Name = strings.TrimSpace(in.RegistrationFields[i].Name)
	}
	if err := event.SetFields(in.RegistrationFields); err != nil {
		return nil, err
	}
	domains := make([]string, 0, len(in.Domains))
	for _, d := range in.Domains {
		domains = append(domains, strings.TrimSpace(d))
	}
	if err := event.SetDomains(domains); err != nil {
		return nil, err
	}

	base := slug.Make(event.Title)
	if base == "" {
		base = "event"
	}

	err := runInTx(ctx, s.DB, "create event", func(tx *gorm.DB) error {
		event.ID = uuid.NewString()
		candidate, err := nextFreeSlug(tx, base)
		if err != nil {
			return err
		}
		event.Slug = candidate
		if err := tx.Create(&event).Error; err != nil {
			if isUniqueViolation(err) && isConstraintOn(err, "idx_events_slug", "events.slug") {
				return errRetryTx
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ [EVENT] created %q (%s, slug=%s, max team %d)", event.Title, event.Type, event.Slug, event.MaxTeamSize)
	return &event, nil
}

func nextFreeSlug(tx *gorm.DB, base string) (string, error) {
	var taken []string
	if err := tx.Model(&models.Event{}).
		Where("slug = ? OR slug LIKE ?", base, base+"-%").
		Pluck("slug", &taken).Error; err != nil {
		return "", err
	}
	used := make(map[string]bool, len(taken))
	for _, t := range taken {
		used[t] = true
	}
	if !used[base] {
		return base, nil
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if !used[candidate] {
			return candidate, nil
		}
	}
}

// GetEvent finds an event by id or slug.
func (s *EventService) GetEvent(ctx context.Context, idOrSlug string) (*models.Event, error) {
	var event models.Event
	q := s.DB.WithContext(ctx)
	if _, err := uuid.Parse(idOrSlug); err == nil {
		q = q.Where("id = ?", idOrSlug)
	} else {
		q = q.Where("slug = ?", strings.ToLower(idOrSlug))
	}
	if err := q.Preload("Awards").First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, storeError("get event", err)
	}
	return &event, nil
}

// ListEvents returns events soonest first; status filters when non-empty.
func (s *EventService) ListEvents(ctx context.Context, status models.EventStatus) ([]models.Event, error) {
	q := s.DB.WithContext(ctx).Model(&models.Event{})
	if status != "" {
		if !status.Valid() {
			return nil, withMessage(ErrInvalidInput, "unknown status %q", status)
		}
		q = q.Where("status = ?", status)
	}
	var events []models.Event
	if err := q.Order("starts_at ASC").Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, storeError("list events", err)
	}
	return events, nil
}

// AdvanceStatus moves an event forward in its lifecycle.
func (s *EventService) AdvanceStatus(ctx context.Context, eventID string, next models.EventStatus) (*models.Event, error) {
	if !next.Valid() {
		return nil, withMessage(ErrInvalidInput, "unknown status %q", next)
	}
	var event models.Event
	err := runInTx(ctx, s.DB, "advance event status", func(tx *gorm.DB) error {
		event = models.Event{}
		if err := tx.First(&event, "id = ?", eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if !event.Status.CanAdvanceTo(next) {
			return withMessage(ErrInvalidTransition, "cannot move event from %s to %s", event.Status, next)
		}
		res := tx.Model(&models.Event{}).
			Where("id = ? AND status = ?", event.ID, event.Status).
			Update("status", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errRetryTx
		}
		event.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("📅 [EVENT] %s → %s", event.Slug, next)
	return &event, nil
}

// PromoteByWindow moves events whose main window has opened to live and
// whose main window has closed to past. It returns how many rows moved.
func (s *EventService) PromoteByWindow(ctx context.Context) (int64, error) {
	now := s.now()
	db := s.DB.WithContext(ctx)

	toPast := db.Model(&models.Event{}).
		Where("status IN ? AND ends_at IS NOT NULL AND ends_at <= ?",
			[]models.EventStatus{models.EventStatusUpcoming, models.EventStatusLive}, now).
		Update("status", models.EventStatusPast)
	if toPast.Error != nil {
		return 0, storeError("close finished events", toPast.Error)
	}

	toLive := db.Model(&models.Event{}).
		Where("status = ? AND starts_at IS NOT NULL AND starts_at <= ?", models.EventStatusUpcoming, now).
		Update("status", models.EventStatusLive)
	if toLive.Error != nil {
		return toPast.RowsAffected, storeError("open started events", toLive.Error)
	}
	return toPast.RowsAffected + toLive.RowsAffected, nil
}

// ListTeams returns an event's teams with member counts.
func (s *EventService) ListTeams(ctx context.Context, eventID string) ([]models.Team, error) {
	var teams []models.Team
	if err := s.DB.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&teams).Error; err != nil {
		return nil, storeError("list teams", err)
	}
	if len(teams) == 0 {
		return teams, nil
	}

	type countRow struct {
		TeamID string
		N      int64
	}
	var rows []countRow
	if err := s.DB.WithContext(ctx).Model(&models.Registration{}).
		Select("team_id, COUNT(*) AS n").
		Where("event_id = ? AND team_id IS NOT NULL", eventID).
		Group("team_id").
		Scan(&rows).Error; err != nil {
		return nil, storeError("count team members", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.TeamID] = r.N
	}
	for i := range teams {
		teams[i].MemberCount = counts[teams[i].ID]
	}
	return teams, nil
}

// DeleteEvent removes an event with its teams, registrations and checkpoints.
func (s *EventService) DeleteEvent(ctx context.Context, eventID string) error {
	res := s.DB.WithContext(ctx).Delete(&models.Event{}, "id = ?", eventID)
	if res.Error != nil {
		return storeError("delete event", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrEventNotFound
	}
	log.Printf("🗑️ [EVENT] deleted %s", eventID)
	return nil
}

func (s *EventService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
