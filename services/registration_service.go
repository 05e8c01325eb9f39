package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"club-platform/metrics"
	"club-platform/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Intent says how a user enters an event: CreateTeam, JoinTeam or Solo.
type Intent interface {
	details() (map[string]any, []string)
	mode() string
}

type CreateTeam struct {
	TeamName         string
	Answers          map[string]any
	DomainPriorities []string
}

type JoinTeam struct {
	JoinCode         string
	Answers          map[string]any
	DomainPriorities []string
}

// Solo registers without a team. Events with a max team size of 1 treat
// every intent as Solo.
type Solo struct {
	Answers          map[string]any
	DomainPriorities []string
}

func (i CreateTeam) details() (map[string]any, []string) { return i.Answers, i.DomainPriorities }
func (i JoinTeam) details() (map[string]any, []string)   { return i.Answers, i.DomainPriorities }
func (i Solo) details() (map[string]any, []string)       { return i.Answers, i.DomainPriorities }

func (CreateTeam) mode() string { return "create_team" }
func (JoinTeam) mode() string   { return "join_team" }
func (Solo) mode() string       { return "solo" }

type RegisterResult struct {
	TeamID         *string `json:"team_id,omitempty"`
	RegistrationID string  `json:"registration_id"`
	JoinCode       string  `json:"join_code,omitempty"`
	Message        string  `json:"message"`
}

type RegistrationService struct {
	DB *gorm.DB

	// NewJoinCode is swappable so collisions can be forced.
	NewJoinCode      func() (string, error)
	JoinCodeAttempts int
	Now              func() time.Time
}

func NewRegistrationService(db *gorm.DB, joinCodeAttempts int) *RegistrationService {
	if joinCodeAttempts < 1 {
		joinCodeAttempts = 8
	}
	return &RegistrationService{
		DB:               db,
		NewJoinCode:      GenerateJoinCode,
		JoinCodeAttempts: joinCodeAttempts,
		Now:              time.Now,
	}
}

// Register commits a user's registration to an event, creating or joining a
// team as the intent asks. Team and registration are written in one
// transaction; any failure leaves neither behind.
func (s *RegistrationService) Register(ctx context.Context, userID, eventID string, intent Intent) (*RegisterResult, error) {
	if intent == nil {
		return nil, withMessage(ErrInvalidInput, "registration intent is required")
	}

	var result *RegisterResult
	mode := intent.mode()
	err := runInTx(ctx, s.DB, "register", func(tx *gorm.DB) error {
		result = nil

		var event models.Event
		if err := tx.First(&event, "id = ?", eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		var existing int64
		if err := tx.Model(&models.Registration{}).
			Where("user_id = ? AND event_id = ?", userID, eventID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyRegistered
		}

		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if !event.RegistrationOpen(s.now()) {
			return ErrRegistrationClosed
		}

		answers, priorities := intent.details()
		answers, err := validateAnswers(&event, answers)
		if err != nil {
			return err
		}
		if err := validatePriorities(&event, priorities); err != nil {
			return err
		}

		var team *models.Team
		created := false
		switch in := intent.(type) {
		case CreateTeam:
			if event.IsSolo() {
				break
			}
			team, err = s.createTeam(tx, &event, &user, in.TeamName)
			if err != nil {
				return err
			}
			created = true
		case JoinTeam:
			if event.IsSolo() {
				break
			}
			team, err = s.lockTeamForJoin(tx, &event, in.JoinCode)
			if err != nil {
				return err
			}
		case Solo:
			if !event.IsSolo() {
				return ErrTeamRequired
			}
		default:
			return withMessage(ErrInvalidInput, "unsupported registration intent %T", intent)
		}
		if event.IsSolo() {
			mode = "solo"
		}

		rawPriorities, err := json.Marshal(nonNilStrings(priorities))
		if err != nil {
			return err
		}
		reg := models.Registration{
			ID:               uuid.NewString(),
			UserID:           userID,
			EventID:          eventID,
			Answers:          datatypes.JSONMap(answers),
			DomainPriorities: datatypes.JSON(rawPriorities),
			Status:           models.RegistrationPending,
		}
		if team != nil {
			reg.TeamID = &team.ID
		}
		if err := tx.Create(&reg).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyRegistered
			}
			return err
		}

		result = &RegisterResult{RegistrationID: reg.ID}
		switch {
		case team == nil:
			result.Message = fmt.Sprintf("You are registered for %s.", event.Title)
		case created:
			result.TeamID = &team.ID
			result.JoinCode = team.JoinCode
			result.Message = fmt.Sprintf("Team %q created for %s. Share join code %s with your teammates.", team.Name, event.Title, team.JoinCode)
		default:
			result.TeamID = &team.ID
			result.Message = fmt.Sprintf("You joined team %q for %s.", team.Name, event.Title)
		}
		return nil
	})
	if err != nil {
		var svcErr *Error
		if errors.As(err, &svcErr) && svcErr.Kind != KindTransient {
			metrics.RegistrationRejections.WithLabelValues(svcErr.Code).Inc()
		}
		log.Printf("⚠️ [REGISTER] user=%s event=%s mode=%s rejected: %v", userID, eventID, mode, err)
		return nil, err
	}

	metrics.Registrations.WithLabelValues(mode).Inc()
	log.Printf("✅ [REGISTER] user=%s event=%s mode=%s registration=%s", userID, eventID, mode, result.RegistrationID)
	return result, nil
}

// lockTeamForJoin locks the team row before counting members so concurrent
// joins for the last seat queue behind each other.
func (s *RegistrationService) lockTeamForJoin(tx *gorm.DB, event *models.Event, rawCode string) (*models.Team, error) {
	code := NormalizeJoinCode(rawCode)
	if !validJoinCode(code) {
		return nil, ErrInvalidJoinCode
	}

	var team models.Team
	err := forUpdate(tx).
		Where("event_id = ? AND join_code = ?", event.ID, code).
		First(&team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidJoinCode
		}
		return nil, err
	}

	var members int64
	if err := tx.Model(&models.Registration{}).Where("team_id = ?", team.ID).Count(&members).Error; err != nil {
		return nil, err
	}
	if members >= int64(event.MaxTeamSize) {
		return nil, withMessage(ErrTeamFull, "team %q already has %d of %d members", team.Name, members, event.MaxTeamSize)
	}
	team.MemberCount = members
	return &team, nil
}

// createTeam inserts a team with a fresh join code. Each insert runs in a
// savepoint so a collision on (event_id, join_code) does not poison the
// enclosing transaction.
func (s *RegistrationService) createTeam(tx *gorm.DB, event *models.Event, user *models.User, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("%s's Team", user.DisplayName)
	}

	for attempt := 1; attempt <= s.JoinCodeAttempts; attempt++ {
		code, err := s.NewJoinCode()
		if err != nil {
			return nil, fmt.Errorf("generate join code: %w", err)
		}

		var taken int64
		if err := tx.Model(&models.Team{}).
			Where("event_id = ? AND join_code = ?", event.ID, code).
			Count(&taken).Error; err != nil {
			return nil, err
		}
		if taken > 0 {
			log.Printf("🔁 [REGISTER] join code collision in event %s (attempt %d)", event.ID, attempt)
			continue
		}

		team := models.Team{
			ID:          uuid.NewString(),
			EventID:     event.ID,
			Name:        name,
			JoinCode:    code,
			CreatedByID: user.ID,
		}
		err = tx.Transaction(func(sp *gorm.DB) error {
			return sp.Create(&team).Error
		})
		if err == nil {
			return &team, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		log.Printf("🔁 [REGISTER] join code insert raced in event %s (attempt %d)", event.ID, attempt)
	}
	return nil, ErrJoinCodeExhausted
}

func (s *RegistrationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// GetRegistration returns the caller's registration for an event.
func (s *RegistrationService) GetRegistration(ctx context.Context, userID, eventID string) (*models.Registration, error) {
	var reg models.Registration
	err := s.DB.WithContext(ctx).
		Preload("Team").
		Where("user_id = ? AND event_id = ?", userID, eventID).
		First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, storeError("get registration", err)
	}
	return &reg, nil
}

func (s *RegistrationService) GetRegistrationByID(ctx context.Context, registrationID string) (*models.Registration, error) {
	var reg models.Registration
	if err := s.DB.WithContext(ctx).First(&reg, "id = ?", registrationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, storeError("get registration", err)
	}
	return &reg, nil
}

// ListTeamMembers returns the registrations attached to a team, oldest first.
func (s *RegistrationService) ListTeamMembers(ctx context.Context, teamID string) ([]models.Registration, error) {
	var team models.Team
	if err := s.DB.WithContext(ctx).First(&team, "id = ?", teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, storeError("get team", err)
	}
	var regs []models.Registration
	if err := s.DB.WithContext(ctx).
		Preload("User").
		Where("team_id = ?", teamID).
		Order("created_at ASC").
		Find(&regs).Error; err != nil {
		return nil, storeError("list team members", err)
	}
	return regs, nil
}

// validateAnswers drops blank keys and checks every required field has a
// non-blank value.
func validateAnswers(event *models.Event, answers map[string]any) (map[string]any, error) {
	clean := make(map[string]any, len(answers))
	for k, v := range answers {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		clean[k] = v
	}

	fields, err := event.Fields()
	if err != nil {
		return nil, fmt.Errorf("decode registration fields: %w", err)
	}
	for _, f := range fields {
		if !f.Required {
			continue
		}
		if blankAnswer(clean[f.Name]) {
			label := f.Label
			if label == "" {
				label = f.Name
			}
			return nil, withMessage(ErrMissingField, "%s is required", label)
		}
	}
	return clean, nil
}

func blankAnswer(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	}
	return false
}

func validatePriorities(event *models.Event, priorities []string) error {
	seen := make(map[string]bool, len(priorities))
	for _, p := range priorities {
		if !event.HasDomain(p) {
			return withMessage(ErrInvalidDomain, "domain %q is not offered by this event", p)
		}
		key := strings.TrimSpace(p)
		if seen[key] {
			return withMessage(ErrInvalidDomain, "domain %q listed twice", p)
		}
		seen[key] = true
	}
	return nil
}

func nonNilStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
