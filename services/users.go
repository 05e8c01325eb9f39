// services/users.go
package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"club-platform/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// Identity is what the gateway tells us about the caller.
type Identity struct {
	ExternalID  string
	DisplayName string
	Email       string
}

// EnsureUser returns the local user for an external identity, creating it on
// first sight. Profile fields are refreshed when the gateway sends them.
func (s *UserService) EnsureUser(ctx context.Context, id Identity) (*models.User, error) {
	id.ExternalID = strings.TrimSpace(id.ExternalID)
	if id.ExternalID == "" {
		return nil, withMessage(ErrInvalidInput, "external id is required")
	}
	id.Email = strings.ToLower(strings.TrimSpace(id.Email))
	id.DisplayName = strings.TrimSpace(id.DisplayName)

	db := s.DB.WithContext(ctx)
	var user models.User
	err := db.Where("external_id = ?", id.ExternalID).First(&user).Error
	switch {
	case err == nil:
		updates := map[string]any{}
		if id.DisplayName != "" && id.DisplayName != user.DisplayName {
			updates["display_name"] = id.DisplayName
		}
		if id.Email != "" && id.Email != user.Email {
			updates["email"] = id.Email
		}
		if len(updates) > 0 {
			if err := db.Model(&user).Updates(updates).Error; err != nil {
				log.Printf("⚠️ [USERS] profile refresh for %s failed: %v", id.ExternalID, err)
			}
		}
		return &user, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, storeError("find user", err)
	}

	if id.Email == "" {
		return nil, withMessage(ErrInvalidInput, "email is required on first login")
	}
	if id.DisplayName == "" {
		id.DisplayName = strings.Split(id.Email, "@")[0]
	}
	user = models.User{
		ID:          uuid.NewString(),
		ExternalID:  id.ExternalID,
		DisplayName: id.DisplayName,
		Email:       id.Email,
		Role:        models.RoleStudent,
	}
	// Two first requests can race; the loser reads the winner's row.
	res := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "external_id"}}, DoNothing: true}).Create(&user)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return nil, withMessage(ErrInvalidInput, "email %s belongs to another account", id.Email)
		}
		return nil, storeError("create user", res.Error)
	}
	if res.RowsAffected == 0 {
		user = models.User{}
		if err := db.Where("external_id = ?", id.ExternalID).First(&user).Error; err != nil {
			return nil, storeError("find user", err)
		}
		return &user, nil
	}
	log.Printf("👤 [USERS] first login: %s (%s)", user.DisplayName, user.ExternalID)
	return &user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeError("get user", err)
	}
	return &user, nil
}

// Profile is a user with their event registrations.
type Profile struct {
	User          *models.User          `json:"user"`
	Registrations []models.Registration `json:"registrations"`
	Level         LevelInfo             `json:"level"`
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var regs []models.Registration
	if err := s.DB.WithContext(ctx).
		Preload("Team").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&regs).Error; err != nil {
		return nil, storeError("list registrations", err)
	}
	return &Profile{User: user, Registrations: regs, Level: LevelForXP(user.XP)}, nil
}

// SetRole changes a user's role. The actor cannot hand out a role above
// their own.
func (s *UserService) SetRole(ctx context.Context, actorRole models.Role, userID string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, withMessage(ErrInvalidInput, "unknown role %q", role)
	}
	if !actorRole.AtLeast(role) {
		return nil, ErrForbiddenRole
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role.Rank() > actorRole.Rank() {
		return nil, withMessage(ErrForbiddenRole, "cannot change the role of a higher-ranked member")
	}
	if err := s.DB.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, storeError("update role", err)
	}
	user.Role = role
	log.Printf("🛡️ [USERS] %s is now %s", user.DisplayName, role)
	return user, nil
}

// RemoveUser hard-deletes a user; registrations, checkpoints and ledger rows
// go with it.
func (s *UserService) RemoveUser(ctx context.Context, userID string) error {
	res := s.DB.WithContext(ctx).Delete(&models.User{}, "id = ?", userID)
	if res.Error != nil {
		return storeError("delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	log.Printf("🗑️ [USERS] removed %s", userID)
	return nil
}

// SearchUsers matches display name or email, case-insensitively.
func (s *UserService) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	db := s.DB.WithContext(ctx).Model(&models.User{}).Limit(limit).Order("display_name ASC")
	if q := strings.TrimSpace(query); q != "" {
		term := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(display_name) LIKE ? OR LOWER(email) LIKE ?", term, term)
	}
	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		return nil, storeError("search users", err)
	}
	return users, nil
}
