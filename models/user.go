package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is a club role. Roles are totally ordered; see AtLeast.
type Role string

const (
	RoleStudent        Role = "student"
	RoleMember         Role = "member"
	RoleCoreMember     Role = "core_member"
	RoleDeputyConvener Role = "deputy_convener"
	RoleConvener       Role = "convener"
)

// Roles lists every role from lowest to highest.
var Roles = []Role{RoleStudent, RoleMember, RoleCoreMember, RoleDeputyConvener, RoleConvener}

// Rank returns the role's position in the hierarchy, or -1 for an unknown role.
func (r Role) Rank() int {
	for i, role := range Roles {
		if role == r {
			return i
		}
	}
	return -1
}

func (r Role) Valid() bool { return r.Rank() >= 0 }

// AtLeast reports whether r is the threshold role or above it.
// Unknown roles never satisfy a threshold.
func (r Role) AtLeast(threshold Role) bool {
	if !r.Valid() || !threshold.Valid() {
		return false
	}
	return r.Rank() >= threshold.Rank()
}

// ParseRole accepts role names case-insensitively ("Core_Member", " convener ").
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User is a club member as known locally. Identity lives with the external
// provider; ExternalID is its subject.
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalID  string `gorm:"uniqueIndex;not null" json:"external_id"`
	DisplayName string `gorm:"not null" json:"display_name"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Role        Role   `gorm:"type:varchar(32);not null;default:'student'" json:"role"`

	// XP only grows, through approved checkpoints.
	XP int64 `gorm:"column:xp;not null;default:0;check:xp >= 0" json:"xp"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
