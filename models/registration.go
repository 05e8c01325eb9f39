package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationAccepted RegistrationStatus = "accepted"
	RegistrationRejected RegistrationStatus = "rejected"
)

func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationPending, RegistrationAccepted, RegistrationRejected:
		return true
	}
	return false
}

// Registration links one user to one event. TeamID is nil for solo entries and
// never changes once set.
type Registration struct {
	ID      string  `json:"id" gorm:"primaryKey;type:uuid"`
	UserID  string  `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_registration_user_event,priority:1"`
	EventID string  `json:"event_id" gorm:"type:uuid;not null;uniqueIndex:idx_registration_user_event,priority:2;index"`
	TeamID  *string `json:"team_id,omitempty" gorm:"type:uuid;index"`

	Answers          datatypes.JSONMap  `json:"answers"`
	DomainPriorities datatypes.JSON     `json:"domain_priorities"` // []string, most preferred first
	AssignedDomain   *string            `json:"assigned_domain,omitempty"`
	Status           RegistrationStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending'"`

	User        *User        `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Team        *Team        `json:"team,omitempty" gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE"`
	Checkpoints []Checkpoint `json:"checkpoints,omitempty" gorm:"foreignKey:RegistrationID;constraint:OnDelete:CASCADE"`

	Timestamps
}

func (r *Registration) Priorities() []string {
	var out []string
	if len(r.DomainPriorities) == 0 {
		return out
	}
	_ = json.Unmarshal(r.DomainPriorities, &out)
	return out
}
