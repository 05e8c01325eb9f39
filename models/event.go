package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type EventType string

const (
	EventTypeHackathon  EventType = "hackathon"
	EventTypeCPSolo     EventType = "cp_solo"
	EventTypeCPTeam     EventType = "cp_team"
	EventTypeMentorship EventType = "mentorship"
	EventTypeTeamEvent  EventType = "team_event"
	EventTypeSoloEvent  EventType = "solo_event"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTypeHackathon, EventTypeCPSolo, EventTypeCPTeam,
		EventTypeMentorship, EventTypeTeamEvent, EventTypeSoloEvent:
		return true
	}
	return false
}

// SoloByDefault reports whether the type is individual unless configured otherwise.
func (t EventType) SoloByDefault() bool {
	return t == EventTypeCPSolo || t == EventTypeSoloEvent || t == EventTypeMentorship
}

// EventStatus moves forward only: upcoming → live → past.
type EventStatus string

const (
	EventStatusUpcoming EventStatus = "upcoming"
	EventStatusLive     EventStatus = "live"
	EventStatusPast     EventStatus = "past"
)

func (s EventStatus) order() int {
	switch s {
	case EventStatusUpcoming:
		return 0
	case EventStatusLive:
		return 1
	case EventStatusPast:
		return 2
	}
	return -1
}

func (s EventStatus) Valid() bool { return s.order() >= 0 }

// CanAdvanceTo reports whether next is strictly later in the lifecycle.
func (s EventStatus) CanAdvanceTo(next EventStatus) bool {
	return s.Valid() && next.Valid() && next.order() > s.order()
}

// RegistrationField is an admin-defined question on the registration form.
type RegistrationField struct {
	Name     string `json:"name"`
	Label    string `json:"label,omitempty"`
	Type     string `json:"type,omitempty"` // text, url, select...
	Required bool   `json:"required"`
}

type Event struct {
	ID          string      `json:"id" gorm:"primaryKey;type:uuid"`
	Title       string      `json:"title" gorm:"not null"`
	Slug        string      `json:"slug" gorm:"uniqueIndex;not null"`
	Type        EventType   `json:"type" gorm:"type:varchar(32);not null"`
	Status      EventStatus `json:"status" gorm:"type:varchar(16);not null;default:'upcoming';index"`
	Description string      `json:"description" gorm:"type:text"`

	// Configuration
	MaxTeamSize        int            `json:"max_team_size" gorm:"not null;default:1;check:max_team_size >= 1"`
	RegistrationFields datatypes.JSON `json:"registration_fields"` // []RegistrationField
	Domains            datatypes.JSON `json:"domains"`             // []string, mentorship tracks
	CheckpointXP       int64          `json:"checkpoint_xp" gorm:"not null;default:0"` // 0 = tracker default

	// Windows (optional)
	RegistrationStartsAt *time.Time `json:"registration_starts_at,omitempty"`
	RegistrationEndsAt   *time.Time `json:"registration_ends_at,omitempty"`
	StartsAt             *time.Time `json:"starts_at,omitempty"`
	EndsAt               *time.Time `json:"ends_at,omitempty"`

	Teams         []Team         `json:"teams,omitempty" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	Registrations []Registration `json:"-" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	Awards        []Award        `json:"awards,omitempty" gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`

	Timestamps
}

// IsSolo reports whether registrations for this event never carry a team.
func (e *Event) IsSolo() bool { return e.MaxTeamSize <= 1 }

// RegistrationOpen reports whether a new registration may be accepted at now.
func (e *Event) RegistrationOpen(now time.Time) bool {
	if e.Status == EventStatusPast {
		return false
	}
	if e.RegistrationStartsAt != nil && now.Before(*e.RegistrationStartsAt) {
		return false
	}
	if e.RegistrationEndsAt != nil && !now.Before(*e.RegistrationEndsAt) {
		return false
	}
	return true
}

func (e *Event) Fields() ([]RegistrationField, error) {
	var fields []RegistrationField
	if len(e.RegistrationFields) == 0 {
		return fields, nil
	}
	err := json.Unmarshal(e.RegistrationFields, &fields)
	return fields, err
}

func (e *Event) SetFields(fields []RegistrationField) error {
	if fields == nil {
		fields = []RegistrationField{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	e.RegistrationFields = datatypes.JSON(raw)
	return nil
}

func (e *Event) DomainList() ([]string, error) {
	var domains []string
	if len(e.Domains) == 0 {
		return domains, nil
	}
	err := json.Unmarshal(e.Domains, &domains)
	return domains, err
}

func (e *Event) SetDomains(domains []string) error {
	if domains == nil {
		domains = []string{}
	}
	raw, err := json.Marshal(domains)
	if err != nil {
		return err
	}
	e.Domains = datatypes.JSON(raw)
	return nil
}

// HasDomain matches exactly after trimming surrounding whitespace.
func (e *Event) HasDomain(domain string) bool {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return false
	}
	domains, err := e.DomainList()
	if err != nil {
		return false
	}
	for _, d := range domains {
		if d == domain {
			return true
		}
	}
	return false
}
