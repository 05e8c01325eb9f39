package models

import "time"

// CheckpointState is derived from the IsApproved tri-state.
type CheckpointState string

const (
	CheckpointPending          CheckpointState = "pending_review"
	CheckpointApproved         CheckpointState = "approved"
	CheckpointChangesRequested CheckpointState = "changes_requested"
)

// Checkpoint is a weekly submission. One row per (registration, week);
// resubmitting overwrites it.
type Checkpoint struct {
	ID             string `json:"id" gorm:"primaryKey;type:uuid"`
	RegistrationID string `json:"registration_id" gorm:"type:uuid;not null;uniqueIndex:idx_checkpoint_registration_week,priority:1"`
	WeekNumber     int    `json:"week_number" gorm:"not null;uniqueIndex:idx_checkpoint_registration_week,priority:2;check:week_number >= 1"`
	Content        string `json:"content" gorm:"type:text;not null"`

	Feedback   *string `json:"feedback,omitempty" gorm:"type:text"`
	IsApproved *bool   `json:"is_approved"` // nil = unreviewed

	// XPGranted survives resubmission so a checkpoint rewards at most once.
	XPGranted bool `json:"xp_granted" gorm:"column:xp_granted;not null;default:false"`

	SubmittedAt  time.Time  `json:"submitted_at"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	ReviewedByID *string    `json:"reviewed_by_id,omitempty" gorm:"type:uuid"`

	Registration *Registration `json:"registration,omitempty" gorm:"foreignKey:RegistrationID"`

	Timestamps
}

func (c *Checkpoint) State() CheckpointState {
	switch {
	case c.IsApproved == nil:
		return CheckpointPending
	case *c.IsApproved:
		return CheckpointApproved
	default:
		return CheckpointChangesRequested
	}
}
