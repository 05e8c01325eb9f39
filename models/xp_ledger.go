package models

import "time"

// XPLedgerEntry records one XP grant. A checkpoint appears here at most once.
type XPLedgerEntry struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid"`
	UserID       string    `json:"user_id" gorm:"type:uuid;not null;index"`
	EventID      string    `json:"event_id" gorm:"type:uuid;not null"`
	CheckpointID *string   `json:"checkpoint_id,omitempty" gorm:"type:uuid;uniqueIndex"`
	Amount       int64     `json:"amount" gorm:"not null"`
	Reason       string    `json:"reason" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (XPLedgerEntry) TableName() string { return "xp_ledger" }
