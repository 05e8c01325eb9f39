package models

// Award ranks either a team or a user within an event, never both.
type Award struct {
	ID      string  `json:"id" gorm:"primaryKey;type:uuid"`
	EventID string  `json:"event_id" gorm:"type:uuid;not null;index;check:chk_awards_single_target,(team_id IS NULL) <> (user_id IS NULL)"`
	TeamID  *string `json:"team_id,omitempty" gorm:"type:uuid"`
	UserID  *string `json:"user_id,omitempty" gorm:"type:uuid"`
	Title   string  `json:"title" gorm:"not null"`
	Rank    int     `json:"rank" gorm:"not null;check:rank >= 1"`

	Team *Team `json:"team,omitempty" gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE"`
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	Timestamps
}
