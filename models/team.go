package models

// Team belongs to one event. JoinCode is unique within that event only.
type Team struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid"`
	EventID     string `json:"event_id" gorm:"type:uuid;not null;uniqueIndex:idx_team_event_code,priority:1"`
	Name        string `json:"name" gorm:"not null"`
	JoinCode    string `json:"join_code" gorm:"type:varchar(6);not null;uniqueIndex:idx_team_event_code,priority:2"`
	CreatedByID string `json:"created_by_id" gorm:"type:uuid;not null"`

	// Computed
	MemberCount int64 `json:"member_count" gorm:"-"`

	Timestamps
}
