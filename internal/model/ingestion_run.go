package model

import "time"

// Run status values. A run is created as started and finalized exactly once.
const (
	RunStatusStarted = "started"
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// IngestionRun is the durable log record of one ingestion attempt.
// Rows are append-only; this component never deletes them.
type IngestionRun struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	TermCode string `gorm:"index;size:8;not null" json:"termCode"`
	Source   string `gorm:"size:64;not null" json:"source"`
	FileName string `gorm:"size:256;not null" json:"fileName"`
	Status   string `gorm:"size:16;not null" json:"status"`

	RawRows         int `gorm:"not null" json:"rawRows"`
	Subjects        int `gorm:"not null" json:"subjects"`
	Courses         int `gorm:"not null" json:"courses"`
	Sections        int `gorm:"not null" json:"sections"`
	Meetings        int `gorm:"not null" json:"meetings"`
	SkippedSections int `gorm:"not null" json:"skippedSections"`
	SkippedMeetings int `gorm:"not null" json:"skippedMeetings"`

	DurationMS   int64   `gorm:"not null" json:"durationMs"`
	ErrorMessage *string `gorm:"type:text" json:"errorMessage"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}
