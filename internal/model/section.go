package model

import "time"

// Component is the pedagogical format of a section.
type Component string

const (
	ComponentLecture     Component = "LEC"
	ComponentDiscussion  Component = "DIS"
	ComponentLab         Component = "LAB"
	ComponentSeminar     Component = "SEM"
	ComponentRecitation  Component = "REC"
	ComponentIndependent Component = "IND"
)

// Section represents one scheduled class section, unique per (term_code, class_number).
type Section struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	TermCode        string    `gorm:"uniqueIndex:idx_sections_term_class;size:8;not null" json:"termCode"`
	ClassNumber     string    `gorm:"uniqueIndex:idx_sections_term_class;size:16;not null" json:"classNumber"`
	CourseID        int64     `gorm:"index;not null" json:"courseId"`
	SectionNumber   string    `gorm:"size:16" json:"sectionNumber"`
	Component       Component `gorm:"size:8;not null" json:"component"`
	Instructor      *string   `gorm:"size:256" json:"instructor"`
	EnrollmentCap   int       `gorm:"not null" json:"enrollmentCap"`
	EnrollmentTotal int       `gorm:"not null" json:"enrollmentTotal"`
	WaitlistCap     int       `gorm:"not null" json:"waitlistCap"`
	WaitlistTotal   int       `gorm:"not null" json:"waitlistTotal"`
	// IsOpen is a snapshot taken at ingest time, not a live value.
	IsOpen    bool      `gorm:"not null" json:"isOpen"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// Associations
	Course Course `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
