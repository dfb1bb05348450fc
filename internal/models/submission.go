package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ListeningSubmission is one attempt row. An unfinished row doubles as the
// server-side autosave record; submit finalizes it with the graded result.
type ListeningSubmission struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	TestID uint `json:"test_id" gorm:"not null;index"`

	// Identity of the student; UserID may be empty for anonymous attempts,
	// in which case StudentName/StudentID carry whatever the client sent.
	UserID      string `json:"user_id" gorm:"size:255;index"`
	StudentName string `json:"student_name" gorm:"size:200"`
	StudentID   string `json:"student_id" gorm:"size:100"`

	// Answers is the raw answer map keyed "q<N>"; values are either scalar
	// strings or arrays of selected option indices.
	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"`

	// ExpiresAt is the absolute attempt deadline in epoch milliseconds.
	// Zero means the timer has not started.
	ExpiresAt int64 `json:"expires_at"`

	Finished    bool       `json:"finished" gorm:"default:false;index"`
	SubmittedAt *time.Time `json:"submitted_at"`
	LastSavedAt time.Time  `json:"last_saved_at"`

	// Graded result, populated on submit.
	TotalQuestions int     `json:"total_questions"`
	Correct        int     `json:"correct"`
	Percentage     float64 `json:"percentage"`
	Band           float64 `json:"band"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Test ListeningTest `json:"-" gorm:"foreignKey:TestID"`
}

func (ListeningSubmission) TableName() string {
	return "listening_submissions"
}

// Active reports whether the row is a resumable unfinished attempt.
func (s *ListeningSubmission) Active() bool {
	return !s.Finished
}
