package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// EventType represents different types of submission events
type EventType string

const (
	// Attempt lifecycle events
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptAutosaved EventType = "attempt.autosaved"
	EventAttemptExpired   EventType = "attempt.expired"

	// Submission events
	EventSubmissionCompleted EventType = "submission.completed"
	EventSubmissionGraded    EventType = "submission.graded"
)

// SubmissionEvent is the base structure for all submission events
type SubmissionEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type AttemptStartedEvent struct {
	SubmissionID int64     `json:"submission_id"`
	TestID       uint      `json:"test_id"`
	TestTitle    string    `json:"test_title"`
	UserID       string    `json:"user_id"`
	StartedAt    time.Time `json:"started_at"`
	ExpiresAt    int64     `json:"expires_at"` // epoch ms
}

type AttemptAutosavedEvent struct {
	SubmissionID  int64     `json:"submission_id"`
	TestID        uint      `json:"test_id"`
	UserID        string    `json:"user_id"`
	AnswerCount   int       `json:"answer_count"`
	SavedAt       time.Time `json:"saved_at"`
	MsUntilExpiry int64     `json:"ms_until_expiry"`
}

type SubmissionCompletedEvent struct {
	SubmissionID   int64     `json:"submission_id"`
	TestID         uint      `json:"test_id"`
	TestTitle      string    `json:"test_title"`
	UserID         string    `json:"user_id"`
	SubmittedAt    time.Time `json:"submitted_at"`
	TotalQuestions int       `json:"total_questions"`
	Correct        int       `json:"correct"`
	Percentage     float64   `json:"percentage"`
	Band           float64   `json:"band"`
	AutoSubmitted  bool      `json:"auto_submitted"`
}

// Event factory functions

func NewAttemptStartedEvent(submissionID int64, testID uint, title, userID string, startedAt time.Time, expiresAt int64) *SubmissionEvent {
	return &SubmissionEvent{
		ID:        watermill.NewUUID(),
		Type:      EventAttemptStarted,
		Timestamp: time.Now(),
		Source:    "listening-service",
		Version:   "1.0",
		Data: AttemptStartedEvent{
			SubmissionID: submissionID,
			TestID:       testID,
			TestTitle:    title,
			UserID:       userID,
			StartedAt:    startedAt,
			ExpiresAt:    expiresAt,
		},
	}
}

func NewAttemptAutosavedEvent(submissionID int64, testID uint, userID string, answerCount int, msUntilExpiry int64) *SubmissionEvent {
	return &SubmissionEvent{
		ID:        watermill.NewUUID(),
		Type:      EventAttemptAutosaved,
		Timestamp: time.Now(),
		Source:    "listening-service",
		Version:   "1.0",
		Data: AttemptAutosavedEvent{
			SubmissionID:  submissionID,
			TestID:        testID,
			UserID:        userID,
			AnswerCount:   answerCount,
			SavedAt:       time.Now(),
			MsUntilExpiry: msUntilExpiry,
		},
	}
}

func NewSubmissionCompletedEvent(submissionID int64, testID uint, title, userID string, totalQuestions, correct int, percentage, band float64, autoSubmitted bool) *SubmissionEvent {
	return &SubmissionEvent{
		ID:        watermill.NewUUID(),
		Type:      EventSubmissionCompleted,
		Timestamp: time.Now(),
		Source:    "listening-service",
		Version:   "1.0",
		Data: SubmissionCompletedEvent{
			SubmissionID:   submissionID,
			TestID:         testID,
			TestTitle:      title,
			UserID:         userID,
			SubmittedAt:    time.Now(),
			TotalQuestions: totalQuestions,
			Correct:        correct,
			Percentage:     percentage,
			Band:           band,
			AutoSubmitted:  autoSubmitted,
		},
	}
}
