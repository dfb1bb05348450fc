package services

import (
	"context"
	"time"

	"github.com/leonthanh/listening-service/internal/models"
	"github.com/leonthanh/listening-service/internal/numbering"
	"github.com/leonthanh/listening-service/internal/repositories"
	"github.com/leonthanh/listening-service/internal/session"
)

// ===== REQUEST / RESPONSE TYPES =====

type CreateTestRequest struct {
	Title            string `json:"title" validate:"required,min=1,max=200"`
	Duration         int    `json:"duration" validate:"required,min=1,max=300"`
	PartInstructions string `json:"partInstructions"`
	Questions        string `json:"questions"`
	PartAudioURLs    string `json:"partAudioUrls"`
	CreatedBy        string `json:"-"`
}

type UpdateTestRequest struct {
	Title            *string `json:"title" validate:"omitempty,min=1,max=200"`
	Duration         *int    `json:"duration" validate:"omitempty,min=1,max=300"`
	PartInstructions *string `json:"partInstructions"`
	Questions        *string `json:"questions"`
	PartAudioURLs    *string `json:"partAudioUrls"`
}

// TestDetail is the render payload for taking a test: the stored document
// plus the numbering derived from it.
type TestDetail struct {
	Test           *models.ListeningTest `json:"test"`
	TotalQuestions int                   `json:"total_questions"`
	Slots          [][]numbering.Slot    `json:"slots"` // per part
}

type AutosaveRequest struct {
	TestID       uint          `json:"test_id" validate:"required"`
	SubmissionID int64         `json:"submission_id"`
	UserID       string        `json:"-"`
	StudentName  string        `json:"student_name"`
	StudentID    string        `json:"student_id"`
	Answers      session.State `json:"answers"`
	ExpiresAt    int64         `json:"expires_at"`
}

type AutosaveResponse struct {
	SubmissionID int64     `json:"submission_id"`
	SavedAt      time.Time `json:"saved_at"`
}

type SubmitRequest struct {
	TestID        uint          `json:"test_id" validate:"required"`
	SubmissionID  int64         `json:"submission_id"`
	UserID        string        `json:"-"`
	StudentName   string        `json:"student_name"`
	StudentID     string        `json:"student_id"`
	Answers       session.State `json:"answers"`
	AutoSubmitted bool          `json:"auto_submitted"`
}

// SubmissionDetail pairs a submission with its test so a review screen can
// renumber and redisplay the questions.
type SubmissionDetail struct {
	Submission *models.ListeningSubmission `json:"submission"`
	Test       *models.ListeningTest       `json:"test"`
}

type CleanupResult struct {
	Deleted int64 `json:"deleted"`
}

// ===== SERVICE INTERFACES =====

type TestService interface {
	Create(ctx context.Context, req *CreateTestRequest) (*models.ListeningTest, error)
	Get(ctx context.Context, id uint) (*TestDetail, error)
	Update(ctx context.Context, id uint, req *UpdateTestRequest) (*models.ListeningTest, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters repositories.TestFilters) ([]*models.ListeningTest, int64, error)
}

type AttemptService interface {
	Autosave(ctx context.Context, req *AutosaveRequest) (*AutosaveResponse, error)
	Active(ctx context.Context, testID uint, submissionID int64, userID string) (*models.ListeningSubmission, error)
	Submit(ctx context.Context, req *SubmitRequest) (*models.ListeningSubmission, error)
	GetSubmission(ctx context.Context, id uint) (*SubmissionDetail, error)
	Cleanup(ctx context.Context, testID uint, userID string) (*CleanupResult, error)
	ListSubmissions(ctx context.Context, filters repositories.SubmissionFilters) ([]*models.ListeningSubmission, int64, error)
}

type ExportService interface {
	ExportTestResults(ctx context.Context, testID uint) ([]byte, error)
}
