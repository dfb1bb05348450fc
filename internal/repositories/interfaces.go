package repositories

import (
	"context"
	"time"

	"github.com/leonthanh/listening-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type TestFilters struct {
	Title     string     `json:"title"`
	CreatedBy string     `json:"created_by"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`    // "created_at", "title"
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

type SubmissionFilters struct {
	TestID    *uint      `json:"test_id"`
	UserID    string     `json:"user_id"`
	Finished  *bool      `json:"finished"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`
	SortOrder string     `json:"sort_order"`
}

// ===== REPOSITORY INTERFACES =====

type TestRepository interface {
	Create(ctx context.Context, test *models.ListeningTest) error
	GetByID(ctx context.Context, id uint) (*models.ListeningTest, error)
	Update(ctx context.Context, test *models.ListeningTest) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters TestFilters) ([]*models.ListeningTest, int64, error)
}

type SubmissionRepository interface {
	Create(ctx context.Context, sub *models.ListeningSubmission) error
	GetByID(ctx context.Context, id uint) (*models.ListeningSubmission, error)
	Update(ctx context.Context, sub *models.ListeningSubmission) error

	// GetActive returns the newest unfinished submission for (testID, userID),
	// or nil when none exists.
	GetActive(ctx context.Context, testID uint, userID string) (*models.ListeningSubmission, error)

	// DeleteUnfinished removes leftover unfinished autosave rows for
	// (testID, userID) and returns how many were removed.
	DeleteUnfinished(ctx context.Context, testID uint, userID string) (int64, error)

	List(ctx context.Context, filters SubmissionFilters) ([]*models.ListeningSubmission, int64, error)
}
