package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leonthanh/listening-service/internal/events"
	"github.com/leonthanh/listening-service/internal/models"
	"github.com/leonthanh/listening-service/internal/repositories"
	"github.com/leonthanh/listening-service/internal/session"
	"github.com/leonthanh/listening-service/internal/validator"
	"gorm.io/gorm"
)

type attemptService struct {
	submissions repositories.SubmissionRepository
	tests       repositories.TestRepository
	grading     GradingService
	snapshots   session.SnapshotStore
	publisher   events.EventPublisher
	logger      *slog.Logger
	validator   *validator.Validator
}

func NewAttemptService(
	submissions repositories.SubmissionRepository,
	tests repositories.TestRepository,
	grading GradingService,
	snapshots session.SnapshotStore,
	publisher events.EventPublisher,
	logger *slog.Logger,
	v *validator.Validator,
) AttemptService {
	return &attemptService{
		submissions: submissions,
		tests:       tests,
		grading:     grading,
		snapshots:   snapshots,
		publisher:   publisher,
		logger:      logger,
		validator:   v,
	}
}

// ===== AUTOSAVE =====

// Autosave upserts the unfinished submission row for (test, user). A row is
// only created once there is something worth keeping; a client with no
// answers and no existing submission gets ErrEmptyAutosave instead of an
// empty attempt record.
func (s *attemptService) Autosave(ctx context.Context, req *AutosaveRequest) (*AutosaveResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	userID := models.StorageUserID(req.UserID)

	sub, err := s.findAttempt(ctx, req.TestID, req.SubmissionID, userID)
	if err != nil {
		return nil, err
	}
	if sub != nil && sub.Finished {
		return nil, ErrAlreadySubmitted
	}

	answers, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}
	now := time.Now()

	if sub == nil {
		if len(req.Answers) == 0 {
			return nil, ErrEmptyAutosave
		}
		sub = &models.ListeningSubmission{
			TestID:      req.TestID,
			UserID:      userID,
			StudentName: req.StudentName,
			StudentID:   req.StudentID,
			Answers:     answers,
			ExpiresAt:   req.ExpiresAt,
			LastSavedAt: now,
		}
		if err := s.submissions.Create(ctx, sub); err != nil {
			return nil, fmt.Errorf("failed to create submission: %w", err)
		}
		s.logger.Info("Created autosave submission",
			"submission_id", sub.ID, "test_id", req.TestID, "user_id", userID)
		s.publish(ctx, events.NewAttemptStartedEvent(
			int64(sub.ID), req.TestID, "", userID, now, req.ExpiresAt))
	} else {
		sub.Answers = answers
		if req.ExpiresAt > 0 {
			sub.ExpiresAt = req.ExpiresAt
		}
		if req.StudentName != "" {
			sub.StudentName = req.StudentName
		}
		if req.StudentID != "" {
			sub.StudentID = req.StudentID
		}
		sub.LastSavedAt = now
		if err := s.submissions.Update(ctx, sub); err != nil {
			return nil, fmt.Errorf("failed to update submission: %w", err)
		}
		s.publish(ctx, events.NewAttemptAutosavedEvent(
			int64(sub.ID), req.TestID, userID, len(req.Answers), sub.ExpiresAt-now.UnixMilli()))
	}

	return &AutosaveResponse{SubmissionID: int64(sub.ID), SavedAt: now}, nil
}

// ===== RESUME =====

// Active returns the resumable unfinished submission for the caller, nil when
// none exists. A finished submission is never resumable.
func (s *attemptService) Active(ctx context.Context, testID uint, submissionID int64, userID string) (*models.ListeningSubmission, error) {
	userID = models.StorageUserID(userID)

	if submissionID > 0 {
		sub, err := s.submissions.GetByID(ctx, uint(submissionID))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to get submission: %w", err)
		}
		if sub.TestID != testID || sub.UserID != userID || sub.Finished {
			return nil, nil
		}
		return sub, nil
	}

	sub, err := s.submissions.GetActive(ctx, testID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active submission: %w", err)
	}
	return sub, nil
}

// ===== SUBMIT =====

// Submit grades and finalizes an attempt. The operation is terminal: a
// second submit against a finished row returns ErrAlreadySubmitted, and all
// leftover unfinished autosave rows plus the cached snapshot are removed.
func (s *attemptService) Submit(ctx context.Context, req *SubmitRequest) (*models.ListeningSubmission, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	userID := models.StorageUserID(req.UserID)

	test, err := s.tests.GetByID(ctx, req.TestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	parsed, err := test.Parse()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTestNotParseable, err)
	}

	sub, err := s.findAttempt(ctx, req.TestID, req.SubmissionID, userID)
	if err != nil {
		return nil, err
	}
	if sub != nil && sub.Finished {
		return nil, ErrAlreadySubmitted
	}

	grade := s.grading.Grade(parsed, req.Answers)
	answers, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}
	now := time.Now()

	if sub == nil {
		sub = &models.ListeningSubmission{
			TestID: req.TestID,
			UserID: userID,
		}
	}
	sub.StudentName = orKeep(req.StudentName, sub.StudentName)
	sub.StudentID = orKeep(req.StudentID, sub.StudentID)
	sub.Answers = answers
	sub.Finished = true
	sub.SubmittedAt = &now
	sub.LastSavedAt = now
	sub.TotalQuestions = grade.TotalQuestions
	sub.Correct = grade.Correct
	sub.Percentage = grade.Percentage
	sub.Band = grade.Band

	if sub.ID == 0 {
		err = s.submissions.Create(ctx, sub)
	} else {
		err = s.submissions.Update(ctx, sub)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}

	// Terminal cleanup: other unfinished rows and the cached snapshot must
	// not resurrect the attempt on the next load.
	if _, err := s.submissions.DeleteUnfinished(ctx, req.TestID, userID); err != nil {
		s.logger.Warn("failed to remove leftover autosave rows",
			"test_id", req.TestID, "user_id", userID, "error", err)
	}
	if err := s.snapshots.Delete(ctx, req.TestID, userID); err != nil {
		s.logger.Warn("failed to drop cached snapshot",
			"test_id", req.TestID, "user_id", userID, "error", err)
	}

	s.logger.Info("Submission graded",
		"submission_id", sub.ID,
		"test_id", req.TestID,
		"user_id", userID,
		"correct", grade.Correct,
		"total", grade.TotalQuestions,
		"band", grade.Band)

	s.publish(ctx, events.NewSubmissionCompletedEvent(
		int64(sub.ID), req.TestID, test.Title, userID,
		grade.TotalQuestions, grade.Correct, grade.Percentage, grade.Band,
		req.AutoSubmitted))

	return sub, nil
}

// ===== LOOKUP / CLEANUP =====

func (s *attemptService) GetSubmission(ctx context.Context, id uint) (*SubmissionDetail, error) {
	sub, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	test, err := s.tests.GetByID(ctx, sub.TestID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	return &SubmissionDetail{Submission: sub, Test: test}, nil
}

func (s *attemptService) Cleanup(ctx context.Context, testID uint, userID string) (*CleanupResult, error) {
	userID = models.StorageUserID(userID)

	deleted, err := s.submissions.DeleteUnfinished(ctx, testID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete unfinished submissions: %w", err)
	}
	if err := s.snapshots.Delete(ctx, testID, userID); err != nil {
		s.logger.Warn("failed to drop cached snapshot",
			"test_id", testID, "user_id", userID, "error", err)
	}

	s.logger.Info("Cleaned up unfinished attempts",
		"test_id", testID, "user_id", userID, "deleted", deleted)
	return &CleanupResult{Deleted: deleted}, nil
}

func (s *attemptService) ListSubmissions(ctx context.Context, filters repositories.SubmissionFilters) ([]*models.ListeningSubmission, int64, error) {
	subs, total, err := s.submissions.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, total, nil
}

// ===== HELPERS =====

// findAttempt resolves the submission row a save should target: the explicit
// id when the client has one, else the newest unfinished row for the user.
func (s *attemptService) findAttempt(ctx context.Context, testID uint, submissionID int64, userID string) (*models.ListeningSubmission, error) {
	if submissionID > 0 {
		sub, err := s.submissions.GetByID(ctx, uint(submissionID))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSubmissionNotFound
			}
			return nil, fmt.Errorf("failed to get submission: %w", err)
		}
		if sub.TestID != testID {
			return nil, ErrSubmissionNotFound
		}
		if sub.UserID != userID {
			return nil, ErrSubmissionForbidden
		}
		return sub, nil
	}
	sub, err := s.submissions.GetActive(ctx, testID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active submission: %w", err)
	}
	return sub, nil
}

func (s *attemptService) publish(ctx context.Context, event *events.SubmissionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSubmissionEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish submission event",
			"event_type", event.Type, "error", err)
	}
}

func orKeep(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
