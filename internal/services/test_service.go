package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leonthanh/listening-service/internal/models"
	"github.com/leonthanh/listening-service/internal/numbering"
	"github.com/leonthanh/listening-service/internal/repositories"
	"github.com/leonthanh/listening-service/internal/validator"
	"gorm.io/gorm"
)

type testService struct {
	tests     repositories.TestRepository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewTestService(tests repositories.TestRepository, logger *slog.Logger, v *validator.Validator) TestService {
	return &testService{
		tests:     tests,
		logger:    logger,
		validator: v,
	}
}

func (s *testService) Create(ctx context.Context, req *CreateTestRequest) (*models.ListeningTest, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	test := &models.ListeningTest{
		Title:            req.Title,
		Duration:         req.Duration,
		PartInstructions: req.PartInstructions,
		Questions:        req.Questions,
		PartAudioURLs:    req.PartAudioURLs,
		CreatedBy:        req.CreatedBy,
	}
	if err := s.validator.Test().ValidateTest(test); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	s.warnOnNumberOverlap(test)

	if err := s.tests.Create(ctx, test); err != nil {
		return nil, fmt.Errorf("failed to create test: %w", err)
	}

	s.logger.Info("Created listening test", "test_id", test.ID, "title", test.Title)
	return test, nil
}

func (s *testService) Get(ctx context.Context, id uint) (*TestDetail, error) {
	test, err := s.tests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	parsed, err := test.Parse()
	if err != nil {
		s.logger.Error("Stored test failed to parse", "test_id", id, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrTestNotParseable, err)
	}

	slots := make([][]numbering.Slot, len(parsed.Parts))
	for pi := range parsed.Parts {
		slots[pi] = numbering.BuildSlots(parsed.Parts, parsed.Records, pi)
	}

	return &TestDetail{
		Test:           test,
		TotalQuestions: numbering.TotalQuestions(parsed.Parts, parsed.Records),
		Slots:          slots,
	}, nil
}

func (s *testService) Update(ctx context.Context, id uint, req *UpdateTestRequest) (*models.ListeningTest, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	test, err := s.tests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	if req.Title != nil {
		test.Title = *req.Title
	}
	if req.Duration != nil {
		test.Duration = *req.Duration
	}
	if req.PartInstructions != nil {
		test.PartInstructions = *req.PartInstructions
	}
	if req.Questions != nil {
		test.Questions = *req.Questions
	}
	if req.PartAudioURLs != nil {
		test.PartAudioURLs = *req.PartAudioURLs
	}

	if err := s.validator.Test().ValidateTest(test); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	s.warnOnNumberOverlap(test)

	if err := s.tests.Update(ctx, test); err != nil {
		return nil, fmt.Errorf("failed to update test: %w", err)
	}

	s.logger.Info("Updated listening test", "test_id", test.ID)
	return test, nil
}

func (s *testService) Delete(ctx context.Context, id uint) error {
	if _, err := s.tests.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTestNotFound
		}
		return fmt.Errorf("failed to get test: %w", err)
	}
	if err := s.tests.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete test: %w", err)
	}
	s.logger.Info("Deleted listening test", "test_id", id)
	return nil
}

// warnOnNumberOverlap flags explicit startingQuestionNumber overrides that
// collide with the running count. Overlapping numbering is accepted as authored
// and never auto-corrected; the warning is for the editor operator.
func (s *testService) warnOnNumberOverlap(test *models.ListeningTest) {
	parsed, err := test.Parse()
	if err != nil {
		return
	}
	seen := make(map[int]bool)
	for _, slot := range numbering.BuildAllSlots(parsed.Parts, parsed.Records) {
		width := slot.Slots
		if width < 1 {
			width = 1
		}
		for n := slot.Number; n < slot.Number+width; n++ {
			if seen[n] {
				s.logger.Warn("Question number overlap in test structure",
					"test_id", test.ID, "title", test.Title, "number", n)
				return
			}
			seen[n] = true
		}
	}
}

func (s *testService) List(ctx context.Context, filters repositories.TestFilters) ([]*models.ListeningTest, int64, error) {
	tests, total, err := s.tests.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tests: %w", err)
	}
	return tests, total, nil
}
