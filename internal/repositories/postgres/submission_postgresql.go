package postgres

import (
	"context"
	"errors"

	"github.com/leonthanh/listening-service/internal/models"
	"github.com/leonthanh/listening-service/internal/repositories"
	"gorm.io/gorm"
)

type SubmissionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (s SubmissionPostgreSQL) Create(ctx context.Context, sub *models.ListeningSubmission) error {
	return s.db.WithContext(ctx).Create(sub).Error
}

func (s SubmissionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ListeningSubmission, error) {
	var sub models.ListeningSubmission
	if err := s.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s SubmissionPostgreSQL) Update(ctx context.Context, sub *models.ListeningSubmission) error {
	return s.db.WithContext(ctx).Save(sub).Error
}

func (s SubmissionPostgreSQL) GetActive(ctx context.Context, testID uint, userID string) (*models.ListeningSubmission, error) {
	var sub models.ListeningSubmission
	if err := s.db.WithContext(ctx).
		Where("test_id = ? AND user_id = ? AND finished = ?", testID, userID, false).
		Order("last_saved_at DESC").
		First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s SubmissionPostgreSQL) DeleteUnfinished(ctx context.Context, testID uint, userID string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("test_id = ? AND user_id = ? AND finished = ?", testID, userID, false).
		Delete(&models.ListeningSubmission{})
	return result.RowsAffected, result.Error
}

func (s SubmissionPostgreSQL) List(ctx context.Context, filters repositories.SubmissionFilters) ([]*models.ListeningSubmission, int64, error) {
	var subs []*models.ListeningSubmission
	var total int64

	query := s.db.WithContext(ctx).Model(&models.ListeningSubmission{})
	query = s.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = s.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Preload("Test").Find(&subs).Error; err != nil {
		return nil, 0, err
	}

	return subs, total, nil
}

func (s SubmissionPostgreSQL) applyFilters(query *gorm.DB, filters repositories.SubmissionFilters) *gorm.DB {
	if filters.TestID != nil {
		query = query.Where("test_id = ?", *filters.TestID)
	}
	if filters.UserID != "" {
		query = query.Where("user_id = ?", filters.UserID)
	}
	if filters.Finished != nil {
		query = query.Where("finished = ?", *filters.Finished)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}
