package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/findthemapp/findthem-core/internal/db"
	svcErr "github.com/findthemapp/findthem-core/internal/errors"
)

// CaseRepository provides data access for missing-person cases and their
// audit updates.
type CaseRepository struct {
	db *gorm.DB
}

// NewCaseRepository creates a new repository bound to the given DB connection.
func NewCaseRepository(database *gorm.DB) *CaseRepository {
	return &CaseRepository{db: database}
}

// Create inserts a new case.
func (r *CaseRepository) Create(ctx context.Context, c *db.Case) error {
	return svcErr.Map(r.db.WithContext(ctx).Create(c).Error)
}

// GetByID returns a case by id, ErrNotFound if it does not exist.
func (r *CaseRepository) GetByID(ctx context.Context, id uint64) (*db.Case, error) {
	var c db.Case
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, svcErr.Map(err)
	}
	return &c, nil
}

// ListComparable returns every other case eligible for a matching sweep
// against the given case: same gender, a photo present, not the case itself.
func (r *CaseRepository) ListComparable(ctx context.Context, excludeID uint64, gender string) ([]db.Case, error) {
	var cases []db.Case
	err := r.db.WithContext(ctx).
		Where("id <> ? AND gender = ? AND photo_key <> ''", excludeID, gender).
		Find(&cases).Error
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return cases, nil
}

// UpdateStatus sets the missing/found/under_investigation status of a case.
func (r *CaseRepository) UpdateStatus(ctx context.Context, id uint64, status db.CaseStatus) error {
	res := r.db.WithContext(ctx).Model(&db.Case{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return svcErr.Map(res.Error)
	}
	if res.RowsAffected == 0 {
		return svcErr.NotFoundf("case %d", id)
	}
	return nil
}

// UpdateSubmissionStatus sets the review lifecycle state of a case.
func (r *CaseRepository) UpdateSubmissionStatus(ctx context.Context, id uint64, status db.SubmissionStatus) error {
	res := r.db.WithContext(ctx).Model(&db.Case{}).Where("id = ?", id).Update("submission_status", status)
	if res.Error != nil {
		return svcErr.Map(res.Error)
	}
	if res.RowsAffected == 0 {
		return svcErr.NotFoundf("case %d", id)
	}
	return nil
}

// AddUpdate appends an immutable audit message to a case.
func (r *CaseRepository) AddUpdate(ctx context.Context, caseID uint64, message string) (*db.CaseUpdate, error) {
	update := db.CaseUpdate{CaseID: caseID, Message: message}
	if err := r.db.WithContext(ctx).Create(&update).Error; err != nil {
		return nil, svcErr.Map(err)
	}
	return &update, nil
}

// ListUpdates returns a case's updates, newest first.
func (r *CaseRepository) ListUpdates(ctx context.Context, caseID uint64) ([]db.CaseUpdate, error) {
	var updates []db.CaseUpdate
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at DESC, id DESC").
		Find(&updates).Error
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return updates, nil
}
