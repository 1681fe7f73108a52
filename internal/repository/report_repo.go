package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/findthemapp/findthem-core/internal/db"
	svcErr "github.com/findthemapp/findthem-core/internal/errors"
)

// ReportRepository provides data access for community reports.
type ReportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new repository bound to the given DB connection.
func NewReportRepository(database *gorm.DB) *ReportRepository {
	return &ReportRepository{db: database}
}

// Create inserts a new report.
func (r *ReportRepository) Create(ctx context.Context, report *db.Report) error {
	return svcErr.Map(r.db.WithContext(ctx).Create(report).Error)
}

// GetByID returns a report with its case preloaded.
func (r *ReportRepository) GetByID(ctx context.Context, id uint64) (*db.Report, error) {
	var report db.Report
	err := r.db.WithContext(ctx).Preload("Case").First(&report, id).Error
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &report, nil
}

// UpdateStatus moves a report to a new verification status.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id uint64, status db.ReportStatus) error {
	res := r.db.WithContext(ctx).Model(&db.Report{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return svcErr.Map(res.Error)
	}
	if res.RowsAffected == 0 {
		return svcErr.NotFoundf("report %d", id)
	}
	return nil
}

// ListForCase returns a case's reports, newest first.
func (r *ReportRepository) ListForCase(ctx context.Context, caseID uint64) ([]db.Report, error) {
	var reports []db.Report
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("submitted_at DESC, id DESC").
		Find(&reports).Error
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return reports, nil
}
