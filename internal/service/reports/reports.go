// Package reports holds the mutation entry points for community tips.
package reports

import (
	"context"

	"github.com/findthemapp/findthem-core/internal/app"
	"github.com/findthemapp/findthem-core/internal/db"
	"github.com/findthemapp/findthem-core/internal/events"
	"github.com/findthemapp/findthem-core/internal/repository"
)

// Service implements report mutations.
type Service struct {
	appCtx     *app.AppContext
	reportRepo *repository.ReportRepository
	caseRepo   *repository.CaseRepository
}

// NewService creates a report service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:     appCtx,
		reportRepo: repository.NewReportRepository(appCtx.DB),
		caseRepo:   repository.NewCaseRepository(appCtx.DB),
	}
}

// Create files a tip against a case and publishes ReportCreated. A nil
// userID records an anonymous tip.
func (s *Service) Create(ctx context.Context, caseID uint64, userID *uint64, note string) (*db.Report, error) {
	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	report := &db.Report{
		CaseID: caseID,
		UserID: userID,
		Note:   note,
		Status: db.ReportNew,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}
	s.appCtx.Logger.Info("report created",
		"report_id", report.ID, "case_id", caseID, "anonymous", userID == nil)

	s.appCtx.Bus.Publish(ctx, events.ReportCreated{Report: *report, Case: *c})
	return report, nil
}

// ChangeStatus moves a report through verification and publishes
// ReportStatusChanged. A no-op transition publishes nothing.
func (s *Service) ChangeStatus(ctx context.Context, reportID uint64, status db.ReportStatus) (*db.Report, error) {
	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.Status == status {
		return report, nil
	}

	old := report.Status
	if err := s.reportRepo.UpdateStatus(ctx, reportID, status); err != nil {
		return nil, err
	}
	report.Status = status
	s.appCtx.Logger.Info("report status changed",
		"report_id", reportID, "old", old, "new", status)

	c := db.Case{}
	if report.Case != nil {
		c = *report.Case
	}
	s.appCtx.Bus.Publish(ctx, events.ReportStatusChanged{
		Report: *report, Case: c, Old: old, New: status,
	})
	return report, nil
}
