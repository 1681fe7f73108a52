// Package cases holds the mutation entry points for missing-person cases.
// Every committed mutation publishes its lifecycle event; the observer does
// the rest (audit updates, sweeps, notifications).
package cases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/findthemapp/findthem-core/internal/app"
	"github.com/findthemapp/findthem-core/internal/db"
	"github.com/findthemapp/findthem-core/internal/events"
	"github.com/findthemapp/findthem-core/internal/repository"
)

// Service implements case mutations on top of the repository and photo store.
type Service struct {
	appCtx   *app.AppContext
	caseRepo *repository.CaseRepository
}

// NewService creates a case service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		caseRepo: repository.NewCaseRepository(appCtx.DB),
	}
}

// CreateInput is the submission payload for a new case. Photo is the raw
// image bytes; empty means no photo and the case stays out of matching.
type CreateInput struct {
	FirstName        string
	LastName         string
	Age              uint
	Gender           string
	Description      string
	LastSeenDate     time.Time
	LastSeenLocation string
	Latitude         *float64
	Longitude        *float64
	ReporterID       *uint64
	Photo            []byte
	PhotoContentType string
}

// Create stores the photo (when present), commits the case row and publishes
// CaseCreated. The photo upload happens before the row commit so a created
// case never references a missing object.
func (s *Service) Create(ctx context.Context, in CreateInput) (*db.Case, error) {
	c := &db.Case{
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Age:              in.Age,
		Gender:           in.Gender,
		Description:      in.Description,
		LastSeenDate:     in.LastSeenDate,
		LastSeenLocation: in.LastSeenLocation,
		Latitude:         in.Latitude,
		Longitude:        in.Longitude,
		ReporterID:       in.ReporterID,
		Status:           db.CaseMissing,
		SubmissionStatus: db.SubmissionInProgress,
	}

	if len(in.Photo) > 0 {
		key := fmt.Sprintf("cases/%s", uuid.New().String())
		if err := s.appCtx.Photos.Put(ctx, key, in.Photo, in.PhotoContentType); err != nil {
			return nil, fmt.Errorf("store case photo: %w", err)
		}
		c.PhotoKey = key
	}

	if err := s.caseRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.appCtx.Logger.Info("case created",
		"case_id", c.ID, "name", c.FullName(), "has_photo", c.PhotoKey != "")

	s.appCtx.Bus.Publish(ctx, events.CaseCreated{Case: *c})
	return c, nil
}

// ChangeSubmissionStatus moves a case through its review lifecycle and
// publishes CaseStatusChanged. A no-op transition publishes nothing.
func (s *Service) ChangeSubmissionStatus(ctx context.Context, caseID uint64, status db.SubmissionStatus) (*db.Case, error) {
	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.SubmissionStatus == status {
		return c, nil
	}

	old := c.SubmissionStatus
	if err := s.caseRepo.UpdateSubmissionStatus(ctx, caseID, status); err != nil {
		return nil, err
	}
	c.SubmissionStatus = status
	s.appCtx.Logger.Info("case submission status changed",
		"case_id", caseID, "old", old, "new", status)

	s.appCtx.Bus.Publish(ctx, events.CaseStatusChanged{Case: *c, Old: old, New: status})
	return c, nil
}

// AddUpdate appends a manual audit update to a case and publishes
// CaseUpdateCreated, which notifies the reporter.
func (s *Service) AddUpdate(ctx context.Context, caseID uint64, message string) (*db.CaseUpdate, error) {
	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	update, err := s.caseRepo.AddUpdate(ctx, caseID, message)
	if err != nil {
		return nil, err
	}

	s.appCtx.Bus.Publish(ctx, events.CaseUpdateCreated{Case: *c, Update: *update})
	return update, nil
}
