package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/findthemapp/findthem-core/internal/db"
	svcErr "github.com/findthemapp/findthem-core/internal/errors"
	"github.com/findthemapp/findthem-core/internal/utils/pagination"
)

// ErrDuplicateMatch is returned when a MatchCandidate already exists for the
// ordered (original, candidate) pair.
var ErrDuplicateMatch = errors.New("match already exists for this pair")

// MatchRepository provides data access for MatchCandidate records and owns
// the match state machine.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// FindExisting returns the match for the ordered pair, or nil when none exists.
func (r *MatchRepository) FindExisting(ctx context.Context, originalID, candidateID uint64) (*db.MatchCandidate, error) {
	var m db.MatchCandidate
	err := r.db.WithContext(ctx).
		Where("original_case_id = ? AND candidate_case_id = ?", originalID, candidateID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, svcErr.Map(err)
	}
	return &m, nil
}

// Create inserts a new pending match for the ordered pair.
//
// Behavior:
//   - Checks for an existing pair first (advisory, keeps the common path
//     quiet); the unique index on (original, candidate) is the actual
//     guarantee, and a conflicting insert also maps to ErrDuplicateMatch.
func (r *MatchRepository) Create(ctx context.Context, originalID, candidateID uint64, score float64, distance *float64) (*db.MatchCandidate, error) {
	existing, err := r.FindExisting(ctx, originalID, candidateID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateMatch
	}

	m := db.MatchCandidate{
		OriginalCaseID:  originalID,
		CandidateCaseID: candidateID,
		Score:           score,
		Distance:        distance,
		Status:          db.MatchPending,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(svcErr.Map(err), svcErr.ErrDuplicate) {
			return nil, ErrDuplicateMatch
		}
		return nil, svcErr.Map(err)
	}
	return &m, nil
}

// Transition moves a match to a new review status.
//
// Behavior:
//   - Any status may transition to any other status; staff are allowed to
//     correct earlier decisions, including reopening confirmed matches.
//   - Every transition stamps ReviewedAt.
//   - Transitioning to confirmed also marks the original case found, in the
//     same transaction as the status write.
func (r *MatchRepository) Transition(ctx context.Context, matchID uint64, newStatus db.MatchStatus) (*db.MatchCandidate, error) {
	var m db.MatchCandidate
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, matchID).Error; err != nil {
			return svcErr.Map(err)
		}

		now := time.Now().UTC()
		m.Status = newStatus
		m.ReviewedAt = &now
		if err := tx.Save(&m).Error; err != nil {
			return svcErr.Map(err)
		}

		if newStatus == db.MatchConfirmed {
			res := tx.Model(&db.Case{}).
				Where("id = ?", m.OriginalCaseID).
				Update("status", db.CaseFound)
			if res.Error != nil {
				return svcErr.Map(res.Error)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Delete removes a match permanently. Staff-only operation, used for cleanup
// of noise matches.
func (r *MatchRepository) Delete(ctx context.Context, matchID uint64) error {
	res := r.db.WithContext(ctx).Delete(&db.MatchCandidate{}, matchID)
	if res.Error != nil {
		return svcErr.Map(res.Error)
	}
	if res.RowsAffected == 0 {
		return svcErr.NotFoundf("match %d", matchID)
	}
	return nil
}

// MatchFilter narrows List results. Confidence bands: high >= 90,
// medium 46-89, low < 46.
type MatchFilter struct {
	Status     db.MatchStatus
	Confidence string
}

// List returns matches newest first with cursor-based pagination.
func (r *MatchRepository) List(
	ctx context.Context,
	filter MatchFilter,
	paginationToken *string,
	limit int,
) ([]db.MatchCandidate, *string, error) {
	var matches []db.MatchCandidate

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).Model(&db.MatchCandidate{}).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	switch filter.Confidence {
	case "high":
		query = query.Where("score >= 90")
	case "medium":
		query = query.Where("score >= 46 AND score < 90")
	case "low":
		query = query.Where("score < 46")
	}

	if cursor.RowID > 0 && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.RowID,
		)
	}

	if err := query.Find(&matches).Error; err != nil {
		return nil, nil, svcErr.Map(err)
	}

	var nextToken *string
	if len(matches) > limit {
		last := matches[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			RowID:       last.ID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		matches = matches[:limit]
	}

	return matches, nextToken, nil
}

// MatchStats summarizes the match table for the staff dashboard.
type MatchStats struct {
	Total                 int64
	Pending               int64
	Confirmed             int64
	Rejected              int64
	UnderReview           int64
	ScansToday            int64
	HighConfidencePending int64
}

// Stats counts matches by status plus today's scans and high-confidence
// pending reviews.
func (r *MatchRepository) Stats(ctx context.Context) (MatchStats, error) {
	var stats MatchStats
	q := r.db.WithContext(ctx).Model(&db.MatchCandidate{})

	if err := q.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return stats, svcErr.Map(err)
	}

	byStatus := map[db.MatchStatus]*int64{
		db.MatchPending:     &stats.Pending,
		db.MatchConfirmed:   &stats.Confirmed,
		db.MatchRejected:    &stats.Rejected,
		db.MatchUnderReview: &stats.UnderReview,
	}
	for status, dst := range byStatus {
		if err := q.Session(&gorm.Session{}).Where("status = ?", status).Count(dst).Error; err != nil {
			return stats, svcErr.Map(err)
		}
	}

	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)
	if err := q.Session(&gorm.Session{}).Where("created_at >= ?", startOfDay).Count(&stats.ScansToday).Error; err != nil {
		return stats, svcErr.Map(err)
	}

	if err := q.Session(&gorm.Session{}).
		Where("status = ? AND score >= 90", db.MatchPending).
		Count(&stats.HighConfidencePending).Error; err != nil {
		return stats, svcErr.Map(err)
	}

	return stats, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
