package matching

import (
	"context"
	"log/slog"

	"github.com/findthemapp/findthem-core/internal/db"
	"github.com/findthemapp/findthem-core/internal/repository"
)

// ReviewService exposes the staff actions on match candidates. Transitions
// are deliberately unrestricted so staff can correct earlier decisions.
type ReviewService struct {
	matches *repository.MatchRepository
	log     *slog.Logger
}

// NewReviewService builds a ReviewService.
func NewReviewService(matches *repository.MatchRepository, log *slog.Logger) *ReviewService {
	return &ReviewService{matches: matches, log: log}
}

// Confirm accepts the match and marks the original case found.
func (s *ReviewService) Confirm(ctx context.Context, matchID uint64) (*db.MatchCandidate, error) {
	return s.transition(ctx, matchID, db.MatchConfirmed)
}

// Reject marks the match a false positive.
func (s *ReviewService) Reject(ctx context.Context, matchID uint64) (*db.MatchCandidate, error) {
	return s.transition(ctx, matchID, db.MatchRejected)
}

// MarkUnderReview holds the match for further investigation.
func (s *ReviewService) MarkUnderReview(ctx context.Context, matchID uint64) (*db.MatchCandidate, error) {
	return s.transition(ctx, matchID, db.MatchUnderReview)
}

// Reopen resets the match to pending. The original case's status is left
// untouched; resetting a confirmed match does not reopen the case.
func (s *ReviewService) Reopen(ctx context.Context, matchID uint64) (*db.MatchCandidate, error) {
	return s.transition(ctx, matchID, db.MatchPending)
}

func (s *ReviewService) transition(ctx context.Context, matchID uint64, status db.MatchStatus) (*db.MatchCandidate, error) {
	m, err := s.matches.Transition(ctx, matchID, status)
	if err != nil {
		return nil, err
	}
	s.log.Info("match reviewed", "match_id", matchID, "status", status, "score", m.Score)
	return m, nil
}

// Delete removes a match permanently.
func (s *ReviewService) Delete(ctx context.Context, matchID uint64) error {
	if err := s.matches.Delete(ctx, matchID); err != nil {
		return err
	}
	s.log.Info("match deleted", "match_id", matchID)
	return nil
}

// List passes through to the repository's filtered, paginated listing.
func (s *ReviewService) List(
	ctx context.Context,
	filter repository.MatchFilter,
	paginationToken *string,
	limit int,
) ([]db.MatchCandidate, *string, error) {
	return s.matches.List(ctx, filter, paginationToken, limit)
}

// Stats summarizes the match table for the dashboard.
func (s *ReviewService) Stats(ctx context.Context) (repository.MatchStats, error) {
	return s.matches.Stats(ctx)
}
