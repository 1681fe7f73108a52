// Package matching runs the similarity sweep for newly visible cases and
// hosts the staff review workflow for the resulting candidates.
package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/findthemapp/findthem-core/internal/db"
	"github.com/findthemapp/findthem-core/internal/facematch"
	"github.com/findthemapp/findthem-core/internal/photostore"
	"github.com/findthemapp/findthem-core/internal/repository"
)

// Sweeper compares a case photo against every comparable case and records
// candidates at or above the minimum score.
type Sweeper struct {
	cases    *repository.CaseRepository
	matches  *repository.MatchRepository
	photos   photostore.Store
	matcher  *facematch.Matcher
	minScore float64
	log      *slog.Logger
}

// NewSweeper builds a Sweeper. minScore is the creation threshold; records
// below it are never created.
func NewSweeper(
	cases *repository.CaseRepository,
	matches *repository.MatchRepository,
	photos photostore.Store,
	matcher *facematch.Matcher,
	minScore float64,
	log *slog.Logger,
) *Sweeper {
	return &Sweeper{
		cases:    cases,
		matches:  matches,
		photos:   photos,
		matcher:  matcher,
		minScore: minScore,
		log:      log,
	}
}

// Run sweeps the given case against all comparable cases.
//
// Behavior:
//   - Candidates are the other cases with a photo and the same gender.
//   - A single candidate failing (photo missing, unreadable, no face) is
//     logged and skipped; the sweep continues.
//   - A MatchCandidate is created when score >= minScore and the ordered
//     (original, candidate) pair is new. An existing pair is a quiet no-op.
//   - Newly created matches are returned sorted by descending score. Order
//     matters only for human-readable reporting.
func (s *Sweeper) Run(ctx context.Context, c *db.Case) ([]db.MatchCandidate, error) {
	if c.PhotoKey == "" {
		return nil, fmt.Errorf("case %d has no photo", c.ID)
	}

	reference, err := s.photos.Resolve(ctx, c.PhotoKey)
	if err != nil {
		return nil, fmt.Errorf("resolve case %d photo: %w", c.ID, err)
	}

	candidates, err := s.cases.ListComparable(ctx, c.ID, c.Gender)
	if err != nil {
		return nil, fmt.Errorf("list comparable cases: %w", err)
	}
	s.log.Info("matching sweep started", "case_id", c.ID, "candidates", len(candidates))

	var created []db.MatchCandidate
	for i := range candidates {
		candidate := &candidates[i]

		photo, err := s.photos.Resolve(ctx, candidate.PhotoKey)
		if err != nil {
			s.log.Warn("candidate photo unavailable, skipping",
				"case_id", c.ID, "candidate_id", candidate.ID, "err", err)
			continue
		}

		result, err := s.matcher.Compare(ctx, photo, reference)
		if err != nil {
			s.log.Warn("comparison skipped",
				"case_id", c.ID, "candidate_id", candidate.ID, "err", err)
			continue
		}
		if result.Score < s.minScore {
			continue
		}

		distance := result.Distance
		match, err := s.matches.Create(ctx, c.ID, candidate.ID, result.Score, &distance)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateMatch) {
				s.log.Debug("match already recorded",
					"case_id", c.ID, "candidate_id", candidate.ID)
				continue
			}
			s.log.Error("match create failed",
				"case_id", c.ID, "candidate_id", candidate.ID, "err", err)
			continue
		}
		created = append(created, *match)
	}

	sort.Slice(created, func(i, j int) bool { return created[i].Score > created[j].Score })

	s.log.Info("matching sweep finished", "case_id", c.ID, "matches", len(created))
	return created, nil
}
