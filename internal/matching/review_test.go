package matching_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findthemapp/findthem-core/internal/db"
	"github.com/findthemapp/findthem-core/internal/matching"
	"github.com/findthemapp/findthem-core/internal/repository"
)

func TestReviewDecisions(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	matchRepo := repository.NewMatchRepository(gdb)
	review := matching.NewReviewService(matchRepo, silentLogger())

	original := seedCase(t, gdb, "Alice", "female", "p1")
	candidate := seedCase(t, gdb, "Anna", "female", "p2")
	other := seedCase(t, gdb, "Amy", "female", "p3")

	m1, err := matchRepo.Create(ctx, original.ID, candidate.ID, 95.0, nil)
	require.NoError(t, err)
	m2, err := matchRepo.Create(ctx, original.ID, other.ID, 50.0, nil)
	require.NoError(t, err)

	confirmed, err := review.Confirm(ctx, m1.ID)
	require.NoError(t, err)
	assert.Equal(t, db.MatchConfirmed, confirmed.Status)

	// confirming closes the original case
	var c db.Case
	require.NoError(t, gdb.First(&c, original.ID).Error)
	assert.Equal(t, db.CaseFound, c.Status)

	rejected, err := review.Reject(ctx, m2.ID)
	require.NoError(t, err)
	assert.Equal(t, db.MatchRejected, rejected.Status)

	reopened, err := review.Reopen(ctx, m2.ID)
	require.NoError(t, err)
	assert.Equal(t, db.MatchPending, reopened.Status)

	flagged, err := review.MarkUnderReview(ctx, m2.ID)
	require.NoError(t, err)
	assert.Equal(t, db.MatchUnderReview, flagged.Status)

	stats, err := review.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Confirmed)
	assert.Equal(t, int64(1), stats.UnderReview)

	require.NoError(t, review.Delete(ctx, m2.ID))
	matches, _, err := review.List(ctx, repository.MatchFilter{}, nil, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
