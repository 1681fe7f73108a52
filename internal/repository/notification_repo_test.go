package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findthemapp/findthem-core/internal/db"
	"github.com/findthemapp/findthem-core/internal/repository"
)

func TestNotificationExistenceChecks(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewNotificationRepository(gdb)

	u := seedUser(t, gdb, "user1", false, nil)
	other := seedUser(t, gdb, "user2", false, nil)

	require.NoError(t, repo.Create(ctx, &db.Notification{
		UserID:     u.ID,
		Message:    "There's an update about your case; we're verifying it.",
		Type:       db.TypeCaseUpdate,
		TargetKind: db.TargetCase,
		TargetID:   7,
	}))

	// exact (user, target, type) hit
	exists, err := repo.ExistsForUserTarget(ctx, u.ID, db.TargetCase, 7, db.TypeCaseUpdate)
	require.NoError(t, err)
	assert.True(t, exists)

	// different user misses
	exists, err = repo.ExistsForUserTarget(ctx, other.ID, db.TargetCase, 7, db.TypeCaseUpdate)
	require.NoError(t, err)
	assert.False(t, exists)

	// different type misses
	exists, err = repo.ExistsForUserTarget(ctx, u.ID, db.TargetCase, 7, db.TypeMissingPerson)
	require.NoError(t, err)
	assert.False(t, exists)

	// target-wide check ignores the recipient
	exists, err = repo.ExistsForTarget(ctx, db.TargetCase, 7, db.TypeCaseUpdate)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsForTarget(ctx, db.TargetCase, 8, db.TypeCaseUpdate)
	require.NoError(t, err)
	assert.False(t, exists)

	// message substring narrows the target check
	exists, err = repo.ExistsWithMessage(ctx, u.ID, db.TargetCase, 7, db.TypeCaseUpdate,
		"There's an update about your case")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsWithMessage(ctx, u.ID, db.TargetCase, 7, db.TypeCaseUpdate,
		"has been closed")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNotificationListAndUnread(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewNotificationRepository(gdb)

	u := seedUser(t, gdb, "user1", false, nil)

	for i, msg := range []string{"first", "second", "third"} {
		n := db.Notification{UserID: u.ID, Message: msg, Type: db.TypeSystem}
		if i == 0 {
			n.Read = true
		}
		require.NoError(t, repo.Create(ctx, &n))
	}

	list, err := repo.ListForUser(ctx, u.ID, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "third", list[0].Message)

	unread, err := repo.CountUnread(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)
}
