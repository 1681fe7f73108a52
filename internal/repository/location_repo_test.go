package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findthemapp/findthem-core/internal/db"
	svcErr "github.com/findthemapp/findthem-core/internal/errors"
	"github.com/findthemapp/findthem-core/internal/repository"
)

func TestLocationRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewLocationRepository(gdb)

	sender := seedUser(t, gdb, "sender", false, nil)
	receiver := seedUser(t, gdb, "receiver", false, nil)

	req, err := repo.CreateRequest(ctx, sender.ID, receiver.ID)
	require.NoError(t, err)
	assert.Equal(t, db.RequestPending, req.Status)

	// second request for the same pair is rejected
	_, err = repo.CreateRequest(ctx, sender.ID, receiver.ID)
	assert.True(t, svcErr.IsDuplicate(err))

	// the reverse direction is its own request
	_, err = repo.CreateRequest(ctx, receiver.ID, sender.ID)
	assert.NoError(t, err)

	require.NoError(t, repo.UpdateStatus(ctx, req.ID, db.RequestAccepted))

	got, err := repo.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, db.RequestAccepted, got.Status)
	require.NotNil(t, got.Sender)
	require.NotNil(t, got.Receiver)
	assert.Equal(t, "sender", got.Sender.Username)
	assert.Equal(t, "receiver", got.Receiver.Username)
}
