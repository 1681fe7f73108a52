package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcErr "github.com/findthemapp/findthem-core/internal/errors"
	"github.com/findthemapp/findthem-core/internal/repository"
)

func TestUserGetByID(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewUserRepository(gdb)

	u := seedUser(t, gdb, "user1", false, nil)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "user1", got.Username)

	_, err = repo.GetByID(ctx, 9999)
	assert.True(t, svcErr.IsNotFound(err))
}

func TestUserStaffSplit(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewUserRepository(gdb)

	seedUser(t, gdb, "admin", true, nil)
	seedUser(t, gdb, "user1", false, nil)
	seedUser(t, gdb, "user2", false, nil)

	staff, err := repo.ListStaff(ctx)
	require.NoError(t, err)
	assert.Len(t, staff, 1)
	assert.Equal(t, "admin", staff[0].Username)

	regular, err := repo.ListNonStaff(ctx)
	require.NoError(t, err)
	assert.Len(t, regular, 2)
}

func TestUserDeviceTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewUserRepository(gdb)

	u1 := seedUser(t, gdb, "user1", false, strPtr("tok-1"))
	u2 := seedUser(t, gdb, "user2", false, strPtr("tok-2"))
	u3 := seedUser(t, gdb, "user3", false, strPtr("tok-3"))

	require.NoError(t, repo.SetDeviceToken(ctx, u1.ID, "tok-1b"))
	got, err := repo.GetByID(ctx, u1.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DeviceToken)
	assert.Equal(t, "tok-1b", *got.DeviceToken)

	assert.True(t, svcErr.IsNotFound(repo.SetDeviceToken(ctx, 9999, "tok")))

	// batched clear nulls only the listed users
	require.NoError(t, repo.ClearDeviceTokens(ctx, []uint64{u1.ID, u2.ID}))

	for _, tc := range []struct {
		id       uint64
		hasToken bool
	}{
		{u1.ID, false},
		{u2.ID, false},
		{u3.ID, true},
	} {
		got, err := repo.GetByID(ctx, tc.id)
		require.NoError(t, err)
		if tc.hasToken {
			assert.NotNil(t, got.DeviceToken)
		} else {
			assert.Nil(t, got.DeviceToken)
		}
	}

	// empty batch is a no-op
	assert.NoError(t, repo.ClearDeviceTokens(ctx, nil))
}
