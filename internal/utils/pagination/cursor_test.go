package pagination_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findthemapp/findthem-core/internal/utils/pagination"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := pagination.Encode(pagination.Cursor{RowID: 42, CreatedUnix: 1700000000000})
	require.NoError(t, err)

	c, err := pagination.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), c.RowID)
	assert.Equal(t, int64(1700000000000), c.CreatedUnix)
}

func TestDecodeEmptyTokenIsFirstPage(t *testing.T) {
	c, err := pagination.Decode("")
	require.NoError(t, err)
	assert.Equal(t, pagination.Cursor{}, c)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := pagination.Decode("not-base64!!")
	assert.Error(t, err)

	// valid base64 that is not a cursor
	_, err = pagination.Decode("bm90IGpzb24")
	assert.Error(t, err)
}
