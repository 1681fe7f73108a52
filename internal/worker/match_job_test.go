package worker_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/findthemapp/findthem-core/internal/db"
	"github.com/findthemapp/findthem-core/internal/events"
	"github.com/findthemapp/findthem-core/internal/facematch"
	"github.com/findthemapp/findthem-core/internal/matching"
	"github.com/findthemapp/findthem-core/internal/photostore"
	"github.com/findthemapp/findthem-core/internal/repository"
	"github.com/findthemapp/findthem-core/internal/worker"
)

type embedderFunc func(ctx context.Context, img []byte) (facematch.Embedding, error)

func (f embedderFunc) Embed(ctx context.Context, img []byte) (facematch.Embedding, error) {
	return f(ctx, img)
}

func testImage(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: shade, G: shade, B: shade, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type runnerFixture struct {
	gdb    *gorm.DB
	pool   *worker.Pool
	runner *worker.Runner
	found  chan events.MatchesFound
}

func setupRunner(t *testing.T, retries int, delay time.Duration) runnerFixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	photos := photostore.NewMemoryStore()
	ctx := context.Background()
	imgOriginal := testImage(t, 10)
	imgCandidate := testImage(t, 200)
	require.NoError(t, photos.Put(ctx, "p-original", imgOriginal, "image/png"))
	require.NoError(t, photos.Put(ctx, "p-candidate", imgCandidate, "image/png"))

	embeddings := map[string]facematch.Embedding{
		string(imgOriginal):  {0, 0},
		string(imgCandidate): {0.38, 0},
	}
	matcher := facematch.New(embedderFunc(func(_ context.Context, img []byte) (facematch.Embedding, error) {
		return embeddings[string(img)], nil
	}))

	log := silentLogger()
	caseRepo := repository.NewCaseRepository(gdb)
	sweeper := matching.NewSweeper(caseRepo, repository.NewMatchRepository(gdb), photos, matcher, 40.0, log)

	bus := events.NewBus(log)
	found := make(chan events.MatchesFound, 1)
	bus.Subscribe(func(_ context.Context, e events.Event) error {
		if ev, ok := e.(events.MatchesFound); ok {
			found <- ev
		}
		return nil
	})

	pool := worker.NewPool(1, 4, log)
	runner := worker.NewRunner(pool, caseRepo, sweeper, bus, retries, delay, log)
	return runnerFixture{gdb: gdb, pool: pool, runner: runner, found: found}
}

func seedSweepCase(t *testing.T, gdb *gorm.DB, firstName, photoKey string) db.Case {
	t.Helper()
	c := db.Case{
		FirstName:        firstName,
		LastName:         "Doe",
		Gender:           "female",
		PhotoKey:         photoKey,
		Status:           db.CaseMissing,
		SubmissionStatus: db.SubmissionActive,
	}
	require.NoError(t, gdb.Create(&c).Error)
	return c
}

func TestRunnerSweepsVisibleCase(t *testing.T) {
	f := setupRunner(t, 3, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	f.pool.Start(ctx)

	seedSweepCase(t, f.gdb, "Anna", "p-candidate")
	original := seedSweepCase(t, f.gdb, "Alice", "p-original")

	assert.True(t, f.runner.ScheduleSweep(original.ID))

	select {
	case ev := <-f.found:
		assert.Equal(t, original.ID, ev.Case.ID)
		require.Len(t, ev.Matches, 1)
		assert.Equal(t, 62.0, ev.Matches[0].Score)
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not announce matches in time")
	}

	cancel()
	f.pool.Wait()
}

func TestRunnerRetriesUntilCaseVisible(t *testing.T) {
	f := setupRunner(t, 5, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	f.pool.Start(ctx)

	candidate := seedSweepCase(t, f.gdb, "Anna", "p-candidate")

	// schedule before the case row exists; the job must retry its lookup
	futureID := candidate.ID + 1
	assert.True(t, f.runner.ScheduleSweep(futureID))

	time.Sleep(30 * time.Millisecond)
	original := seedSweepCase(t, f.gdb, "Alice", "p-original")
	require.Equal(t, futureID, original.ID)

	select {
	case ev := <-f.found:
		assert.Equal(t, original.ID, ev.Case.ID)
		require.Len(t, ev.Matches, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not recover after the case became visible")
	}

	cancel()
	f.pool.Wait()
}

func TestRunnerAbandonsInvisibleCase(t *testing.T) {
	f := setupRunner(t, 1, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	f.pool.Start(ctx)

	assert.True(t, f.runner.ScheduleSweep(999))

	// retries exhaust, nothing is swept or announced
	select {
	case <-f.found:
		t.Fatal("no matches expected for a case that never appeared")
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	f.pool.Wait()

	var total int64
	require.NoError(t, f.gdb.Model(&db.MatchCandidate{}).Count(&total).Error)
	assert.Equal(t, int64(0), total)
}
