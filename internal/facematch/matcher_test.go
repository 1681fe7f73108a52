package facematch_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findthemapp/findthem-core/internal/facematch"
)

// embedderFunc adapts a function to facematch.Embedder.
type embedderFunc func(ctx context.Context, img []byte) (facematch.Embedding, error)

func (f embedderFunc) Embed(ctx context.Context, img []byte) (facematch.Embedding, error) {
	return f(ctx, img)
}

// testImage encodes a tiny solid-color PNG. The shade keys the stub embedder
// so different "photos" get different embeddings.
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

// shadeEmbedder maps each test image to a fixed embedding by its content.
func shadeEmbedder(t *testing.T, byImage map[string]facematch.Embedding) facematch.Embedder {
	return embedderFunc(func(_ context.Context, img []byte) (facematch.Embedding, error) {
		emb, ok := byImage[string(img)]
		if !ok {
			t.Fatalf("embedder saw unexpected image (%d bytes)", len(img))
		}
		return emb, nil
	})
}

func TestCompareScoring(t *testing.T) {
	ctx := context.Background()
	imgA := testImage(t, 10)
	imgB := testImage(t, 200)

	// euclidean distance 0.38 → (1 - 0.38) * 100 = 62.0
	m := facematch.New(shadeEmbedder(t, map[string]facematch.Embedding{
		string(imgA): {0, 0},
		string(imgB): {0.38, 0},
	}))

	result, err := m.Compare(ctx, imgA, imgB)
	require.NoError(t, err)
	assert.Equal(t, 62.0, result.Score)
	assert.InDelta(t, 0.38, result.Distance, 1e-9)
}

func TestCompareIdenticalEmbeddings(t *testing.T) {
	ctx := context.Background()
	imgA := testImage(t, 10)
	imgB := testImage(t, 200)

	m := facematch.New(shadeEmbedder(t, map[string]facematch.Embedding{
		string(imgA): {0.5, 0.5},
		string(imgB): {0.5, 0.5},
	}))

	result, err := m.Compare(ctx, imgA, imgB)
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.Score)
}

func TestCompareScoreFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	imgA := testImage(t, 10)
	imgB := testImage(t, 200)

	// distance > 1 would go negative without the floor
	m := facematch.New(shadeEmbedder(t, map[string]facematch.Embedding{
		string(imgA): {0, 0},
		string(imgB): {3, 0},
	}))

	result, err := m.Compare(ctx, imgA, imgB)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Score)
}

func TestCompareUnreadableImage(t *testing.T) {
	ctx := context.Background()
	m := facematch.New(embedderFunc(func(context.Context, []byte) (facematch.Embedding, error) {
		t.Fatal("embedder must not be called for undecodable input")
		return nil, nil
	}))

	_, err := m.Compare(ctx, []byte("not an image"), testImage(t, 10))
	assert.ErrorIs(t, err, facematch.ErrUnreadableImage)

	_, err = m.Compare(ctx, testImage(t, 10), []byte("not an image"))
	assert.ErrorIs(t, err, facematch.ErrUnreadableImage)
}

func TestCompareNoFaceDetected(t *testing.T) {
	ctx := context.Background()
	m := facematch.New(embedderFunc(func(context.Context, []byte) (facematch.Embedding, error) {
		return nil, facematch.ErrNoFaceDetected
	}))

	_, err := m.Compare(ctx, testImage(t, 10), testImage(t, 200))
	assert.ErrorIs(t, err, facematch.ErrNoFaceDetected)
}

func TestDistanceDimensionMismatch(t *testing.T) {
	_, err := facematch.Distance(facematch.Embedding{1, 2}, facematch.Embedding{1, 2, 3})
	assert.ErrorIs(t, err, facematch.ErrEmbedding)

	_, err = facematch.Distance(nil, facematch.Embedding{1})
	assert.ErrorIs(t, err, facematch.ErrEmbedding)
}
