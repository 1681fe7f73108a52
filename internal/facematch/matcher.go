// Package facematch scores how likely two case photos show the same person.
package facematch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	_ "image/jpeg"
	_ "image/png"
)

// Per-pair failure taxonomy. All three are recoverable: the caller logs the
// pair and moves on to the next candidate.
var (
	// ErrUnreadableImage means the photo bytes could not be decoded.
	ErrUnreadableImage = errors.New("image could not be decoded")
	// ErrNoFaceDetected means the embedding service found zero faces.
	ErrNoFaceDetected = errors.New("no face detected in image")
	// ErrEmbedding covers embedding-service failures and malformed vectors.
	ErrEmbedding = errors.New("face embedding failed")
)

// Embedding is a facial feature vector produced by the embedding service.
type Embedding []float64

// Embedder computes one embedding per image, using the first detected face
// only. Implementations return ErrNoFaceDetected (possibly wrapped) when the
// image contains no face.
type Embedder interface {
	Embed(ctx context.Context, img []byte) (Embedding, error)
}

// Result is a successful comparison.
type Result struct {
	// Score is a similarity percentage (0-100, one decimal place).
	Score float64
	// Distance is the raw embedding distance the score was derived from.
	Distance float64
}

// Matcher compares two photos via the embedding service. It is stateless and
// side-effect free; the caller performs all photo I/O.
type Matcher struct {
	embedder Embedder
}

// New builds a Matcher on top of the given embedding provider.
func New(embedder Embedder) *Matcher {
	return &Matcher{embedder: embedder}
}

// Compare scores the candidate photo against the reference photo.
//
// Behavior:
//   - Both images must decode; otherwise ErrUnreadableImage.
//   - One embedding per image, first detected face only. Multi-face photos
//     are not disambiguated.
//   - similarity = max(0, (1 - distance) * 100), rounded to one decimal.
func (m *Matcher) Compare(ctx context.Context, candidate, reference []byte) (Result, error) {
	if err := decodable(candidate); err != nil {
		return Result{}, fmt.Errorf("candidate: %w", err)
	}
	if err := decodable(reference); err != nil {
		return Result{}, fmt.Errorf("reference: %w", err)
	}

	candEmb, err := m.embedder.Embed(ctx, candidate)
	if err != nil {
		return Result{}, fmt.Errorf("candidate: %w", err)
	}
	refEmb, err := m.embedder.Embed(ctx, reference)
	if err != nil {
		return Result{}, fmt.Errorf("reference: %w", err)
	}

	distance, err := Distance(candEmb, refEmb)
	if err != nil {
		return Result{}, err
	}

	score := math.Max(0, (1-distance)*100)
	score = math.Round(score*10) / 10

	return Result{Score: score, Distance: distance}, nil
}

// Distance is the euclidean distance between two embeddings.
func Distance(a, b Embedding) (float64, error) {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("%w: embedding dimensions %d vs %d", ErrEmbedding, len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

func decodable(img []byte) error {
	if _, _, err := image.Decode(bytes.NewReader(img)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	return nil
}
