package facematch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/findthemapp/findthem-core/internal/config"
)

// HTTPEmbedder talks to the external face-embedding service over HTTP.
//
// The service accepts a base64 image and responds with the number of faces it
// found plus the embedding of the first one.
type HTTPEmbedder struct {
	endpoint string
	client   *http.Client
}

// NewHTTPEmbedder builds an embedder client from config.
func NewHTTPEmbedder(cfg *config.Config) *HTTPEmbedder {
	return &HTTPEmbedder{
		endpoint: cfg.Embedder.Endpoint,
		client:   &http.Client{Timeout: cfg.Embedder.Timeout},
	}
}

type embedRequest struct {
	Image string `json:"image"`
}

type embedResponse struct {
	Faces     int       `json:"faces"`
	Embedding []float64 `json:"embedding"`
}

// Embed requests the embedding of the first face in the image.
func (e *HTTPEmbedder) Embed(ctx context.Context, img []byte) (Embedding, error) {
	body, err := json.Marshal(embedRequest{Image: base64.StdEncoding.EncodeToString(img)})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrEmbedding, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrEmbedding, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: service returned %d: %s", ErrEmbedding, resp.StatusCode, payload)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrEmbedding, err)
	}
	if out.Faces == 0 {
		return nil, ErrNoFaceDetected
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", ErrEmbedding)
	}
	return Embedding(out.Embedding), nil
}

// interface guard
var _ Embedder = (*HTTPEmbedder)(nil)
