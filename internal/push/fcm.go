package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/findthemapp/findthem-core/internal/config"
)

// FCMClient sends pushes through Firebase Cloud Messaging's HTTP API.
type FCMClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewFCMClient builds an FCM sender from config.
func NewFCMClient(cfg *config.Config) *FCMClient {
	return &FCMClient{
		endpoint: cfg.Push.Endpoint,
		apiKey:   cfg.Push.APIKey,
		client:   &http.Client{Timeout: cfg.Push.Timeout},
	}
}

type fcmRequest struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

// Send delivers one message. Token-level rejections from FCM map to the
// permanent error sentinels; transport and server errors stay transient.
func (c *FCMClient) Send(ctx context.Context, msg Message) error {
	if msg.Token == "" {
		return fmt.Errorf("push: empty device token")
	}

	payload, err := json.Marshal(fcmRequest{
		To:           msg.Token,
		Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
	})
	if err != nil {
		return fmt.Errorf("push: encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("push: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push: service returned %d: %s", resp.StatusCode, body)
	}

	var out fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("push: decode response: %w", err)
	}
	if out.Failure == 0 {
		return nil
	}
	for _, result := range out.Results {
		switch result.Error {
		case "":
			continue
		case "NotRegistered", "UNREGISTERED", "InvalidRegistration":
			return ErrUnregistered
		case "MismatchSenderId", "SENDER_ID_MISMATCH":
			return ErrSenderMismatch
		default:
			return fmt.Errorf("push: delivery failed: %s", result.Error)
		}
	}
	return fmt.Errorf("push: delivery failed without a result error")
}

// interface guard
var _ Sender = (*FCMClient)(nil)
