package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"messenger-bot/config"
	"messenger-bot/metrics"
	"messenger-bot/models"
)

// maxErrorBody bounds how much of a failed Send API response is kept.
const maxErrorBody = 1024

// ErrorKind classifies a Send API failure.
type ErrorKind string

const (
	KindEncode  ErrorKind = "encode"
	KindNetwork ErrorKind = "network"
	KindStatus  ErrorKind = "status"
)

// SendError describes a failed Send API call.
type SendError struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
	Err        error
}

func (e *SendError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("send api returned status %d: %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("send api %s error: %v", e.Kind, e.Err)
	}
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or "" if err is not a *SendError.
func KindOf(err error) ErrorKind {
	var sendErr *SendError
	if errors.As(err, &sendErr) {
		return sendErr.Kind
	}
	return ""
}

// MessengerClient posts replies to the Messenger Send API
type MessengerClient struct {
	httpClient  *http.Client
	endpoint    string
	accessToken string
	timeout     time.Duration
	metrics     *metrics.Metrics
}

// NewMessengerClient builds a client from the process configuration. m may be nil.
func NewMessengerClient(cfg *config.Config, m *metrics.Metrics) *MessengerClient {
	return &MessengerClient{
		httpClient: &http.Client{
			Timeout: cfg.SendTimeout,
		},
		endpoint:    cfg.SendAPIURL(),
		accessToken: cfg.PageAccessToken,
		timeout:     cfg.SendTimeout,
		metrics:     m,
	}
}

// SendMessage posts one reply to the recipient and reports any failure as a *SendError.
func (c *MessengerClient) SendMessage(ctx context.Context, recipientID string, response *models.Response) error {
	body, err := json.Marshal(models.NewSendRequest(recipientID, response))
	if err != nil {
		return &SendError{Kind: KindEncode, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.postJSON(ctx, body)
}

// Reply sends the response and logs the outcome. Failures are never
// returned: the webhook acknowledges delivery regardless of reply outcome.
func (c *MessengerClient) Reply(ctx context.Context, recipientID string, response *models.Response) {
	slog.DebugContext(ctx, "Sending Messenger response", "recipientID", recipientID)

	start := time.Now()
	err := c.SendMessage(ctx, recipientID, response)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		kind := KindOf(err)
		c.metrics.RecordSend(string(kind)+"_error", elapsed)

		attrs := []any{"recipientID", recipientID, "kind", kind, "error", err}
		var sendErr *SendError
		if errors.As(err, &sendErr) && sendErr.Kind == KindStatus {
			attrs = append(attrs, "status", sendErr.StatusCode)
		}
		slog.ErrorContext(ctx, "Unable to send message", attrs...)
		return
	}

	c.metrics.RecordSend("sent", elapsed)
	slog.InfoContext(ctx, "Message sent", "recipientID", recipientID)
}

func (c *MessengerClient) postJSON(ctx context.Context, body []byte) error {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return &SendError{Kind: KindEncode, Err: err}
	}
	q := u.Query()
	q.Set("access_token", c.accessToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return &SendError{Kind: KindEncode, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error carries the full URL, access token included
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return &SendError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &SendError{Kind: KindStatus, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
