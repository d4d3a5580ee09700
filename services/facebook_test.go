package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger-bot/config"
	"messenger-bot/metrics"
	"messenger-bot/models"
)

type capturedRequest struct {
	method      string
	path        string
	accessToken string
	contentType string
	body        models.SendRequest
}

func newGraphServer(t *testing.T, status int, captured chan<- capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var body models.SendRequest
		assert.NoError(t, json.Unmarshal(raw, &body))

		captured <- capturedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			accessToken: r.URL.Query().Get("access_token"),
			contentType: r.Header.Get("Content-Type"),
			body:        body,
		}

		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"bad token"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(graphURL string) *config.Config {
	return &config.Config{
		PageAccessToken: "page-token",
		GraphAPIURL:     graphURL,
		GraphAPIVersion: "v11.0",
		SendTimeout:     2 * time.Second,
	}
}

func TestSendMessage_PostsSendRequest(t *testing.T) {
	captured := make(chan capturedRequest, 1)
	srv := newGraphServer(t, http.StatusOK, captured)

	client := NewMessengerClient(testConfig(srv.URL), nil)
	err := client.SendMessage(context.Background(), "U1", &models.Response{Text: "hello"})
	require.NoError(t, err)

	req := <-captured
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/v11.0/me/messages", req.path)
	assert.Equal(t, "page-token", req.accessToken)
	assert.Equal(t, "application/json", req.contentType)
	assert.Equal(t, "RESPONSE", req.body.MessagingType)
	assert.Equal(t, "U1", req.body.Recipient.ID)
	require.NotNil(t, req.body.Message)
	assert.Equal(t, "hello", req.body.Message.Text)
}

func TestSendMessage_StatusError(t *testing.T) {
	captured := make(chan capturedRequest, 1)
	srv := newGraphServer(t, http.StatusBadRequest, captured)

	client := NewMessengerClient(testConfig(srv.URL), nil)
	err := client.SendMessage(context.Background(), "U1", &models.Response{Text: "hello"})
	require.Error(t, err)

	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, KindStatus, sendErr.Kind)
	assert.Equal(t, http.StatusBadRequest, sendErr.StatusCode)
	assert.Contains(t, sendErr.Body, "bad token")
	assert.Equal(t, KindStatus, KindOf(err))
}

func TestSendMessage_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewMessengerClient(testConfig(url), nil)
	err := client.SendMessage(context.Background(), "U1", &models.Response{Text: "hello"})
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.NotContains(t, err.Error(), "page-token")
}

func TestSendMessage_TimeoutIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	cfg.SendTimeout = 50 * time.Millisecond

	client := NewMessengerClient(cfg, nil)
	err := client.SendMessage(context.Background(), "U1", &models.Response{Text: "hello"})
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(io.EOF))
}

func TestReply_RecordsOutcome(t *testing.T) {
	okCaptured := make(chan capturedRequest, 1)
	okSrv := newGraphServer(t, http.StatusOK, okCaptured)
	failCaptured := make(chan capturedRequest, 1)
	failSrv := newGraphServer(t, http.StatusInternalServerError, failCaptured)

	m := metrics.New(prometheus.NewRegistry())

	NewMessengerClient(testConfig(okSrv.URL), m).Reply(context.Background(), "U1", &models.Response{Text: "a"})
	NewMessengerClient(testConfig(failSrv.URL), m).Reply(context.Background(), "U2", &models.Response{Text: "b"})

	<-okCaptured
	<-failCaptured
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SendTotal.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SendTotal.WithLabelValues("status_error")))
}
