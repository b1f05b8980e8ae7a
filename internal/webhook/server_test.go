package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/linear-relay/internal/apperr"
	"github.com/mattjoyce/linear-relay/internal/config"
	"github.com/mattjoyce/linear-relay/internal/linear"
	"github.com/mattjoyce/linear-relay/internal/notify"
	"github.com/mattjoyce/linear-relay/internal/relay"
	"github.com/mattjoyce/linear-relay/internal/relay/mocks"
)

const testSecret = "test-secret"

var testNow = time.Date(2025, 3, 4, 17, 30, 0, 0, time.UTC)

// mockRelayer is a mock implementation of Relayer for testing.
type mockRelayer struct {
	deliverFn func(ctx context.Context, ev *linear.WebhookEvent) (*relay.Result, error)
	calls     int
}

func (m *mockRelayer) Deliver(ctx context.Context, ev *linear.WebhookEvent) (*relay.Result, error) {
	m.calls++
	if m.deliverFn != nil {
		return m.deliverFn(ctx, ev)
	}
	return &relay.Result{Blocks: 3}, nil
}

func testConfig() Config {
	return Config{
		Listen:          "127.0.0.1:0",
		Secret:          testSecret,
		SignatureHeader: "Linear-Signature",
	}
}

func newTestServer(t *testing.T, cfg Config, r Relayer) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	s := New(cfg, r, logger)
	s.now = func() time.Time { return testNow }
	s.newID = func() string { return "relay-1" }
	return s
}

func payload(ts time.Time) []byte {
	return []byte(fmt.Sprintf(`{
  "action": "create",
  "type": "ProjectUpdate",
  "actor": {"id": "u1", "name": "Ada", "url": "https://linear.app/acme/profiles/ada"},
  "createdAt": "2025-03-04T17:29:58.000Z",
  "webhookTimestamp": %d,
  "webhookId": "wh-1",
  "data": {
    "id": "pu1",
    "body": "Shipped the beta.",
    "project": {"id": "p1", "name": "Apollo", "url": "https://linear.app/acme/project/apollo"}
  },
  "url": "https://linear.app/acme/project/apollo/updates#pu1"
}`, ts.UnixMilli()))
}

func post(t *testing.T, s *Server, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("Linear-Signature", signature)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleWebhook_ValidSignature(t *testing.T) {
	body := payload(testNow.Add(-2 * time.Second))
	mr := &mockRelayer{
		deliverFn: func(ctx context.Context, ev *linear.WebhookEvent) (*relay.Result, error) {
			assert.Equal(t, "p1", ev.Data.Project.ID)
			assert.Equal(t, "Ada", ev.Actor.Name)
			return &relay.Result{Initiatives: 1, Blocks: 3}, nil
		},
	}
	s := newTestServer(t, testConfig(), mr)

	rec := post(t, s, body, Sign(testSecret, body))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, BodyOK, rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "relay-1", rec.Header().Get(RelayIDHeader))
	assert.Equal(t, 1, mr.calls)
}

func TestHandleWebhook_Rejections(t *testing.T) {
	fresh := payload(testNow)

	tests := []struct {
		name       string
		body       []byte
		signature  string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "zeroed signature",
			body:       fresh,
			signature:  strings.Repeat("0", 64),
			wantStatus: http.StatusUnauthorized,
			wantBody:   BodyInvalidSignature,
		},
		{
			name:       "missing signature",
			body:       fresh,
			wantStatus: http.StatusUnauthorized,
			wantBody:   BodyInvalidSignature,
		},
		{
			name:       "signed with another secret",
			body:       fresh,
			signature:  Sign("other", fresh),
			wantStatus: http.StatusUnauthorized,
			wantBody:   BodyInvalidSignature,
		},
		{
			name:       "timestamp 61s old",
			body:       payload(testNow.Add(-61 * time.Second)),
			signature:  Sign(testSecret, payload(testNow.Add(-61*time.Second))),
			wantStatus: http.StatusBadRequest,
			wantBody:   BodyTimestampTooOld,
		},
		{
			name:       "stale and unsigned reports staleness",
			body:       payload(testNow.Add(-5 * time.Minute)),
			wantStatus: http.StatusBadRequest,
			wantBody:   BodyTimestampTooOld,
		},
		{
			name:       "malformed json",
			body:       []byte(`{"type":`),
			signature:  Sign(testSecret, []byte(`{"type":`)),
			wantStatus: http.StatusBadRequest,
			wantBody:   BodyInvalidPayload,
		},
		{
			name:       "wrong field type",
			body:       []byte(`{"webhookTimestamp":"yesterday"}`),
			wantStatus: http.StatusBadRequest,
			wantBody:   BodyInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr := &mockRelayer{}
			s := newTestServer(t, testConfig(), mr)

			rec := post(t, s, tt.body, tt.signature)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
			assert.Zero(t, mr.calls, "relay must not run for rejected requests")
		})
	}
}

func TestHandleWebhook_FreshWithin59s(t *testing.T) {
	body := payload(testNow.Add(-59 * time.Second))
	s := newTestServer(t, testConfig(), &mockRelayer{})

	rec := post(t, s, body, Sign(testSecret, body))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleWebhook_MissingRequiredField(t *testing.T) {
	body := []byte(fmt.Sprintf(`{
  "actor": {"name": "Ada"},
  "createdAt": "2025-03-04T17:29:58.000Z",
  "webhookTimestamp": %d,
  "data": {"body": "x", "project": {"name": "Apollo", "url": "https://linear.app/acme/project/apollo"}},
  "url": "https://linear.app/acme/project/apollo/updates#1"
}`, testNow.UnixMilli()))
	mr := &mockRelayer{}
	s := newTestServer(t, testConfig(), mr)

	rec := post(t, s, body, Sign(testSecret, body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, BodyInvalidPayload, rec.Body.String())
	assert.Zero(t, mr.calls)
}

func TestHandleWebhook_BodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodySize = 100
	mr := &mockRelayer{}
	s := newTestServer(t, cfg, mr)

	body := bytes.Repeat([]byte("x"), 101)
	rec := post(t, s, body, Sign(testSecret, body))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, BodyPayloadTooLarge, rec.Body.String())
	assert.Zero(t, mr.calls)
}

func TestHandleWebhook_MissingConfiguration(t *testing.T) {
	cfg := testConfig()
	cfg.Missing = []string{"SLACK_WEBHOOK_URL"}
	mr := &mockRelayer{}
	s := newTestServer(t, cfg, mr)

	body := payload(testNow)
	rec := post(t, s, body, Sign(testSecret, body))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, BodyMissingConfig, rec.Body.String())
	assert.Zero(t, mr.calls)
}

func TestHandleWebhook_SkipValidation(t *testing.T) {
	cfg := testConfig()
	cfg.SkipValidation = true
	mr := &mockRelayer{}
	s := newTestServer(t, cfg, mr)

	// Stale and unsigned.
	rec := post(t, s, payload(testNow.Add(-time.Hour)), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, mr.calls)
}

func TestHandleWebhook_RelayErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "upstream",
			err:        &relay.StageError{Stage: relay.StageEnrich, Err: apperr.Upstream("linear.fetch", "graphql error", nil)},
			wantStatus: http.StatusInternalServerError,
			wantBody:   BodyFetchFailed,
		},
		{
			name:       "delivery",
			err:        &relay.StageError{Stage: relay.StageDeliver, Err: apperr.Delivery("slack.send", "failed to post to Slack", errors.New("503"))},
			wantStatus: http.StatusInternalServerError,
			wantBody:   BodyDeliveryFailed,
		},
		{
			name:       "missing api key",
			err:        &relay.StageError{Stage: relay.StageEnrich, Err: apperr.Configuration("linear.fetch", "api key not set")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   BodyMissingConfig,
		},
		{
			name:       "untyped",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   BodyInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr := &mockRelayer{
				deliverFn: func(context.Context, *linear.WebhookEvent) (*relay.Result, error) {
					return nil, tt.err
				},
			}
			s := newTestServer(t, testConfig(), mr)
			body := payload(testNow)

			rec := post(t, s, body, Sign(testSecret, body))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestHandleWebhook_UpstreamFailureNeverNotifies(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := mocks.NewMockInitiativeFetcher(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)
	fetcher.EXPECT().FetchInitiatives(gomock.Any(), "p1").
		Return(nil, apperr.Upstream("linear.fetch", "graphql error", nil))
	notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := relay.New(relay.Config{Enrich: true, Format: notify.DefaultOptions()}, fetcher, notifier, logger)
	s := newTestServer(t, testConfig(), r)
	body := payload(testNow)

	rec := post(t, s, body, Sign(testSecret, body))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, BodyFetchFailed, rec.Body.String())
}

func TestHandleWebhook_Panic(t *testing.T) {
	mr := &mockRelayer{
		deliverFn: func(context.Context, *linear.WebhookEvent) (*relay.Result, error) {
			panic("unexpected")
		},
	}
	s := newTestServer(t, testConfig(), mr)
	body := payload(testNow)

	rec := post(t, s, body, Sign(testSecret, body))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, BodyInternalServerError, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, testConfig(), &mockRelayer{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, BodyOK, rec.Body.String())
}

func TestUnknownPath(t *testing.T) {
	s := newTestServer(t, testConfig(), &mockRelayer{})
	body := payload(testNow)
	req := httptest.NewRequest(http.MethodPost, "/elsewhere", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNew_AppliesDefaults(t *testing.T) {
	s := New(Config{Secret: testSecret}, &mockRelayer{}, slog.Default())

	assert.Equal(t, "/", s.config.Path)
	assert.Equal(t, int64(DefaultMaxBodySize), s.config.MaxBodySize)
	assert.Equal(t, DefaultSignatureHeader, s.config.SignatureHeader)
	assert.Equal(t, DefaultFreshnessWindow, s.config.FreshnessWindow)
	assert.Equal(t, 5*time.Second, s.config.ShutdownTimeout)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Server.MaxBodyBytes = 2048
	cfg.Linear.WebhookSecret = "s"

	wc := FromConfig(cfg)
	assert.Equal(t, []string{config.EnvSlackURL, config.EnvAPIKey}, wc.Missing)
	assert.Equal(t, int64(2048), wc.MaxBodySize)
	assert.Equal(t, "Linear-Signature", wc.SignatureHeader)

	cfg.Slack.WebhookURL = "https://hooks.slack.com/services/T/B/X"
	cfg.Linear.Enrich = false
	assert.Empty(t, FromConfig(cfg).Missing)
}

func TestStart_Shutdown(t *testing.T) {
	cfg := testConfig()
	cfg.ShutdownTimeout = time.Second
	s := newTestServer(t, cfg, &mockRelayer{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
