package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/mattjoyce/linear-relay/internal/apperr"
	"github.com/mattjoyce/linear-relay/internal/linear"
	"github.com/mattjoyce/linear-relay/internal/relay"
)

// RelayIDHeader carries the per-request relay id in every response.
const RelayIDHeader = "X-Relay-Id"

// Relayer delivers an authenticated event.
type Relayer interface {
	Deliver(ctx context.Context, ev *linear.WebhookEvent) (*relay.Result, error)
}

// Server represents the webhook HTTP server.
type Server struct {
	config Config
	relay  Relayer
	logger *slog.Logger
	server *http.Server

	now   func() time.Time
	newID func() string
}

// New creates a new webhook server instance.
func New(config Config, relayer Relayer, logger *slog.Logger) *Server {
	config.applyDefaults()
	return &Server{
		config: config,
		relay:  relayer,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Handler returns the routed HTTP handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start starts the webhook HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.setupRoutes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("webhook server starting",
		"listen", s.config.Listen,
		"path", s.config.Path,
		"skip_validation", s.config.SkipValidation,
	)
	if s.config.SkipValidation {
		s.logger.Warn("signature and timestamp validation is disabled")
	}
	if len(s.config.Missing) > 0 {
		s.logger.Warn("required settings are missing, deliveries will fail",
			"missing", strings.Join(s.config.Missing, ","))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post(s.config.Path, s.handleWebhook)

	return r
}

// loggingMiddleware logs HTTP requests (excludes payloads).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("webhook request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"relay_id", ww.Header().Get(RelayIDHeader),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// recoverer turns a panic into a plain 500.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.Error("webhook handler panic",
				"panic", fmt.Sprint(rec),
				"relay_id", w.Header().Get(RelayIDHeader),
			)
			respondText(w, http.StatusInternalServerError, BodyInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondText(w, http.StatusOK, BodyOK)
}

// handleWebhook runs one delivery: configuration gate, body read, decode,
// freshness and signature checks, validation, then the relay.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	relayID := s.newID()
	w.Header().Set(RelayIDHeader, relayID)
	logger := s.logger.With("relay_id", relayID)

	if len(s.config.Missing) > 0 {
		logger.Error("webhook rejected: missing configuration",
			"missing", strings.Join(s.config.Missing, ","))
		respondText(w, http.StatusInternalServerError, BodyMissingConfig)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodySize+1))
	if err != nil {
		logger.Warn("failed to read request body", "error", err)
		respondText(w, http.StatusBadRequest, BodyInvalidPayload)
		return
	}
	if int64(len(body)) > s.config.MaxBodySize {
		logger.Warn("webhook rejected: payload too large", "limit", s.config.MaxBodySize)
		respondText(w, http.StatusRequestEntityTooLarge, BodyPayloadTooLarge)
		return
	}

	ev, err := linear.DecodeEvent(body)
	if err != nil {
		s.fail(w, logger, err)
		return
	}

	if s.config.SkipValidation {
		logger.Warn("signature and timestamp checks skipped")
	} else if err := s.authenticate(r, body, ev); err != nil {
		s.fail(w, logger, err)
		return
	}

	if err := ev.Validate(); err != nil {
		s.fail(w, logger, err)
		return
	}

	logger = logger.With("project_id", ev.Data.Project.ID, "webhook_id", ev.WebhookID)
	result, err := s.relay.Deliver(r.Context(), ev)
	if err != nil {
		s.fail(w, logger, err)
		return
	}

	logger.Info("update relayed",
		"initiatives", result.Initiatives,
		"blocks", result.Blocks,
	)
	respondText(w, http.StatusOK, BodyOK)
}

// authenticate checks freshness first, then the signature over the raw body.
func (s *Server) authenticate(r *http.Request, body []byte, ev *linear.WebhookEvent) error {
	if err := CheckFreshness(s.now(), ev.WebhookTimestamp, s.config.FreshnessWindow); err != nil {
		return err
	}
	signature := r.Header.Get(s.config.SignatureHeader)
	if signature == "" {
		return apperr.Authentication("webhook.verify", "signature header "+s.config.SignatureHeader+" missing")
	}
	if !Verify(s.config.Secret, body, signature) {
		return apperr.Authentication("webhook.verify", "signature mismatch")
	}
	return nil
}

// fail logs err once and writes the mapped response. Caller mistakes log at
// warn, server-side failures at error.
func (s *Server) fail(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, body := responseFor(err)

	attrs := []any{
		"status", status,
		"kind", apperr.KindOf(err).String(),
		"op", apperr.OpOf(err),
		"error", err,
	}
	var stageErr *relay.StageError
	if errors.As(err, &stageErr) {
		attrs = append(attrs, "stage", string(stageErr.Stage))
	}

	if status >= http.StatusInternalServerError {
		logger.Error("webhook failed", attrs...)
	} else {
		logger.Warn("webhook rejected", attrs...)
	}
	respondText(w, status, body)
}
