// Package httpapi is the HTTP surface of the voice assistant.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"farm-voice/internal/domain"
	"farm-voice/internal/infra/storage"
)

// VoiceQueryProcessor is the orchestrator as seen from the boundary.
type VoiceQueryProcessor interface {
	ProcessVoiceQuery(ctx context.Context, audioBase64 string) domain.VoiceQueryResult
}

type Config struct {
	Addr         string
	MaxBodyBytes int64
	RateLimit    int
	RateWindow   time.Duration
	ReadTimeout  time.Duration
	// WriteTimeout must cover a full pipeline run.
	WriteTimeout time.Duration
	// BlobPrefix is the storage prefix served under /<prefix>/.
	BlobPrefix string
}

func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		MaxBodyBytes: 25 << 20,
		RateLimit:    30,
		RateWindow:   time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute,
		BlobPrefix:   "audio/",
	}
}

type Option func(*Server)

// WithBlobReader serves stored responses from backends that cannot publish
// URLs of their own.
func WithBlobReader(r storage.Reader) Option {
	return func(s *Server) {
		s.blobs = r
	}
}

func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

type Server struct {
	cfg         Config
	processor   VoiceQueryProcessor
	server      *http.Server
	logger      *slog.Logger
	mu          sync.Mutex
	running     bool
	mux         *http.ServeMux
	rateLimiter *RateLimiter
	blobs       storage.Reader
	metrics     http.Handler
	inFlight    atomic.Int64
}

type voiceQueryRequest struct {
	Audio string `json:"audio"`
}

type errorBody struct {
	Error string `json:"error"`
}

func NewServer(cfg Config, processor VoiceQueryProcessor, logger *slog.Logger, opts ...Option) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	s := &Server{
		cfg:         cfg,
		processor:   processor,
		logger:      logger,
		mux:         http.NewServeMux(),
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.RateWindow),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Rate limiting applies to the expensive endpoint only
	s.mux.HandleFunc("POST /voice-query", s.recoverer(s.rateLimiter.Middleware(s.handleVoiceQuery)))
	s.mux.HandleFunc("GET /test-voice", s.handleTestVoice)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	if s.blobs != nil {
		s.mux.HandleFunc("GET "+blobRoute(cfg.BlobPrefix), s.handleBlob)
	}
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
	return s
}

func blobRoute(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "audio"
	}
	return "/" + prefix + "/{name...}"
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.server = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.mux,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Info("HTTP server starting", "addr", s.cfg.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	go s.sweepLoop(ctx)

	s.running = true
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := s.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	s.running = false
	return nil
}

func (s *Server) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.rateLimiter.Sweep()
		}
	}
}

func (s *Server) handleVoiceQuery(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req voiceQueryRequest
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "Audio payload too large"})
			return
		}
		s.logger.Debug("rejecting voice query body", "error", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "No audio data provided"})
		return
	}
	if strings.TrimSpace(req.Audio) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "No audio data provided"})
		return
	}

	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	result := s.processor.ProcessVoiceQuery(r.Context(), req.Audio)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTestVoice(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Voice assistant system is active and ready.",
		"success": true,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	status := "ok"
	statusCode := http.StatusOK

	if !running {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, map[string]any{
		"status":    status,
		"running":   running,
		"in_flight": s.inFlight.Load(),
	})
}

func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(s.cfg.BlobPrefix, "/")
	if name == "" {
		name = "audio"
	}
	name += "/" + r.PathValue("name")

	blob, err := s.blobs.Open(r.Context(), name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		s.logger.Warn("serving audio blob", "name", name, "error", err)
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	defer blob.Body.Close()

	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, blob.Body); err != nil {
		s.logger.Debug("writing audio blob", "name", name, "error", err)
	}
}

// recoverer turns a panic that escaped the orchestrator into a 500.
func (s *Server) recoverer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panicked", "panic", rec, "path", r.URL.Path)
				writeJSON(w, http.StatusInternalServerError, errorBody{
					Error: fmt.Sprintf("Internal server error: %v", rec),
				})
			}
		}()
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
