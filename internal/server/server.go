// Package server exposes the Bestie service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/manmitra-core/server/internal/agent/bestie"
	"github.com/manmitra-core/server/internal/agent/gateway"
	"github.com/manmitra-core/server/internal/agent/model"
	errx "github.com/manmitra-core/server/internal/core/error"
	"github.com/manmitra-core/server/internal/metrics"
	logx "github.com/manmitra-core/server/pkg/logger"
)

const (
	maxBodyBytes    = 64 << 10
	shutdownTimeout = 10 * time.Second
)

// Service is what the HTTP layer needs from the chat backend.
type Service interface {
	ProcessMessage(ctx context.Context, req model.ChatRequest) (*model.ChatResult, error)
	ModeratePost(ctx context.Context, text string) (model.ModerationResult, error)
	GetStatus() gateway.Status
	ResetLimits() error
	DiagnoseAPIKey() bestie.KeyDiagnosis
}

// Server routes HTTP requests to the service.
type Server struct {
	addr    string
	svc     Service
	metrics *metrics.Metrics
	mux     *http.ServeMux
}

// New creates a Server. m may be nil, in which case /metrics is not served.
func New(addr string, svc Service, m *metrics.Metrics) *Server {
	s := &Server{
		addr:    addr,
		svc:     svc,
		metrics: m,
		mux:     http.NewServeMux(),
	}
	s.handle("POST /api/v1/chat/ask", s.handleAsk)
	s.handle("POST /api/v1/moderation/scan-post", s.handleScanPost)
	s.handle("GET /api/v1/status/api-status", s.handleStatus)
	s.handle("POST /api/v1/status/reset-rate-limits", s.handleResetLimits)
	s.handle("GET /api/v1/status/diagnose-api-key", s.handleDiagnose)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	if m != nil {
		s.mux.Handle("GET /metrics", m.Handler())
	}
	return s
}

func (s *Server) handle(pattern string, h http.HandlerFunc) {
	if s.metrics != nil {
		h = s.metrics.Middleware(pattern, h)
	}
	s.mux.HandleFunc(pattern, h)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", s.addr).Msg("bestie server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logx.Info().Msg("shutting down server")
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type scanPostRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.svc.ProcessMessage(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleScanPost(w http.ResponseWriter, r *http.Request) {
	var req scanPostRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.svc.ModeratePost(r.Context(), req.Text)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  s.svc.GetStatus(),
		"message": "API status retrieved successfully",
	})
}

func (s *Server) handleResetLimits(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ResetLimits(); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Rate limits reset successfully",
		"warning": "This should only be used in development",
	})
}

func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"diagnosis": s.svc.DiagnoseAPIKey(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "bestie"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeAppError(w http.ResponseWriter, err error) {
	status := errx.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSONError(w, status, errx.PublicMessage(err))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Warn().Err(err).Msg("failed to write response")
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{"message": message, "code": code},
	})
}
