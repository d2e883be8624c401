// Package api serves generation sessions over HTTP: submit a repository,
// poll or stream its status, fetch slide images and export the deck.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/repodeck/events"
	"github.com/c360studio/repodeck/export"
	"github.com/c360studio/repodeck/workflow"
)

// maxRequestBodySize limits JSON request bodies.
const maxRequestBodySize = 1 << 20 // 1 MB

// Server is the HTTP API.
type Server struct {
	sessions  *Sessions
	exporter  *export.Exporter
	hub       *events.Hub
	publisher events.Publisher
	gatherer  prometheus.Gatherer
	upgrader  websocket.Upgrader
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithExporter sets the deck exporter.
func WithExporter(e *export.Exporter) Option {
	return func(s *Server) {
		s.exporter = e
	}
}

// WithPublisher adds a publisher that receives every status event, next to
// the in-process hub feeding WebSocket streams.
func WithPublisher(p events.Publisher) Option {
	return func(s *Server) {
		s.publisher = p
	}
}

// WithGatherer exposes g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithCheckOrigin sets the WebSocket origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates the API over sessions.
func NewServer(sessions *Sessions, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		hub:      events.NewHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.exporter == nil {
		s.exporter = export.New(export.WithLogger(s.logger))
	}
	return s
}

// Hub returns the in-process event hub.
func (s *Server) Hub() *events.Hub {
	return s.hub
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sessions", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleDelete).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/analyze", s.handleAnalyze).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/close", s.handleClose).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/slides/{slideID}/image", s.handleEnsureImage).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/slides/{slideID}/image", s.handleGetImage).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/export", s.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/events", s.handleEvents).Methods(http.MethodGet)

	return r
}

// CreateSessionResponse is the response for POST /api/sessions.
type CreateSessionResponse struct {
	ID string `json:"id"`
}

// SessionResponse is the response for GET /api/sessions/{id}.
type SessionResponse struct {
	ID string `json:"id"`
	workflow.Snapshot
}

// AnalyzeRequest is the request body for POST /api/sessions/{id}/analyze.
type AnalyzeRequest struct {
	URL string `json:"url"`
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

// handleCreate handles POST /api/sessions.
func (s *Server) handleCreate(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create()
	events.Observe(sess.Analyzer.Machine(), sess.ID, events.Multi{s.hub, s.publisher}, s.logger)

	s.logger.Info("Session created", "session", sess.ID)
	s.writeJSON(w, http.StatusCreated, CreateSessionResponse{ID: sess.ID})
}

// handleGet handles GET /api/sessions/{id}.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, SessionResponse{ID: sess.ID, Snapshot: sess.Analyzer.Snapshot()})
}

// handleDelete handles DELETE /api/sessions/{id}.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.sessions.Delete(id); err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Info("Session deleted", "session", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleAnalyze handles POST /api/sessions/{id}/analyze. The analysis
// runs in the background; progress is observed via GET or the event stream.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	if err := sess.Analyzer.Start(sess.Context(), req.URL); err != nil {
		if errors.Is(err, workflow.ErrBusy) {
			s.writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.logger.Error("Failed to start analysis", "session", sess.ID, "error", err)
		s.writeError(w, http.StatusInternalServerError, workflow.GenericMessage)
		return
	}
	s.writeJSON(w, http.StatusAccepted, SessionResponse{ID: sess.ID, Snapshot: sess.Analyzer.Snapshot()})
}

// handleClose handles POST /api/sessions/{id}/close.
func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Analyzer.Close(); err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, SessionResponse{ID: sess.ID, Snapshot: sess.Analyzer.Snapshot()})
}

// handleEnsureImage handles POST /api/sessions/{id}/slides/{slideID}/image.
// A cached image is returned directly. Otherwise generation is requested in
// the background and 202 is returned, unless ?wait=true asks to block for
// the result.
func (s *Server) handleEnsureImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	pres := sess.Analyzer.Presentation()
	if pres == nil {
		s.writeError(w, http.StatusConflict, "no deck available")
		return
	}
	slideID := mux.Vars(r)["slideID"]
	slide, ok := pres.Deck().Slide(slideID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "slide not found")
		return
	}

	if img, ok := pres.Image(slideID); ok {
		s.writeImage(w, img.MIMEType, img.Data)
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		img, ok := pres.AwaitImage(r.Context(), slide.ID, slide.VisualPrompt)
		if !ok {
			s.writeError(w, http.StatusNotFound, "image unavailable")
			return
		}
		s.writeImage(w, img.MIMEType, img.Data)
		return
	}

	go pres.EnsureImage(sess.Context(), slide.ID, slide.VisualPrompt)
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending", "slide": slide.ID})
}

// handleGetImage handles GET /api/sessions/{id}/slides/{slideID}/image.
func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	pres := sess.Analyzer.Presentation()
	if pres == nil {
		s.writeError(w, http.StatusNotFound, "no deck available")
		return
	}
	img, ok := pres.Image(mux.Vars(r)["slideID"])
	if !ok {
		s.writeError(w, http.StatusNotFound, "image not found")
		return
	}
	s.writeImage(w, img.MIMEType, img.Data)
}

// handleExport handles GET /api/sessions/{id}/export?format=pptx|json|md.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pres := sess.Analyzer.Presentation()
	if pres == nil {
		s.writeError(w, http.StatusConflict, "no deck available")
		return
	}

	var buf bytes.Buffer
	if err := s.exporter.ExportAs(r.Context(), format, pres.Deck(), pres, &buf); err != nil {
		s.logger.Error("Export failed", "session", sess.ID, "format", format, "error", err)
		s.writeError(w, http.StatusInternalServerError, export.UserMessage)
		return
	}

	info, _ := export.GetFormatInfo(format)
	name := export.FileName(pres.Deck().ProjectName, format)
	w.Header().Set("Content-Type", info.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("Failed to write export", "session", sess.ID, "error", err)
	}
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, err := s.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}

func (s *Server) writeImage(w http.ResponseWriter, mimeType string, data []byte) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("Failed to write image", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("Failed to write JSON response", "error", err)
	}
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// Serve runs an HTTP server for the API on addr until ctx ends, then shuts
// it down gracefully within shutdownTimeout.
func (s *Server) Serve(ctx context.Context, addr string, readHeaderTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
