package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/nao1215/quizsolve/internal/config"
	"github.com/nao1215/quizsolve/internal/model"
	"github.com/nao1215/quizsolve/internal/solver"
)

// Error messages returned with status 400.
const (
	MsgNotArray    = "request body must be a JSON array"
	MsgEmptyArray  = "empty array"
	MsgInvalidJSON = "invalid JSON"
	MsgTooLarge    = "request body too large"
)

// DefaultMaxBodySize limits a request body.
const DefaultMaxBodySize = 2 * 1024 * 1024 // 2MB

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Solver answers a batch of questions.
type Solver interface {
	SolveBatch(ctx context.Context, qs []model.Question) *model.SolveResponse
}

// Server is the solving API.
type Server struct {
	solver       Solver
	maxQuestions int
	maxBodySize  int64
	logger       *slog.Logger
	handler      http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithMaxQuestions caps the number of questions per request.
func WithMaxQuestions(n int) Option {
	return func(s *Server) { s.maxQuestions = n }
}

// WithMaxBodySize limits the request body in bytes.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) { s.maxBodySize = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a Server that answers with sv.
func New(sv Solver, opts ...Option) *Server {
	s := &Server{
		solver:       sv,
		maxQuestions: config.DefaultMaxQuestions,
		maxBodySize:  DefaultMaxBodySize,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.Use(s.recoverPanics, s.logRequests)
	r.HandleFunc("/ai-solve/", s.handleSolve).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/ai-solve", s.handleSolve).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/health", handleHealth).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodOptions, http.MethodGet},
		AllowedHeaders: []string{"Content-Type", solver.HeaderCSRFToken, "Accept"},
		// Preflights reach handleSolve after the CORS headers are set.
		OptionsPassthrough: true,
	})
	s.handler = c.Handler(r)
	return s
}

// Handler returns the HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("solving API listening", "address", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	// Every OPTIONS request, preflight or not, gets an empty object.
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: MsgTooLarge})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: MsgInvalidJSON})
		return
	}

	qs, status, msg := s.decodeQuestions(body)
	if status != http.StatusOK {
		s.logger.Warn("rejected solve request", "status", status, "reason", msg)
		writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	s.logger.Debug("solve request", "questions", len(qs), "remote", r.RemoteAddr)
	writeJSON(w, http.StatusOK, s.solver.SolveBatch(r.Context(), qs))
}

// decodeQuestions validates the body and decodes each item. An item that is
// not a question object becomes an empty question, which the solver answers
// with an error solution.
func (s *Server) decodeQuestions(body []byte) ([]model.Question, int, string) {
	if !json.Valid(body) {
		return nil, http.StatusBadRequest, MsgInvalidJSON
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, http.StatusBadRequest, MsgNotArray
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, http.StatusBadRequest, MsgInvalidJSON
	}
	if len(items) == 0 {
		return nil, http.StatusBadRequest, MsgEmptyArray
	}
	if s.maxQuestions > 0 && len(items) > s.maxQuestions {
		return nil, http.StatusBadRequest, fmt.Sprintf("too many questions: %d (max %d)", len(items), s.maxQuestions)
	}

	qs := make([]model.Question, len(items))
	for i, raw := range items {
		var q model.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			s.logger.Debug("malformed question item", "item", i, "error", err)
			q = model.Question{}
		}
		qs[i] = q
	}
	return qs, http.StatusOK, ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
