// Package server exposes contract review over HTTP for the UI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/ryandumpert/flint/internal/issue"
	"github.com/ryandumpert/flint/internal/logging"
	"github.com/ryandumpert/flint/internal/session"
	"github.com/ryandumpert/flint/internal/store"
)

// maxBody caps request bodies. Contracts are plain text, so this is
// generous.
const maxBody = 16 << 20

// Server routes HTTP requests to the store and the active session.
type Server struct {
	store      store.Store
	session    *session.Manager
	normalizer *issue.Normalizer
	log        *log.Logger
	router     *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithNormalizer replaces the issue normalizer.
func WithNormalizer(n *issue.Normalizer) Option {
	return func(s *Server) { s.normalizer = n }
}

// New builds a Server over st and sess.
func New(st store.Store, sess *session.Manager, opts ...Option) *Server {
	s := &Server{
		store:   st,
		session: sess,
		log:     logging.Discard(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.normalizer == nil {
		s.normalizer = issue.NewNormalizer(issue.WithLogger(s.log))
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.Use(Logger(s.log))
	r.Use(Recoverer(s.log))

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/normalize", s.normalize).Methods(http.MethodPost)

	r.HandleFunc("/contracts", s.createContract).Methods(http.MethodPost)
	r.HandleFunc("/contracts", s.listContracts).Methods(http.MethodGet)
	r.HandleFunc("/contracts/{id}", s.getContract).Methods(http.MethodGet)
	r.HandleFunc("/contracts/{id}/analysis", s.analyze).Methods(http.MethodPost)
	r.HandleFunc("/contracts/{id}/issues", s.listIssues).Methods(http.MethodGet)
	r.HandleFunc("/contracts/{id}/summary", s.report).Methods(http.MethodGet)
	r.HandleFunc("/contracts/{id}/sections", s.sections).Methods(http.MethodGet)

	r.HandleFunc("/session", s.getSession).Methods(http.MethodGet)
	r.HandleFunc("/session", s.clearSession).Methods(http.MethodDelete)
	r.HandleFunc("/session/open/{id}", s.openSession).Methods(http.MethodPost)

	r.HandleFunc("/ground", s.ground).Methods(http.MethodPost)
	r.HandleFunc("/locate", s.locate).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	s.router = r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps err to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, issue.ErrNoAnalysis), errors.Is(err, issue.ErrInvalidAnalysis):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.log.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
