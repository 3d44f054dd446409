// Package proxy is the backend half of the admin console: it exposes the
// /api/queues endpoint family, forwards requests through the gateway with
// injected OAuth credentials, and wraps every response in the uniform
// envelope.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/queueops/queuectl/api"
	"github.com/queueops/queuectl/faults"
	"github.com/queueops/queuectl/internal/gateway"
	"github.com/queueops/queuectl/queue"
)

type Options struct {
	ListenAddr string
	Gateway    *gateway.Client

	// CredentialsPath, when set, is watched for rewrites; a changed file
	// rotates the gateway credentials without a restart.
	CredentialsPath string

	Logger *log.Logger
}

type Server struct {
	listenAddr string
	gateway    *gateway.Client
	router     *mux.Router
	metrics    *metrics
	watcher    *credentialWatcher
	logger     *log.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Gateway == nil {
		return nil, faults.NewTypedError(faults.ValidationError, "proxy requires a gateway client", nil)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	server := &Server{
		listenAddr: opts.ListenAddr,
		gateway:    opts.Gateway,
		metrics:    newMetrics(),
		logger:     logger,
	}

	if opts.CredentialsPath != "" {
		watcher, err := newCredentialWatcher(opts.CredentialsPath, opts.Gateway, logger)
		if err != nil {
			return nil, err
		}
		server.watcher = watcher
	}

	server.router = server.buildRouter()
	return server, nil
}

func (s *Server) buildRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.metrics.middleware)

	router.HandleFunc("/api/queues", s.handleList).Methods(http.MethodGet)
	router.HandleFunc("/api/queues", s.handleCreate).Methods(http.MethodPost)
	router.HandleFunc("/api/queues/bulk", s.handleBulkCreate).Methods(http.MethodPost)
	router.HandleFunc("/api/queues/{id}", s.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/api/queues/{id}", s.handlePatch).Methods(http.MethodPatch)
	router.HandleFunc("/api/queues/{id}", s.handleDelete).Methods(http.MethodDelete)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return router
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the proxy until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watcher != nil {
		go s.watcher.run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("admin proxy listening on %s", s.listenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return faults.NewTypedError(faults.TransportError, "proxy server failed", err)
	}
}

func (s *Server) Close() {
	if s.watcher != nil {
		s.watcher.close()
	}
}

func (s *Server) writeEnvelope(w http.ResponseWriter, status int, envelope api.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		s.logger.Printf("failed to write envelope: %v", err)
	}
}

func (s *Server) writeData(w http.ResponseWriter, data queue.Value) {
	s.writeEnvelope(w, http.StatusOK, api.OKEnvelope(http.StatusOK, data))
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusForCategory(faults.CategoryOf(err))
	s.writeEnvelope(w, status, api.ErrorEnvelope(status, err.Error()))
}

func statusForCategory(category faults.ErrorCategory) int {
	switch category {
	case faults.ValidationError:
		return http.StatusBadRequest
	case faults.NotFoundError:
		return http.StatusNotFound
	case faults.ConflictError:
		return http.StatusConflict
	case faults.AuthError:
		return http.StatusUnauthorized
	case faults.TransportError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
