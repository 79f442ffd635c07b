// Package server exposes ranking, tie-breaking and audits over HTTP.
//
// Routes:
//
//	GET  /healthz       build information
//	GET  /metrics       Prometheus metrics
//	POST /v1/rank       Ranked Pairs order of ballots or a preference matrix
//	POST /v1/tiebreak   linear tie-breaking order from recorded events
//	POST /v1/audit      synchronous audit of an uploaded ballot pool
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/bayesaudit/pkg/buildinfo"
	"github.com/matzehuels/bayesaudit/pkg/errors"
)

// maxBody bounds request bodies.
const maxBody = 32 << 20

// Server holds the handlers' shared dependencies.
type Server struct {
	logger   *log.Logger
	gatherer prometheus.Gatherer
}

// New creates a server. Metrics are served from gatherer; a nil gatherer
// serves prometheus.DefaultGatherer.
func New(logger *log.Logger, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{logger: logger, gatherer: gatherer}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.withLogging)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/rank", s.rank)
		r.Post("/tiebreak", s.tiebreak)
		r.Post("/audit", s.audit)
	})
	return r
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	writeJSON(w, status, errorBody{Error: code, Message: errors.UserMessage(err)})
}

func statusOf(err error) int {
	switch {
	case errors.IsConfiguration(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errors.ErrCodeInvalidInput),
		errors.Is(err, errors.ErrCodeMalformedMatrix),
		errors.Is(err, errors.ErrCodeInvalidBallot):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request")
	}
	return nil
}
