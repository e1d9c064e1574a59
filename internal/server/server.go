package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"conversation-validator-go/internal/logger"
	"conversation-validator-go/internal/metrics"
	"conversation-validator-go/internal/pipeline"
	"conversation-validator-go/internal/processor"
)

// Server exposes the analysis engine over HTTP.
type Server struct {
	analyzer    *processor.Analyzer
	gatherer    prometheus.Gatherer
	metrics     *metrics.Metrics
	concurrency int
	now         func() time.Time
	log         *logger.Logger

	runner       *pipeline.Runner
	templatesDir string
}

func New(analyzer *processor.Analyzer, gatherer prometheus.Gatherer, m *metrics.Metrics) *Server {
	return &Server{
		analyzer:    analyzer,
		gatherer:    gatherer,
		metrics:     m,
		concurrency: 4,
		now:         time.Now,
		log:         logger.New(),
	}
}

// SetConcurrency bounds how many items of one /batch request are analyzed at once.
func (s *Server) SetConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

// EnableRuns adds POST /run, which captures and analyzes every template in
// dir with runner.
func (s *Server) EnableRuns(runner *pipeline.Runner, dir string) {
	s.runner = runner
	s.templatesDir = dir
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", s.Health).Methods(http.MethodGet)
	router.HandleFunc("/analyze", s.Analyze).Methods(http.MethodPost)
	router.HandleFunc("/batch", s.Batch).Methods(http.MethodPost)
	if s.runner != nil {
		router.HandleFunc("/run", s.Run).Methods(http.MethodPost)
	}
	router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	router.Use(s.loggingMiddleware)
	return router
}

func NewHTTPServer(port string, s *Server) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		// one req_id for every log line of this request
		if r.Header.Get("X-Request-ID") == "" {
			r.Header.Set("X-Request-ID", uuid.NewString())
		}
		w.Header().Set("X-Request-ID", r.Header.Get("X-Request-ID"))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		elapsed := time.Since(start)
		if s.metrics != nil {
			s.metrics.HTTPRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Observe(elapsed.Seconds())
		}
		s.log.WithRequest(r).WithFields(logrus.Fields{
			"status":   rec.status,
			"duration": elapsed,
		}).Debug("HTTP request processed")
	})
}
