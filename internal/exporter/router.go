package exporter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"tracemetrics/internal/analysis"
	"tracemetrics/internal/logging"
	"tracemetrics/internal/reporting"
)

// handler serves one finished report.
type handler struct {
	report *analysis.Report
	logger logrus.FieldLogger
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// NewRouter exposes the report and its metrics over HTTP.
func NewRouter(report *analysis.Report, reg prometheus.Gatherer, logger logrus.FieldLogger) http.Handler {
	h := &handler{report: report, logger: logging.OrDiscard(logger)}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(h.logger))
	registerRoutes(router, h, reg)
	return router
}

func registerRoutes(router chi.Router, h *handler, reg prometheus.Gatherer) {
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	router.Get("/api/report", h.handleReport)
	router.Get("/api/report/{metric}", h.handleMetric)
}

func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := reporting.WriteJSON(w, h.report); err != nil {
		h.logger.WithError(err).Error("Failed to encode report")
	}
}

func (h *handler) handleMetric(w http.ResponseWriter, r *http.Request) {
	metric := analysis.Metric(chi.URLParam(r, "metric"))
	doc := reporting.NewJSONReport(h.report)

	var body any
	switch metric {
	case analysis.MetricThroughput:
		body = doc.Throughput
	case analysis.MetricProtocols:
		body = doc.Protocols
	case analysis.MetricSizes:
		body = doc.Sizes
	case analysis.MetricJitter:
		body = doc.JitterSeconds
	case analysis.MetricCumulative:
		body = doc.Cumulative
	case analysis.MetricTCPHandshake:
		body = doc.TCPHandshakes
	case analysis.MetricDNSResolution:
		body = doc.DNSResolutions
	default:
		h.writeError(w, http.StatusNotFound, "unknown metric: "+string(metric))
		return
	}

	if err, ok := h.report.Errors[metric]; ok {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, body)
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.WithError(err).Error("Failed to encode response")
	}
}

func (h *handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message, Code: status})
}

func requestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			started := time.Now()
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"route":    route,
				"status":   ww.Status(),
				"duration": time.Since(started),
			}).Debug("HTTP request")
		})
	}
}
