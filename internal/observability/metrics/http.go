package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	lettersProcessedTotal    *prometheus.CounterVec
	letterProcessDuration    *prometheus.HistogramVec
	workflowTransitionsTotal *prometheus.CounterVec
	llmCompletionDuration    *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "psb",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "psb",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "psb",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	lettersProcessedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "psb",
			Subsystem: "letters",
			Name:      "processed_total",
			Help:      "Total letters run through the understanding pipeline by type and outcome.",
		},
		[]string{"service", "letter_type", "status"},
	)
	letterProcessDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "psb",
			Subsystem: "letters",
			Name:      "process_duration_seconds",
			Help:      "Full pipeline duration per letter in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"service", "status"},
	)
	workflowTransitionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "psb",
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Total approval workflow actions by outcome.",
		},
		[]string{"service", "action", "status"},
	)
	llmCompletionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "psb",
			Subsystem: "llm",
			Name:      "completion_duration_seconds",
			Help:      "Reply generation duration in seconds by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		lettersProcessedTotal,
		letterProcessDuration,
		workflowTransitionsTotal,
		llmCompletionDuration,
	)

	return &HTTPServerMetrics{
		registry:                 registry,
		requestTotal:             requestTotal,
		requestDuration:          requestDuration,
		requestInFlight:          requestInFlight,
		lettersProcessedTotal:    lettersProcessedTotal,
		letterProcessDuration:    letterProcessDuration,
		workflowTransitionsTotal: workflowTransitionsTotal,
		llmCompletionDuration:    llmCompletionDuration,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/letters/"):
		rest := strings.TrimPrefix(path, "/v1/letters/")
		if action := pathAction(rest); action != "" {
			return "/v1/letters/{letter_id}/" + action
		}
		return "/v1/letters/{letter_id}"
	default:
		return path
	}
}

func pathAction(rest string) string {
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		return rest[idx+1:]
	}
	return ""
}

func (m *HTTPServerMetrics) RecordLetterProcessed(service, letterType string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	if letterType == "" {
		letterType = "unknown"
	}
	m.lettersProcessedTotal.WithLabelValues(service, letterType, status).Inc()
	m.letterProcessDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordWorkflowTransition(service, action string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.workflowTransitionsTotal.WithLabelValues(service, action, status).Inc()
}

func (m *HTTPServerMetrics) RecordCompletion(service string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.llmCompletionDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
