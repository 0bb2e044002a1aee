package httpserver

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	_instrumentationName = "thermostat-server"
	_unmatchedRoute      = "unmatched"
	_metricPrefix        = "thermostat_server.http."
	_routeAttribute      = "http.route"
	_methodAttribute     = "http.method"
	_statusAttribute     = "http.status_code"
)

// requestMetrics labels every request with the route pattern the router
// resolves for it, so location ids never become label values.
type requestMetrics struct {
	routes   *http.ServeMux
	duration metric.Float64Histogram
	total    metric.Int64Counter
	inFlight metric.Int64UpDownCounter
}

func newRequestMetrics(meter metric.Meter, routes *http.ServeMux) (*requestMetrics, error) {
	duration, durationErr := meter.Float64Histogram(
		_metricPrefix+"request.duration.seconds",
		metric.WithDescription("Duration of HTTP requests by route"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	total, totalErr := meter.Int64Counter(
		_metricPrefix+"requests.total",
		metric.WithDescription("HTTP requests served by route and status"),
	)
	inFlight, inFlightErr := meter.Int64UpDownCounter(
		_metricPrefix+"requests.active",
		metric.WithDescription("HTTP requests in progress, websocket streams included"),
	)
	if err := errors.Join(durationErr, totalErr, inFlightErr); err != nil {
		return nil, fmt.Errorf("creating http instruments: %w", err)
	}

	return &requestMetrics{
		routes:   routes,
		duration: duration,
		total:    total,
		inFlight: inFlight,
	}, nil
}

func (m *requestMetrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := metric.WithAttributes(
			attribute.String(_methodAttribute, r.Method),
			attribute.String(_routeAttribute, m.route(r)),
		)

		m.inFlight.Add(r.Context(), 1, route)
		defer m.inFlight.Add(r.Context(), -1, route)

		wrapped := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		outcome := metric.WithAttributes(attribute.Int(_statusAttribute, wrapped.statusCode))
		m.duration.Record(r.Context(), time.Since(start).Seconds(), route, outcome)
		m.total.Add(r.Context(), 1, route, outcome)
	})
}

// route returns the path part of the matching pattern, e.g.
// "/v1/climate/locations/{id}".
func (m *requestMetrics) route(r *http.Request) string {
	_, pattern := m.routes.Handler(r)
	if pattern == "" {
		return _unmatchedRoute
	}
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return path
	}
	return pattern
}

// statusWriter remembers the status code and stays hijackable for the
// climate websocket.
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}
