package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var _ = ginkgo.Describe("requestMetrics", func() {
	var (
		reader  *sdkmetric.ManualReader
		router  *http.ServeMux
		handler http.Handler
	)

	ginkgo.BeforeEach(func() {
		reader = sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		ginkgo.DeferCleanup(provider.Shutdown, context.Background())

		router = http.NewServeMux()
		router.HandleFunc("GET /v1/climate/locations/{id}", func(w http.ResponseWriter, r *http.Request) {
			if r.PathValue("id") == "attic" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		router.HandleFunc("GET /v1/climate/mode", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		router.HandleFunc("GET /ws/climate", func(w http.ResponseWriter, r *http.Request) {
			_, hijackable := w.(http.Hijacker)
			gomega.Expect(hijackable).To(gomega.BeTrue())
			w.WriteHeader(http.StatusSwitchingProtocols)
		})

		metrics, err := newRequestMetrics(provider.Meter(_instrumentationName), router)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		handler = metrics.middleware(router)
	})

	serve := func(path string) int {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	collect := func(name string) []metricdata.DataPoint[int64] {
		var rm metricdata.ResourceMetrics
		gomega.Expect(reader.Collect(context.Background(), &rm)).To(gomega.Succeed())
		for _, scope := range rm.ScopeMetrics {
			for _, m := range scope.Metrics {
				if m.Name != name {
					continue
				}
				sum, ok := m.Data.(metricdata.Sum[int64])
				gomega.Expect(ok).To(gomega.BeTrue(), "%s is not an int64 sum", name)
				return sum.DataPoints
			}
		}
		return nil
	}

	requests := func(route string, status int) int64 {
		for _, point := range collect(_metricPrefix + "requests.total") {
			r, _ := point.Attributes.Value(_routeAttribute)
			s, _ := point.Attributes.Value(_statusAttribute)
			if r.AsString() == route && s.AsInt64() == int64(status) {
				return point.Value
			}
		}
		return 0
	}

	ginkgo.It("should fold every location into one route", func() {
		gomega.Expect(serve("/v1/climate/locations/kitchen")).To(gomega.Equal(http.StatusOK))
		gomega.Expect(serve("/v1/climate/locations/living%20room")).To(gomega.Equal(http.StatusOK))
		gomega.Expect(serve("/v1/climate/locations/attic")).To(gomega.Equal(http.StatusNotFound))

		gomega.Expect(requests("/v1/climate/locations/{id}", http.StatusOK)).To(gomega.Equal(int64(2)))
		gomega.Expect(requests("/v1/climate/locations/{id}", http.StatusNotFound)).To(gomega.Equal(int64(1)))
	})

	ginkgo.It("should label unknown paths as unmatched", func() {
		gomega.Expect(serve("/wp-login.php")).To(gomega.Equal(http.StatusNotFound))
		gomega.Expect(serve("/v1/climate/mode")).To(gomega.Equal(http.StatusOK))

		gomega.Expect(requests(_unmatchedRoute, http.StatusNotFound)).To(gomega.Equal(int64(1)))
		gomega.Expect(requests("/v1/climate/mode", http.StatusOK)).To(gomega.Equal(int64(1)))
	})

	ginkgo.It("should keep the climate stream upgradable and settle the in-flight count", func() {
		gomega.Expect(serve("/ws/climate")).To(gomega.Equal(http.StatusSwitchingProtocols))

		points := collect(_metricPrefix + "requests.active")
		gomega.Expect(points).To(gomega.HaveLen(1))
		gomega.Expect(points[0].Value).To(gomega.BeZero())
		route, _ := points[0].Attributes.Value(_routeAttribute)
		gomega.Expect(route).To(gomega.Equal(attribute.StringValue("/ws/climate")))
	})

	ginkgo.It("should refuse to hijack a writer that cannot be hijacked", func() {
		writer := &statusWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}

		_, _, err := writer.Hijack()

		gomega.Expect(err).To(gomega.MatchError(gomega.ContainSubstring("does not support hijacking")))
	})
})
