package usecases_test

import (
	"context"
	"time"

	"thermostat-server/internal/climate/domain"
	"thermostat-server/internal/climate/usecases"
	"thermostat-server/internal/infra/async"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var _ = Describe("MetricPublisherWorker", func() {
	var (
		reader   *sdkmetric.ManualReader
		broker   *async.LocalBroker
		cancel   context.CancelFunc
		finished chan struct{}
	)

	BeforeEach(func() {
		reader = sdkmetric.NewManualReader()
		otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
		broker = async.NewLocalBroker()

		worker := usecases.NewMetricPublisherWorker(broker)
		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		finished = make(chan struct{})
		go worker.Run(ctx, func() { close(finished) })
	})

	AfterEach(func() {
		cancel()
		Eventually(finished).Should(BeClosed())
		broker.Stop()
	})

	collected := func() []string {
		var rm metricdata.ResourceMetrics
		Expect(reader.Collect(context.Background(), &rm)).To(Succeed())
		var names []string
		for _, scope := range rm.ScopeMetrics {
			for _, m := range scope.Metrics {
				names = append(names, m.Name)
			}
		}
		return names
	}

	publishWhenSubscribed := func(topic async.BrokerTopicName, msg async.BrokerMessage) {
		Eventually(func() error {
			return broker.Publish(context.Background(), topic, msg)
		}).Should(Succeed())
	}

	It("should record location averages from reports", func() {
		publishWhenSubscribed(usecases.ReportsTopic, async.BrokerMessage{
			Event: usecases.EventLocationReport,
			Value: usecases.ReportEvent{
				Unit:      "F",
				Readings:  []domain.LocationReading{{ID: "den", AvgTemperature: 71, AvgHumidity: 40}},
				CreatedAt: time.Now(),
			},
		})

		Eventually(collected).Should(ContainElements(
			"thermostat_server.location.temperature",
			"thermostat_server.location.humidity",
		))
	})

	It("should record mode changes and location events", func() {
		publishWhenSubscribed(usecases.DecisionsTopic, async.BrokerMessage{
			Event: usecases.EventModeChanged,
			Value: usecases.ModeChangedEvent{Mode: domain.ModeHeat, Previous: domain.ModeOff},
		})
		publishWhenSubscribed(usecases.LocationsTopic, async.BrokerMessage{
			Event: usecases.EventLocationLost,
			Value: usecases.LocationEvent{Location: "den"},
		})

		Eventually(collected).Should(ContainElements(
			"thermostat_server.mode",
			"thermostat_server.location_events",
		))
	})
})
