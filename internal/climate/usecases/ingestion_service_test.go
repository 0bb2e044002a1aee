package usecases_test

import (
	"context"
	"errors"
	"math"
	"time"

	"thermostat-server/internal/climate/domain"
	"thermostat-server/internal/climate/usecases"
	"thermostat-server/internal/infra/async"
	mockusecases "thermostat-server/test/unit/doubles/climate/usecases"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/mock/gomock"
)

var _ = ginkgo.Describe("IngestionService", func() {
	var (
		ctrl     *gomock.Controller
		registry *mockusecases.MockLocationRegistry
		broker   *async.LocalBroker
		clock    *manualClock
		service  *usecases.IngestionService
		ctx      context.Context
	)

	ginkgo.BeforeEach(func() {
		ctrl = gomock.NewController(ginkgo.GinkgoT())
		registry = mockusecases.NewMockLocationRegistry(ctrl)
		broker = async.NewLocalBroker()
		clock = newManualClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
		service = usecases.NewIngestionService(
			registry,
			domain.UnitFahrenheit,
			clock,
			broker,
			usecases.NewInstrumentation(prometheus.NewRegistry()),
		)
		ctx = context.Background()
	})

	ginkgo.AfterEach(func() {
		ctrl.Finish()
		broker.Stop()
	})

	ginkgo.It("should convert to the canonical unit and upsert", func() {
		registry.EXPECT().
			Upsert(gomock.Any(), domain.Measurement{Location: "kitchen", Temperature: 68, Humidity: 40}, clock.Now()).
			Return(false, nil)
		registry.EXPECT().Len(gomock.Any()).Return(1)

		err := service.Ingest(ctx, domain.Sample{Location: " kitchen ", TemperatureC: 20, HumidityPct: 40}, "udp")

		gomega.Expect(err).NotTo(gomega.HaveOccurred())
	})

	ginkgo.It("should announce a newly discovered location", func() {
		subscription, _ := broker.Subscribe(usecases.LocationsTopic)
		registry.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
		registry.EXPECT().Len(gomock.Any()).Return(1)

		err := service.Ingest(ctx, domain.Sample{Location: "den", TemperatureC: 20, HumidityPct: 50}, "udp")

		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Eventually(subscription.Receiver).Should(gomega.Receive(gomega.And(
			gomega.HaveField("Event", usecases.EventLocationDiscovered),
			gomega.HaveField("Value", usecases.LocationEvent{Location: "den", At: clock.Now()}),
		)))
	})

	ginkgo.DescribeTable("should drop invalid samples without touching the registry",
		func(sample domain.Sample) {
			err := service.Ingest(ctx, sample, "udp")

			gomega.Expect(err).To(gomega.MatchError(domain.ErrInvalidSample))
		},
		ginkgo.Entry("empty location", domain.Sample{Location: "  ", TemperatureC: 20, HumidityPct: 40}),
		ginkgo.Entry("NaN temperature", domain.Sample{Location: "den", TemperatureC: math.NaN(), HumidityPct: 40}),
		ginkgo.Entry("infinite humidity", domain.Sample{Location: "den", TemperatureC: 20, HumidityPct: math.Inf(1)}),
	)

	ginkgo.It("should surface registry failures", func() {
		failure := errors.New("registry unavailable")
		registry.EXPECT().Upsert(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, failure)

		err := service.Ingest(ctx, domain.Sample{Location: "den", TemperatureC: 20, HumidityPct: 40}, "udp")

		gomega.Expect(err).To(gomega.MatchError(failure))
	})
})
