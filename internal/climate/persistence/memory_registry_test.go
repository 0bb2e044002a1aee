package persistence_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"thermostat-server/internal/climate/domain"
	"thermostat-server/internal/climate/persistence"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("MemoryRegistry", func() {
	var (
		ctx      context.Context
		registry *persistence.MemoryRegistry
		t0       time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	})

	measurement := func(location string, temperature float64) domain.Measurement {
		return domain.Measurement{Location: location, Temperature: temperature, Humidity: 45}
	}

	Context("Upsert", func() {
		BeforeEach(func() {
			registry = persistence.NewMemoryRegistry(
				persistence.WithWindowSize(4),
				persistence.WithDefaults(73, 40),
			)
		})

		It("should report creation only for an unseen location", func() {
			created, err := registry.Upsert(ctx, measurement("kitchen", 70), t0)
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeTrue())

			created, err = registry.Upsert(ctx, measurement("kitchen", 71), t0.Add(time.Second))
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeFalse())
			Expect(registry.Len(ctx)).To(Equal(1))
		})

		It("should reject an empty location", func() {
			_, err := registry.Upsert(ctx, measurement("", 70), t0)

			Expect(err).To(MatchError(domain.ErrInvalidSample))
			Expect(registry.Len(ctx)).To(BeZero())
		})

		It("should average new samples with the neutral prefill", func() {
			_, _ = registry.Upsert(ctx, measurement("kitchen", 77), t0)

			readings := registry.Readings(ctx)
			Expect(readings).To(HaveLen(1))
			Expect(readings[0].AvgTemperature).To(BeNumerically("~", (73*3+77)/4.0, 1e-9))
			Expect(readings[0].AvgHumidity).To(BeNumerically("~", (40*3+45)/4.0, 1e-9))
			Expect(readings[0].Samples).To(Equal(1))
			Expect(readings[0].Warm).To(BeTrue())
			Expect(readings[0].LastSeen).To(Equal(t0))
		})

		It("should only reflect the last window size samples", func() {
			for i, temperature := range []float64{10, 20, 60, 61, 62, 63} {
				_, _ = registry.Upsert(ctx, measurement("kitchen", temperature), t0.Add(time.Duration(i)*time.Second))
			}

			readings := registry.Readings(ctx)
			Expect(readings[0].AvgTemperature).To(BeNumerically("~", 61.5, 1e-9))
			Expect(readings[0].Samples).To(Equal(6))
		})
	})

	Context("exclude cold start", func() {
		BeforeEach(func() {
			registry = persistence.NewMemoryRegistry(
				persistence.WithWindowSize(2),
				persistence.WithColdStart(domain.ColdStartExclude),
			)
		})

		It("should average real samples only and mark the window warm once full", func() {
			_, _ = registry.Upsert(ctx, measurement("den", 65), t0)

			readings := registry.Readings(ctx)
			Expect(readings[0].AvgTemperature).To(BeNumerically("~", 65, 1e-9))
			Expect(readings[0].Warm).To(BeFalse())

			_, _ = registry.Upsert(ctx, measurement("den", 67), t0.Add(time.Second))

			readings = registry.Readings(ctx)
			Expect(readings[0].AvgTemperature).To(BeNumerically("~", 66, 1e-9))
			Expect(readings[0].Warm).To(BeTrue())
		})
	})

	Context("eviction", func() {
		BeforeEach(func() {
			registry = persistence.NewMemoryRegistry(persistence.WithWindowSize(2))
			_, _ = registry.Upsert(ctx, measurement("attic", 72), t0)
		})

		It("should keep a location that is not stale yet", func() {
			Expect(registry.EvictIfStale(ctx, "attic", t0.Add(599*time.Second), 600*time.Second)).To(BeFalse())
			Expect(registry.Locations(ctx)).To(ConsistOf("attic"))
		})

		It("should evict a location silent for the whole timeout", func() {
			Expect(registry.EvictIfStale(ctx, "attic", t0.Add(600*time.Second), 600*time.Second)).To(BeTrue())
			Expect(registry.Locations(ctx)).To(BeEmpty())
			Expect(registry.Readings(ctx)).To(BeEmpty())
		})

		It("should not evict a location refreshed after the sweep started", func() {
			_, _ = registry.Upsert(ctx, measurement("attic", 72), t0.Add(590*time.Second))

			Expect(registry.EvictIfStale(ctx, "attic", t0.Add(601*time.Second), 600*time.Second)).To(BeFalse())
		})

		It("should be idempotent", func() {
			Expect(registry.Evict(ctx, "attic")).To(BeTrue())
			Expect(registry.Evict(ctx, "attic")).To(BeFalse())
			Expect(registry.EvictIfStale(ctx, "attic", t0.Add(time.Hour), time.Second)).To(BeFalse())
		})

		It("should rediscover an evicted location as a fresh entry", func() {
			registry.Evict(ctx, "attic")

			created, err := registry.Upsert(ctx, measurement("attic", 60), t0.Add(time.Hour))

			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeTrue())
			Expect(registry.Readings(ctx)[0].Samples).To(Equal(1))
		})
	})

	Context("concurrent access", func() {
		BeforeEach(func() {
			registry = persistence.NewMemoryRegistry(persistence.WithWindowSize(5))
		})

		It("should keep windows bounded and consistent", func() {
			var wg sync.WaitGroup
			for w := 0; w < 8; w++ {
				wg.Add(1)
				go func(worker int) {
					defer wg.Done()
					location := fmt.Sprintf("room-%d", worker%4)
					for i := 0; i < 200; i++ {
						_, _ = registry.Upsert(ctx, measurement(location, 72), t0)
					}
				}(w)
			}
			wg.Add(2)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				for i := 0; i < 200; i++ {
					for _, r := range registry.Readings(ctx) {
						Expect(r.AvgTemperature).To(BeNumerically("~", 73, 1.01))
					}
				}
			}()
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					registry.Evict(ctx, "room-0")
				}
			}()
			wg.Wait()

			Expect(registry.Len(ctx)).To(BeNumerically("<=", 4))
			for _, r := range registry.Readings(ctx) {
				Expect(r.AvgTemperature).To(BeNumerically("~", 72, 1.01))
			}
		})
	})
})
