package dto_test

import (
	"math"

	"thermostat-server/internal/climate/domain"
	"thermostat-server/internal/data_plane/dto"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Datagram", func() {
	Context("ParseSample", func() {
		When("the payload is well formed", func() {
			It("should decode the three fields", func() {
				sample, err := dto.ParseSample([]byte("living room, 21.5, 40.2"))

				Expect(err).NotTo(HaveOccurred())
				Expect(sample.Location).To(Equal("living room"))
				Expect(sample.TemperatureC).To(BeNumerically("~", 21.5, 1e-9))
				Expect(sample.HumidityPct).To(BeNumerically("~", 40.2, 1e-9))
			})

			It("should tolerate a trailing newline and padding", func() {
				sample, err := dto.ParseSample([]byte("garage, -3.0, 80.0\n\x00\x00"))

				Expect(err).NotTo(HaveOccurred())
				Expect(sample.Location).To(Equal("garage"))
				Expect(sample.TemperatureC).To(BeNumerically("~", -3, 1e-9))
			})

			It("should keep separators that belong to the location name", func() {
				sample, err := dto.ParseSample([]byte("upstairs, west, 19.0, 35.0"))

				Expect(err).NotTo(HaveOccurred())
				Expect(sample.Location).To(Equal("upstairs, west"))
			})

			It("should let non finite values through for validation to reject", func() {
				sample, err := dto.ParseSample([]byte("attic, NaN, 35.0"))

				Expect(err).NotTo(HaveOccurred())
				Expect(math.IsNaN(sample.TemperatureC)).To(BeTrue())
				Expect(sample.Validate()).To(MatchError(domain.ErrInvalidSample))
			})
		})

		DescribeTable("malformed or truncated payloads",
			func(payload []byte) {
				_, err := dto.ParseSample(payload)

				Expect(err).To(MatchError(domain.ErrMalformedDatagram))
			},
			Entry("empty", []byte("")),
			Entry("single field", []byte("kitchen")),
			Entry("two fields", []byte("kitchen, 21.0")),
			Entry("truncated humidity", []byte("kitchen, 21.0, ")),
			Entry("non numeric temperature", []byte("kitchen, warm, 40.0")),
			Entry("non numeric humidity", []byte("kitchen, 21.0, damp")),
			Entry("missing space after comma", []byte("kitchen,21.0,40.0")),
			Entry("empty location", []byte(", 21.0, 40.0")),
			Entry("invalid utf-8", []byte{0xff, 0xfe, ',', ' ', '1', ',', ' ', '2'}),
		)
	})

	Context("FormatSample", func() {
		It("should format numbers with one fractional digit", func() {
			payload := dto.FormatSample(domain.Sample{Location: "den", TemperatureC: 21.456, HumidityPct: 40})

			Expect(string(payload)).To(Equal("den, 21.5, 40.0"))
		})

		It("should be readable by ParseSample", func() {
			original := domain.Sample{Location: "bedroom", TemperatureC: 18.2, HumidityPct: 55.1}

			sample, err := dto.ParseSample(dto.FormatSample(original))

			Expect(err).NotTo(HaveOccurred())
			Expect(sample.Location).To(Equal(original.Location))
			Expect(sample.TemperatureC).To(BeNumerically("~", original.TemperatureC, 1e-9))
			Expect(sample.HumidityPct).To(BeNumerically("~", original.HumidityPct, 1e-9))
		})
	})
})
