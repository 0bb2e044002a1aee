package mqtt_test

import (
	"context"
	"time"

	"thermostat-server/internal/data_plane/dto"
	"thermostat-server/internal/infra/mqtt"

	paho "github.com/eclipse/paho.mqtt.golang"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("MQTT Client", func() {
	ginkgo.Context("MessageTypeAlias", func() {
		ginkgo.It("should accept paho messages", func() {
			var _ mqtt.Message = (paho.Message)(nil)
		})
	})

	ginkgo.Context("NewSimpleClient", func() {
		ginkgo.When("the broker is unreachable", func() {
			ginkgo.It("should return an error instead of panicking", func() {
				client, err := mqtt.NewSimpleClient(mqtt.SimpleClientOpts{
					Broker:   "tcp://127.0.0.1:1",
					ClientID: "unreachable",
				})

				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(client).To(gomega.BeNil())
			})
		})
	})

	ginkgo.Context("with an embedded broker", func() {
		var (
			server    *mochi.Server
			url       string
			publisher *mqtt.SimpleClient
		)

		ginkgo.BeforeEach(func() {
			server, url = startBroker()
			var err error
			publisher, err = mqtt.NewSimpleClient(mqtt.SimpleClientOpts{Broker: url, ClientID: "sensor-emulator"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
		})

		ginkgo.AfterEach(func() {
			publisher.Disconnect()
			gomega.Expect(server.Close()).To(gomega.Succeed())
		})

		ginkgo.It("should deliver JSON payloads to subscribers", func() {
			subscriber, err := mqtt.NewSimpleClient(mqtt.SimpleClientOpts{Broker: url, ClientID: "relay-board"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			defer subscriber.Disconnect()

			received := make(chan []byte, 1)
			err = subscriber.Subscribe("thermostat/relays", 0, func(_ mqtt.Client, msg mqtt.Message) {
				received <- msg.Payload()
			})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			gomega.Expect(publisher.Publish("thermostat/relays", map[string]bool{"heat": true})).To(gomega.Succeed())

			gomega.Eventually(received).Should(gomega.Receive(gomega.MatchJSON(`{"heat":true}`)))
		})

		ginkgo.Context("Source", func() {
			var (
				consumer *mqtt.SimpleClient
				source   *mqtt.Source
			)

			ginkgo.BeforeEach(func() {
				var err error
				consumer, err = mqtt.NewSimpleClient(mqtt.SimpleClientOpts{Broker: url, ClientID: "thermostat-server"})
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				source, err = mqtt.NewSource(consumer, mqtt.SourceOpts{
					Topic:       "thermostat/sensors/+",
					ReadTimeout: 50 * time.Millisecond,
				})
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
			})

			ginkgo.AfterEach(func() {
				consumer.Disconnect()
			})

			ginkgo.It("should report an empty read window", func() {
				_, err := source.Receive(context.Background())

				gomega.Expect(err).To(gomega.MatchError(dto.ErrNoDatagram))
			})

			ginkgo.It("should turn published sensor messages into datagrams", func() {
				gomega.Expect(publisher.Publish("thermostat/sensors/kitchen", []byte("kitchen, 21.5, 40.0"))).To(gomega.Succeed())

				gomega.Eventually(func() string {
					d, err := source.Receive(context.Background())
					if err != nil {
						return ""
					}
					gomega.Expect(d.Origin).To(gomega.Equal("thermostat/sensors/kitchen"))
					return string(d.Payload)
				}).Should(gomega.Equal("kitchen, 21.5, 40.0"))
			})

			ginkgo.It("should observe cancellation", func() {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()

				_, err := source.Receive(ctx)

				gomega.Expect(err).To(gomega.MatchError(context.Canceled))
			})
		})
	})
})
