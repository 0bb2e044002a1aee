// Command sensor emulates a sensor node. It emits one reading every interval
// in the node wire format, over UDP or MQTT.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thermostat-server/internal/climate/domain"
	"thermostat-server/internal/data_plane/dto"
	"thermostat-server/internal/infra/mqtt"
	"thermostat-server/internal/infra/udp"

	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"
)

type sender interface {
	Send(payload []byte) error
	Close() error
}

type mqttSender struct {
	client mqtt.Client
	topic  string
}

func (s *mqttSender) Send(payload []byte) error {
	return s.client.Publish(s.topic, payload)
}

func (s *mqttSender) Close() error {
	s.client.Disconnect()
	return nil
}

func main() {
	var (
		location    = pflag.StringP("location", "l", "livingroom", "location reported by this node")
		transport   = pflag.StringP("transport", "t", "udp", "transport to use (udp, mqtt)")
		address     = pflag.StringP("address", "a", "127.0.0.1:4815", "udp address of the thermostat")
		broker      = pflag.String("broker", "tcp://localhost:1883", "mqtt broker url")
		topicPrefix = pflag.String("topic", "thermostat/sensors", "mqtt topic prefix, the location is appended")
		interval    = pflag.DurationP("interval", "i", 3*time.Second, "time between readings")
		base        = pflag.Float64("temperature", 22, "mean temperature in celsius")
		drift       = pflag.Float64("drift", 0.3, "maximum change between consecutive readings")
		humidity    = pflag.Float64("humidity", 40, "mean relative humidity")
		count       = pflag.IntP("count", "n", 0, "readings to send, 0 runs until interrupted")
	)
	pflag.Parse()

	slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{TimeFormat: time.Kitchen})))

	out, err := newSender(*transport, *address, *broker, *topicPrefix+"/"+*location)
	if err != nil {
		slog.Error("creating sender", slog.String("transport", *transport), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer out.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("sensor node started",
		slog.String("location", *location),
		slog.String("transport", *transport),
		slog.Duration("interval", *interval),
	)

	reading := domain.Sample{Location: *location, TemperatureC: *base, HumidityPct: *humidity}
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for sent := 0; *count == 0 || sent < *count; sent++ {
		payload := dto.FormatSample(reading)
		if err := out.Send(payload); err != nil {
			slog.Error("sending reading", slog.String("error", err.Error()))
		} else {
			slog.Info("reading sent", slog.String("payload", string(payload)))
		}

		select {
		case <-ctx.Done():
			slog.Info("good bye!!!")
			return
		case <-ticker.C:
		}
		reading = next(reading, *base, *humidity, *drift)
	}
}

func newSender(transport, address, broker, topic string) (sender, error) {
	switch transport {
	case "udp":
		return udp.Dial(address)
	case "mqtt":
		client, err := mqtt.NewSimpleClient(mqtt.SimpleClientOpts{
			Broker:   broker,
			ClientID: fmt.Sprintf("thermostat-sensor-%d", rand.IntN(1_000_000)),
		})
		if err != nil {
			return nil, err
		}
		return &mqttSender{client: client, topic: topic}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", transport)
	}
}

// next random-walks the reading, pulled back toward the configured means.
func next(s domain.Sample, baseTemp, baseHumidity, drift float64) domain.Sample {
	step := func(value, mean, limit float64) float64 {
		pull := (mean - value) * 0.1
		return value + pull + (rand.Float64()*2-1)*limit
	}
	s.TemperatureC = step(s.TemperatureC, baseTemp, drift)
	s.HumidityPct = min(100, max(0, step(s.HumidityPct, baseHumidity, drift*2)))
	return s
}
