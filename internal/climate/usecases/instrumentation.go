package usecases

import (
	"thermostat-server/internal/climate/domain"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DropReasonMalformed = "malformed"
	DropReasonInvalid   = "invalid"
	DropReasonRegistry  = "registry"
)

// Instrumentation groups the Prometheus collectors of the control core.
type Instrumentation struct {
	samplesIngested  *prometheus.CounterVec
	samplesDropped   *prometheus.CounterVec
	locationsTracked prometheus.Gauge
	locationsEvicted prometheus.Counter
	modeTransitions  *prometheus.CounterVec
	actuatorErrors   prometheus.Counter
	currentMode      *prometheus.GaugeVec
}

// NewInstrumentation builds the collectors and registers them on reg.
func NewInstrumentation(reg prometheus.Registerer) *Instrumentation {
	i := &Instrumentation{
		samplesIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thermostat_samples_ingested_total",
			Help: "Samples accepted into the location registry by source.",
		}, []string{"source"}),
		samplesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thermostat_samples_dropped_total",
			Help: "Inbound messages discarded by reason.",
		}, []string{"reason"}),
		locationsTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "thermostat_locations_tracked",
			Help: "Locations currently held by the registry.",
		}),
		locationsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thermostat_locations_evicted_total",
			Help: "Locations forgotten after the staleness timeout.",
		}),
		modeTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thermostat_mode_transitions_total",
			Help: "Actuation mode changes by target mode.",
		}, []string{"mode"}),
		actuatorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thermostat_actuator_errors_total",
			Help: "Failed actuator writes.",
		}),
		currentMode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "thermostat_mode",
			Help: "1 for the asserted actuation mode, 0 otherwise.",
		}, []string{"mode"}),
	}

	reg.MustRegister(
		i.samplesIngested,
		i.samplesDropped,
		i.locationsTracked,
		i.locationsEvicted,
		i.modeTransitions,
		i.actuatorErrors,
		i.currentMode,
	)
	i.setMode(domain.ModeOff)

	return i
}

func (i *Instrumentation) sampleIngested(source string) {
	i.samplesIngested.WithLabelValues(source).Inc()
}

func (i *Instrumentation) sampleDropped(reason string) {
	i.samplesDropped.WithLabelValues(reason).Inc()
}

func (i *Instrumentation) trackedLocations(n int) {
	i.locationsTracked.Set(float64(n))
}

func (i *Instrumentation) locationEvicted() {
	i.locationsEvicted.Inc()
}

func (i *Instrumentation) modeTransition(mode domain.Mode) {
	i.modeTransitions.WithLabelValues(mode.String()).Inc()
	i.setMode(mode)
}

func (i *Instrumentation) actuatorError() {
	i.actuatorErrors.Inc()
}

func (i *Instrumentation) setMode(mode domain.Mode) {
	for _, m := range domain.Modes {
		value := 0.0
		if m == mode {
			value = 1
		}
		i.currentMode.WithLabelValues(m.String()).Set(value)
	}
}
