package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"thermostat-server/internal/climate/domain"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
	LogFormatTint = "tint"

	DriverLog  = "log"
	DriverMQTT = "mqtt"
)

var loadConfigOnce sync.Once
var configInstance AppConfig
var configErr error

// LoadConfig reads the process configuration once. A path, when given,
// replaces the default search of thermostat.yaml in ./config and /config.
func LoadConfig(path string) (AppConfig, error) {
	loadConfigOnce.Do(func() {
		v := viper.GetViper()
		if path != "" {
			v.SetConfigFile(path)
		} else {
			v.SetConfigName("thermostat")
			v.AddConfigPath("config")
			v.AddConfigPath("/config")
		}
		configInstance, configErr = Load(v)
	})

	return configInstance, configErr
}

// Load builds an AppConfig from v. A missing config file is not an error,
// defaults and environment apply.
func Load(v *viper.Viper) (AppConfig, error) {
	v.SetEnvPrefix("thermostat")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := AppConfig{
		General: GeneralConfig{
			LogLevel:  v.GetString("general.log_level"),
			LogFormat: v.GetString("general.log_format"),
		},
		Ingest: IngestConfig{
			UDP: UDPConfig{
				Address:     v.GetString("ingest.udp.address"),
				BufferSize:  v.GetInt("ingest.udp.buffer_size"),
				ReadTimeout: v.GetDuration("ingest.udp.read_timeout"),
			},
			MQTT: MQTTIngestConfig{
				Enabled:     v.GetBool("ingest.mqtt.enabled"),
				Topic:       v.GetString("ingest.mqtt.topic"),
				BufferSize:  v.GetInt("ingest.mqtt.buffer_size"),
				ReadTimeout: v.GetDuration("ingest.mqtt.read_timeout"),
			},
		},
		MQTTClient: MQTTClientConfig{
			Broker:   v.GetString("mqtt_client.broker"),
			ClientID: v.GetString("mqtt_client.client_id"),
			Username: v.GetString("mqtt_client.username"),
			Password: v.GetString("mqtt_client.password"),
		},
		Climate: ClimateConfig{
			Unit:               v.GetString("climate.unit"),
			TempLow:            v.GetFloat64("climate.temp_low"),
			TempHigh:           v.GetFloat64("climate.temp_high"),
			SpreadThreshold:    v.GetFloat64("climate.spread_threshold"),
			WindowSize:         v.GetInt("climate.window_size"),
			ColdStart:          v.GetString("climate.cold_start"),
			DefaultTemperature: v.GetFloat64("climate.default_temperature"),
			DefaultHumidity:    v.GetFloat64("climate.default_humidity"),
		},
		Liveness: LivenessConfig{
			Timeout: v.GetDuration("liveness.timeout"),
			Period:  v.GetDuration("liveness.period"),
		},
		Control: ControlConfig{
			Period:       v.GetDuration("control.period"),
			StartupDelay: v.GetDuration("control.startup_delay"),
			Dwell: DwellConfig{
				Heat: v.GetDuration("control.dwell.heat"),
				Cool: v.GetDuration("control.dwell.cool"),
				Fan:  v.GetDuration("control.dwell.fan"),
				Off:  v.GetDuration("control.dwell.off"),
			},
		},
		Actuator: ActuatorConfig{
			Driver:    v.GetString("actuator.driver"),
			ActiveLow: v.GetBool("actuator.active_low"),
			Pins: PinsConfig{
				Heat: v.GetInt("actuator.pins.heat"),
				Cool: v.GetInt("actuator.pins.cool"),
				Fan:  v.GetInt("actuator.pins.fan"),
			},
			MQTTTopic: v.GetString("actuator.mqtt_topic"),
		},
		Report: ReportConfig{
			Schedule: v.GetString("report.schedule"),
		},
		HTTP: HTTPConfig{
			Address:        v.GetString("http.address"),
			AllowedOrigins: v.GetStringSlice("http.allowed_origins"),
		},
	}
	// an absent key means the band midpoint; 0 is a valid celsius reading
	if !v.IsSet("climate.default_temperature") {
		cfg.Climate.DefaultTemperature = cfg.Thresholds().Midpoint()
	}

	return cfg, cfg.Validate()
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.log_format", LogFormatText)

	v.SetDefault("ingest.udp.address", ":4815")
	v.SetDefault("ingest.udp.buffer_size", 1024)
	v.SetDefault("ingest.udp.read_timeout", time.Second)
	v.SetDefault("ingest.mqtt.enabled", false)
	v.SetDefault("ingest.mqtt.topic", "thermostat/sensors/+")
	v.SetDefault("ingest.mqtt.buffer_size", 256)
	v.SetDefault("ingest.mqtt.read_timeout", time.Second)

	v.SetDefault("mqtt_client.broker", "")
	v.SetDefault("mqtt_client.client_id", "thermostat-server")
	v.SetDefault("mqtt_client.username", "")
	v.SetDefault("mqtt_client.password", "")

	v.SetDefault("climate.unit", string(domain.UnitFahrenheit))
	v.SetDefault("climate.temp_low", 70.0)
	v.SetDefault("climate.temp_high", 76.0)
	v.SetDefault("climate.spread_threshold", 3.0)
	v.SetDefault("climate.window_size", 20)
	v.SetDefault("climate.cold_start", string(domain.ColdStartPrefill))
	v.SetDefault("climate.default_humidity", 40.0)

	v.SetDefault("liveness.timeout", 600*time.Second)
	v.SetDefault("liveness.period", 6*time.Second)

	v.SetDefault("control.period", time.Second)
	v.SetDefault("control.startup_delay", 30*time.Second)
	v.SetDefault("control.dwell.heat", 300*time.Second)
	v.SetDefault("control.dwell.cool", 300*time.Second)
	v.SetDefault("control.dwell.fan", 300*time.Second)
	v.SetDefault("control.dwell.off", 120*time.Second)

	v.SetDefault("actuator.driver", DriverLog)
	v.SetDefault("actuator.active_low", true)
	v.SetDefault("actuator.pins.heat", 17)
	v.SetDefault("actuator.pins.cool", 10)
	v.SetDefault("actuator.pins.fan", 22)
	v.SetDefault("actuator.mqtt_topic", "thermostat/relays")

	v.SetDefault("report.schedule", "@every 1m")

	v.SetDefault("http.address", ":3000")
	v.SetDefault("http.allowed_origins", []string{"*"})
}

type AppConfig struct {
	General    GeneralConfig
	Ingest     IngestConfig
	MQTTClient MQTTClientConfig
	Climate    ClimateConfig
	Liveness   LivenessConfig
	Control    ControlConfig
	Actuator   ActuatorConfig
	Report     ReportConfig
	HTTP       HTTPConfig
}

type GeneralConfig struct {
	LogLevel  string
	LogFormat string
}

type IngestConfig struct {
	UDP  UDPConfig
	MQTT MQTTIngestConfig
}

type UDPConfig struct {
	Address     string
	BufferSize  int
	ReadTimeout time.Duration
}

type MQTTIngestConfig struct {
	Enabled     bool
	Topic       string
	BufferSize  int
	ReadTimeout time.Duration
}

type MQTTClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

type ClimateConfig struct {
	Unit               string
	TempLow            float64
	TempHigh           float64
	SpreadThreshold    float64
	WindowSize         int
	ColdStart          string
	DefaultTemperature float64
	DefaultHumidity    float64
}

type LivenessConfig struct {
	Timeout time.Duration
	Period  time.Duration
}

type ControlConfig struct {
	Period       time.Duration
	StartupDelay time.Duration
	Dwell        DwellConfig
}

type DwellConfig struct {
	Heat time.Duration
	Cool time.Duration
	Fan  time.Duration
	Off  time.Duration
}

type ActuatorConfig struct {
	Driver    string
	ActiveLow bool
	Pins      PinsConfig
	MQTTTopic string
}

type PinsConfig struct {
	Heat int
	Cool int
	Fan  int
}

type ReportConfig struct {
	Schedule string
}

type HTTPConfig struct {
	Address        string
	AllowedOrigins []string
}

func (c AppConfig) Thresholds() domain.Thresholds {
	return domain.Thresholds{
		Low:    c.Climate.TempLow,
		High:   c.Climate.TempHigh,
		Spread: c.Climate.SpreadThreshold,
	}
}

func (c AppConfig) DwellTimes() domain.DwellTimes {
	return domain.DwellTimes{
		domain.ModeHeat: c.Control.Dwell.Heat,
		domain.ModeCool: c.Control.Dwell.Cool,
		domain.ModeFan:  c.Control.Dwell.Fan,
		domain.ModeOff:  c.Control.Dwell.Off,
	}
}

func (c AppConfig) Unit() domain.Unit {
	unit, _ := domain.ParseUnit(c.Climate.Unit)
	return unit
}

func (c AppConfig) ColdStart() domain.ColdStart {
	coldStart, _ := domain.ParseColdStart(c.Climate.ColdStart)
	return coldStart
}

// Validate reports every invalid setting at once.
func (c AppConfig) Validate() error {
	var errs []error

	switch c.General.LogFormat {
	case LogFormatText, LogFormatJSON, LogFormatTint:
	default:
		errs = append(errs, fmt.Errorf("general.log_format: unknown format %q", c.General.LogFormat))
	}

	if _, err := domain.ParseUnit(c.Climate.Unit); err != nil {
		errs = append(errs, fmt.Errorf("climate.unit: %w", err))
	}
	if _, err := domain.ParseColdStart(c.Climate.ColdStart); err != nil {
		errs = append(errs, fmt.Errorf("climate.cold_start: %w", err))
	}
	if c.Climate.TempLow >= c.Climate.TempHigh {
		errs = append(errs, fmt.Errorf("climate.temp_low (%v) must be below climate.temp_high (%v)", c.Climate.TempLow, c.Climate.TempHigh))
	}
	if c.Climate.SpreadThreshold <= 0 {
		errs = append(errs, errors.New("climate.spread_threshold must be positive"))
	}
	if c.Climate.WindowSize < 1 {
		errs = append(errs, errors.New("climate.window_size must be at least 1"))
	}
	if c.Ingest.UDP.BufferSize < 1 {
		errs = append(errs, errors.New("ingest.udp.buffer_size must be positive"))
	}
	if c.Ingest.MQTT.BufferSize < 1 {
		errs = append(errs, errors.New("ingest.mqtt.buffer_size must be positive"))
	}

	durations := map[string]time.Duration{
		"ingest.udp.read_timeout":  c.Ingest.UDP.ReadTimeout,
		"ingest.mqtt.read_timeout": c.Ingest.MQTT.ReadTimeout,
		"liveness.timeout":         c.Liveness.Timeout,
		"liveness.period":          c.Liveness.Period,
		"control.period":           c.Control.Period,
		"control.dwell.heat":       c.Control.Dwell.Heat,
		"control.dwell.cool":       c.Control.Dwell.Cool,
		"control.dwell.fan":        c.Control.Dwell.Fan,
		"control.dwell.off":        c.Control.Dwell.Off,
	}
	for key, d := range durations {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be a positive duration", key))
		}
	}
	if c.Control.StartupDelay < 0 {
		errs = append(errs, errors.New("control.startup_delay must not be negative"))
	}

	pins := c.Actuator.Pins
	if pins.Heat == pins.Cool || pins.Heat == pins.Fan || pins.Cool == pins.Fan {
		errs = append(errs, fmt.Errorf("actuator.pins must be distinct, got heat=%d cool=%d fan=%d", pins.Heat, pins.Cool, pins.Fan))
	}
	switch c.Actuator.Driver {
	case DriverLog:
	case DriverMQTT:
		if c.MQTTClient.Broker == "" {
			errs = append(errs, errors.New("actuator.driver mqtt requires mqtt_client.broker"))
		}
	default:
		errs = append(errs, fmt.Errorf("actuator.driver: unknown driver %q", c.Actuator.Driver))
	}
	if c.Ingest.MQTT.Enabled && c.MQTTClient.Broker == "" {
		errs = append(errs, errors.New("ingest.mqtt.enabled requires mqtt_client.broker"))
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Report.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("report.schedule: %w", err))
	}

	return errors.Join(errs...)
}
