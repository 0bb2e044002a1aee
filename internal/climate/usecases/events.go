package usecases

import (
	"time"

	"thermostat-server/internal/climate/domain"
	"thermostat-server/internal/infra/async"
)

const (
	LocationsTopic async.BrokerTopicName = "climate_locations"
	DecisionsTopic async.BrokerTopicName = "climate_decisions"
	ReportsTopic   async.BrokerTopicName = "climate_reports"
)

const (
	EventLocationDiscovered = "location_discovered"
	EventLocationLost       = "location_lost"
	EventModeChanged        = "mode_changed"
	EventSnapshot           = "snapshot"
	EventLocationReport     = "location_report"
)

type LocationEvent struct {
	Location string    `json:"location"`
	At       time.Time `json:"at"`
}

type ModeChangedEvent struct {
	Mode     domain.Mode `json:"mode"`
	Previous domain.Mode `json:"previous"`
	Hold     string      `json:"hold"`
	At       time.Time   `json:"at"`
}

type ReportEvent struct {
	Unit      string                   `json:"unit"`
	Readings  []domain.LocationReading `json:"readings"`
	CreatedAt time.Time                `json:"created_at"`
}
