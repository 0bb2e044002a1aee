package internal

import (
	"time"

	"thermostat-server/internal/climate/domain"
)

type LocationListResponse struct {
	Data  []domain.LocationReading `json:"data"`
	Total int                      `json:"total"`
}

// ClimateMessage is one frame of the live climate stream.
type ClimateMessage struct {
	Type      string    `json:"type"`
	Topic     string    `json:"topic"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}
