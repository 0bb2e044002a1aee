package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"thermostat-server/internal/climate/domain"
	"thermostat-server/internal/climate/httpapi/internal"
	"thermostat-server/internal/climate/usecases"
	"thermostat-server/internal/infra/httpserver"
	"thermostat-server/internal/infra/node"
)

const (
	snapshotErrMessage = "failed to compute snapshot"
	locationNotFound   = "location not found"
)

func NewStatusController(
	snapshots usecases.SnapshotSource,
	registry usecases.LocationRegistry,
	modes usecases.ModeSource,
) *StatusController {
	return &StatusController{
		snapshots: snapshots,
		registry:  registry,
		modes:     modes,
	}
}

var _ httpserver.Controller = &StatusController{}

// StatusController serves read-only views of the control core.
type StatusController struct {
	snapshots usecases.SnapshotSource
	registry  usecases.LocationRegistry
	modes     usecases.ModeSource
}

func (c *StatusController) AddRoutes(router *http.ServeMux) {
	router.Handle("GET /v1/climate/snapshot", c.getSnapshot())
	router.Handle("GET /v1/climate/locations", c.listLocations())
	router.Handle("GET /v1/climate/locations/{id}", c.getLocation())
	router.Handle("GET /v1/climate/mode", c.getMode())
	router.Handle("GET /v1/node", c.getNode())
}

func (c *StatusController) getSnapshot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := c.snapshots.Snapshot(r.Context())
		if errors.Is(err, domain.ErrNoData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err != nil {
			slog.Error("computing snapshot", slog.String("error", err.Error()))
			httpserver.ReplyWithError(w, http.StatusInternalServerError, snapshotErrMessage)
			return
		}

		httpserver.ReplyJSONResponse(w, http.StatusOK, snapshot)
	}
}

func (c *StatusController) listLocations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		readings := c.registry.Readings(r.Context())
		if readings == nil {
			readings = []domain.LocationReading{}
		}

		httpserver.ReplyJSONResponse(w, http.StatusOK, internal.LocationListResponse{
			Data:  readings,
			Total: len(readings),
		})
	}
}

func (c *StatusController) getLocation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(httpserver.GetPathParam(r, "id"))
		if id == "" {
			httpserver.ReplyWithError(w, http.StatusBadRequest, "location id is required")
			return
		}

		for _, reading := range c.registry.Readings(r.Context()) {
			if reading.ID == id {
				httpserver.ReplyJSONResponse(w, http.StatusOK, reading)
				return
			}
		}
		httpserver.ReplyWithError(w, http.StatusNotFound, locationNotFound)
	}
}

func (c *StatusController) getMode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpserver.ReplyJSONResponse(w, http.StatusOK, c.modes.State())
	}
}

func (c *StatusController) getNode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpserver.ReplyJSONResponse(w, http.StatusOK, node.GetNodeInfo())
	}
}
