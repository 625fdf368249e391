// Package handler provides HTTP handlers for the API.
package handler

import (
	"log/slog"
	"net/http"

	apierrors "github.com/gsharma/indiainfo/internal/pkg/errors"
	"github.com/gsharma/indiainfo/internal/pkg/response"
	"github.com/gsharma/indiainfo/internal/service"
)

// RegionHandler handles state and district lookup requests.
type RegionHandler struct {
	regions service.RegionService
	logger  *slog.Logger
}

// NewRegionHandler creates a new region handler.
func NewRegionHandler(regions service.RegionService, logger *slog.Logger) *RegionHandler {
	return &RegionHandler{regions: regions, logger: logger}
}

// GetState handles GET /api/state?name=<state>.
func (h *RegionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		response.ValidationError(w, "name", "State name is required")
		return
	}

	info, err := h.regions.GetStateInfo(r.Context(), name)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	response.OK(w, info)
}

// GetDistrict handles GET /api/district?state=<state>&district=<district>.
// Lookup is always scoped by state.
func (h *RegionHandler) GetDistrict(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	district := r.URL.Query().Get("district")
	if state == "" || district == "" {
		response.ValidationError(w, "state", "State and district are required")
		return
	}

	d, err := h.regions.GetDistrictInfo(r.Context(), state, district)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	response.OK(w, d)
}

func (h *RegionHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if !apierrors.IsAPIError(err) {
		h.logger.Error("region lookup failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	response.Error(w, err)
}
