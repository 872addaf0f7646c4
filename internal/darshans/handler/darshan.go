package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"darshan/internal/darshans/service"
	apperrors "darshan/pkg/errors"
	httputil "darshan/pkg/http"
	"darshan/pkg/logger"
	"darshan/pkg/model"
)

type DarshanHandler struct {
	catalog      service.CatalogService
	availability service.AvailabilityService
	log          *logger.Logger
}

func NewDarshanHandler(catalog service.CatalogService, availability service.AvailabilityService, log *logger.Logger) *DarshanHandler {
	return &DarshanHandler{
		catalog:      catalog,
		availability: availability,
		log:          log,
	}
}

func (h *DarshanHandler) CreateDarshanType(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var dt model.DarshanType
	if err := json.NewDecoder(r.Body).Decode(&dt); err != nil {
		h.writeError(w, "CreateDarshanType", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.catalog.CreateDarshanType(r.Context(), &dt); err != nil {
		h.writeError(w, "CreateDarshanType", err)
		return
	}

	if err := httputil.WriteCreated(w, &dt); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateDarshanType", "error", err)
	}
}

func (h *DarshanHandler) CreateSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var slot model.DarshanSlot
	if err := json.NewDecoder(r.Body).Decode(&slot); err != nil {
		h.writeError(w, "CreateSlot", apperrors.InvalidInput("Invalid request body"))
		return
	}
	slot.DarshanID = ps.ByName("id")

	if err := h.catalog.CreateSlot(r.Context(), &slot); err != nil {
		h.writeError(w, "CreateSlot", err)
		return
	}

	if err := httputil.WriteCreated(w, &slot); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateSlot", "error", err)
	}
}

func (h *DarshanHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	dt, err := h.catalog.GetDarshanType(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, dt); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *DarshanHandler) ListByTemple(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	templeID := r.URL.Query().Get("temple_id")
	if templeID == "" {
		h.writeError(w, "ListByTemple", apperrors.InvalidInput("temple_id query parameter is required"))
		return
	}

	darshans, err := h.catalog.ListByTemple(r.Context(), templeID)
	if err != nil {
		h.writeError(w, "ListByTemple", err)
		return
	}

	if err := httputil.WriteSuccess(w, darshans); err != nil {
		h.log.Error("failed to write success response", "handler", "ListByTemple", "error", err)
	}
}

func (h *DarshanHandler) ListSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slots, err := h.catalog.ListSlots(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "ListSlots", err)
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "ListSlots", "error", err)
	}
}

func (h *DarshanHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date, err := parseDateParam(r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	availability, err := h.availability.ForDate(r.Context(), ps.ByName("id"), date)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	if err := httputil.WriteSuccess(w, availability); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "error", err)
	}
}

// parseDateParam accepts RFC 3339 or bare YYYY-MM-DD values.
func parseDateParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, apperrors.InvalidInput("date query parameter is required")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("invalid date: expected RFC 3339 or YYYY-MM-DD")
	}
	return t, nil
}

func (h *DarshanHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *DarshanHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/darshans", h.CreateDarshanType)
	router.GET("/api/v1/darshans", h.ListByTemple)
	router.GET("/api/v1/darshans/:id", h.GetByID)
	router.POST("/api/v1/darshans/:id/slots", h.CreateSlot)
	router.GET("/api/v1/darshans/:id/slots", h.ListSlots)
	router.GET("/api/v1/darshans/:id/availability", h.Availability)
}
