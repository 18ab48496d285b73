// internal/api/availability/handlers.go
package availability

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/reservalo/reservalo/internal/api/apiutil"
	"github.com/reservalo/reservalo/internal/booking"
)

const availabilityQueryTimeout = 5 * time.Second

var (
	manager     *booking.Manager
	managerOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(m *booking.Manager) {
	if m == nil {
		return
	}
	managerOnce.Do(func() {
		manager = m
	})
}

type slotResponse struct {
	CourtID int64  `json:"court_id"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Taken   bool   `json:"taken"`
}

type gridResponse struct {
	CenterID int64          `json:"center_id"`
	Date     string         `json:"date"`
	Slots    []slotResponse `json:"slots"`
}

// GET /api/v1/availability?center_id=1&date=2026-09-01&court_id=2
func HandleAvailability(w http.ResponseWriter, r *http.Request) {
	m := loadManager()
	if m == nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Service not initialized"})
		return
	}

	centerID, err := apiutil.CenterIDFromQuery(r)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error()})
		return
	}
	dateKey, err := apiutil.ParseDateKey(r.URL.Query().Get("date"))
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error()})
		return
	}

	var courtID int64
	if raw := strings.TrimSpace(r.URL.Query().Get("court_id")); raw != "" {
		courtID, err = apiutil.ParsePositiveInt64Field(raw, "court_id")
		if err != nil {
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error()})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), availabilityQueryTimeout)
	defer cancel()

	cells, err := m.Availability(ctx, centerID, courtID, dateKey)
	if err != nil {
		apiutil.WriteError(w, r, availabilityError(err))
		return
	}

	resp := gridResponse{
		CenterID: centerID,
		Date:     dateKey,
		Slots:    make([]slotResponse, 0, len(cells)),
	}
	for _, cell := range cells {
		resp.Slots = append(resp.Slots, slotResponse{
			CourtID: cell.CourtID,
			Start:   cell.SlotStart.Format(time.RFC3339),
			End:     cell.SlotEnd.Format(time.RFC3339),
			Taken:   cell.Taken,
		})
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to write response", Err: err})
	}
}

func availabilityError(err error) apiutil.HandlerError {
	var cfgErr booking.ConfigurationError
	switch {
	case errors.Is(err, booking.ErrBookingNotFound):
		return apiutil.HandlerError{Status: http.StatusNotFound, Message: "Center or court not found", Err: err}
	case errors.As(err, &cfgErr):
		return apiutil.HandlerError{Status: http.StatusUnprocessableEntity, Message: cfgErr.Error(), Err: err}
	case errors.Is(err, booking.ErrStoreUnavailable):
		return apiutil.HandlerError{Status: http.StatusServiceUnavailable, Message: "Service temporarily unavailable", Err: err}
	}
	return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to load availability", Err: err}
}

func loadManager() *booking.Manager {
	return manager
}
