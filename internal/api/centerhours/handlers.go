// internal/api/centerhours/handlers.go
package centerhours

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/reservalo/reservalo/internal/api/apiutil"
	"github.com/reservalo/reservalo/internal/store"
)

const (
	hoursQueryTimeout = 5 * time.Second
	dayOfWeekParam    = "day_of_week"
	clockLayout       = "15:04"
)

var (
	queries     *store.Queries
	queriesOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(q *store.Queries) {
	if q == nil {
		return
	}
	queriesOnce.Do(func() {
		queries = q
	})
}

type dayHoursPayload struct {
	OpensAt  string `json:"opens_at"`
	ClosesAt string `json:"closes_at"`
	Closed   bool   `json:"closed"`
}

type dayHoursResponse struct {
	DayOfWeek int64  `json:"day_of_week"`
	OpensAt   string `json:"opens_at,omitempty"`
	ClosesAt  string `json:"closes_at,omitempty"`
	Closed    bool   `json:"closed"`
}

// GET /api/v1/centers/{center_id}/hours
//
// All seven weekdays are returned; days without a stored row come back
// closed.
func HandleHoursList(w http.ResponseWriter, r *http.Request) {
	q := loadQueries()
	if q == nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Service not initialized"})
		return
	}

	centerID, err := apiutil.ParsePositiveInt64Field(r.PathValue("center_id"), "center_id")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), hoursQueryTimeout)
	defer cancel()

	if herr := requireCenter(ctx, q, centerID); herr != nil {
		apiutil.WriteError(w, r, *herr)
		return
	}

	hours, err := q.GetCenterHours(ctx, centerID)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to load center hours", Err: err})
		return
	}

	byDay := make(map[int64]store.CenterHour, len(hours))
	for _, h := range hours {
		byDay[h.DayOfWeek] = h
	}

	resp := make([]dayHoursResponse, 0, 7)
	for day := int64(0); day < 7; day++ {
		if h, ok := byDay[day]; ok {
			resp = append(resp, dayHoursResponse{DayOfWeek: day, OpensAt: h.OpensAt, ClosesAt: h.ClosesAt})
		} else {
			resp = append(resp, dayHoursResponse{DayOfWeek: day, Closed: true})
		}
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to write response", Err: err})
	}
}

// PUT /api/v1/centers/{center_id}/hours/{day_of_week}
//
// Closed days are stored as an absent row, so marking a day closed deletes
// its row instead of writing a flag.
func HandleHoursUpdate(w http.ResponseWriter, r *http.Request) {
	q := loadQueries()
	if q == nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Service not initialized"})
		return
	}

	centerID, err := apiutil.ParsePositiveInt64Field(r.PathValue("center_id"), "center_id")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error()})
		return
	}
	dayOfWeek, err := parseDayOfWeek(r.PathValue(dayOfWeekParam))
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error()})
		return
	}

	var req dayHoursPayload
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), hoursQueryTimeout)
	defer cancel()

	if herr := requireCenter(ctx, q, centerID); herr != nil {
		apiutil.WriteError(w, r, *herr)
		return
	}

	if req.Closed {
		if _, err := q.DeleteCenterHours(ctx, store.DeleteCenterHoursParams{CenterID: centerID, DayOfWeek: dayOfWeek}); err != nil {
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to update center hours", Err: err})
			return
		}
		if err := apiutil.WriteJSON(w, http.StatusOK, dayHoursResponse{DayOfWeek: dayOfWeek, Closed: true}); err != nil {
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to write response", Err: err})
		}
		return
	}

	if err := validateHours(req.OpensAt, req.ClosesAt); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error()})
		return
	}

	updated, err := q.UpsertCenterHours(ctx, store.UpsertCenterHoursParams{
		CenterID:  centerID,
		DayOfWeek: dayOfWeek,
		OpensAt:   req.OpensAt,
		ClosesAt:  req.ClosesAt,
	})
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to update center hours", Err: err})
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, dayHoursResponse{
		DayOfWeek: updated.DayOfWeek,
		OpensAt:   updated.OpensAt,
		ClosesAt:  updated.ClosesAt,
	}); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to write response", Err: err})
	}
}

func requireCenter(ctx context.Context, q *store.Queries, centerID int64) *apiutil.HandlerError {
	count, err := q.CenterExists(ctx, centerID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return &apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to validate center", Err: err}
	}
	if count == 0 {
		return &apiutil.HandlerError{Status: http.StatusNotFound, Message: "Center not found"}
	}
	return nil
}

func parseDayOfWeek(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	day, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || day < 0 || day > 6 {
		return 0, fmt.Errorf("%s must be between 0 (Sunday) and 6 (Saturday)", dayOfWeekParam)
	}
	return day, nil
}

func validateHours(opensAt, closesAt string) error {
	opens, err := time.Parse(clockLayout, opensAt)
	if err != nil {
		return fmt.Errorf("opens_at must be HH:MM")
	}
	closes, err := time.Parse(clockLayout, closesAt)
	if err != nil {
		return fmt.Errorf("closes_at must be HH:MM")
	}
	if !opens.Before(closes) {
		return fmt.Errorf("opens_at must be before closes_at")
	}
	return nil
}

func loadQueries() *store.Queries {
	return queries
}
