// internal/api/courts/handlers.go
package courts

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/reservalo/reservalo/internal/api/apiutil"
	"github.com/reservalo/reservalo/internal/store"
)

const courtsQueryTimeout = 5 * time.Second

var (
	queries     *store.Queries
	queriesOnce sync.Once

	validate = validator.New()
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

type courtPayload struct {
	Name              string `json:"name" validate:"required,min=1,max=200"`
	Sport             string `json:"sport" validate:"required,min=1,max=50"`
	Indoor            bool   `json:"indoor"`
	Surface           string `json:"surface" validate:"omitempty,max=50"`
	PricePerHourCents int64  `json:"price_per_hour_cents" validate:"required,gt=0"`
	Currency          string `json:"currency" validate:"required,len=3,uppercase"`
	Published         bool   `json:"published"`
}

type courtResponse struct {
	ID                int64  `json:"id"`
	CenterID          int64  `json:"center_id"`
	Name              string `json:"name"`
	Sport             string `json:"sport"`
	Indoor            bool   `json:"indoor"`
	Surface           string `json:"surface,omitempty"`
	PricePerHourCents int64  `json:"price_per_hour_cents"`
	Currency          string `json:"currency"`
	Published         bool   `json:"published"`
}

func toCourtResponse(c store.Court) courtResponse {
	return courtResponse{
		ID:                c.ID,
		CenterID:          c.CenterID,
		Name:              c.Name,
		Sport:             c.Sport,
		Indoor:            c.Indoor,
		Surface:           c.Surface,
		PricePerHourCents: c.PricePerHourCents,
		Currency:          c.Currency,
		Published:         c.Published,
	}
}

// GET /api/v1/centers/{center_id}/courts
func HandleCourtsList(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), courtsQueryTimeout)
	defer cancel()

	list, err := q.ListCourtsByCenter(ctx, centerID)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to load courts", Err: err})
		return
	}

	resp := make([]courtResponse, 0, len(list))
	for _, c := range list {
		resp = append(resp, toCourtResponse(c))
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to write response", Err: err})
	}
}

// POST /api/v1/centers/{center_id}/courts
func HandleCourtCreate(w http.ResponseWriter, r *http.Request) {
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

	var req courtPayload
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return
	}
	if err := validate.Struct(req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid court payload", Err: err})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtsQueryTimeout)
	defer cancel()

	count, err := q.CenterExists(ctx, centerID)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to validate center", Err: err})
		return
	}
	if count == 0 {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusNotFound, Message: "Center not found"})
		return
	}

	created, err := q.CreateCourt(ctx, store.CreateCourtParams{
		CenterID:          centerID,
		Name:              strings.TrimSpace(req.Name),
		Sport:             strings.TrimSpace(req.Sport),
		Indoor:            req.Indoor,
		Surface:           strings.TrimSpace(req.Surface),
		PricePerHourCents: req.PricePerHourCents,
		Currency:          req.Currency,
		Published:         req.Published,
	})
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to create court", Err: err})
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, toCourtResponse(created)); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to write response", Err: err})
	}
}

// PUT /api/v1/courts/{id}
func HandleCourtUpdate(w http.ResponseWriter, r *http.Request) {
	q := loadQueries()
	if q == nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Service not initialized"})
		return
	}

	courtID, err := apiutil.ParsePositiveInt64Field(r.PathValue("id"), "id")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error()})
		return
	}

	var req courtPayload
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid request body", Err: err})
		return
	}
	if err := validate.Struct(req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid court payload", Err: err})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtsQueryTimeout)
	defer cancel()

	updated, err := q.UpdateCourt(ctx, store.UpdateCourtParams{
		ID:                courtID,
		Name:              strings.TrimSpace(req.Name),
		Sport:             strings.TrimSpace(req.Sport),
		Indoor:            req.Indoor,
		Surface:           strings.TrimSpace(req.Surface),
		PricePerHourCents: req.PricePerHourCents,
		Currency:          req.Currency,
		Published:         req.Published,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusNotFound, Message: "Court not found", Err: err})
			return
		}
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to update court", Err: err})
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, toCourtResponse(updated)); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to write response", Err: err})
	}
}

func loadQueries() *store.Queries {
	return queries
}
