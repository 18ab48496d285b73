package centerhours

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/reservalo/reservalo/internal/store"
	"github.com/reservalo/reservalo/internal/testutil"
)

func setupHoursTest(t *testing.T) (*http.ServeMux, store.Center) {
	t.Helper()

	database := testutil.NewTestDB(t)
	center := testutil.SeedCenter(t, database, "UTC", 60, "09:00", "17:00")

	queries = nil
	queriesOnce = sync.Once{}
	InitHandlers(database.Queries)

	t.Cleanup(func() {
		queries = nil
		queriesOnce = sync.Once{}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/centers/{center_id}/hours", HandleHoursList)
	mux.HandleFunc("PUT /api/v1/centers/{center_id}/hours/{day_of_week}", HandleHoursUpdate)

	return mux, center
}

func TestHandleHoursListAllWeekdays(t *testing.T) {
	mux, center := setupHoursTest(t)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/centers/%d/hours", center.ID), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp []dayHoursResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 7 {
		t.Fatalf("days = %d, want 7", len(resp))
	}
	for _, day := range resp {
		if day.Closed {
			t.Errorf("day %d should be open", day.DayOfWeek)
		}
		if day.OpensAt != "09:00" || day.ClosesAt != "17:00" {
			t.Errorf("day %d hours = %s-%s", day.DayOfWeek, day.OpensAt, day.ClosesAt)
		}
	}
}

func TestHandleHoursUpdate(t *testing.T) {
	mux, center := setupHoursTest(t)

	body := `{"opens_at": "07:30", "closes_at": "22:00"}`
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/centers/%d/hours/2", center.ID), strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var updated dayHoursResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.OpensAt != "07:30" || updated.ClosesAt != "22:00" {
		t.Errorf("hours = %s-%s, want 07:30-22:00", updated.OpensAt, updated.ClosesAt)
	}
}

func TestHandleHoursUpdateClosedDeletesRow(t *testing.T) {
	mux, center := setupHoursTest(t)

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/centers/%d/hours/3", center.ID), strings.NewReader(`{"closed": true}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/centers/%d/hours", center.ID), nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var resp []dayHoursResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, day := range resp {
		if day.DayOfWeek == 3 && !day.Closed {
			t.Error("day 3 should be closed after update")
		}
	}
}

func TestHandleHoursUpdateValidation(t *testing.T) {
	mux, center := setupHoursTest(t)

	cases := []struct {
		name string
		path string
		body string
		want int
	}{
		{"bad day", fmt.Sprintf("/api/v1/centers/%d/hours/7", center.ID), `{"opens_at": "09:00", "closes_at": "17:00"}`, http.StatusBadRequest},
		{"bad clock", fmt.Sprintf("/api/v1/centers/%d/hours/2", center.ID), `{"opens_at": "9am", "closes_at": "17:00"}`, http.StatusBadRequest},
		{"inverted", fmt.Sprintf("/api/v1/centers/%d/hours/2", center.ID), `{"opens_at": "18:00", "closes_at": "09:00"}`, http.StatusBadRequest},
		{"unknown center", "/api/v1/centers/999/hours/2", `{"opens_at": "09:00", "closes_at": "17:00"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, tc.path, strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}
