package booking

import (
	"fmt"
	"time"

	"github.com/reservalo/reservalo/internal/store"
)

const (
	dateKeyLayout = "2006-01-02"
	clockLayout   = "15:04"
)

// DayHours is one weekday of a center's opening hours.
type DayHours struct {
	OpensAt  string
	ClosesAt string
	Closed   bool
}

// Schedule is a center's slot-generation configuration: per-weekday hours,
// the slot duration, and the center's own time zone. All slot math happens
// in that zone, never the server's.
type Schedule struct {
	Days         map[time.Weekday]DayHours
	SlotDuration time.Duration
	Location     *time.Location
}

// Slot is a single bookable interval, with instants in the center's zone.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Label formats the slot start as a wall-clock value for API responses.
func (s Slot) Label() string {
	return s.Start.Format(clockLayout)
}

// ScheduleFromStore assembles a Schedule from center configuration rows.
// Weekdays without a row are closed.
func ScheduleFromStore(center store.Center, hours []store.CenterHour) (Schedule, error) {
	loc, err := time.LoadLocation(center.Timezone)
	if err != nil {
		return Schedule{}, ConfigurationError{Reason: fmt.Sprintf("unknown time zone %q", center.Timezone)}
	}

	days := make(map[time.Weekday]DayHours, len(hours))
	for _, h := range hours {
		days[time.Weekday(h.DayOfWeek)] = DayHours{OpensAt: h.OpensAt, ClosesAt: h.ClosesAt}
	}

	return Schedule{
		Days:         days,
		SlotDuration: time.Duration(center.SlotDurationMinutes) * time.Minute,
		Location:     loc,
	}, nil
}

// SlotTimes produces the ordered bookable start times for a calendar date.
// The weekday is resolved in the schedule's zone so a date near midnight
// cannot land on the wrong day. When the date is "today" in that zone,
// slots whose end has already passed now are dropped.
//
// Same inputs always yield the same sequence; there is no hidden state.
func SlotTimes(sched Schedule, dateKey string, now time.Time) ([]Slot, error) {
	if sched.SlotDuration <= 0 {
		return nil, ConfigurationError{Reason: "slot duration must be positive"}
	}

	day, err := time.ParseInLocation(dateKeyLayout, dateKey, sched.Location)
	if err != nil {
		return nil, ConfigurationError{Reason: fmt.Sprintf("invalid date %q", dateKey)}
	}

	hours, ok := sched.Days[day.Weekday()]
	if !ok || hours.Closed {
		return nil, nil
	}

	opens, err := clockOnDate(day, hours.OpensAt, sched.Location)
	if err != nil {
		return nil, ConfigurationError{Reason: fmt.Sprintf("invalid opens_at %q", hours.OpensAt)}
	}
	closes, err := clockOnDate(day, hours.ClosesAt, sched.Location)
	if err != nil {
		return nil, ConfigurationError{Reason: fmt.Sprintf("invalid closes_at %q", hours.ClosesAt)}
	}
	if !opens.Before(closes) {
		return nil, ConfigurationError{Reason: "opens_at must be before closes_at"}
	}

	localNow := now.In(sched.Location)
	today := localNow.Format(dateKeyLayout) == dateKey

	var slots []Slot
	for start := opens; !start.Add(sched.SlotDuration).After(closes); start = start.Add(sched.SlotDuration) {
		end := start.Add(sched.SlotDuration)
		if today && !end.After(localNow) {
			continue
		}
		slots = append(slots, Slot{Start: start, End: end})
	}
	return slots, nil
}

// clockOnDate pins a HH:MM wall-clock value onto a calendar date in loc.
func clockOnDate(day time.Time, clock string, loc *time.Location) (time.Time, error) {
	parsed, err := time.Parse(clockLayout, clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, loc), nil
}
