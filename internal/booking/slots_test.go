package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/reservalo/reservalo/internal/store"
)

func testSchedule(t *testing.T, opensAt, closesAt string, slotMinutes int64) Schedule {
	t.Helper()

	center := store.Center{Timezone: "America/New_York", SlotDurationMinutes: slotMinutes}
	hours := make([]store.CenterHour, 0, 7)
	for day := int64(0); day < 7; day++ {
		hours = append(hours, store.CenterHour{DayOfWeek: day, OpensAt: opensAt, ClosesAt: closesAt})
	}
	sched, err := ScheduleFromStore(center, hours)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	return sched
}

func TestSlotTimesSequence(t *testing.T) {
	sched := testSchedule(t, "09:00", "11:00", 60)
	now := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)

	slots, err := SlotTimes(sched, "2030-05-20", now)
	if err != nil {
		t.Fatalf("slot times: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if got := slots[0].Label(); got != "09:00" {
		t.Errorf("first slot = %s, want 09:00", got)
	}
	if got := slots[1].Label(); got != "10:00" {
		t.Errorf("second slot = %s, want 10:00", got)
	}
	if !slots[1].End.Equal(slots[1].Start.Add(time.Hour)) {
		t.Errorf("slot end should be start plus duration")
	}
}

func TestSlotTimesDeterministic(t *testing.T) {
	sched := testSchedule(t, "08:00", "20:00", 90)
	now := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)

	first, err := SlotTimes(sched, "2030-05-20", now)
	if err != nil {
		t.Fatalf("slot times: %v", err)
	}
	second, err := SlotTimes(sched, "2030-05-20", now)
	if err != nil {
		t.Fatalf("slot times: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Start.Equal(second[i].Start) || !first[i].End.Equal(second[i].End) {
			t.Fatalf("slot %d differs between identical calls", i)
		}
	}
}

func TestSlotTimesPartialSlotExcluded(t *testing.T) {
	// 09:00-11:30 with 60-minute slots: the 11:00 slot would end past close.
	sched := testSchedule(t, "09:00", "11:30", 60)
	now := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)

	slots, err := SlotTimes(sched, "2030-05-20", now)
	if err != nil {
		t.Fatalf("slot times: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
}

func TestSlotTimesClosedDay(t *testing.T) {
	center := store.Center{Timezone: "UTC", SlotDurationMinutes: 60}
	// Hours only for Monday; 2030-05-19 is a Sunday.
	sched, err := ScheduleFromStore(center, []store.CenterHour{
		{DayOfWeek: 1, OpensAt: "09:00", ClosesAt: "17:00"},
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	slots, err := SlotTimes(sched, "2030-05-19", time.Now())
	if err != nil {
		t.Fatalf("slot times: %v", err)
	}
	if slots != nil {
		t.Fatalf("closed day should yield no slots, got %d", len(slots))
	}
}

func TestSlotTimesTodayDropsPassedSlots(t *testing.T) {
	sched := testSchedule(t, "09:00", "17:00", 60)
	loc := sched.Location

	// 14:30 local: every slot ending at or before 14:30 is gone, the
	// in-progress 14:00 slot still shows.
	now := time.Date(2030, 5, 20, 14, 30, 0, 0, loc)

	slots, err := SlotTimes(sched, "2030-05-20", now)
	if err != nil {
		t.Fatalf("slot times: %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("expected 3 remaining slots, got %d", len(slots))
	}
	if got := slots[0].Label(); got != "14:00" {
		t.Errorf("first remaining slot = %s, want 14:00", got)
	}
}

func TestSlotTimesOtherDayUnfiltered(t *testing.T) {
	sched := testSchedule(t, "09:00", "17:00", 60)
	now := time.Date(2030, 5, 20, 14, 30, 0, 0, sched.Location)

	slots, err := SlotTimes(sched, "2030-05-21", now)
	if err != nil {
		t.Fatalf("slot times: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("expected full day of 8 slots, got %d", len(slots))
	}
}

func TestSlotTimesConfigurationErrors(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name    string
		sched   Schedule
		dateKey string
	}{
		{
			name: "zero duration",
			sched: Schedule{
				Days:     map[time.Weekday]DayHours{time.Monday: {OpensAt: "09:00", ClosesAt: "17:00"}},
				Location: time.UTC,
			},
			dateKey: "2030-05-20",
		},
		{
			name: "opens after closes",
			sched: Schedule{
				Days:         map[time.Weekday]DayHours{time.Monday: {OpensAt: "18:00", ClosesAt: "09:00"}},
				SlotDuration: time.Hour,
				Location:     time.UTC,
			},
			dateKey: "2030-05-20",
		},
		{
			name: "bad opens_at",
			sched: Schedule{
				Days:         map[time.Weekday]DayHours{time.Monday: {OpensAt: "late", ClosesAt: "17:00"}},
				SlotDuration: time.Hour,
				Location:     time.UTC,
			},
			dateKey: "2030-05-20",
		},
		{
			name: "bad date",
			sched: Schedule{
				Days:         map[time.Weekday]DayHours{time.Monday: {OpensAt: "09:00", ClosesAt: "17:00"}},
				SlotDuration: time.Hour,
				Location:     time.UTC,
			},
			dateKey: "May 20th",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SlotTimes(tc.sched, tc.dateKey, now)
			var cfgErr ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
		})
	}
}

func TestScheduleFromStoreBadTimezone(t *testing.T) {
	_, err := ScheduleFromStore(store.Center{Timezone: "Mars/Olympus"}, nil)
	var cfgErr ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}
