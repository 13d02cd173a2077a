package interval

import (
	"strings"
	"testing"
	"time"

	"PriceBoard/internal/model"
)

func TestNormalizeResolution(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{15, 15},
		{30, 30},
		{60, 60},
		{0, 60},
		{45, 60},
		{-5, 60},
		{120, 60},
	}
	for _, tt := range tests {
		if got := NormalizeResolution(tt.in); got != tt.want {
			t.Errorf("NormalizeResolution(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestKeyFromISO(t *testing.T) {
	tests := []struct {
		iso  string
		res  int
		want string
	}{
		{"2025-01-15T13:45:00", 60, "2025-01-15T13"},
		{"2025-01-15T13:45:00", 30, "2025-01-15T13:30"},
		{"2025-01-15T13:45:00", 15, "2025-01-15T13:45"},
		{"2025-01-15T13:07:00", 15, "2025-01-15T13:00"},
		{"2025-01-15T13", 15, "2025-01-15T13"}, // too short for minutes
		{"short", 60, ""},
		{"", 60, ""},
		{"2025-01-15T13:xx:00", 15, ""},
	}
	for _, tt := range tests {
		if got := KeyFromISO(tt.iso, tt.res); got != tt.want {
			t.Errorf("KeyFromISO(%q, %d) = %q, want %q", tt.iso, tt.res, got, tt.want)
		}
	}
}

func TestKeyPrefixProperty(t *testing.T) {
	// The hourly key must be a strict prefix of every sub-hourly key for
	// the same timestamp.
	timestamps := []string{
		"2025-01-15T00:00:00",
		"2025-01-15T13:07:00",
		"2025-06-30T23:59:00",
		"2024-02-29T11:31:00",
	}
	for _, ts := range timestamps {
		hourly := KeyFromISO(ts, 60)
		for _, res := range []int{15, 30} {
			sub := KeyFromISO(ts, res)
			if !strings.HasPrefix(sub, hourly) || len(sub) <= len(hourly) {
				t.Errorf("KeyFromISO(%q, 60) = %q is not a strict prefix of KeyFromISO(%q, %d) = %q",
					ts, hourly, ts, res, sub)
			}
		}
	}
}

func TestCurrentKey(t *testing.T) {
	// 09:47 UTC is 10:47 in CET winter.
	now := time.Date(2025, 1, 15, 9, 47, 0, 0, time.UTC)
	tests := []struct {
		res  int
		want string
	}{
		{60, "2025-01-15T10"},
		{30, "2025-01-15T10:30"},
		{15, "2025-01-15T10:45"},
	}
	for _, tt := range tests {
		if got := CurrentKey(now, ZoneCET, tt.res); got != tt.want {
			t.Errorf("CurrentKey(res=%d) = %q, want %q", tt.res, got, tt.want)
		}
	}

	if got := CurrentKey(time.Unix(100, 0), ZoneCET, 60); got != "" {
		t.Errorf("CurrentKey with unsynced clock = %q, want empty", got)
	}
}

func TestZoneForArea(t *testing.T) {
	for _, area := range []string{"FI", "EE", "LV", "LT"} {
		if got := ZoneForArea(area); got != ZoneEET {
			t.Errorf("ZoneForArea(%q) = %q, want EET", area, got.Spec)
		}
	}
	for _, area := range []string{"SE3", "SE1", "NO1", "DK2", ""} {
		if got := ZoneForArea(area); got != ZoneCET {
			t.Errorf("ZoneForArea(%q) = %q, want CET", area, got.Spec)
		}
	}
}

func TestToLocalSlot(t *testing.T) {
	tests := []struct {
		utc  string
		zone *Zone
		want string
	}{
		// CET winter: UTC+1
		{"2025-01-15T12:00:00Z", ZoneCET, "2025-01-15T13:00:00"},
		// CEST summer: UTC+2
		{"2025-07-15T12:00:00Z", ZoneCET, "2025-07-15T14:00:00"},
		// EEST summer: UTC+3
		{"2025-07-15T12:00:00Z", ZoneEET, "2025-07-15T15:00:00"},
		// midnight rollover across the date line
		{"2025-01-15T23:30:00Z", ZoneCET, "2025-01-16T00:30:00"},
		// spring transition 2025: last Sunday of March is the 30th,
		// DST starts 02:00 CET (01:00 UTC)
		{"2025-03-30T00:59:00Z", ZoneCET, "2025-03-30T01:59:00"},
		{"2025-03-30T01:00:00Z", ZoneCET, "2025-03-30T03:00:00"},
		// autumn transition 2025: last Sunday of October is the 26th,
		// DST ends 03:00 CEST (01:00 UTC)
		{"2025-10-26T00:59:00Z", ZoneCET, "2025-10-26T02:59:00"},
		{"2025-10-26T01:00:00Z", ZoneCET, "2025-10-26T02:00:00"},
		// unparseable input passes through unchanged
		{"garbage", ZoneCET, "garbage"},
		{"2025-01-15 12:00:00", ZoneCET, "2025-01-15 12:00:00"},
	}
	for _, tt := range tests {
		if got := ToLocalSlot(tt.utc, tt.zone); got != tt.want {
			t.Errorf("ToLocalSlot(%q, %s) = %q, want %q", tt.utc, tt.zone.Spec, got, tt.want)
		}
	}
}

func TestParseUTCISO_Validation(t *testing.T) {
	bad := []string{
		"",
		"2025-01-15",
		"2025-01-15T12:00",
		"2025/01/15T12:00:00",
		"2025-01-15 12:00:00",
		"2025-01-15Taa:00:00",
		"2O25-01-15T12:00:00", // letter O, lenient parsers accept junk like this
	}
	for _, iso := range bad {
		if _, ok := ParseUTCISO(iso); ok {
			t.Errorf("ParseUTCISO(%q) accepted malformed input", iso)
		}
	}

	epoch, ok := ParseUTCISO("2025-01-15T12:34:56Z")
	if !ok {
		t.Fatal("ParseUTCISO rejected valid input")
	}
	want := time.Date(2025, 1, 15, 12, 34, 56, 0, time.UTC).Unix()
	if epoch != want {
		t.Errorf("ParseUTCISO = %d, want %d", epoch, want)
	}
}

func TestFindIndexForInterval(t *testing.T) {
	state := &model.PriceState{Points: []model.PricePoint{
		{StartsAt: "2025-01-15T10:00:00"},
		{StartsAt: "2025-01-15T11:00:00"},
		{StartsAt: "2025-01-15T12:00:00"},
	}}

	if got := FindIndexForInterval(state, "2025-01-15T11", 60); got != 1 {
		t.Errorf("FindIndexForInterval = %d, want 1", got)
	}
	if got := FindIndexForInterval(state, "2025-01-15T23", 60); got != -1 {
		t.Errorf("FindIndexForInterval miss = %d, want -1", got)
	}
	if got := FindIndexForInterval(state, "", 60); got != -1 {
		t.Errorf("FindIndexForInterval empty key = %d, want -1", got)
	}

	// 10:30 UTC = 11:30 CET
	now := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	if got := FindCurrentIndex(state, 60, now, ZoneCET); got != 1 {
		t.Errorf("FindCurrentIndex = %d, want 1", got)
	}
}

func TestScheduleNextDailyFetch(t *testing.T) {
	// 10:00 CET on 2025-01-15 is 09:00 UTC.
	now := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	next := ScheduleNextDailyFetch(now, 13, 0, ZoneCET)
	want := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC) // 13:00 CET
	if !next.Equal(want) {
		t.Errorf("ScheduleNextDailyFetch before = %v, want %v", next, want)
	}

	// Already past 13:00 local: rolls to the following day.
	now = time.Date(2025, 1, 15, 13, 0, 0, 0, time.UTC) // 14:00 CET
	next = ScheduleNextDailyFetch(now, 13, 0, ZoneCET)
	want = time.Date(2025, 1, 16, 12, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("ScheduleNextDailyFetch after = %v, want %v", next, want)
	}

	// Exactly at the trigger also rolls forward.
	now = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	next = ScheduleNextDailyFetch(now, 13, 0, ZoneCET)
	if !next.Equal(want) {
		t.Errorf("ScheduleNextDailyFetch at trigger = %v, want %v", next, want)
	}

	if next := ScheduleNextDailyFetch(time.Unix(100, 0), 13, 0, ZoneCET); !next.IsZero() {
		t.Errorf("ScheduleNextDailyFetch with unsynced clock = %v, want zero", next)
	}
}

func TestShouldCatchUp(t *testing.T) {
	todayOnly := &model.PriceState{Points: []model.PricePoint{
		{StartsAt: "2025-05-10T12:00:00"},
		{StartsAt: "2025-05-10T13:00:00"},
	}}
	withTomorrow := &model.PriceState{Points: []model.PricePoint{
		{StartsAt: "2025-05-10T12:00:00"},
		{StartsAt: "2025-05-11T00:00:00"},
	}}

	// 13:05 CEST on 2025-05-10 is 11:05 UTC.
	after := time.Date(2025, 5, 10, 11, 5, 0, 0, time.UTC)
	before := time.Date(2025, 5, 10, 10, 55, 0, 0, time.UTC) // 12:55 local

	if !ShouldCatchUp(after, todayOnly, 13, 0, ZoneCET) {
		t.Error("expected catch-up at 13:05 with no tomorrow data")
	}
	if ShouldCatchUp(before, todayOnly, 13, 0, ZoneCET) {
		t.Error("no catch-up expected at 12:55, trigger not yet passed")
	}
	if ShouldCatchUp(after, withTomorrow, 13, 0, ZoneCET) {
		t.Error("no catch-up expected when tomorrow is already covered")
	}
	if ShouldCatchUp(time.Unix(100, 0), todayOnly, 13, 0, ZoneCET) {
		t.Error("no catch-up expected with unsynced clock")
	}
	if ShouldCatchUp(after, nil, 13, 0, ZoneCET) {
		t.Error("no catch-up expected with nil state")
	}
}
