// Package interval provides resolution normalization, interval-key
// derivation, market time zones, and fetch scheduling. All lookups fail
// soft: malformed input yields an empty key, a missing point yields -1.
package interval

import (
	"fmt"
	"time"

	"PriceBoard/internal/model"
)

// ValidEpochMin is the floor below which the wall clock is treated as not
// yet synchronized.
const ValidEpochMin = 1700000000

// ClockValid reports whether the wall clock has synchronized.
func ClockValid(now time.Time) bool {
	return now.Unix() > ValidEpochMin
}

// NormalizeResolution maps a resolution to the supported set {15, 30, 60};
// anything else defaults to 60.
func NormalizeResolution(minutes int) int {
	switch minutes {
	case 15, 30, 60:
		return minutes
	}
	return 60
}

// KeyFromISO returns the interval key of the slot containing the local ISO
// timestamp: the YYYY-MM-DDTHH prefix, with :MM appended for sub-hourly
// resolutions. Malformed or too-short input yields "".
func KeyFromISO(iso string, resolutionMinutes int) string {
	if len(iso) < 13 {
		return ""
	}
	res := NormalizeResolution(resolutionMinutes)
	if res >= 60 || len(iso) < 16 {
		return iso[:13]
	}
	if iso[14] < '0' || iso[14] > '9' || iso[15] < '0' || iso[15] > '9' {
		return ""
	}
	minute := int(iso[14]-'0')*10 + int(iso[15]-'0')
	slot := minute - minute%res
	return fmt.Sprintf("%s:%02d", iso[:13], slot)
}

// IsKey reports whether a string has the shape of an interval key.
func IsKey(s string) bool {
	return len(s) == 13 || len(s) == 16
}

// CurrentKey returns the interval key for the current local wall-clock time,
// or "" if the clock has not synchronized.
func CurrentKey(now time.Time, zone *Zone, resolutionMinutes int) string {
	if !ClockValid(now) {
		return ""
	}
	res := NormalizeResolution(resolutionMinutes)
	c := zone.Local(now.Unix())
	if res >= 60 {
		return fmt.Sprintf("%04d-%02d-%02dT%02d", c.Year, c.Month, c.Day, c.Hour)
	}
	slot := c.Minute - c.Minute%res
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d", c.Year, c.Month, c.Day, c.Hour, slot)
}

// FindIndexForInterval returns the first point whose slot matches the key,
// or -1.
func FindIndexForInterval(state *model.PriceState, key string, resolutionMinutes int) int {
	if key == "" {
		return -1
	}
	for i := range state.Points {
		if KeyFromISO(state.Points[i].StartsAt, resolutionMinutes) == key {
			return i
		}
	}
	return -1
}

// FindCurrentIndex returns the point covering the current wall-clock slot,
// or -1.
func FindCurrentIndex(state *model.PriceState, resolutionMinutes int, now time.Time, zone *Zone) int {
	key := CurrentKey(now, zone, resolutionMinutes)
	if key == "" {
		return -1
	}
	return FindIndexForInterval(state, key, resolutionMinutes)
}

// ParseUTCISO parses a UTC ISO-8601 timestamp ("2006-01-02T15:04:05...")
// into epoch seconds with explicit digit validation.
func ParseUTCISO(iso string) (int64, bool) {
	if len(iso) < 19 {
		return 0, false
	}
	if iso[4] != '-' || iso[7] != '-' || iso[10] != 'T' || iso[13] != ':' || iso[16] != ':' {
		return 0, false
	}
	digits := func(s string) (int, bool) {
		n := 0
		for i := 0; i < len(s); i++ {
			if s[i] < '0' || s[i] > '9' {
				return 0, false
			}
			n = n*10 + int(s[i]-'0')
		}
		return n, true
	}
	year, ok1 := digits(iso[0:4])
	month, ok2 := digits(iso[5:7])
	day, ok3 := digits(iso[8:10])
	hour, ok4 := digits(iso[11:13])
	minute, ok5 := digits(iso[14:16])
	second, ok6 := digits(iso[17:19])
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return 0, false
	}
	epoch := epochFromCivil(Civil{Year: year, Month: month, Day: day, Hour: hour, Minute: minute, Second: second})
	if epoch <= 0 {
		return 0, false
	}
	return epoch, true
}

// ToLocalSlot converts a UTC ISO timestamp into a local "2006-01-02T15:04:00"
// slot string. Unparseable input is returned unchanged.
func ToLocalSlot(utcISO string, zone *Zone) string {
	epoch, ok := ParseUTCISO(utcISO)
	if !ok {
		return utcISO
	}
	c := zone.Local(epoch)
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:00", c.Year, c.Month, c.Day, c.Hour, c.Minute)
}

// LocalDate renders the local calendar date ("2006-01-02") at the given
// instant.
func LocalDate(now time.Time, zone *Zone) string {
	c := zone.Local(now.Unix())
	return fmt.Sprintf("%04d-%02d-%02d", c.Year, c.Month, c.Day)
}

// ScheduleNextDailyFetch returns the next instant at or after now matching
// the local hour:minute, rolling to the following day if already passed.
// Returns the zero time when the clock is not synchronized.
func ScheduleNextDailyFetch(now time.Time, hour, minute int, zone *Zone) time.Time {
	if !ClockValid(now) {
		return time.Time{}
	}
	epoch := now.Unix()
	offset := int64(zone.Offset(epoch))
	c := zone.Local(epoch)
	next := epochFromCivil(Civil{Year: c.Year, Month: c.Month, Day: c.Day, Hour: hour, Minute: minute}) - offset
	if next <= epoch {
		next += 24 * 3600
	}
	return time.Unix(next, 0)
}

// ShouldCatchUp reports whether the daily fetch time has already passed
// today while the state still lacks any point dated tomorrow. Used to
// recover from a startup or data gap after the normal trigger elapsed.
func ShouldCatchUp(now time.Time, state *model.PriceState, fetchHour, fetchMinute int, zone *Zone) bool {
	if !ClockValid(now) || state == nil {
		return false
	}
	epoch := now.Unix()
	offset := int64(zone.Offset(epoch))
	c := zone.Local(epoch)
	fetchAt := epochFromCivil(Civil{Year: c.Year, Month: c.Month, Day: c.Day, Hour: fetchHour, Minute: fetchMinute}) - offset
	if epoch < fetchAt {
		return false
	}
	tomorrow := LocalDate(now.Add(24*time.Hour), zone)
	for i := range state.Points {
		if len(state.Points[i].StartsAt) >= 10 && state.Points[i].StartsAt[:10] == tomorrow {
			return false
		}
	}
	return true
}
