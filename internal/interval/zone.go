package interval

// Civil-calendar arithmetic on a proleptic Gregorian day count. Keeping the
// conversion explicit avoids depending on host tzdata for the two fixed
// market zone rules and keeps interval keys stable across platforms.

// Civil holds broken-down local or UTC calendar fields.
type Civil struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// daysFromCivil converts a calendar date to days since 1970-01-01.
func daysFromCivil(year, month, day int) int64 {
	if month <= 2 {
		year--
	}
	era := year
	if era < 0 {
		era -= 399
	}
	era /= 400
	yoe := int64(year - era*400) // [0, 399]
	m := int64(month)
	var doy int64
	if month > 2 {
		doy = (153*(m-3)+2)/5 + int64(day) - 1
	} else {
		doy = (153*(m+9)+2)/5 + int64(day) - 1
	}
	doe := yoe*365 + yoe/4 - yoe/100 + doy // [0, 146096]
	return int64(era)*146097 + doe - 719468
}

// civilFromDays is the inverse of daysFromCivil.
func civilFromDays(z int64) (year, month, day int) {
	z += 719468
	era := z
	if era < 0 {
		era -= 146096
	}
	era /= 146097
	doe := z - era*146097                                     // [0, 146096]
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365    // [0, 399]
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)                  // [0, 365]
	mp := (5*doy + 2) / 153                                   // [0, 11]
	d := doy - (153*mp+2)/5 + 1                               // [1, 31]
	var m int64
	if mp < 10 {
		m = mp + 3
	} else {
		m = mp - 9
	}
	if m <= 2 {
		y++
	}
	return int(y), int(m), int(d)
}

// epochFromCivil converts UTC calendar fields to epoch seconds.
func epochFromCivil(c Civil) int64 {
	days := daysFromCivil(c.Year, c.Month, c.Day)
	return days*86400 + int64(c.Hour)*3600 + int64(c.Minute)*60 + int64(c.Second)
}

// civilFromEpoch converts epoch seconds to UTC calendar fields.
func civilFromEpoch(epoch int64) Civil {
	days := epoch / 86400
	rem := epoch % 86400
	if rem < 0 {
		rem += 86400
		days--
	}
	y, m, d := civilFromDays(days)
	return Civil{
		Year:   y,
		Month:  m,
		Day:    d,
		Hour:   int(rem / 3600),
		Minute: int(rem % 3600 / 60),
		Second: int(rem % 60),
	}
}

// dayOfWeek returns 0=Sunday..6=Saturday for a civil day count.
func dayOfWeek(days int64) int {
	return int(((days+4)%7 + 7) % 7)
}

// dstRule is a POSIX M-style transition: month, week (5 = last), weekday,
// and the local hour at which the change takes effect.
type dstRule struct {
	month   int
	week    int
	weekday int
	hour    int
}

// transitionDay resolves the calendar day of a rule within a year.
func (r dstRule) transitionDay(year int) int {
	if r.week == 5 {
		nextMonth, nextYear := r.month+1, year
		if nextMonth > 12 {
			nextMonth, nextYear = 1, year+1
		}
		lastDay := int(daysFromCivil(nextYear, nextMonth, 1) - daysFromCivil(year, r.month, 1))
		dow := dayOfWeek(daysFromCivil(year, r.month, lastDay))
		return lastDay - ((dow-r.weekday)+7)%7
	}
	dowFirst := dayOfWeek(daysFromCivil(year, r.month, 1))
	return 1 + (r.week-1)*7 + ((r.weekday-dowFirst)+7)%7
}

// Zone is a fixed standard/DST offset pair with POSIX M-rule transitions.
type Zone struct {
	Spec      string
	stdOffset int // seconds east of UTC
	dstOffset int
	dstStart  dstRule
	dstEnd    dstRule
}

// The two market zone rules: Central European and Eastern European time.
var (
	ZoneCET = &Zone{
		Spec:      "CET-1CEST,M3.5.0/2,M10.5.0/3",
		stdOffset: 3600,
		dstOffset: 7200,
		dstStart:  dstRule{month: 3, week: 5, weekday: 0, hour: 2},
		dstEnd:    dstRule{month: 10, week: 5, weekday: 0, hour: 3},
	}
	ZoneEET = &Zone{
		Spec:      "EET-2EEST,M3.5.0/3,M10.5.0/4",
		stdOffset: 7200,
		dstOffset: 10800,
		dstStart:  dstRule{month: 3, week: 5, weekday: 0, hour: 3},
		dstEnd:    dstRule{month: 10, week: 5, weekday: 0, hour: 4},
	}
)

// ZoneForArea maps a market area code to its zone rule. The Baltic and
// Finnish areas run Eastern European time; everything else in the supported
// set runs Central European time.
func ZoneForArea(area string) *Zone {
	switch area {
	case "FI", "EE", "LV", "LT":
		return ZoneEET
	}
	return ZoneCET
}

// Offset returns the UTC offset in seconds active at the given epoch.
func (z *Zone) Offset(epoch int64) int {
	c := civilFromEpoch(epoch)
	// Rule hours are wall-clock times: the start rule in standard time, the
	// end rule in DST time.
	startDay := z.dstStart.transitionDay(c.Year)
	start := epochFromCivil(Civil{Year: c.Year, Month: z.dstStart.month, Day: startDay, Hour: z.dstStart.hour}) - int64(z.stdOffset)
	endDay := z.dstEnd.transitionDay(c.Year)
	end := epochFromCivil(Civil{Year: c.Year, Month: z.dstEnd.month, Day: endDay, Hour: z.dstEnd.hour}) - int64(z.dstOffset)
	if epoch >= start && epoch < end {
		return z.dstOffset
	}
	return z.stdOffset
}

// Local converts an epoch to local calendar fields under this zone.
func (z *Zone) Local(epoch int64) Civil {
	return civilFromEpoch(epoch + int64(z.Offset(epoch)))
}
