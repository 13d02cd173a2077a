package model

// Level classifies a price relative to its context.
type Level string

const (
	LevelUnknown       Level = "UNKNOWN"
	LevelVeryCheap     Level = "VERY_CHEAP"
	LevelCheap         Level = "CHEAP"
	LevelNormal        Level = "NORMAL"
	LevelExpensive     Level = "EXPENSIVE"
	LevelVeryExpensive Level = "VERY_EXPENSIVE"
)

// ParseLevel maps a label to a Level. Unrecognized labels become UNKNOWN
// rather than passing through as free-form strings.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelVeryCheap, LevelCheap, LevelNormal, LevelExpensive, LevelVeryExpensive:
		return Level(s)
	}
	return LevelUnknown
}

// Source identifies where a price series came from.
type Source string

const (
	SourceUnknown  Source = "UNKNOWN"
	SourceNordPool Source = "NORDPOOL"
	SourceTibber   Source = "TIBBER"
	SourceMock     Source = "MOCK"
)

// MaxPoints bounds the in-memory price series.
const MaxPoints = 60

// PricePoint is one delivery interval. Immutable once constructed.
type PricePoint struct {
	StartsAt string  // local ISO timestamp of the interval start
	Level    Level
	Price    float64 // currency per kWh, tariff-adjusted
}

// PriceState is the full displayed price series for one fetch cycle.
type PriceState struct {
	OK                bool
	Error             string
	ErrorKind         ErrorKind
	Source            Source
	Currency          string
	ResolutionMinutes int
	HasBaseline       bool
	Baseline          float64
	CurrentStartsAt   string
	CurrentLevel      Level
	CurrentPrice      float64
	CurrentIndex      int
	Points            []PricePoint
}

// NewPriceState returns an empty, not-ok state for the given source.
func NewPriceState(source Source) *PriceState {
	return &PriceState{
		Source:       source,
		Currency:     "SEK",
		CurrentLevel: LevelUnknown,
		CurrentIndex: -1,
	}
}

// SetError marks the state failed with a classified, human-readable message.
func (s *PriceState) SetError(kind ErrorKind, msg string) {
	s.OK = false
	s.ErrorKind = kind
	s.Error = msg
}

// SetCurrent copies point idx into the current-price fields. Out-of-range
// indexes are ignored.
func (s *PriceState) SetCurrent(idx int) {
	if idx < 0 || idx >= len(s.Points) {
		return
	}
	s.CurrentIndex = idx
	s.CurrentStartsAt = s.Points[idx].StartsAt
	s.CurrentLevel = s.Points[idx].Level
	s.CurrentPrice = s.Points[idx].Price
}
