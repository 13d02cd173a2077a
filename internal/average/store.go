// Package average maintains the persisted rolling window of recent price
// samples used as the classification baseline. The on-disk record is a
// fixed-layout little-endian image that must round-trip byte-for-byte.
package average

import (
	"encoding/binary"
	"math"
	"os"

	"PriceBoard/internal/interval"
	"PriceBoard/internal/model"
)

const (
	// WindowHours is the span of the rolling window.
	WindowHours = 72
	// MaxWindowSamples sizes the sample array for the finest resolution.
	MaxWindowSamples = WindowHours * 4 // 15-minute resolution

	storeMagic   = 0x4E504D41 // "NPMA"
	storeVersion = 2
	slotKeyLen   = 20

	// magic u32, version u16, resolution u16, window u16, count u16,
	// head u16, slot key, sample array.
	recordSize = 4 + 2 + 2 + 2 + 2 + 2 + slotKeyLen + MaxWindowSamples*4
)

// WindowForResolution returns the sample capacity covering WindowHours at
// the given resolution.
func WindowForResolution(resolutionMinutes int) int {
	return WindowHours * 60 / interval.NormalizeResolution(resolutionMinutes)
}

// Store is a ring buffer of recent price samples with a forward-only dedup
// cursor. A Store loaded from disk has passed all invariant checks; any
// failed check yields a fresh, empty store instead.
type Store struct {
	ResolutionMinutes int
	WindowSamples     int
	Count             int
	Head              int
	LastSlotKey       string
	values            [MaxWindowSamples]float32
}

// New returns an empty store sized for the given resolution.
func New(resolutionMinutes int) *Store {
	res := interval.NormalizeResolution(resolutionMinutes)
	return &Store{
		ResolutionMinutes: res,
		WindowSamples:     WindowForResolution(res),
	}
}

// Reset discards all history and resizes the window for the resolution.
func (s *Store) Reset(resolutionMinutes int) {
	*s = *New(resolutionMinutes)
}

// Add appends a sample, overwriting the oldest once the window is full.
func (s *Store) Add(value float64) {
	if s.WindowSamples <= 0 || s.WindowSamples > MaxWindowSamples {
		s.WindowSamples = WindowForResolution(s.ResolutionMinutes)
	}
	s.values[s.Head] = float32(value)
	s.Head = (s.Head + 1) % s.WindowSamples
	if s.Count < s.WindowSamples {
		s.Count++
	}
}

// Value returns the arithmetic mean over the held samples, 0 when empty.
// Callers must substitute a configured default rather than classify against
// a zero baseline.
func (s *Store) Value() float64 {
	if s.Count == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < s.Count; i++ {
		sum += float64(s.values[i])
	}
	return sum / float64(s.Count)
}

// Sample returns the raw sample at index i.
func (s *Store) Sample(i int) float64 {
	return float64(s.values[i])
}

// UpdateFromPoints folds not-yet-seen interval samples into the window.
// Points whose interval key is not strictly greater than the cursor are
// skipped, so replaying the same fetched data is idempotent. Returns whether
// any sample was appended.
func (s *Store) UpdateFromPoints(points []model.PricePoint, resolutionMinutes int) bool {
	changed := false
	last := s.LastSlotKey
	for i := range points {
		key := interval.KeyFromISO(points[i].StartsAt, resolutionMinutes)
		if !interval.IsKey(key) {
			continue
		}
		if interval.IsKey(last) && key <= last {
			continue
		}
		s.Add(points[i].Price)
		last = key
		changed = true
	}
	if len(last) >= slotKeyLen {
		last = last[:slotKeyLen-1]
	}
	s.LastSlotKey = last
	return changed
}

// Load reads and validates a persisted store. Any failure means the caller
// should start from a fresh store; history is never partially trusted.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapError(model.ErrPersistence, "read moving average store", err)
	}
	if len(data) != recordSize {
		return nil, model.Errorf(model.ErrPersistence, "moving average store size %d, want %d", len(data), recordSize)
	}

	magic := binary.LittleEndian.Uint32(data[0:4])
	version := binary.LittleEndian.Uint16(data[4:6])
	if magic != storeMagic || version != storeVersion {
		return nil, model.Errorf(model.ErrPersistence, "moving average store magic/version mismatch")
	}

	s := &Store{
		ResolutionMinutes: interval.NormalizeResolution(int(binary.LittleEndian.Uint16(data[6:8]))),
		WindowSamples:     int(binary.LittleEndian.Uint16(data[8:10])),
		Count:             int(binary.LittleEndian.Uint16(data[10:12])),
		Head:              int(binary.LittleEndian.Uint16(data[12:14])),
	}
	if s.WindowSamples != WindowForResolution(s.ResolutionMinutes) {
		return nil, model.Errorf(model.ErrPersistence, "window %d does not match resolution %d", s.WindowSamples, s.ResolutionMinutes)
	}
	if s.WindowSamples == 0 || s.WindowSamples > MaxWindowSamples {
		return nil, model.Errorf(model.ErrPersistence, "window %d out of range", s.WindowSamples)
	}
	if s.Head >= s.WindowSamples || s.Count > s.WindowSamples {
		return nil, model.Errorf(model.ErrPersistence, "head/count out of range")
	}

	key := data[14 : 14+slotKeyLen]
	for i, b := range key {
		if b == 0 {
			key = key[:i]
			break
		}
	}
	s.LastSlotKey = string(key)

	off := 14 + slotKeyLen
	for i := 0; i < MaxWindowSamples; i++ {
		bits := binary.LittleEndian.Uint32(data[off+i*4 : off+i*4+4])
		s.values[i] = math.Float32frombits(bits)
	}
	return s, nil
}

// Save writes the store image, fsyncing before close so a power cut cannot
// leave a truncated record behind a successful return.
func (s *Store) Save(path string) error {
	data := make([]byte, recordSize)
	binary.LittleEndian.PutUint32(data[0:4], storeMagic)
	binary.LittleEndian.PutUint16(data[4:6], storeVersion)
	binary.LittleEndian.PutUint16(data[6:8], uint16(s.ResolutionMinutes))
	binary.LittleEndian.PutUint16(data[8:10], uint16(s.WindowSamples))
	binary.LittleEndian.PutUint16(data[10:12], uint16(s.Count))
	binary.LittleEndian.PutUint16(data[12:14], uint16(s.Head))
	key := s.LastSlotKey
	if len(key) >= slotKeyLen {
		key = key[:slotKeyLen-1]
	}
	copy(data[14:14+slotKeyLen], key)
	off := 14 + slotKeyLen
	for i := 0; i < MaxWindowSamples; i++ {
		binary.LittleEndian.PutUint32(data[off+i*4:off+i*4+4], math.Float32bits(s.values[i]))
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return model.WrapError(model.ErrPersistence, "open moving average store", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return model.WrapError(model.ErrPersistence, "write moving average store", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return model.WrapError(model.ErrPersistence, "sync moving average store", err)
	}
	if err := f.Close(); err != nil {
		return model.WrapError(model.ErrPersistence, "close moving average store", err)
	}
	return nil
}
