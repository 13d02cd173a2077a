// Package cache persists the last-known-good price snapshot so a restart
// can keep showing prices before network and clock are ready.
package cache

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"PriceBoard/internal/interval"
	"PriceBoard/internal/model"
)

const recordVersion = 1

type cachedPoint struct {
	StartsAt string  `json:"startsAt"`
	Level    string  `json:"level"`
	Price    float64 `json:"price"`
}

type record struct {
	Version           int           `json:"version"`
	Source            string        `json:"source"`
	Currency          string        `json:"currency"`
	ResolutionMinutes int           `json:"resolutionMinutes"`
	HasBaseline       bool          `json:"hasRunningAverage"`
	Baseline          float64       `json:"runningAverage"`
	Points            []cachedPoint `json:"points"`
}

// Save writes the snapshot. States without data are never cached.
func Save(path string, state *model.PriceState) error {
	if !state.OK || len(state.Points) == 0 {
		return model.Errorf(model.ErrPersistence, "refusing to cache empty state")
	}

	rec := record{
		Version:           recordVersion,
		Source:            string(state.Source),
		Currency:          state.Currency,
		ResolutionMinutes: state.ResolutionMinutes,
		HasBaseline:       state.HasBaseline,
		Baseline:          state.Baseline,
		Points:            make([]cachedPoint, 0, len(state.Points)),
	}
	for i := range state.Points {
		rec.Points = append(rec.Points, cachedPoint{
			StartsAt: state.Points[i].StartsAt,
			Level:    string(state.Points[i].Level),
			Price:    state.Points[i].Price,
		})
	}

	data, err := json.Marshal(&rec)
	if err != nil {
		return model.WrapError(model.ErrPersistence, "marshal price cache", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return model.WrapError(model.ErrPersistence, "open price cache", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return model.WrapError(model.ErrPersistence, "write price cache", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return model.WrapError(model.ErrPersistence, "sync price cache", err)
	}
	if err := f.Close(); err != nil {
		return model.WrapError(model.ErrPersistence, "close price cache", err)
	}
	return nil
}

// load reads and structurally validates the cached record. Version mismatch
// is a miss, not corruption.
func load(path string, expectedSource model.Source, resolutionMinutes int) (*model.PriceState, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Printf("[WARN] price cache parse failed: %v", err)
		return nil, false
	}
	if rec.Version != recordVersion {
		return nil, false
	}
	if expectedSource != "" && rec.Source != string(expectedSource) {
		return nil, false
	}
	// Stale-shaped data beats nothing: tolerate a resolution change.
	if rec.ResolutionMinutes != 0 && rec.ResolutionMinutes != resolutionMinutes {
		log.Printf("[WARN] price cache resolution %d differs from configured %d", rec.ResolutionMinutes, resolutionMinutes)
	}

	out := model.NewPriceState(model.Source(rec.Source))
	if rec.Currency != "" {
		out.Currency = rec.Currency
	}
	out.ResolutionMinutes = interval.NormalizeResolution(rec.ResolutionMinutes)
	out.HasBaseline = rec.HasBaseline
	out.Baseline = rec.Baseline
	for _, p := range rec.Points {
		if len(out.Points) >= model.MaxPoints {
			break
		}
		if p.StartsAt == "" {
			continue
		}
		out.Points = append(out.Points, model.PricePoint{
			StartsAt: p.StartsAt,
			Level:    model.ParseLevel(p.Level),
			Price:    p.Price,
		})
	}
	if len(out.Points) == 0 {
		return nil, false
	}
	return out, true
}

// LoadIfCurrent restores the snapshot only when it covers the present
// interval; anything else is a miss.
func LoadIfCurrent(path string, expectedSource model.Source, resolutionMinutes int, now time.Time, zone *interval.Zone) (*model.PriceState, bool) {
	out, ok := load(path, expectedSource, resolutionMinutes)
	if !ok {
		return nil, false
	}
	idx := interval.FindCurrentIndex(out, resolutionMinutes, now, zone)
	if idx < 0 {
		return nil, false
	}
	out.SetCurrent(idx)
	out.OK = true
	return out, true
}

// LoadAvailable restores any structurally valid snapshot, synthesizing the
// current point as index 0 when no slot matches. Used for a better-than-
// nothing cold-boot render while network and clock are not yet ready.
func LoadAvailable(path string, expectedSource model.Source, resolutionMinutes int, now time.Time, zone *interval.Zone) (*model.PriceState, bool) {
	out, ok := load(path, expectedSource, resolutionMinutes)
	if !ok {
		return nil, false
	}
	idx := interval.FindCurrentIndex(out, resolutionMinutes, now, zone)
	if idx < 0 {
		idx = 0
	}
	out.SetCurrent(idx)
	out.OK = true
	return out, true
}
