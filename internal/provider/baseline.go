package provider

import (
	"errors"
	"log"
	"os"
	"time"

	"PriceBoard/internal/average"
	"PriceBoard/internal/interval"
	"PriceBoard/internal/model"
)

// ApplyBaseline loads the persisted rolling average, folds any not-yet-seen
// interval samples into it, classifies every point under the policy, and
// resolves the current point from the wall clock. The store is written back
// only when a sample was actually appended. Returns the sample count held
// after the update.
func ApplyBaseline(state *model.PriceState, storePath string, policy Policy, now time.Time, zone *interval.Zone) int {
	if len(state.Points) == 0 {
		return 0
	}

	res := interval.NormalizeResolution(state.ResolutionMinutes)
	state.ResolutionMinutes = res
	targetWindow := average.WindowForResolution(res)

	store, err := average.Load(storePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("[WARN] moving average store reset: %v", err)
		}
		store = average.New(res)
	}
	// Two resolutions are not history-compatible.
	if store.ResolutionMinutes != res || store.WindowSamples != targetWindow {
		store.Reset(res)
	}

	if store.UpdateFromPoints(state.Points, res) {
		if err := store.Save(storePath); err != nil {
			log.Printf("[WARN] moving average save failed: %v", err)
		}
	}

	baseline := store.Value()
	if store.Count == 0 || baseline <= baselineEpsilon {
		baseline = DefaultBaseline
	}
	state.HasBaseline = true
	state.Baseline = baseline

	for i := range state.Points {
		state.Points[i].Level = classify(policy, state.Points[i].Price, baseline)
	}

	idx := interval.FindCurrentIndex(state, res, now, zone)
	if idx < 0 {
		// Provider lag or clock skew: degrade to the first point rather
		// than leave the board blank.
		idx = 0
	}
	state.SetCurrent(idx)
	return store.Count
}
