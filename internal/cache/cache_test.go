package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"PriceBoard/internal/interval"
	"PriceBoard/internal/model"
)

// 11:30 UTC on 2025-01-15 is 12:30 CET.
var testNow = time.Date(2025, 1, 15, 11, 30, 0, 0, time.UTC)

func testState() *model.PriceState {
	s := model.NewPriceState(model.SourceNordPool)
	s.OK = true
	s.ResolutionMinutes = 60
	s.HasBaseline = true
	s.Baseline = 1.2
	s.Points = []model.PricePoint{
		{StartsAt: "2025-01-15T11:00:00", Level: model.LevelCheap, Price: 0.9},
		{StartsAt: "2025-01-15T12:00:00", Level: model.LevelNormal, Price: 1.3},
	}
	s.SetCurrent(1)
	return s
}

func TestSaveLoadIfCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := Save(path, testState()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	restored, ok := LoadIfCurrent(path, model.SourceNordPool, 60, testNow, interval.ZoneCET)
	if !ok {
		t.Fatal("expected cache hit for current interval")
	}
	if !restored.OK {
		t.Error("restored state should be usable")
	}
	if len(restored.Points) != 2 {
		t.Fatalf("points = %d, want 2", len(restored.Points))
	}
	if restored.CurrentIndex != 1 || restored.CurrentLevel != model.LevelNormal {
		t.Errorf("current = %d/%s, want 1/NORMAL", restored.CurrentIndex, restored.CurrentLevel)
	}
	if !restored.HasBaseline || restored.Baseline != 1.2 {
		t.Errorf("baseline = %v/%v, want true/1.2", restored.HasBaseline, restored.Baseline)
	}
}

func TestLoadIfCurrent_StaleIsMiss(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := Save(path, testState()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A day later the snapshot no longer covers the present interval.
	later := testNow.Add(24 * time.Hour)
	if _, ok := LoadIfCurrent(path, model.SourceNordPool, 60, later, interval.ZoneCET); ok {
		t.Error("expected miss for stale snapshot")
	}

	// LoadAvailable still restores it, pinning index 0 as the display slot.
	restored, ok := LoadAvailable(path, model.SourceNordPool, 60, later, interval.ZoneCET)
	if !ok {
		t.Fatal("LoadAvailable should restore stale snapshots")
	}
	if restored.CurrentIndex != 0 {
		t.Errorf("CurrentIndex = %d, want synthesized 0", restored.CurrentIndex)
	}
}

func TestLoad_SourceMismatchIsMiss(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := Save(path, testState()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, ok := LoadIfCurrent(path, model.SourceTibber, 60, testNow, interval.ZoneCET); ok {
		t.Error("expected miss when cached source differs")
	}
	// No expectation matches anything.
	if _, ok := LoadIfCurrent(path, "", 60, testNow, interval.ZoneCET); !ok {
		t.Error("empty expected source should accept any cached source")
	}
}

func TestLoad_VersionMismatchIsMiss(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	body := `{"version": 99, "source": "NORDPOOL", "resolutionMinutes": 60,
		"points": [{"startsAt": "2025-01-15T12:00:00", "level": "NORMAL", "price": 1.3}]}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	if _, ok := LoadAvailable(path, model.SourceNordPool, 60, testNow, interval.ZoneCET); ok {
		t.Error("expected miss for unknown record version")
	}
}

func TestLoad_ResolutionMismatchTolerated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	st := testState()
	st.ResolutionMinutes = 15
	st.Points = []model.PricePoint{
		{StartsAt: "2025-01-15T12:30:00", Level: model.LevelNormal, Price: 1.3},
	}
	if err := Save(path, st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Config moved to hourly since the snapshot was written. The data is
	// shaped for 15 minutes but still restorable.
	restored, ok := LoadAvailable(path, model.SourceNordPool, 60, testNow, interval.ZoneCET)
	if !ok {
		t.Fatal("expected snapshot with older resolution to restore")
	}
	if restored.ResolutionMinutes != 15 {
		t.Errorf("ResolutionMinutes = %d, want recorded 15", restored.ResolutionMinutes)
	}
}

func TestLoad_SkipsBlankPoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	body := `{"version": 1, "source": "NORDPOOL", "resolutionMinutes": 60, "points": [
		{"startsAt": "", "level": "NORMAL", "price": 1.0},
		{"startsAt": "2025-01-15T12:00:00", "level": "NORMAL", "price": 1.3}]}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	restored, ok := LoadIfCurrent(path, model.SourceNordPool, 60, testNow, interval.ZoneCET)
	if !ok {
		t.Fatal("expected hit after dropping blank point")
	}
	if len(restored.Points) != 1 {
		t.Errorf("points = %d, want 1", len(restored.Points))
	}
}

func TestSave_RefusesEmptyState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	bad := model.NewPriceState(model.SourceNordPool)
	bad.SetError(model.ErrConnectivity, "offline")
	if err := Save(path, bad); err == nil {
		t.Error("expected error caching a failed state")
	}

	empty := model.NewPriceState(model.SourceNordPool)
	empty.OK = true
	if err := Save(path, empty); err == nil {
		t.Error("expected error caching a state with no points")
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("refused saves must not create the cache file")
	}
}

func TestLoad_MissingOrCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if _, ok := LoadAvailable(filepath.Join(dir, "missing.json"), "", 60, testNow, interval.ZoneCET); ok {
		t.Error("expected miss for missing file")
	}

	path := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, ok := LoadAvailable(path, "", 60, testNow, interval.ZoneCET); ok {
		t.Error("expected miss for corrupt file")
	}
}
