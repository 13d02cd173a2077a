// Package orchestrator runs the single control loop that decides when to
// fetch, whether to accept fetched data, and how to recover from missed or
// failed cycles. All PriceState, cache, and moving-average mutation happens
// on this loop; cron jobs only enqueue tick events.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"PriceBoard/internal/cache"
	"PriceBoard/internal/interval"
	"PriceBoard/internal/model"
	"PriceBoard/internal/provider"
	"PriceBoard/internal/recorder"

	"github.com/robfig/cron/v3"
)

// Phase tracks boot progress of the control loop.
type Phase int

const (
	PhaseBoot Phase = iota
	PhaseAwaitNetwork
	PhaseInitialFetch
	PhaseSteadyState
)

// Renderer consumes read-only PriceState snapshots.
type Renderer interface {
	Render(state *model.PriceState)
}

// Options configures the control loop.
type Options struct {
	FetchHour         int
	FetchMinute       int
	RetryUnchanged    time.Duration // backoff after a rejected or failed daily fetch
	RetryOnError      time.Duration // retry while holding no data at all
	CachePath         string
	StorePath         string
	Policy            provider.Policy
	ResolutionMinutes int
	Source            model.Source
	Zone              *interval.Zone
	ProbeAddr         string // host:port dialed to confirm reachability; empty skips the probe
	ProbeTimeout      time.Duration
}

// Orchestrator owns the displayed price state. It is not safe for concurrent
// use; Run serializes all mutation onto one goroutine.
type Orchestrator struct {
	provider provider.Provider
	display  Renderer
	recorder recorder.Recorder
	opts     Options

	cron  *cron.Cron
	ticks chan time.Time

	phase          Phase
	state          *model.PriceState
	nextDailyFetch time.Time
	lastAttempt    time.Time
	lastMinute     int64
}

// New creates an orchestrator in the BOOT phase.
func New(p provider.Provider, display Renderer, rec recorder.Recorder, opts Options) *Orchestrator {
	if opts.RetryUnchanged <= 0 {
		opts.RetryUnchanged = 10 * time.Minute
	}
	if opts.RetryOnError <= 0 {
		opts.RetryOnError = 30 * time.Second
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}
	opts.ResolutionMinutes = interval.NormalizeResolution(opts.ResolutionMinutes)
	return &Orchestrator{
		provider: p,
		display:  display,
		recorder: rec,
		opts:     opts,
		cron:     cron.New(cron.WithSeconds()),
		ticks:    make(chan time.Time, 1),
		phase:    PhaseBoot,
	}
}

// State returns the currently displayed snapshot.
func (o *Orchestrator) State() *model.PriceState { return o.state }

// Run drives the loop until the context is canceled. The cron heartbeat
// enqueues a tick every minute boundary; a dropped tick is harmless because
// the next one re-evaluates the same conditions.
func (o *Orchestrator) Run(ctx context.Context) error {
	if _, err := o.cron.AddFunc("0 * * * * *", func() {
		select {
		case o.ticks <- time.Now():
		default:
		}
	}); err != nil {
		return fmt.Errorf("register heartbeat: %w", err)
	}
	o.cron.Start()
	defer o.cron.Stop()
	log.Println("[INFO] orchestrator started")

	o.Tick(time.Now())
	for {
		select {
		case <-ctx.Done():
			log.Println("[INFO] orchestrator stopped")
			return ctx.Err()
		case now := <-o.ticks:
			o.Tick(now)
		}
	}
}

// Tick advances the loop one step at the given instant. Exposed so tests can
// drive the state machine with a deterministic clock.
func (o *Orchestrator) Tick(now time.Time) {
	switch o.phase {
	case PhaseBoot:
		o.bootTick(now)
	case PhaseAwaitNetwork:
		o.awaitNetworkTick(now)
	case PhaseInitialFetch:
		o.initialTick(now)
	case PhaseSteadyState:
		o.steadyTick(now)
	}
}

func (o *Orchestrator) bootTick(now time.Time) {
	// Better-than-nothing render while network and clock come up.
	if st, ok := cache.LoadAvailable(o.opts.CachePath, o.opts.Source, o.opts.ResolutionMinutes, now, o.opts.Zone); ok {
		o.state = st
		o.display.Render(o.state)
		log.Printf("[INFO] boot render from cache: points=%d", len(st.Points))
	}
	o.phase = PhaseAwaitNetwork
	o.awaitNetworkTick(now)
}

func (o *Orchestrator) awaitNetworkTick(now time.Time) {
	if !o.networkReachable() {
		log.Println("[WARN] network not reachable yet")
		return
	}
	o.phase = PhaseInitialFetch
	o.initialTick(now)
}

func (o *Orchestrator) initialTick(now time.Time) {
	if !interval.ClockValid(now) {
		log.Println("[WARN] clock not synced yet")
		return
	}
	o.scheduleDailyFetch(now)

	if st, ok := cache.LoadIfCurrent(o.opts.CachePath, o.opts.Source, o.opts.ResolutionMinutes, now, o.opts.Zone); ok {
		// Fold the cached points into the rolling average so a reboot does
		// not lose the samples already fetched today.
		if st.Source == model.SourceNordPool {
			provider.ApplyBaseline(st, o.opts.StorePath, o.opts.Policy, now, o.opts.Zone)
		}
		o.applyFetched(st, now)
		log.Printf("[INFO] loaded current prices from cache: points=%d", len(st.Points))
		o.phase = PhaseSteadyState
		return
	}

	o.fetchAndApply(now)
	o.phase = PhaseSteadyState
}

func (o *Orchestrator) steadyTick(now time.Time) {
	// Holding no usable data at all: fixed-interval retry.
	if (o.state == nil || !o.state.OK) && now.Sub(o.lastAttempt) >= o.opts.RetryOnError {
		log.Println("[INFO] retry fetch due to error state")
		o.fetchAndApply(now)
		return
	}
	if !interval.ClockValid(now) {
		return
	}

	minute := now.Unix() / 60
	if minute != o.lastMinute {
		o.lastMinute = minute
		o.refreshCurrent(now)
	}

	if o.nextDailyFetch.IsZero() {
		o.scheduleDailyFetch(now)
	}
	if !o.nextDailyFetch.IsZero() && !now.Before(o.nextDailyFetch) {
		log.Println("[INFO] daily fetch trigger")
		o.dailyFetch(now)
		return
	}

	// The routine trigger already elapsed but tomorrow is still missing.
	if interval.ShouldCatchUp(now, o.state, o.opts.FetchHour, o.opts.FetchMinute, o.opts.Zone) &&
		now.Sub(o.lastAttempt) >= o.opts.RetryUnchanged {
		log.Println("[INFO] catch-up fetch trigger")
		o.dailyFetch(now)
	}
}

// dailyFetch performs a full two-day refetch and applies the anti-regression
// rule before accepting the result.
func (o *Orchestrator) dailyFetch(now time.Time) {
	fetched := o.provider.Fetch(now)
	o.lastAttempt = now
	o.record(fetched)

	if !fetched.OK {
		log.Printf("[WARN] daily fetch failed: %s, retry in %s", fetched.Error, o.opts.RetryUnchanged)
		o.applyFetched(fetched, now)
		o.nextDailyFetch = now.Add(o.opts.RetryUnchanged)
		o.logNextFetch()
		return
	}

	if wouldReduceCoverage(fetched, o.state) {
		log.Printf("[WARN] daily fetch would reduce coverage (%d < %d points), keep existing and retry in %s",
			len(fetched.Points), len(o.state.Points), o.opts.RetryUnchanged)
		o.nextDailyFetch = now.Add(o.opts.RetryUnchanged)
		o.logNextFetch()
		return
	}

	if hasNewPriceInfo(fetched, o.state) {
		log.Println("[INFO] daily fetch returned updated prices")
		o.applyFetched(fetched, now)
		o.scheduleDailyFetch(now)
		return
	}

	// Materially identical: nothing to redisplay, reschedule normally. A
	// still-missing tomorrow is picked up by the catch-up path.
	log.Println("[INFO] daily fetch unchanged")
	o.scheduleDailyFetch(now)
}

func (o *Orchestrator) fetchAndApply(now time.Time) {
	fetched := o.provider.Fetch(now)
	o.lastAttempt = now
	o.record(fetched)
	o.applyFetched(fetched, now)
}

// applyFetched replaces the displayed state on success; on failure, prior
// good data is kept and only its error message is refreshed.
func (o *Orchestrator) applyFetched(fetched *model.PriceState, now time.Time) {
	switch {
	case fetched.OK:
		o.state = fetched
		if err := cache.Save(o.opts.CachePath, o.state); err != nil {
			log.Printf("[WARN] price cache save failed: %v", err)
		}
	case o.state != nil && len(o.state.Points) > 0:
		o.state.Error = fetched.Error
		o.state.ErrorKind = fetched.ErrorKind
	default:
		o.state = fetched
	}
	o.display.Render(o.state)
}

// refreshCurrent re-resolves the current point from already-held data on a
// minute boundary. No network call.
func (o *Orchestrator) refreshCurrent(now time.Time) {
	if o.state == nil || !o.state.OK || len(o.state.Points) == 0 {
		return
	}
	idx := interval.FindCurrentIndex(o.state, o.state.ResolutionMinutes, now, o.opts.Zone)
	if idx < 0 || idx == o.state.CurrentIndex {
		return
	}
	o.state.SetCurrent(idx)
	log.Printf("[INFO] interval change: idx=%d price=%.3f", idx, o.state.CurrentPrice)
	o.display.Render(o.state)
}

func (o *Orchestrator) scheduleDailyFetch(now time.Time) {
	o.nextDailyFetch = interval.ScheduleNextDailyFetch(now, o.opts.FetchHour, o.opts.FetchMinute, o.opts.Zone)
	o.logNextFetch()
}

func (o *Orchestrator) logNextFetch() {
	if o.nextDailyFetch.IsZero() {
		return
	}
	log.Printf("[INFO] next daily fetch scheduled: %s", o.nextDailyFetch.Format("02/01 15:04"))
}

func (o *Orchestrator) networkReachable() bool {
	if o.opts.ProbeAddr == "" {
		return true
	}
	conn, err := net.DialTimeout("tcp", o.opts.ProbeAddr, o.opts.ProbeTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (o *Orchestrator) record(state *model.PriceState) {
	rec := &recorder.CycleRecord{
		Source:            string(state.Source),
		OK:                state.OK,
		ErrorKind:         string(state.ErrorKind),
		Error:             state.Error,
		PointCount:        len(state.Points),
		DayCoverage:       dayCount(state),
		ResolutionMinutes: state.ResolutionMinutes,
		HasBaseline:       state.HasBaseline,
		Baseline:          state.Baseline,
		CurrentStartsAt:   state.CurrentStartsAt,
		CurrentLevel:      string(state.CurrentLevel),
		CurrentPrice:      state.CurrentPrice,
	}
	for i := range state.Points {
		rec.Points = append(rec.Points, recorder.PointRecord{
			StartsAt: state.Points[i].StartsAt,
			Level:    string(state.Points[i].Level),
			Price:    state.Points[i].Price,
		})
	}
	if err := o.recorder.RecordCycle(rec); err != nil {
		log.Printf("[ERROR] record fetch cycle: %v", err)
	}
}
