package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agriconnect/service-dashboard/internal/analytics"
	"github.com/agriconnect/service-dashboard/internal/models"
	"github.com/agriconnect/service-dashboard/internal/session"
)

var (
	ErrOrchestratorClosed = errors.New("orchestrator closed")
	ErrNoPeriodSelected   = errors.New("no period selected")
)

// State is the lifecycle state of the dashboard view.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// View is an immutable snapshot of the dashboard view state.
type View struct {
	State      State                `json:"state"`
	Period     models.Period        `json:"period"`
	Dashboard  *analytics.Dashboard `json:"dashboard,omitempty"`
	Err        error                `json:"-"`
	Error      string               `json:"error,omitempty"`
	Generation uint64               `json:"generation"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// OrchestratorConfig tunes an Orchestrator
type OrchestratorConfig struct {
	Location *time.Location
	Timeout  time.Duration // per fetch, zero means none
	Now      func() time.Time
}

// Orchestrator owns the selected period of one dashboard session, fetches
// its sales analysis and publishes view state transitions. Only the result
// of the latest selection is ever applied.
type Orchestrator struct {
	fetcher  SalesFetcher
	sess     *session.Session
	location *time.Location
	timeout  time.Duration
	now      func() time.Time
	logger   *zap.Logger

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	mu         sync.Mutex
	view       View
	generation uint64
	cancel     context.CancelFunc
	subs       map[chan View]struct{}
	closed     bool
}

// NewOrchestrator creates an orchestrator in the Loading state. Nothing is
// fetched until Select is called.
func NewOrchestrator(fetcher SalesFetcher, sess *session.Session, cfg *OrchestratorConfig, logger *zap.Logger) *Orchestrator {
	if cfg == nil {
		cfg = &OrchestratorConfig{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		fetcher:    fetcher,
		sess:       sess,
		location:   loc,
		timeout:    cfg.Timeout,
		now:        now,
		logger:     logger,
		baseCtx:    ctx,
		baseCancel: cancel,
		view:       View{State: StateLoading, UpdatedAt: now()},
		subs:       make(map[chan View]struct{}),
	}
}

// Select switches to period and starts a fetch, superseding any fetch in flight.
func (o *Orchestrator) Select(period models.Period) error {
	if !period.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidPeriod, period)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrOrchestratorClosed
	}
	o.startLocked(period)
	return nil
}

// Retry re-fetches the current period.
func (o *Orchestrator) Retry() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrOrchestratorClosed
	}
	if o.view.Period == "" {
		return ErrNoPeriodSelected
	}
	o.startLocked(o.view.Period)
	return nil
}

// View returns the current view snapshot.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.view
}

// Subscribe returns a channel receiving the current view and every later
// transition, plus a function to stop the subscription. A subscriber that
// falls behind only sees the latest view.
func (o *Orchestrator) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		close(ch)
		return ch, func() {}
	}
	ch <- o.view
	o.subs[ch] = struct{}{}

	return ch, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if _, ok := o.subs[ch]; ok {
			delete(o.subs, ch)
			close(ch)
		}
	}
}

// Close cancels in-flight work, closes subscriber channels and waits for
// fetch goroutines to exit.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.baseCancel()
	for ch := range o.subs {
		delete(o.subs, ch)
		close(ch)
	}
	o.mu.Unlock()

	o.wg.Wait()
}

// startLocked must be called with o.mu held.
func (o *Orchestrator) startLocked(period models.Period) {
	if o.cancel != nil {
		o.cancel()
	}

	o.generation++
	gen := o.generation

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if o.timeout > 0 {
		ctx, cancel = context.WithTimeout(o.baseCtx, o.timeout)
	} else {
		ctx, cancel = context.WithCancel(o.baseCtx)
	}
	o.cancel = cancel

	o.setViewLocked(View{
		State:      StateLoading,
		Period:     period,
		Generation: gen,
		UpdatedAt:  o.now(),
	})

	o.wg.Add(1)
	go o.fetch(ctx, cancel, period, gen)
}

func (o *Orchestrator) fetch(ctx context.Context, cancel context.CancelFunc, period models.Period, gen uint64) {
	defer o.wg.Done()
	defer cancel()

	analysis, err := o.fetcher.GetSalesAnalysis(ctx, o.sess, period)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || gen != o.generation {
		o.logger.Debug("Discarding superseded dashboard fetch",
			zap.String("period", period.String()),
			zap.Uint64("generation", gen),
			zap.Uint64("current", o.generation),
		)
		return
	}

	now := o.now()
	if err != nil {
		o.logger.Warn("Dashboard fetch failed", zap.String("period", period.String()), zap.Error(err))
		o.setViewLocked(View{
			State:      StateError,
			Period:     period,
			Err:        err,
			Error:      err.Error(),
			Generation: gen,
			UpdatedAt:  now,
		})
		return
	}

	o.setViewLocked(View{
		State:  StateReady,
		Period: period,
		Dashboard: analytics.Build(analysis, period, analytics.BuildOptions{
			Now:      now,
			Location: o.location,
		}),
		Generation: gen,
		UpdatedAt:  now,
	})
}

// setViewLocked must be called with o.mu held.
func (o *Orchestrator) setViewLocked(v View) {
	o.view = v
	for ch := range o.subs {
		select {
		case ch <- v:
		default:
			// drop the stale view the subscriber has not read yet
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}
