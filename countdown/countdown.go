// Package countdown keeps a set of committee codes current on the
// client: it counts down to the end of the step, refetches once per
// rollover and drives the ring shown next to every code.
package countdown

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sib-utrecht/portal/distribution"
	"github.com/sib-utrecht/portal/totp"
)

const (
	TickInterval  = 50 * time.Millisecond
	ResetDuration = 350 * time.Millisecond

	Radius = 22.0
)

var Circumference = 2 * math.Pi * Radius

type Fetcher interface {
	GenerateCodes(ctx context.Context, ids []string) (distribution.Result, error)
}

// Ring is the countdown as rendered at a given moment.
type Ring struct {
	Remaining   time.Duration
	SecondsLeft int
	// 1 when the step has just started, 0 when it is over
	Progress   float64
	DashOffset float64
}

// RingAt is the ring for a step ending at endTime, as seen at now.
func RingAt(now time.Time, endTime time.Time) Ring {
	remaining := endTime.Sub(now)
	if remaining < 0 {
		remaining = 0
	}

	progress := float64(remaining) / float64(totp.Step)
	progress = math.Max(0, math.Min(1, progress))

	dashOffset := 0.0
	if progress <= 0.999 {
		dashOffset = Circumference * (1 - progress)
	}

	return Ring{
		Remaining:   remaining,
		SecondsLeft: int(math.Ceil(remaining.Seconds())),
		Progress:    progress,
		DashOffset:  dashOffset,
	}
}

type State struct {
	Ring

	// true until the first successful fetch
	Loading bool
	// number of fetches in flight
	Fetching int

	Codes   []string
	EndTime time.Time
	Now     time.Time

	// The ring refill animation after a rollover. ResetKey changes with
	// every rollover so a renderer can restart the animation.
	Resetting bool
	ResetKey  int

	// last fetch failure, cleared by the next success
	Err error
}

type Option func(*Controller)

func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// OnChange is called with a snapshot after every tick and every state
// change. It runs on the controller's goroutines and must not block.
func OnChange(fn func(State)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

type Controller struct {
	ids      []string
	fetcher  Fetcher
	clock    clockwork.Clock
	logger   zerolog.Logger
	onChange func(State)

	mu    sync.Mutex
	state State

	// When the next rollover fetch is due. Zero while that fetch is in
	// flight, which is what keeps it to one fetch per rollover.
	nextFetch time.Time

	// the last issued fetch, and the last one whose codes were applied
	seq     uint64
	applied uint64

	resetTimer clockwork.Timer
	ticker     clockwork.Ticker

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	stopped bool
}

func New(fetcher Fetcher, ids []string, opts ...Option) *Controller {
	c := &Controller{
		ids:     ids,
		fetcher: fetcher,
		clock:   clockwork.NewRealClock(),
		logger:  log.Logger,
		state:   State{Loading: true},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.Now = c.clock.Now()
	return c
}

// Start issues the initial fetch and starts ticking. It is a no-op on a
// controller that was already started.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.ticker = c.clock.NewTicker(TickInterval)
	c.fetchLocked()
	c.wg.Add(1)
	c.mu.Unlock()

	go c.loop()
}

// Stop cancels the ticker, the reset timer and any in-flight fetch, then
// waits for the controller's goroutines to exit.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.ticker.Stop()
	if c.resetTimer != nil {
		c.resetTimer.Stop()
	}
	c.cancel()
	c.mu.Unlock()

	c.wg.Wait()
}

// Refresh fetches immediately, outside the rollover schedule.
func (c *Controller) Refresh() {
	c.mu.Lock()
	if !c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.fetchLocked()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) loop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.ticker.Chan():
			c.tick()
		}
	}
}

func (c *Controller) tick() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}

	now := c.clock.Now()
	c.state.Now = now
	if !c.state.EndTime.IsZero() {
		c.state.Ring = RingAt(now, c.state.EndTime)
	}

	if !c.nextFetch.IsZero() && !now.Before(c.nextFetch) {
		c.nextFetch = time.Time{}
		c.startResetLocked()
		c.fetchLocked()
	}

	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot)
}

func (c *Controller) startResetLocked() {
	if c.resetTimer != nil {
		c.resetTimer.Stop()
	}
	c.state.Resetting = true
	c.state.ResetKey++

	key := c.state.ResetKey
	c.resetTimer = c.clock.AfterFunc(ResetDuration, func() {
		c.mu.Lock()
		// a newer rollover owns the animation now
		if c.stopped || c.state.ResetKey != key {
			c.mu.Unlock()
			return
		}
		c.state.Resetting = false
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snapshot)
	})
}

func (c *Controller) fetchLocked() {
	c.seq++
	seq := c.seq
	c.state.Fetching++

	ctx := c.ctx
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		res, err := c.fetcher.GenerateCodes(ctx, c.ids)
		c.complete(seq, res, err)
	}()
}

func (c *Controller) complete(seq uint64, res distribution.Result, err error) {
	c.mu.Lock()
	c.state.Fetching--
	if c.stopped {
		c.mu.Unlock()
		return
	}

	// older than the codes on screen, whether it failed or not
	if seq < c.applied {
		c.logger.Debug().Str("c", "countdown_stale").Uint64("seq", seq).Uint64("applied", c.applied).Msg("")
		c.mu.Unlock()
		return
	}

	now := c.clock.Now()
	if err != nil {
		// Keep showing the last codes and try again at the next boundary.
		// applied stays put so an older fetch still in flight can land.
		c.logger.Warn().Str("c", "countdown_fetch").Err(err).Msg("")
		c.state.Err = err
		c.nextFetch = totp.EndTime(now)
	} else {
		c.applied = seq
		c.state.Err = nil
		c.state.Loading = false
		c.state.Codes = res.Secrets
		c.state.EndTime = res.EndTime
		c.state.Now = now
		c.state.Ring = RingAt(now, res.EndTime)

		// a server clock behind ours hands back a boundary we already passed
		next := totp.EndTime(now)
		if res.EndTime.After(next) {
			next = res.EndTime
		}
		c.nextFetch = next
	}

	snapshot := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snapshot)
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	if s.Codes != nil {
		s.Codes = append([]string(nil), s.Codes...)
	}
	return s
}

func (c *Controller) notify(s State) {
	if c.onChange != nil {
		c.onChange(s)
	}
}
