// Engine drives a Simulation forward, either one step at a time or
// continuously, and maps input events onto it.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is a discrete input from an external controller.
type Event uint8

const (
	EventStep       Event = iota // Advance one tick (ignored while running)
	EventToggleRun               // Start or stop continuous ticking
	EventSelectPrev              // Select the previous agent
	EventSelectNext              // Select the next agent
	EventQuit                    // Stop the engine
)

var eventNames = map[string]Event{
	"step":   EventStep,
	"toggle": EventToggleRun,
	"prev":   EventSelectPrev,
	"next":   EventSelectNext,
	"quit":   EventQuit,
}

// ParseEvent maps an event name to an Event.
func ParseEvent(name string) (Event, error) {
	ev, ok := eventNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown event %q", name)
	}
	return ev, nil
}

// TickHook is called after every tick with that tick's statistics.
type TickHook func(tick uint64, stats SimStats)

// Engine owns a simulation and serializes access to it.
type Engine struct {
	Interval time.Duration // Delay between ticks while running

	sim *Simulation
	log *zap.Logger

	mu      sync.RWMutex
	running bool
	hooks   []TickHook

	quitOnce sync.Once
	quit     chan struct{}
}

// NewEngine creates a paused engine around sim.
func NewEngine(sim *Simulation, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		Interval: 100 * time.Millisecond,
		sim:      sim,
		log:      logger,
		quit:     make(chan struct{}),
	}
}

// OnTick registers a hook run after every tick, outside the engine lock.
func (e *Engine) OnTick(h TickHook) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooks = append(e.hooks, h)
}

// Step advances the simulation by one tick.
func (e *Engine) Step() {
	e.step(func() bool { return true })
}

// step ticks only if cond holds. cond is checked under the same lock as
// the tick, so a concurrent ToggleRun cannot slip in between.
func (e *Engine) step(cond func() bool) bool {
	e.mu.Lock()
	if !cond() {
		e.mu.Unlock()
		return false
	}
	e.sim.Tick()
	tick := e.sim.LastTick
	stats := e.sim.Stats
	hooks := e.hooks
	e.mu.Unlock()

	for _, h := range hooks {
		h(tick, stats)
	}
	return true
}

// Read runs fn with shared access to the simulation. fn must not mutate it.
func (e *Engine) Read(fn func(sim *Simulation)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.sim)
}

// Running reports whether continuous ticking is on.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// ToggleRun switches continuous ticking on or off.
func (e *Engine) ToggleRun() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = !e.running
	e.log.Info("continuous run toggled", zap.Bool("running", e.running), zap.Uint64("tick", e.sim.LastTick))
	return e.running
}

// Handle applies an input event. It returns false once the engine should quit.
func (e *Engine) Handle(ev Event) bool {
	switch ev {
	case EventStep:
		e.step(func() bool { return !e.running })
	case EventToggleRun:
		e.ToggleRun()
	case EventSelectPrev:
		e.mu.Lock()
		e.sim.SelectPrev()
		e.mu.Unlock()
	case EventSelectNext:
		e.mu.Lock()
		e.sim.SelectNext()
		e.mu.Unlock()
	case EventQuit:
		e.Stop()
		return false
	}
	return true
}

// Stop makes Run return. Safe to call more than once.
func (e *Engine) Stop() {
	e.quitOnce.Do(func() { close(e.quit) })
}

// Done is closed once Stop has been called.
func (e *Engine) Done() <-chan struct{} {
	return e.quit
}

// Run ticks the simulation every Interval while running is on. It blocks
// until ctx is cancelled or Stop is called.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("simulation engine started", zap.Duration("interval", e.Interval))

	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("simulation engine stopped", zap.Error(ctx.Err()))
			return ctx.Err()
		case <-e.quit:
			e.log.Info("simulation engine stopped")
			return nil
		case <-ticker.C:
			e.step(func() bool { return e.running })
		}
	}
}
