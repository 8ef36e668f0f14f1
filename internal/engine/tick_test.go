package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	sim, err := NewSimulation(smallParams(), testRand(), nil)
	require.NoError(t, err)
	return NewEngine(sim, nil)
}

func currentTick(e *Engine) uint64 {
	var tick uint64
	e.Read(func(sim *Simulation) { tick = sim.CurrentTick() })
	return tick
}

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent("toggle")
	require.NoError(t, err)
	assert.Equal(t, EventToggleRun, ev)

	_, err = ParseEvent("jump")
	assert.Error(t, err)
}

func TestEngine_HandleStepAndHooks(t *testing.T) {
	e := newTestEngine(t)
	var seen []uint64
	e.OnTick(func(tick uint64, stats SimStats) {
		seen = append(seen, tick)
		assert.Equal(t, tick, stats.Tick)
	})

	assert.True(t, e.Handle(EventStep))
	assert.True(t, e.Handle(EventStep))
	assert.Equal(t, uint64(2), currentTick(e))
	assert.Equal(t, []uint64{1, 2}, seen)
}

func TestEngine_StepIgnoredWhileRunning(t *testing.T) {
	e := newTestEngine(t)
	e.Handle(EventToggleRun)
	require.True(t, e.Running())

	e.Handle(EventStep)
	assert.Equal(t, uint64(0), currentTick(e))

	e.Handle(EventToggleRun)
	assert.False(t, e.Running())
}

func TestEngine_StepEventRacesToggle(t *testing.T) {
	e := newTestEngine(t)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 50; j++ {
				e.Handle(EventStep)
			}
		}()
	}

	close(start)
	require.True(t, e.ToggleRun())
	// Any step that won the lock before the toggle has finished by now.
	frozen := currentTick(e)
	wg.Wait()

	assert.Equal(t, frozen, currentTick(e), "no step lands after continuous run starts")
}

func TestEngine_SelectionEvents(t *testing.T) {
	e := newTestEngine(t)
	e.Handle(EventSelectNext)
	e.Handle(EventSelectNext)
	e.Handle(EventSelectPrev)
	var sel int
	e.Read(func(sim *Simulation) { sel = sim.Selected })
	assert.Equal(t, 1, sel)
}

func TestEngine_QuitStopsRun(t *testing.T) {
	e := newTestEngine(t)
	e.Interval = time.Millisecond

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	assert.False(t, e.Handle(EventQuit))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}
	// Stopping twice is harmless.
	e.Stop()
}

func TestEngine_RunTicksWhileRunning(t *testing.T) {
	e := newTestEngine(t)
	e.Interval = time.Millisecond

	var ticks atomic.Int64
	e.OnTick(func(uint64, SimStats) { ticks.Add(1) })
	e.ToggleRun()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, 5*time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
