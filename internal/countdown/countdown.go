// Package countdown derives live remaining-time values for a single auction
// from its end time and a server-corrected time source.
package countdown

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TickInterval is the refresh resolution of a running Engine.
const TickInterval = 100 * time.Millisecond

// Status is the remaining time of one auction at a single sampling instant.
type Status struct {
	Remaining time.Duration
	Display   string
	Expired   bool
	Warning   bool // under a minute left
	Critical  bool // under thirty seconds left
}

// Snapshot derives a Status from an end time and the current time. It is a
// pure function of its inputs: equal (endTime, now) pairs always yield equal
// results. Remaining time is clamped to zero, never negative.
func Snapshot(endTime, now time.Time) Status {
	remaining := endTime.Sub(now)
	if remaining <= 0 {
		return Status{Display: "ENDED", Expired: true}
	}

	total := int(remaining / time.Second)
	return Status{
		Remaining: remaining,
		Display:   fmt.Sprintf("%d:%02d", total/60, total%60),
		Warning:   total < 60,
		Critical:  total < 30,
	}
}

// Engine emits a Status on every tick until the auction ends. Once remaining
// time reaches zero the ticker is stopped and the updates channel is closed;
// no further ticks occur. Restarting for a new end time means building a new
// Engine.
type Engine struct {
	clock clockwork.Clock
	end   time.Time
	now   func() time.Time

	out  chan Status
	stop chan struct{}
	once sync.Once
}

// NewEngine starts a countdown toward endTime, sampling now() at every tick.
// The now func is typically timesync.Sync.Now so that the countdown runs on
// authoritative time.
func NewEngine(clock clockwork.Clock, endTime time.Time, now func() time.Time) *Engine {
	e := &Engine{
		clock: clock,
		end:   endTime,
		now:   now,
		out:   make(chan Status, 1),
		stop:  make(chan struct{}),
	}
	go e.run()
	return e
}

// Updates returns the status stream. The channel is closed once the countdown
// expires or the engine is stopped. When the consumer falls behind, stale
// samples are dropped in favor of the newest one.
func (e *Engine) Updates() <-chan Status {
	return e.out
}

// Stop halts the countdown. Idempotent.
func (e *Engine) Stop() {
	e.once.Do(func() { close(e.stop) })
}

func (e *Engine) run() {
	defer close(e.out)

	ticker := e.clock.NewTicker(TickInterval)
	defer ticker.Stop()

	st := Snapshot(e.end, e.now())
	e.emit(st)
	if st.Expired {
		return
	}

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.Chan():
			st := Snapshot(e.end, e.now())
			e.emit(st)
			if st.Expired {
				return
			}
		}
	}
}

// emit replaces any undelivered sample with the newest one. run is the sole
// sender, so the drain-then-send below cannot block.
func (e *Engine) emit(st Status) {
	select {
	case e.out <- st:
	default:
		select {
		case <-e.out:
		default:
		}
		e.out <- st
	}
}
