package game

import (
	"sync"
	"time"
)

// Hold-to-repeat: after the hold delay, the unit delta is applied times
// ten once per interval until released.
const holdMultiplier = 10

// LifeHold is a running hold-to-repeat interaction on one player's life
// control. Release cancels it deterministically: once Release returns,
// no further tick is applied.
type LifeHold struct {
	stop chan struct{}
	once sync.Once
	done chan struct{}
}

// Release ends the hold. Safe to call more than once.
func (h *LifeHold) Release() {
	h.once.Do(func() { close(h.stop) })
	<-h.done
}

// StartLifeHold begins a hold-to-repeat life change for the player. Each
// tick routes through the standard life mutation protocol; when a tick
// would knock the player out, the pending confirmation is handed to
// onConfirm (or cancelled when onConfirm is nil) and the hold stops so
// the repeat can never blow through a knockout prompt.
func (e *Engine) StartLifeHold(player, unitDelta int, onConfirm func(*PendingConfirmation)) *LifeHold {
	e.mu.Lock()
	delay, interval := e.holdDelay, e.holdInterval
	e.mu.Unlock()

	h := &LifeHold{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(h.done)

		wait := time.NewTimer(delay)
		defer wait.Stop()
		select {
		case <-wait.C:
		case <-h.stop:
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			pending, err := e.LifeDelta(player, unitDelta*holdMultiplier)
			if err != nil {
				return
			}
			if pending != nil {
				if onConfirm != nil {
					onConfirm(pending)
				} else {
					pending.Cancel()
				}
				return
			}
			select {
			case <-ticker.C:
			case <-h.stop:
				return
			}
		}
	}()

	return h
}

// SetHoldTiming overrides the hold-to-repeat delay and interval. Used by
// tests to avoid real half-second waits.
func (e *Engine) SetHoldTiming(delay, interval time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.holdDelay = delay
	e.holdInterval = interval
}
