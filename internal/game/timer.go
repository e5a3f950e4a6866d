package game

import (
	"context"
	"math"
	"time"
)

// RoundTimer drives one round's countdown from a single goroutine: a tick
// callback every interval, each hint checkpoint at most once when the
// remaining seconds cross it, and an expiry callback at zero. Cancel stops
// the goroutine without firing expiry.
type RoundTimer struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRoundTimer starts the countdown immediately. Callbacks run on the
// timer's own goroutine and must not block for long.
func NewRoundTimer(duration, tick time.Duration, checkpoints []int, onTick func(timeLeft int), onHint func(timeLeft int), onExpire func()) *RoundTimer {
	ctx, cancel := context.WithCancel(context.Background())
	t := &RoundTimer{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	endTime := time.Now().Add(duration)
	go t.run(ctx, endTime, tick, checkpoints, onTick, onHint, onExpire)
	return t
}

func (t *RoundTimer) run(ctx context.Context, endTime time.Time, tick time.Duration, checkpoints []int, onTick func(int), onHint func(int), onExpire func()) {
	defer close(t.done)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	fired := make(map[int]bool, len(checkpoints))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			left := int(math.Round(time.Until(endTime).Seconds()))
			if left < 0 {
				left = 0
			}
			onTick(left)
			for _, cp := range checkpoints {
				if left <= cp && !fired[cp] {
					fired[cp] = true
					onHint(left)
				}
			}
			if left <= 0 {
				onExpire()
				return
			}
		}
	}
}

// Cancel stops the timer. Safe on nil receivers and safe to call more than
// once; expiry will not fire afterwards, though a callback already in flight
// may still complete.
func (t *RoundTimer) Cancel() {
	if t == nil {
		return
	}
	t.cancel()
}

// Done is closed once the timer goroutine has exited.
func (t *RoundTimer) Done() <-chan struct{} {
	return t.done
}
