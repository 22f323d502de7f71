package throttle

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle inserts a fixed gap between calls to a rate-limited dependency.
// Callers Wait before a call and report Done when it has finished; the next
// Wait then blocks until the gap has passed since that completion.
type Throttle interface {
	Wait(ctx context.Context) error
	Done()
}

type limiter struct {
	name string
	gap  time.Duration

	mu  sync.Mutex
	lim *rate.Limiter
}

// Every enforces a gap of d between the end of one call and the start of the
// next. The first call passes immediately.
func Every(name string, d time.Duration) Throttle {
	if d <= 0 {
		return None
	}
	return &limiter{name: name, gap: d, lim: rate.NewLimiter(rate.Every(d), 1)}
}

func (l *limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	res := l.lim.Reserve()
	l.mu.Unlock()
	if !res.OK() {
		return ctx.Err()
	}
	delay := res.Delay()
	if delay <= 0 {
		return nil
	}

	log.Printf("[Throttle] %s: waiting %v", l.name, delay.Round(time.Millisecond))
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		res.Cancel()
		return ctx.Err()
	}
}

// Done restarts the gap from now, however long the finished call took.
func (l *limiter) Done() {
	lim := rate.NewLimiter(rate.Every(l.gap), 1)
	lim.Allow()

	l.mu.Lock()
	l.lim = lim
	l.mu.Unlock()
}

type none struct{}

func (none) Wait(ctx context.Context) error { return ctx.Err() }
func (none) Done()                          {}

// None never waits.
var None Throttle = none{}
