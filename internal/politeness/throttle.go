package politeness

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Throttle spaces out requests to the same host by at least minDelay.
// Host state not touched for stateExpiry is dropped on the next sweep.
type Throttle struct {
	minDelay    time.Duration
	stateExpiry time.Duration
	logger      *logrus.Entry

	mu        sync.Mutex
	hosts     map[string]*hostState
	lastSweep time.Time
	now       func() time.Time
}

type hostState struct {
	nextSlot   time.Time
	lastAccess time.Time
}

// NewThrottle creates a throttle. A zero minDelay disables waiting.
func NewThrottle(minDelay, stateExpiry time.Duration, logger *logrus.Entry) *Throttle {
	return &Throttle{
		minDelay:    minDelay,
		stateExpiry: stateExpiry,
		logger:      logger,
		hosts:       make(map[string]*hostState),
		now:         time.Now,
	}
}

// Wait blocks until host may be requested again, or ctx is done.
func (t *Throttle) Wait(ctx context.Context, host string) error {
	if t.minDelay <= 0 {
		return nil
	}

	wait := t.reserve(host)
	if wait <= 0 {
		return nil
	}

	t.logger.WithFields(logrus.Fields{
		"host":      host,
		"wait_time": wait,
	}).Debug("Waiting for politeness delay")

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// reserve books the next free slot for host and returns how long the
// caller must wait for it.
func (t *Throttle) reserve(host string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.sweep(now)

	state, exists := t.hosts[host]
	if !exists {
		state = &hostState{}
		t.hosts[host] = state
	}
	state.lastAccess = now

	slot := state.nextSlot
	if slot.Before(now) {
		slot = now
	}
	state.nextSlot = slot.Add(t.minDelay)
	return slot.Sub(now)
}

// sweep must be called with mu held.
func (t *Throttle) sweep(now time.Time) {
	if t.stateExpiry <= 0 || now.Sub(t.lastSweep) < t.stateExpiry {
		return
	}
	t.lastSweep = now

	expired := 0
	for host, state := range t.hosts {
		if now.Sub(state.lastAccess) > t.stateExpiry && !state.nextSlot.After(now) {
			delete(t.hosts, host)
			expired++
		}
	}
	if expired > 0 {
		t.logger.WithField("expired_hosts", expired).Debug("Cleanup completed")
	}
}

// HostCount reports how many hosts currently have state.
func (t *Throttle) HostCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.hosts)
}
