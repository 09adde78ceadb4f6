package scheduler

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/imtaco/livecast/internal/log"
)

// KeyedTimer runs at most one pending callback per key. Scheduling a key again
// replaces its pending callback.
//
//	timers := NewKeyedTimer(clock, logger)
//	timers.Schedule("session-1", 15*time.Second, func() { ... })
//	timers.Cancel("session-1") // true if it had not fired yet
type KeyedTimer struct {
	mu      sync.Mutex
	entries map[string]*entry
	stopped bool
	clock   clockwork.Clock
	logger  *log.Logger
}

type entry struct {
	timer clockwork.Timer
	due   time.Time
}

func NewKeyedTimer(clock clockwork.Clock, logger *log.Logger) *KeyedTimer {
	if logger == nil {
		panic("logger is required")
	}
	if clock == nil {
		panic("clock is required")
	}
	return &KeyedTimer{
		entries: make(map[string]*entry),
		clock:   clock,
		logger:  logger,
	}
}

// Schedule arms fn to run after delay. A non-positive delay runs fn on its own
// goroutine right away. Scheduling after Stop is a no-op.
func (k *KeyedTimer) Schedule(key string, delay time.Duration, fn func()) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.stopped {
		return
	}
	if cur, ok := k.entries[key]; ok {
		cur.timer.Stop()
		delete(k.entries, key)
	}
	if delay <= 0 {
		go fn()
		return
	}

	e := &entry{due: k.clock.Now().Add(delay)}
	e.timer = k.clock.AfterFunc(delay, func() {
		k.mu.Lock()
		// a Cancel or Schedule that raced the expiry already replaced this entry
		if k.entries[key] != e {
			k.mu.Unlock()
			return
		}
		delete(k.entries, key)
		k.mu.Unlock()

		k.logger.Debug("keyed timer fired", log.String("key", key))
		fn()
	})
	k.entries[key] = e
}

// Cancel drops the pending callback for key and reports whether one existed.
func (k *KeyedTimer) Cancel(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.entries[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(k.entries, key)
	return true
}

// Due returns when key fires, if it is pending.
func (k *KeyedTimer) Due(key string) (time.Time, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.entries[key]
	if !ok {
		return time.Time{}, false
	}
	return e.due, true
}

func (k *KeyedTimer) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

// Stop cancels everything pending and refuses new work.
func (k *KeyedTimer) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.stopped = true
	for key, e := range k.entries {
		e.timer.Stop()
		delete(k.entries, key)
	}
}
