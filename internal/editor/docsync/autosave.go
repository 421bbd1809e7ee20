package docsync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Autosaver runs save once the document has been quiet for a fixed period.
// Each Schedule replaces the pending timer, so bursts of edits collapse into one save.
// Saving reads true from the first Schedule until that save finishes.
type Autosaver struct {
	quiet  time.Duration
	save   func(context.Context) error
	logger *zap.Logger

	runMu sync.Mutex

	mu        sync.Mutex
	timer     *time.Timer
	gen       uint64
	pending   bool
	running   int
	stopped   bool
	lastErr   error
	listeners map[int]func(bool)
	nextSub   int
}

func NewAutosaver(quiet time.Duration, save func(context.Context) error, logger *zap.Logger) *Autosaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Autosaver{quiet: quiet, save: save, logger: logger, listeners: map[int]func(bool){}}
}

// Schedule (re)starts the quiet period.
func (a *Autosaver) Schedule() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	before := a.savingLocked()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.gen++
	gen := a.gen
	a.pending = true
	a.timer = time.AfterFunc(a.quiet, func() { a.fire(gen) })
	a.mu.Unlock()

	if !before {
		a.publish(true)
	}
}

func (a *Autosaver) Saving() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.savingLocked()
}

// Pending reports whether a save is waiting for its quiet period.
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

// Err is the result of the most recent save.
func (a *Autosaver) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Subscribe is called with every transition of Saving.
func (a *Autosaver) Subscribe(fn func(saving bool)) (cancel func()) {
	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.listeners[id] = fn
	a.mu.Unlock()
	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

// Flush runs a pending save now and waits for it. Without a pending save it
// only waits for one already in flight.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	if !a.pending {
		a.mu.Unlock()
		a.runMu.Lock()
		a.runMu.Unlock()
		return nil
	}
	a.cancelLocked()
	a.running++
	a.mu.Unlock()
	return a.run(ctx)
}

// Stop drops any pending save and refuses further scheduling.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	a.stopped = true
	wasPending := a.pending
	a.cancelLocked()
	saving := a.savingLocked()
	a.mu.Unlock()

	if wasPending && !saving {
		a.publish(false)
	}
}

func (a *Autosaver) fire(gen uint64) {
	a.mu.Lock()
	if gen != a.gen || !a.pending {
		a.mu.Unlock()
		return
	}
	a.pending = false
	a.timer = nil
	a.running++
	a.mu.Unlock()

	if err := a.run(context.Background()); err != nil {
		a.logger.Warn("autosave failed", zap.Error(err))
	}
}

// run expects a.running to have been incremented by the caller.
func (a *Autosaver) run(ctx context.Context) error {
	a.runMu.Lock()
	err := a.save(ctx)
	a.runMu.Unlock()

	a.mu.Lock()
	a.running--
	a.lastErr = err
	saving := a.savingLocked()
	a.mu.Unlock()

	if !saving {
		a.publish(false)
	}
	return err
}

func (a *Autosaver) cancelLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.gen++
	a.pending = false
}

func (a *Autosaver) savingLocked() bool {
	return a.pending || a.running > 0
}

func (a *Autosaver) publish(saving bool) {
	a.mu.Lock()
	fns := make([]func(bool), 0, len(a.listeners))
	for i := 0; i < a.nextSub; i++ {
		if fn, ok := a.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	a.mu.Unlock()
	for _, fn := range fns {
		fn(saving)
	}
}
