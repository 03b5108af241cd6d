package view

import (
	"sync"
	"time"
)

// debounceTimer is a single-slot cancellable timer. Scheduling replaces
// any pending callback, so only the last scheduled function within a
// quiet period fires.
type debounceTimer struct {
	mu    sync.Mutex
	timer *time.Timer
}

func (d *debounceTimer) Schedule(delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(delay, fn)
}

func (d *debounceTimer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
