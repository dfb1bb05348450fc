package session

import (
	"sync"
	"time"
)

// Debouncer runs named callbacks after a delay with cancel-on-reschedule
// semantics: scheduling a key that already has a pending timer replaces it,
// so there is never more than one pending writer per key.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]*pendingJob
	stopped bool
}

type pendingJob struct {
	timer *time.Timer
	fn    func()
}

func NewDebouncer() *Debouncer {
	return &Debouncer{pending: map[string]*pendingJob{}}
}

// Schedule arranges fn to run after delay, replacing any pending job under
// the same key.
func (d *Debouncer) Schedule(key string, delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if job, ok := d.pending[key]; ok {
		job.timer.Stop()
	}
	job := &pendingJob{fn: fn}
	job.timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		if d.pending[key] == job {
			delete(d.pending, key)
		}
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			fn()
		}
	})
	d.pending[key] = job
}

// Cancel drops a pending job without running it.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if job, ok := d.pending[key]; ok {
		job.timer.Stop()
		delete(d.pending, key)
	}
}

// Flush runs every pending job immediately. Used for the best-effort save on
// shutdown.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	jobs := make([]func(), 0, len(d.pending))
	for key, job := range d.pending {
		job.timer.Stop()
		jobs = append(jobs, job.fn)
		delete(d.pending, key)
	}
	d.mu.Unlock()
	for _, fn := range jobs {
		fn()
	}
}

// Stop cancels everything and refuses further scheduling. No job may fire
// after Stop returns.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for key, job := range d.pending {
		job.timer.Stop()
		delete(d.pending, key)
	}
}
