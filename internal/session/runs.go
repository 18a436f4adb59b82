package session

import (
	"context"
	"sync"
)

// Run is one in-flight generation for a user.
type Run struct {
	ID     uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// Context is cancelled when the run is superseded or cancelled.
func (r *Run) Context() context.Context {
	return r.ctx
}

// Runs tracks the latest run per user. Starting a run cancels the user's
// previous one, and only the latest run may publish its result.
type Runs struct {
	mu     sync.Mutex
	nextID uint64
	active map[string]*Run
}

func NewRuns() *Runs {
	return &Runs{active: make(map[string]*Run)}
}

// Start begins a new run for the user derived from parent, cancelling any
// run already in flight.
func (r *Runs) Start(parent context.Context, userID string) *Run {
	ctx, cancel := context.WithCancel(parent)

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.active[userID]; ok {
		prev.cancel()
	}
	r.nextID++
	run := &Run{ID: r.nextID, ctx: ctx, cancel: cancel}
	r.active[userID] = run
	return run
}

// IsCurrent reports whether run is still the user's latest run.
func (r *Runs) IsCurrent(userID string, run *Run) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[userID] == run
}

// Finish releases the run. It returns true if the run was still current,
// meaning its result should be delivered; a superseded run returns false.
func (r *Runs) Finish(userID string, run *Run) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	run.cancel()
	if r.active[userID] != run {
		return false
	}
	delete(r.active, userID)
	return true
}

// Cancel stops the user's current run. It returns false if none was active.
func (r *Runs) Cancel(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.active[userID]
	if !ok {
		return false
	}
	run.cancel()
	delete(r.active, userID)
	return true
}

// Active reports whether the user has a run in flight.
func (r *Runs) Active(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[userID]
	return ok
}
