package customize

import (
	"context"
	"errors"
	"sync"
	"time"

	"beacon/api/internal/util"
)

const (
	// DefaultDebounce is the trailing-edge debounce window after an edit.
	DefaultDebounce = 2 * time.Second
	// DefaultInterval is the periodic floor: a dirty document is saved at
	// least this often even under continuous typing that keeps resetting
	// the debounce.
	DefaultInterval = 30 * time.Second
	// DefaultMaxRetries bounds automatic retries after a failed save.
	DefaultMaxRetries = 3
)

// ErrSaverClosed is reported when a save is requested after Close.
var ErrSaverClosed = errors.New("autosaver closed")

// SaveFunc persists the document. It is invoked at most once concurrently.
type SaveFunc func(ctx context.Context, doc Document) error

// AutosaveConfig tunes an Autosaver. Zero values take the defaults above.
type AutosaveConfig struct {
	Debounce   time.Duration
	Interval   time.Duration
	MaxRetries int
	// OnSaved fires after each successful save with the saved snapshot.
	OnSaved func(Document)
	// OnError fires on each failed save attempt.
	OnError func(error)
}

// Autosaver converges the persisted document to the latest in-memory
// document without redundant or overlapping saves. At most one save is in
// flight at a time; a trigger that arrives while one is outstanding is
// dropped, not queued, so the next successful save reflects whatever the
// document was when that save started. Failures retry with capped
// exponential backoff and are never fatal to the editing session. Once the
// retry budget is spent, automatic saves pause until a new change or a
// manual save resumes the cycle.
//
// All timer handles are owned by the instance; two open documents never
// share a debounce timer.
type Autosaver struct {
	mu sync.Mutex

	save SaveFunc
	cfg  AutosaveConfig
	ctx  context.Context

	current   Document
	lastSaved Document

	dirty    bool
	inFlight bool
	closed   bool

	retryCount  int
	exhausted   bool
	lastError   error
	lastSavedAt time.Time
	nextSaveAt  time.Time

	debounce   *time.Timer
	retryTimer *time.Timer
	ticker     *time.Ticker
	done       chan struct{}
}

// NewAutosaver starts a coordinator around the initial document, which is
// treated as already saved. ctx bounds every save call; cancelling it (or
// calling Close) releases the periodic timer.
func NewAutosaver(ctx context.Context, initial Document, save SaveFunc, cfg AutosaveConfig) *Autosaver {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	a := &Autosaver{
		save:      save,
		cfg:       cfg,
		ctx:       ctx,
		current:   Clone(initial),
		lastSaved: Clone(initial),
		ticker:    time.NewTicker(cfg.Interval),
		done:      make(chan struct{}),
	}
	go a.periodicLoop()
	return a
}

func (a *Autosaver) periodicLoop() {
	for {
		select {
		case <-a.done:
			return
		case <-a.ctx.Done():
			return
		case <-a.ticker.C:
			a.attemptSave()
		}
	}
}

// Update records the latest in-memory document. If it structurally equals
// the last-saved snapshot (arrays included, metadata timestamps ignored)
// nothing happens; otherwise the document is marked dirty and the debounce
// timer restarts.
func (a *Autosaver) Update(doc Document) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.current = Clone(doc)
	if EqualCustomizations(a.current, a.lastSaved) {
		return
	}
	a.dirty = true
	a.retryCount = 0
	a.exhausted = false
	a.nextSaveAt = time.Now().Add(a.cfg.Debounce)
	if a.debounce != nil {
		a.debounce.Stop()
	}
	a.debounce = time.AfterFunc(a.cfg.Debounce, a.attemptSave)
}

// SaveNow bypasses the debounce but still respects the in-flight mutual
// exclusion. It reports the outcome of this attempt: a dropped trigger
// (clean document or save already in flight) returns nil.
func (a *Autosaver) SaveNow() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrSaverClosed
	}
	if !a.dirty {
		a.dirty = !EqualCustomizations(a.current, a.lastSaved)
	}
	// A manual save resumes the cycle after retry exhaustion.
	a.retryCount = 0
	a.exhausted = false
	a.mu.Unlock()
	return a.runSave()
}

// attemptSave is the timer entry point: fire-and-forget, outcome lands in
// state fields. Timer-originated attempts stop once the retry budget is
// exhausted; only Update or SaveNow restart them.
func (a *Autosaver) attemptSave() {
	a.mu.Lock()
	skip := a.exhausted
	a.mu.Unlock()
	if skip {
		return
	}
	go func() { _ = a.runSave() }()
}

func (a *Autosaver) runSave() error {
	a.mu.Lock()
	if a.closed || !a.dirty || a.inFlight {
		// Dropped, not queued; the next change reschedules.
		a.mu.Unlock()
		return nil
	}
	a.inFlight = true
	snapshot := Clone(a.current)
	a.nextSaveAt = time.Time{}
	a.mu.Unlock()

	err := a.save(a.ctx, snapshot)

	a.mu.Lock()
	a.inFlight = false
	if err == nil {
		a.lastSaved = snapshot
		a.dirty = !EqualCustomizations(a.current, a.lastSaved)
		a.retryCount = 0
		a.lastError = nil
		a.lastSavedAt = time.Now()
		onSaved := a.cfg.OnSaved
		a.mu.Unlock()
		if onSaved != nil {
			onSaved(snapshot)
		}
		return nil
	}

	a.lastError = err
	if a.retryCount < a.cfg.MaxRetries && !a.closed {
		delay := util.Backoff(a.retryCount)
		a.retryCount++
		a.nextSaveAt = time.Now().Add(delay)
		if a.retryTimer != nil {
			a.retryTimer.Stop()
		}
		a.retryTimer = time.AfterFunc(delay, a.attemptSave)
	} else {
		a.exhausted = true
	}
	onError := a.cfg.OnError
	a.mu.Unlock()
	if onError != nil {
		onError(err)
	}
	return err
}

// NextSaveIn returns the countdown until the next scheduled save attempt, or
// zero when none is scheduled.
func (a *Autosaver) NextSaveIn() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.nextSaveAt.IsZero() {
		return 0
	}
	remaining := time.Until(a.nextSaveAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Dirty reports whether unsaved changes exist.
func (a *Autosaver) Dirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dirty
}

// InFlight reports whether a save is currently outstanding.
func (a *Autosaver) InFlight() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inFlight
}

// LastError returns the most recent save failure, cleared on success.
func (a *Autosaver) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastError
}

// LastSavedAt returns when the last successful save finished.
func (a *Autosaver) LastSavedAt() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSavedAt
}

// LastSaved returns the last successfully persisted snapshot.
func (a *Autosaver) LastSaved() Document {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Clone(a.lastSaved)
}

// Close releases every timer so no callback can fire after the owning
// editing session is gone.
func (a *Autosaver) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	if a.debounce != nil {
		a.debounce.Stop()
	}
	if a.retryTimer != nil {
		a.retryTimer.Stop()
	}
	a.ticker.Stop()
	close(a.done)
}
