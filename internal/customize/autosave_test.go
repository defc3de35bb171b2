package customize

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type saveRecorder struct {
	mu    sync.Mutex
	calls []Document
	errs  []error
}

func (r *saveRecorder) save(_ context.Context, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, doc)
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return err
	}
	return nil
}

func (r *saveRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestAutosaverDebouncedSave(t *testing.T) {
	recorder := &saveRecorder{}
	initial := New("classic", "2.1.0")
	a := NewAutosaver(context.Background(), initial, recorder.save, AutosaveConfig{
		Debounce: 20 * time.Millisecond,
		Interval: time.Hour,
	})
	defer a.Close()

	a.Update(Set(initial, "global.font", "Georgia"))
	if !a.Dirty() {
		t.Fatal("document should be dirty after a change")
	}

	waitFor(t, time.Second, func() bool { return recorder.count() == 1 })
	waitFor(t, time.Second, func() bool { return !a.Dirty() })
	if a.LastError() != nil {
		t.Fatalf("LastError = %v, want nil", a.LastError())
	}
}

func TestAutosaverSkipsUnchangedDocument(t *testing.T) {
	recorder := &saveRecorder{}
	initial := Set(New("classic", "2.1.0"), "global.font", "Inter")
	a := NewAutosaver(context.Background(), initial, recorder.save, AutosaveConfig{
		Debounce: 10 * time.Millisecond,
		Interval: time.Hour,
	})
	defer a.Close()

	// Same customizations, different metadata timestamp: not dirty.
	same := Clone(initial)
	same.Metadata.LastEdited = "2030-01-01T00:00:00Z"
	a.Update(same)

	if a.Dirty() {
		t.Fatal("timestamp-only update must not mark the document dirty")
	}
	time.Sleep(50 * time.Millisecond)
	if recorder.count() != 0 {
		t.Fatalf("save fired %d times for an unchanged document", recorder.count())
	}
}

func TestAutosaverDebounceResetOnRapidEdits(t *testing.T) {
	recorder := &saveRecorder{}
	initial := New("classic", "2.1.0")
	a := NewAutosaver(context.Background(), initial, recorder.save, AutosaveConfig{
		Debounce: 60 * time.Millisecond,
		Interval: time.Hour,
	})
	defer a.Close()

	// Edits arriving inside the window keep pushing the save out.
	for i := 0; i < 4; i++ {
		a.Update(Set(initial, "global.step", i))
		time.Sleep(20 * time.Millisecond)
	}
	if recorder.count() != 0 {
		t.Fatalf("save fired during active editing: %d calls", recorder.count())
	}

	waitFor(t, time.Second, func() bool { return recorder.count() == 1 })
	recorder.mu.Lock()
	saved := recorder.calls[0]
	recorder.mu.Unlock()
	if got := Get(saved, "global.step", nil); got != 3 {
		t.Fatalf("saved snapshot step = %v, want the latest edit", got)
	}
}

func TestAutosaverSaveNow(t *testing.T) {
	recorder := &saveRecorder{}
	initial := New("classic", "2.1.0")
	a := NewAutosaver(context.Background(), initial, recorder.save, AutosaveConfig{
		Debounce: time.Hour,
		Interval: time.Hour,
	})
	defer a.Close()

	a.Update(Set(initial, "global.font", "Georgia"))
	if err := a.SaveNow(); err != nil {
		t.Fatalf("SaveNow failed: %v", err)
	}
	if recorder.count() != 1 {
		t.Fatalf("save calls = %d, want 1", recorder.count())
	}
	if a.Dirty() {
		t.Fatal("document still dirty after SaveNow")
	}

	// Clean document: SaveNow is a no-op, not an error.
	if err := a.SaveNow(); err != nil {
		t.Fatalf("SaveNow on clean document = %v, want nil", err)
	}
	if recorder.count() != 1 {
		t.Fatalf("SaveNow on clean document triggered a save")
	}
}

func TestAutosaverRetriesFailedSaves(t *testing.T) {
	recorder := &saveRecorder{errs: []error{errors.New("boom"), errors.New("boom")}}
	initial := New("classic", "2.1.0")

	var errCount int
	var mu sync.Mutex
	a := NewAutosaver(context.Background(), initial, recorder.save, AutosaveConfig{
		Debounce:   10 * time.Millisecond,
		Interval:   time.Hour,
		MaxRetries: 3,
		OnError: func(error) {
			mu.Lock()
			errCount++
			mu.Unlock()
		},
	})
	defer a.Close()

	a.Update(Set(initial, "global.font", "Georgia"))

	// First attempt and first retry fail, then the save lands. Retries use
	// the shared backoff schedule, so give the 1s+2s delays room.
	waitFor(t, 10*time.Second, func() bool { return recorder.count() == 3 })
	waitFor(t, time.Second, func() bool { return !a.Dirty() })

	mu.Lock()
	defer mu.Unlock()
	if errCount != 2 {
		t.Fatalf("OnError fired %d times, want 2", errCount)
	}
	if a.LastError() != nil {
		t.Fatalf("LastError = %v after a successful save", a.LastError())
	}
}

func TestAutosaverStopsRetryingAfterBudgetExhausted(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	save := func(context.Context, Document) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return errors.New("backend down")
	}
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return calls
	}

	initial := New("classic", "2.1.0")
	a := NewAutosaver(context.Background(), initial, save, AutosaveConfig{
		Debounce:   10 * time.Millisecond,
		Interval:   30 * time.Millisecond,
		MaxRetries: 1,
	})
	defer a.Close()

	a.Update(Set(initial, "global.step", 1))

	// Initial attempt plus one retry, then the budget is spent.
	waitFor(t, 5*time.Second, func() bool { return count() >= 2 })
	time.Sleep(100 * time.Millisecond)
	settled := count()

	// The periodic ticker keeps firing, but no further saves may run.
	time.Sleep(300 * time.Millisecond)
	if got := count(); got != settled {
		t.Fatalf("automatic saves continued after exhaustion: %d calls after %d", got, settled)
	}
	if !a.Dirty() {
		t.Fatal("document must stay dirty while saves are failing")
	}

	// A new change resumes the cycle.
	a.Update(Set(initial, "global.step", 2))
	waitFor(t, 5*time.Second, func() bool { return count() > settled })
	waitFor(t, 5*time.Second, func() bool { return count() >= settled+2 })
	time.Sleep(100 * time.Millisecond)
	settled = count()
	time.Sleep(300 * time.Millisecond)
	if got := count(); got != settled {
		t.Fatalf("saves continued after the second exhaustion: %d calls after %d", got, settled)
	}

	// So does a manual save.
	if err := a.SaveNow(); err == nil {
		t.Fatal("manual save after exhaustion must run and surface the failure")
	}
	if count() <= settled {
		t.Fatal("manual save did not reach the backend")
	}
}

func TestAutosaverSingleSaveInFlight(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	save := func(_ context.Context, _ Document) error {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return nil
	}

	initial := New("classic", "2.1.0")
	a := NewAutosaver(context.Background(), initial, save, AutosaveConfig{
		Debounce: time.Hour,
		Interval: time.Hour,
	})
	defer a.Close()

	a.Update(Set(initial, "global.step", 1))
	go func() { _ = a.SaveNow() }()
	waitFor(t, time.Second, func() bool { return a.InFlight() })

	// A second trigger while one save is outstanding is dropped, not queued.
	a.Update(Set(initial, "global.step", 2))
	if err := a.SaveNow(); err != nil {
		t.Fatalf("overlapping SaveNow = %v, want nil (dropped)", err)
	}

	mu.Lock()
	if calls != 1 {
		mu.Unlock()
		t.Fatalf("save calls = %d while one was in flight, want 1", calls)
	}
	mu.Unlock()
	close(release)

	waitFor(t, time.Second, func() bool { return !a.InFlight() })
	// The dropped trigger left the newer edit unsaved.
	if !a.Dirty() {
		t.Fatal("newer edit should still be dirty after the dropped trigger")
	}
}

func TestAutosaverClose(t *testing.T) {
	recorder := &saveRecorder{}
	initial := New("classic", "2.1.0")
	a := NewAutosaver(context.Background(), initial, recorder.save, AutosaveConfig{
		Debounce: 10 * time.Millisecond,
		Interval: time.Hour,
	})

	a.Close()
	a.Close() // idempotent

	if err := a.SaveNow(); !errors.Is(err, ErrSaverClosed) {
		t.Fatalf("SaveNow after Close = %v, want ErrSaverClosed", err)
	}
	a.Update(Set(initial, "global.font", "Georgia"))
	time.Sleep(50 * time.Millisecond)
	if recorder.count() != 0 {
		t.Fatal("save fired after Close")
	}
}
