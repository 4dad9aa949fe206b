package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var calls atomic.Int32
	var (
		mu  sync.Mutex
		got []string
	)
	for i := 0; i < 10; i++ {
		key := "a"
		if i%2 == 1 {
			key = "b"
		}
		d.Trigger(key, func(keys []string) {
			calls.Add(1)
			mu.Lock()
			got = keys
			mu.Unlock()
		})
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)

	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 callback invocation, got %d", n)
	}
	mu.Lock()
	defer mu.Unlock()
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("expected batch [a b], got %v", got)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called atomic.Bool
	d.Trigger("a", func([]string) { called.Store(true) })
	d.Cancel()

	time.Sleep(100 * time.Millisecond)

	if called.Load() {
		t.Error("callback should not have been invoked after cancel")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	d := NewDebouncer(0)
	if d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestNew_NoPaths(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoPaths) {
		t.Fatalf("expected ErrNoPaths, got %v", err)
	}
}

func TestWatcher_DetectsFileChange(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "items.yaml")
	writeFile(t, file, "initial")

	var (
		mu      sync.Mutex
		batches [][]string
	)
	w, err := New([]string{file},
		WithDebounceDuration(50*time.Millisecond),
		WithPollInterval(50*time.Millisecond),
		WithOnChange(func(paths []string) {
			mu.Lock()
			batches = append(batches, paths)
			mu.Unlock()
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	writeFile(t, file, "modified content")

	ok := waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) > 0
	})
	if !ok {
		t.Fatal("expected change to be detected")
	}
	mu.Lock()
	defer mu.Unlock()
	if batches[0][0] != w.Paths()[0] {
		t.Errorf("expected %s in batch, got %v", w.Paths()[0], batches[0])
	}
}

func TestWatcher_PollingBatchesFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	writeFile(t, a, "[]")
	writeFile(t, b, "[]")

	w, err := New([]string{a, b},
		WithDebounceDuration(80*time.Millisecond),
		WithPollInterval(20*time.Millisecond),
		WithForcePoll(true),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if !w.IsPolling() {
		t.Error("expected watcher to be in polling mode")
	}

	writeFile(t, a, `[{"model": "x"}]`)
	writeFile(t, b, `[{"model": "y"}]`)

	select {
	case got := <-w.Changed():
		if len(got) != 2 {
			t.Errorf("expected both files in one batch, got %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for batch")
	}
}

func TestWatcher_EnvForcePoll(t *testing.T) {
	t.Setenv("EXPANDABLE_FORCE_POLL", "yes")
	file := filepath.Join(t.TempDir(), "items.json")
	writeFile(t, file, "[]")

	w, err := New([]string{file})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if !w.IsPolling() {
		t.Error("expected polling when EXPANDABLE_FORCE_POLL is set")
	}
}

func TestWatcher_FileRemoved(t *testing.T) {
	file := filepath.Join(t.TempDir(), "items.json")
	writeFile(t, file, "[]")

	var (
		mu     sync.Mutex
		gotErr error
	)
	w, err := New([]string{file},
		WithPollInterval(20*time.Millisecond),
		WithForcePoll(true),
		WithOnError(func(err error) {
			mu.Lock()
			gotErr = err
			mu.Unlock()
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.Remove(file); err != nil {
		t.Fatal(err)
	}
	ok := waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotErr != nil
	})
	if !ok {
		t.Fatal("expected removal to be reported")
	}
	mu.Lock()
	defer mu.Unlock()
	if !errors.Is(gotErr, ErrFileRemoved) {
		t.Errorf("expected ErrFileRemoved, got %v", gotErr)
	}
}

func TestWatcher_StartStop(t *testing.T) {
	file := filepath.Join(t.TempDir(), "items.json")
	writeFile(t, file, "[]")

	w, err := New([]string{file})
	if err != nil {
		t.Fatal(err)
	}
	if w.IsStarted() {
		t.Error("watcher should not be started initially")
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !w.IsStarted() {
		t.Error("watcher should be started after Start()")
	}
	if err := w.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
	w.Stop()
	if w.IsStarted() {
		t.Error("watcher should not be started after Stop()")
	}
	w.Stop()
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"YES", true},
		{" on ", true},
		{"0", false},
		{"off", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Setenv("EXPANDABLE_TEST_BOOL", tt.value)
		if got := envBool("EXPANDABLE_TEST_BOOL"); got != tt.want {
			t.Errorf("envBool(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
