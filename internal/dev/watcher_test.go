package dev

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/vango-dev/lessonvars/internal/errors"
	"github.com/vango-dev/lessonvars/pkg/registry"
)

const validDoc = `variables:
  sineAngle:
    default: 45
`

const grownDoc = `variables:
  sineAngle:
    default: 45
  amplitude:
    default: 1
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestWatcherReloadsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "variables.yaml")
	writeFile(t, path, validDoc)

	reloaded := make(chan *registry.Registry, 4)
	w, err := NewWatcher(Config{Path: path, Debounce: 20 * time.Millisecond, Logger: quietLogger()},
		func(reg *registry.Registry) { reloaded <- reg })
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	writeFile(t, path, grownDoc)

	select {
	case reg := <-reloaded:
		if !reg.Has("amplitude") {
			t.Errorf("reloaded registry = %v", reg.Names())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after change")
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "variables.yaml")
	writeFile(t, path, validDoc)

	var mu sync.Mutex
	reloads := 0
	w, err := NewWatcher(Config{Path: path, Debounce: 150 * time.Millisecond, Logger: quietLogger()},
		func(*registry.Registry) {
			mu.Lock()
			reloads++
			mu.Unlock()
		})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		writeFile(t, path, grownDoc)
		time.Sleep(10 * time.Millisecond)
	}

	waitFor(t, "reload", func() bool { return w.Stats().Reloads > 0 })
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if reloads != 1 {
		t.Errorf("burst of writes caused %d reloads, want 1", reloads)
	}
	if w.Stats().Events < 2 {
		t.Errorf("Events = %d, expected the whole burst to be seen", w.Stats().Events)
	}
}

func TestWatcherKeepsRegistryOnBadDocument(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "variables.yaml")
	writeFile(t, path, validDoc)

	var out bytes.Buffer
	errs := make(chan error, 4)
	called := false
	w, err := NewWatcher(Config{
		Path:      path,
		Debounce:  20 * time.Millisecond,
		Logger:    quietLogger(),
		ErrOutput: &out,
		OnError:   func(err error) { errs <- err },
	}, func(*registry.Registry) { called = true })
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	writeFile(t, path, "variables:\n  a:\n    default: 1\n  a:\n    default: 2\n")

	select {
	case err := <-errs:
		if !errors.HasCode(err, "E101") {
			t.Errorf("expected E101, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no error reported for a bad document")
	}
	w.Stop()

	if called {
		t.Error("onReload called for a bad document")
	}
	if w.Stats().Failures != 1 {
		t.Errorf("Failures = %d", w.Stats().Failures)
	}
	if !bytes.Contains(out.Bytes(), []byte("E101")) {
		t.Errorf("formatted error not written: %q", out.String())
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "variables.yaml")
	writeFile(t, path, validDoc)

	w, err := NewWatcher(Config{Path: path, Debounce: 20 * time.Millisecond, Logger: quietLogger()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(dir, "notes.txt"), "unrelated")
	time.Sleep(100 * time.Millisecond)
	w.Stop()

	if s := w.Stats(); s.Events != 0 || s.Reloads != 0 {
		t.Errorf("unrelated file triggered %+v", s)
	}
}

func TestWatcherStopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "variables.yaml")
	writeFile(t, path, validDoc)

	w, err := NewWatcher(Config{Path: path, Logger: quietLogger()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	// Starting twice is a no-op.
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	cancel()
	select {
	case <-w.doneCh:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not exit on cancel")
	}
	w.Stop()
	w.Stop()
}

func TestWatcherMissingDirectory(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := NewWatcher(Config{Path: filepath.Join(t.TempDir(), "nope", "variables.yaml"), Logger: quietLogger()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.Start(context.Background()); !errors.HasCode(err, "E104") {
		t.Errorf("watching a missing directory should fail with E104, got %v", err)
	}
}
