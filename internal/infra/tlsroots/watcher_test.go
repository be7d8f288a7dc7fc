package tlsroots

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/emplo-ai/emplo/internal/telemetry/logger"
)

func writeCAFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, generateTestCertPEM(t), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestNewWatcher(t *testing.T) {
	caFile := filepath.Join(t.TempDir(), "ca.pem")
	writeCAFile(t, caFile)

	w, err := NewWatcher(caFile)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if w.Current() == nil {
		t.Error("NewWatcher() did not load initial pool")
	}
}

func TestNewWatcher_InvalidBundle(t *testing.T) {
	caFile := filepath.Join(t.TempDir(), "ca.pem")
	os.WriteFile(caFile, []byte("invalid"), 0644)

	if _, err := NewWatcher(caFile); err == nil {
		t.Error("NewWatcher() expected error for invalid bundle")
	}
}

func TestNewWatcher_NonexistentFile(t *testing.T) {
	if _, err := NewWatcher("/nonexistent/ca.pem"); err == nil {
		t.Error("NewWatcher() expected error for nonexistent file")
	}
}

func TestWatcher_StartStop(t *testing.T) {
	caFile := filepath.Join(t.TempDir(), "ca.pem")
	writeCAFile(t, caFile)

	w, err := NewWatcher(caFile,
		WithLogger(logger.Discard()),
		WithDebounce(100*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	w.StartAsync()
	time.Sleep(50 * time.Millisecond)

	// Stop should not block and may be repeated
	w.Stop()
	w.Stop()
}

func TestWatcher_ReloadOnChange(t *testing.T) {
	caFile := filepath.Join(t.TempDir(), "ca.pem")
	writeCAFile(t, caFile)

	var reloads atomic.Int32
	w, err := NewWatcher(caFile,
		WithLogger(logger.Discard()),
		WithDebounce(50*time.Millisecond),
		WithOnReload(func(*Pool) { reloads.Add(1) }),
	)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	initial := w.Current()

	w.StartAsync()
	defer w.Stop()

	// Wait for watcher to be ready
	time.Sleep(100 * time.Millisecond)

	writeCAFile(t, caFile)

	deadline := time.Now().Add(2 * time.Second)
	for reloads.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}

	if reloads.Load() == 0 {
		t.Fatal("onReload was not called after the bundle changed")
	}
	if w.Current() == initial {
		t.Error("Current() still returns the initial pool after reload")
	}
}

func TestWatcher_BrokenRewriteKeepsPreviousPool(t *testing.T) {
	caFile := filepath.Join(t.TempDir(), "ca.pem")
	writeCAFile(t, caFile)

	w, err := NewWatcher(caFile, WithLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	initial := w.Current()

	os.WriteFile(caFile, []byte("garbage"), 0644)
	if err := w.reload(); err == nil {
		t.Fatal("reload() expected error for garbage bundle")
	}
	if w.Current() != initial {
		t.Error("failed reload replaced the current pool")
	}
}

func TestWatcher_Options(t *testing.T) {
	caFile := filepath.Join(t.TempDir(), "ca.pem")
	writeCAFile(t, caFile)

	l := logger.Discard()
	w, err := NewWatcher(caFile,
		WithLogger(l),
		WithDebounce(200*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if w.logger != l {
		t.Error("WithLogger() option not applied")
	}
	if w.debounce != 200*time.Millisecond {
		t.Errorf("WithDebounce() option not applied, got %v", w.debounce)
	}
}
