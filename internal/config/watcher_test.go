package config

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/capsela/capsela-util/internal/errors"
	"github.com/capsela/capsela-util/internal/ini"
	"github.com/capsela/capsela-util/internal/logging"
	"github.com/capsela/capsela-util/internal/testutil"
)

type reload struct {
	sec ini.Section
	err error
}

func startWatcher(t *testing.T, dir string) (*Watcher, <-chan reload) {
	t.Helper()
	loader := NewLoader(WithLogger(logging.NopLogger()))
	ch := make(chan reload, 16)
	w, err := NewWatcher(loader, dir, "production", func(sec ini.Section, err error) {
		ch <- reload{sec, err}
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		w.Stop()
	})
	w.Start(ctx)
	return w, ch
}

func waitReload(t *testing.T, ch <-chan reload) reload {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	return reload{}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := testutil.SetupConfigDir(t, map[string]string{FileName: baseConfig})
	_, ch := startWatcher(t, dir)

	testutil.WriteFile(t, filepath.Join(dir, FileName), "[production]\ndb.host = moved.internal\n")
	r := waitReload(t, ch)
	if r.err != nil {
		t.Fatalf("reload failed: %v", r.err)
	}
	if got := r.sec.GetString("db.host"); got != "moved.internal" {
		t.Errorf("db.host = %q, want moved.internal", got)
	}
}

func TestWatcherPicksUpNewLocalConfig(t *testing.T) {
	dir := testutil.SetupConfigDir(t, map[string]string{FileName: baseConfig})
	_, ch := startWatcher(t, dir)

	testutil.WriteFile(t, filepath.Join(dir, LocalFileName), "[production]\ndb.port = 1\n")
	r := waitReload(t, ch)
	if r.err != nil {
		t.Fatalf("reload failed: %v", r.err)
	}
	if got := r.sec.GetInt("db.port"); got != 1 {
		t.Errorf("db.port = %d, want 1", got)
	}
}

func TestWatcherReportsErrors(t *testing.T) {
	dir := testutil.SetupConfigDir(t, map[string]string{FileName: baseConfig})
	_, ch := startWatcher(t, dir)

	testutil.WriteFile(t, filepath.Join(dir, FileName), "[development]\n")
	r := waitReload(t, ch)
	if !errors.Is(r.err, errors.ErrSectionNotFound) {
		t.Errorf("expected ErrSectionNotFound, got %v", r.err)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := testutil.SetupConfigDir(t, map[string]string{FileName: baseConfig})
	_, ch := startWatcher(t, dir)

	testutil.WriteFile(t, filepath.Join(dir, "notes.txt"), "hello")
	select {
	case r := <-ch:
		t.Errorf("unexpected reload: %+v", r)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherStops(t *testing.T) {
	dir := testutil.SetupConfigDir(t, map[string]string{FileName: baseConfig})

	t.Run("on Stop", func(t *testing.T) {
		w, _ := startWatcher(t, dir)
		w.Stop()
		w.Stop()
		select {
		case <-w.Done():
		case <-time.After(5 * time.Second):
			t.Fatal("watch loop did not exit")
		}
	})

	t.Run("on context cancellation", func(t *testing.T) {
		loader := NewLoader(WithLogger(logging.NopLogger()))
		w, err := NewWatcher(loader, dir, "production", func(ini.Section, error) {})
		if err != nil {
			t.Fatal(err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		w.Start(ctx)
		cancel()
		select {
		case <-w.Done():
		case <-time.After(5 * time.Second):
			t.Fatal("watch loop did not exit")
		}
	})
}

func TestNewWatcherMissingDir(t *testing.T) {
	loader := NewLoader()
	_, err := NewWatcher(loader, filepath.Join(t.TempDir(), "missing"), "production", func(ini.Section, error) {})
	if err == nil {
		t.Fatal("expected an error watching a missing directory")
	}
}
