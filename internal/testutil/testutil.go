// Package testutil provides testing utilities for capsela-util tests.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// SetupConfigDir creates a temporary directory holding the given files.
// The files map contains relative paths to file contents. The directory is
// automatically cleaned up when the test completes.
func SetupConfigDir(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for path, content := range files {
		WriteFile(t, filepath.Join(dir, path), content)
	}
	return dir
}

// WriteFile creates or replaces the file at path, creating parent
// directories as needed.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
}

// MemFs returns an in-memory filesystem holding the given files, keyed by
// absolute path.
func MemFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	for path, content := range files {
		WriteMemFile(t, fs, path, content)
	}
	return fs
}

// WriteMemFile creates or replaces a file in fs. The modification time is
// moved forward so that caches keyed on it notice the change even when the
// clock has not ticked since the last write.
func WriteMemFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()

	var prev time.Time
	if info, err := fs.Stat(path); err == nil {
		prev = info.ModTime()
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	if info, err := fs.Stat(path); err == nil && !info.ModTime().After(prev) {
		next := prev.Add(time.Second)
		if err := fs.Chtimes(path, next, next); err != nil {
			t.Fatalf("failed to touch %s: %v", path, err)
		}
	}
}

// SyncBuffer is a bytes.Buffer safe for concurrent writers, for capturing
// output written from other goroutines.
type SyncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *SyncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Reset discards the buffered output.
func (b *SyncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// Eventually polls cond every 10ms until it returns true, failing the test
// after timeout.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %v: %s", timeout, msg)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
