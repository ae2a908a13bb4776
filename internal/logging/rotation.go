package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/capsela/capsela-util/internal/errors"
)

// RotationConfig controls when and how a RotatingWriter rotates.
type RotationConfig struct {
	// MaxBytes is the size a file may reach before it is rotated.
	// Zero disables rotation.
	MaxBytes int64
	// MaxBackups is the number of rotated files kept, newest first as
	// path.1, path.2 and so on.
	MaxBackups int
	// Compress gzips each file as it is rotated, as path.N.gz.
	Compress bool
}

// DefaultRotationConfig returns 10 MiB files with three uncompressed backups.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		MaxBytes:   10 << 20,
		MaxBackups: 3,
	}
}

// RotatingWriter is an io.Writer over a file that is rotated once it would
// grow past RotationConfig.MaxBytes. A single write is never split across
// files. It is safe for concurrent use.
type RotatingWriter struct {
	mu   sync.Mutex
	path string
	cfg  RotationConfig
	f    *os.File
	size int64
}

// NewRotatingWriter opens path for appending, creating it and its parent
// directories as needed.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	w := &RotatingWriter{path: path, cfg: cfg}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

// open must be called with mu held.
func (w *RotatingWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return errors.Wrap(err, "create log directory")
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open log file")
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return errors.Wrap(err, "stat log file")
	}
	w.f = f
	w.size = info.Size()
	return nil
}

// Write appends p, rotating first when p would not fit. A failed rotation is
// reported on stderr and the write goes to the current file.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		return 0, errors.New("log file is closed")
	}
	if w.cfg.MaxBytes > 0 && w.size > 0 && w.size+int64(len(p)) > w.cfg.MaxBytes {
		if err := w.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "capsela: log rotation failed: %v\n", err)
		}
	}
	n, err := w.f.Write(p)
	w.size += int64(n)
	return n, err
}

// rotate must be called with mu held. It always leaves a file open when it
// can.
func (w *RotatingWriter) rotate() error {
	if err := w.f.Close(); err != nil {
		return errors.Wrap(err, "close log file")
	}
	w.f = nil

	var rotateErr error
	if w.cfg.MaxBackups > 0 {
		w.shiftBackups()
		rotateErr = os.Rename(w.path, w.backup(1))
		if rotateErr == nil && w.cfg.Compress {
			rotateErr = gzipFile(w.backup(1))
		}
	} else {
		rotateErr = os.Remove(w.path)
	}

	if err := w.open(); err != nil {
		return errors.Join(rotateErr, err)
	}
	return rotateErr
}

// shiftBackups renames path.N to path.N+1, dropping the oldest.
func (w *RotatingWriter) shiftBackups() {
	oldest := w.backup(w.cfg.MaxBackups)
	_ = os.Remove(oldest)
	_ = os.Remove(oldest + ".gz")
	for i := w.cfg.MaxBackups - 1; i >= 1; i-- {
		for _, ext := range []string{"", ".gz"} {
			from := w.backup(i) + ext
			if _, err := os.Stat(from); err == nil {
				_ = os.Rename(from, w.backup(i+1)+ext)
			}
		}
	}
}

func (w *RotatingWriter) backup(n int) string {
	return fmt.Sprintf("%s.%d", w.path, n)
}

// gzipFile replaces path with path.gz.
func gzipFile(path string) (err error) {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dstPath := path + ".gz"
	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dstPath)
			return
		}
		err = os.Remove(path)
	}()

	zw := gzip.NewWriter(dst)
	zw.Name = filepath.Base(path)
	if _, err := io.Copy(zw, src); err != nil {
		return errors.Wrapf(err, "compress %s", path)
	}
	return zw.Close()
}

// Sync flushes the current file to disk.
func (w *RotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	return w.f.Sync()
}

// Close closes the current file. Later writes fail.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

// Size returns the size of the current file.
func (w *RotatingWriter) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Path returns the path of the current file.
func (w *RotatingWriter) Path() string {
	return w.path
}
