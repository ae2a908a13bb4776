package config

import (
	"fmt"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"

	"github.com/capsela/capsela-util/internal/errors"
	"github.com/capsela/capsela-util/internal/ini"
	"github.com/capsela/capsela-util/internal/logging"
)

// File names looked up in a configuration directory.
const (
	FileName      = "config.ini"
	LocalFileName = "local_config.ini"
)

// DefaultCacheSize is the number of parsed files a Loader keeps.
const DefaultCacheSize = 64

// Loader loads mode sections from configuration directories. Parsed files
// are cached and reparsed when their modification time or size changes.
// A Loader is safe for concurrent use.
type Loader struct {
	fs     afero.Fs
	logger *logging.Logger
	cache  *lru.Cache[string, cachedDoc]
}

type cachedDoc struct {
	doc     ini.Document
	modTime time.Time
	size    int64
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFs reads files from fs instead of the OS filesystem.
func WithFs(fs afero.Fs) LoaderOption {
	return func(l *Loader) { l.fs = fs }
}

// WithLogger sets the logger for diagnostics. The package default logger is
// used otherwise.
func WithLogger(logger *logging.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// WithCacheSize sets the number of parsed files kept. Zero disables caching.
func WithCacheSize(n int) LoaderOption {
	return func(l *Loader) {
		l.cache = nil
		if n > 0 {
			l.cache, _ = lru.New[string, cachedDoc](n)
		}
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{fs: afero.NewOsFs()}
	l.cache, _ = lru.New[string, cachedDoc](DefaultCacheSize)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var defaultLoader = NewLoader()

// Load loads the mode section of dir/config.ini with the OS filesystem.
// See Loader.Load.
func Load(dir, mode string) (ini.Section, error) {
	return defaultLoader.Load(dir, mode)
}

// Load returns a copy of section [mode] of dir/config.ini with "mode" set to
// mode and section [mode] of dir/local_config.ini merged on top.
//
// An empty mode, an unreadable or malformed config.ini and a missing section
// are errors. A missing or broken local_config.ini, or one without the
// section, is not: it is skipped with a debug message.
func (l *Loader) Load(dir, mode string) (ini.Section, error) {
	if mode == "" {
		return nil, errors.NewConfigError("no mode given", errors.ErrModeRequired)
	}

	path := filepath.Join(dir, FileName)
	doc, err := l.Document(path)
	if err != nil {
		return nil, err
	}
	sec, ok := doc[mode]
	if !ok {
		return nil, errors.NewConfigError(
			fmt.Sprintf("section [%s] does not exist in %s", mode, path),
			errors.ErrSectionNotFound,
		).WithFile(path).WithSection(mode)
	}

	cfg := sec.Clone()
	cfg["mode"] = mode

	localPath := filepath.Join(dir, LocalFileName)
	local, err := l.Document(localPath)
	if err != nil {
		l.log().Debug("local config skipped", "path", localPath, "err", err)
		return cfg, nil
	}
	if localSec, ok := local[mode]; ok {
		ini.Merge(cfg, localSec)
	} else {
		l.log().Debug("local config has no section", "path", localPath, "section", mode)
	}
	return cfg, nil
}

// Document returns the parsed file at path. The result is shared with the
// cache and must not be modified; clone sections before changing them.
func (l *Loader) Document(path string) (ini.Document, error) {
	info, err := l.fs.Stat(path)
	if err != nil {
		return nil, errors.NewConfigError("read failed", err).WithFile(path)
	}

	if l.cache != nil {
		if c, ok := l.cache.Get(path); ok && c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
			return c.doc, nil
		}
	}

	doc, err := ini.ParseFS(l.fs, path)
	if err != nil {
		return nil, err
	}
	if l.cache != nil {
		l.cache.Add(path, cachedDoc{doc: doc, modTime: info.ModTime(), size: info.Size()})
	}
	return doc, nil
}

// Forget drops path from the cache.
func (l *Loader) Forget(path string) {
	if l.cache != nil {
		l.cache.Remove(path)
	}
}

// Cached reports whether path is in the cache.
func (l *Loader) Cached(path string) bool {
	return l.cache != nil && l.cache.Contains(path)
}

func (l *Loader) log() *logging.Logger {
	if l.logger != nil {
		return l.logger
	}
	return logging.Default()
}
