package bitmap

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/OCAP2/mapshim/pkg/core"
	"golang.org/x/sync/semaphore"
)

// Poster runs functions on the owner goroutine.
// Defer is called from the owner goroutine and must not block.
type Poster interface {
	Post(fn func()) bool
	Defer(fn func()) bool
}

// LoaderConfig holds icon loading settings.
type LoaderConfig struct {
	AssetsDir     string         `json:"assetsDir" mapstructure:"assetsDir"`
	FilesDir      string         `json:"filesDir" mapstructure:"filesDir"`
	DecodeWorkers int64          `json:"decodeWorkers" mapstructure:"decodeWorkers"`
	MaxBytes      int64          `json:"maxBytes" mapstructure:"maxBytes"`
	Density       float64        `json:"density" mapstructure:"density"`
	Resources     map[int]string `json:"resources" mapstructure:"resources"`
}

// Loader is the Context used in production: assets and files from disk,
// decodes bounded by a semaphore, completions posted to the owner.
type Loader struct {
	cfg    LoaderConfig
	assets fs.FS
	poster Poster
	logger *slog.Logger

	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLoader creates a loader. A nil assets FS falls back to cfg.AssetsDir.
func NewLoader(cfg LoaderConfig, assets fs.FS, poster Poster, logger *slog.Logger) *Loader {
	if cfg.DecodeWorkers <= 0 {
		cfg.DecodeWorkers = 1
	}
	if cfg.Density <= 0 {
		cfg.Density = 1
	}
	if assets == nil && cfg.AssetsDir != "" {
		assets = os.DirFS(cfg.AssetsDir)
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		cfg:    cfg,
		assets: assets,
		poster: poster,
		logger: logger,
		sem:    semaphore.NewWeighted(cfg.DecodeWorkers),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Open resolves resource, asset, file and path sources.
func (l *Loader) Open(src core.BitmapDescriptor) (io.ReadCloser, error) {
	switch src.Kind {
	case core.BitmapResource:
		name, ok := l.cfg.Resources[src.ResourceID]
		if !ok {
			return nil, fmt.Errorf("%w: resource %d", ErrNotFound, src.ResourceID)
		}
		return l.openAsset(name)
	case core.BitmapAsset:
		return l.openAsset(src.Name)
	case core.BitmapFile:
		if l.cfg.FilesDir == "" {
			return nil, fmt.Errorf("%w: no files directory for %q", ErrNotFound, src.Name)
		}
		// keep names inside the files directory
		return openFile(filepath.Join(l.cfg.FilesDir, filepath.Clean(string(filepath.Separator)+src.Name)))
	case core.BitmapPath:
		return openFile(src.Name)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, src.Kind)
	}
}

func (l *Loader) openAsset(name string) (io.ReadCloser, error) {
	if l.assets == nil {
		return nil, fmt.Errorf("%w: no assets for %q", ErrNotFound, name)
	}
	f, err := l.assets.Open(path.Clean(name))
	if err != nil {
		return nil, fmt.Errorf("%w: asset %q: %v", ErrNotFound, name, err)
	}
	return f, nil
}

func openFile(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return f, nil
}

func (l *Loader) Density() float64     { return l.cfg.Density }
func (l *Loader) MaxBytes() int64      { return l.cfg.MaxBytes }
func (l *Loader) Logger() *slog.Logger { return l.logger }

// Go runs fn on a decode goroutine once a worker slot is free.
// Work submitted after Close gets ErrClosed instead of a slot.
func (l *Loader) Go(fn func(err error)) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if l.ctx.Err() != nil {
			fn(ErrClosed)
			return
		}
		if err := l.sem.Acquire(l.ctx, 1); err != nil {
			fn(ErrClosed)
			return
		}
		defer l.sem.Release(1)
		fn(nil)
	}()
}

// Post forwards fn to the owner goroutine. It may block.
func (l *Loader) Post(fn func()) bool {
	return l.poster.Post(fn)
}

// Defer forwards fn to the owner goroutine from the owner goroutine.
func (l *Loader) Defer(fn func()) bool {
	return l.poster.Defer(fn)
}

// Close stops accepting decode work and waits for running decodes.
func (l *Loader) Close() {
	l.cancel()
	l.wg.Wait()
}
