package texture

import (
	"context"
	"log/slog"

	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/errgroup"
)

const defaultCacheSize = 16

// Loader resolves textures in the background. Load never blocks; each
// texture becomes visible on its own as soon as its decode finishes, in
// no particular order.
type Loader struct {
	cache  *lru.Cache
	group  errgroup.Group
	logger *slog.Logger
}

func NewLoader(cacheSize int, logger *slog.Logger) (*Loader, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Loader{cache: cache, logger: logger}, nil
}

// Load returns an empty texture for path and starts decoding it.
// A failed decode is logged and leaves the texture empty for good.
func (l *Loader) Load(path string) *Texture {
	t := &Texture{path: path}

	if v, ok := l.cache.Get(path); ok {
		t.img.Store(v.(*decoded))
		return t
	}

	l.group.Go(func() error {
		d, err := decodeFile(path)
		if err != nil {
			l.logger.Warn("texture load failed", "path", path, "error", err)
			return err
		}
		l.cache.Add(path, d)
		t.img.Store(d)
		l.logger.Info("texture loaded",
			"path", path,
			"format", d.format,
			"width", d.width,
			"height", d.height,
			"size", humanize.Bytes(uint64(d.size)),
		)
		return nil
	})
	return t
}

// Wait blocks until every load started so far has resolved or ctx is done.
// It returns the first load error, if any; the scene does not depend on it.
// When ctx ends first, one goroutine stays parked on the group until the
// loads already started have finished.
func (l *Loader) Wait(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- l.group.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
