package datasource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/seenimoa/equiscore/pkg/logger"
	"github.com/seenimoa/equiscore/pkg/models"
	"github.com/seenimoa/equiscore/pkg/utils"
)

// Dir serves snapshots and prices from a directory. For symbol ETERNAL it
// reads ETERNAL.json, ETERNAL.yaml or ETERNAL.yml for the snapshot and
// ETERNAL.csv or ETERNAL_prices.csv for prices; lower-case names also match.
type Dir struct {
	Root  string
	cache *Cache
	log   *logger.Logger
}

var _ Source = (*Dir)(nil)

// NewDir creates a directory source. Loaded files are cached for ttl; a
// non-positive ttl disables caching.
func NewDir(root string, ttl time.Duration, log *logger.Logger) (*Dir, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data dir %s is not a directory", root)
	}
	if log == nil {
		log = logger.Nop()
	}
	d := &Dir{Root: root, log: log.WithField("source", "dir")}
	if ttl > 0 {
		d.cache = NewCache(ttl)
	}
	return d, nil
}

// Name implements Source.
func (d *Dir) Name() string { return "dir:" + d.Root }

// Snapshot implements Source.
func (d *Dir) Snapshot(ctx context.Context, symbol string) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := d.find(symbol, ".json", ".yaml", ".yml")
	if err != nil {
		return nil, err
	}
	if v, ok := d.cached(path); ok {
		return v.(*models.Snapshot), nil
	}
	snap, err := LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	d.store(path, snap)
	d.log.WithFields(map[string]any{"symbol": symbol, "file": path}).Debug("snapshot loaded")
	return snap, nil
}

// Prices implements Source.
func (d *Dir) Prices(ctx context.Context, symbol string) ([]models.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := d.find(symbol, ".csv", "_prices.csv")
	if err != nil {
		return nil, err
	}
	if v, ok := d.cached(path); ok {
		return v.([]models.Bar), nil
	}
	bars, err := LoadPrices(path)
	if err != nil {
		return nil, err
	}
	d.store(path, bars)
	d.log.WithFields(map[string]any{"symbol": symbol, "file": path, "rows": len(bars)}).Debug("prices loaded")
	return bars, nil
}

func (d *Dir) find(symbol string, suffixes ...string) (string, error) {
	sym := utils.NormalizeSymbol(symbol)
	if sym == "" {
		return "", fmt.Errorf("empty symbol: %w", ErrNotFound)
	}
	for _, name := range []string{sym, strings.ToLower(sym)} {
		for _, suffix := range suffixes {
			path := filepath.Join(d.Root, name+suffix)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			} else if !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("stat %s: %w", path, err)
			}
		}
	}
	return "", fmt.Errorf("%s in %s: %w", sym, d.Root, ErrNotFound)
}

func (d *Dir) cached(path string) (any, bool) {
	if d.cache == nil {
		return nil, false
	}
	return d.cache.Get(path)
}

func (d *Dir) store(path string, v any) {
	if d.cache != nil {
		d.cache.Set(path, v)
	}
}
