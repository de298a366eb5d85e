// Package assets loads the bitmap avatar overlays embedded in rendered images.
//
// Assets are read from disk at most once per name for the life of the
// process and kept as base64 data URIs.
package assets

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"solana-avatar-lab/internal/observability"
)

// Count is the number of per-index avatar assets.
const Count = 6

// DefaultName is the shared asset used when a per-index asset is absent.
const DefaultName = "avatar.png"

// ErrMissingAsset is returned when the default asset cannot be read.
// A missing default is looked up again on the next call, so deploying it
// heals the service without a restart. Missing per-index assets are
// remembered and keep falling back to the default.
var ErrMissingAsset = errors.New("missing asset")

// Name returns the file name of the per-index asset.
func Name(index int) string {
	return fmt.Sprintf("avatar-%d.png", index)
}

// Cache maps asset names to data URIs.
type Cache struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]string
	missing map[string]struct{}
	group   singleflight.Group
}

// NewCache creates a cache reading assets from dir.
func NewCache(dir string, logger *slog.Logger) *Cache {
	return &Cache{
		dir:     dir,
		logger:  logger,
		entries: make(map[string]string),
		missing: make(map[string]struct{}),
	}
}

// Dir returns the directory assets are read from.
func (c *Cache) Dir() string {
	return c.dir
}

// DataURI returns the data URI for the asset at index mod Count.
// A missing per-index asset falls back to the default asset.
func (c *Cache) DataURI(index int) (string, error) {
	if index < 0 {
		index = -index
	}
	name := Name(index % Count)
	uri, err := c.load(name)
	if err == nil {
		return uri, nil
	}
	if !errors.Is(err, ErrMissingAsset) {
		return "", err
	}
	c.logger.Debug("asset missing, using default", "asset", name)
	return c.Default()
}

// Default returns the data URI of the default asset.
func (c *Cache) Default() (string, error) {
	return c.load(DefaultName)
}

// Warm loads every asset so that the first render does not touch disk.
// Only a missing default asset is an error.
func (c *Cache) Warm() error {
	if _, err := c.Default(); err != nil {
		return err
	}
	for i := 0; i < Count; i++ {
		if _, err := c.DataURI(i); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of cached assets.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) load(name string) (string, error) {
	if uri, ok, err := c.lookup(name); ok {
		return uri, err
	}

	v, err, _ := c.group.Do(name, func() (interface{}, error) {
		if uri, ok, err := c.lookup(name); ok {
			return uri, err
		}

		data, err := os.ReadFile(filepath.Join(c.dir, name))
		observability.RecordAssetLoad(name, err)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				if name != DefaultName {
					c.mu.Lock()
					c.missing[name] = struct{}{}
					c.mu.Unlock()
				}
				return "", fmt.Errorf("%w: %s", ErrMissingAsset, name)
			}
			return "", fmt.Errorf("read asset %s: %w", name, err)
		}

		uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
		c.mu.Lock()
		c.entries[name] = uri
		c.mu.Unlock()
		return uri, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// lookup reports a previously resolved name. Missing per-index assets are
// remembered so the fallback path does not hit the filesystem on every render.
func (c *Cache) lookup(name string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if uri, ok := c.entries[name]; ok {
		return uri, true, nil
	}
	if _, ok := c.missing[name]; ok {
		return "", true, fmt.Errorf("%w: %s", ErrMissingAsset, name)
	}
	return "", false, nil
}
