package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"litmap/internal/location"
)

var bucketName = []byte("geocode")

// cacheEntry stores a lookup outcome. Misses are cached too so repeated
// runs over the same book do not re-query names the provider cannot resolve.
type cacheEntry struct {
	Found  bool   `json:"found"`
	Result Result `json:"result"`
}

// Cache wraps a Geocoder with a bbolt-backed lookaside keyed by canonical
// place name.
type Cache struct {
	inner Geocoder
	db    *bolt.DB
}

// OpenCache opens (or creates) the cache database at path.
func OpenCache(path string, inner Geocoder) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Cache{inner: inner, db: db}, nil
}

func (c *Cache) Geocode(ctx context.Context, name string) (*Result, error) {
	key := []byte(location.CanonicalKey(name))

	var cached *cacheEntry
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get(key)
		if v == nil {
			return nil
		}
		var e cacheEntry
		if err := json.Unmarshal(v, &e); err != nil {
			// Unreadable entry: treat as a miss and overwrite below.
			return nil
		}
		cached = &e
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cache read: %w", err)
	}
	if cached != nil {
		if !cached.Found {
			return nil, nil
		}
		r := cached.Result
		return &r, nil
	}

	result, err := c.inner.Geocode(ctx, name)
	if err != nil {
		// Provider errors are not cached; the next run may succeed.
		return nil, err
	}

	entry := cacheEntry{Found: result != nil}
	if result != nil {
		entry.Result = *result
	}
	value, err := json.Marshal(entry)
	if err != nil {
		return result, nil
	}
	writeErr := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(key, value)
	})
	if writeErr != nil {
		return nil, fmt.Errorf("cache write: %w", writeErr)
	}
	return result, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
