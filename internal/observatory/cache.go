// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package observatory

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ManuGH/exosurvey/internal/log"
	"github.com/dgraph-io/badger/v4"
)

// EphemerisCache persists normalized halo ephemerides keyed by the sha256 of
// the source data file, so repeated runs skip the parse and normalization.
type EphemerisCache struct {
	db *badger.DB
}

// OpenEphemerisCache opens (or creates) the cache database at dir.
func OpenEphemerisCache(dir string) (*EphemerisCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open ephemeris cache: %w", err)
	}
	return &EphemerisCache{db: db}, nil
}

// Close releases the underlying database.
func (c *EphemerisCache) Close() error { return c.db.Close() }

// Load returns the normalized ephemeris for the data file at path, from
// cache when the file contents are unchanged, parsing and caching otherwise.
func (c *EphemerisCache) Load(path string) (*Ephemeris, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrEphemerisNotFound, path)
		}
		return nil, fmt.Errorf("read halo data: %w", err)
	}
	sum := sha256.Sum256(buf)
	key := []byte("halo:" + hex.EncodeToString(sum[:]))

	logger := log.WithComponent("observatory")

	var cached *Ephemeris
	err = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var e Ephemeris
			if err := json.Unmarshal(val, &e); err != nil {
				return err
			}
			cached = &e
			return nil
		})
	})
	if err == nil && cached != nil {
		logger.Debug().
			Str("event", "ephemeris.cache_hit").
			Str(log.FieldPath, path).
			Msg("halo ephemeris served from cache")
		return cached, nil
	}

	var raw rawEphemeris
	if err := json.Unmarshal(buf, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEphemerisInvalid, err)
	}
	eph, err := normalize(&raw)
	if err != nil {
		return nil, err
	}

	enc, err := json.Marshal(eph)
	if err != nil {
		return nil, fmt.Errorf("encode ephemeris: %w", err)
	}
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, enc)
	}); err != nil {
		// A cache write failure must not block the mission; log and continue.
		logger.Warn().
			Err(err).
			Str("event", "ephemeris.cache_write_failed").
			Str(log.FieldPath, path).
			Msg("could not cache halo ephemeris")
	} else {
		logger.Debug().
			Str("event", "ephemeris.cached").
			Str(log.FieldPath, path).
			Msg("halo ephemeris cached")
	}
	return eph, nil
}
