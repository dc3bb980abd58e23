// Pelorus - AIS Vessel Tracking and Compliance Screening
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelorus

// Package kvstore provides the durable key-value layer backing the three
// pipeline caches (track snapshot, IMO mapping, compliance records).
//
// All caches share one BadgerDB instance and are separated by key prefix.
// Badger gives the persistence contract the caches need: crash-consistent
// writes (a save either lands or leaves the prior value intact), recovery on
// open, and cheap full-prefix drops for the explicit clear operations.
// Values are JSON-encoded.
package kvstore

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// ErrNotFound is returned by Get when the key has no stored value.
var ErrNotFound = errors.New("kvstore: key not found")

// Open opens (creating if necessary) the shared BadgerDB at path.
// Badger's own logging is disabled; the caller logs lifecycle events.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return db, nil
}

// OpenInMemory opens an ephemeral BadgerDB. Used by tests and by deployments
// that opt out of persistence.
func OpenInMemory() (*badger.DB, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger: %w", err)
	}
	return db, nil
}

// Store is a prefix-scoped JSON view over the shared database. Two stores
// with different prefixes never observe each other's keys.
type Store struct {
	db     *badger.DB
	prefix []byte
}

// New creates a Store over db scoped to the given key prefix.
func New(db *badger.DB, prefix string) *Store {
	return &Store{db: db, prefix: []byte(prefix)}
}

// Put JSON-encodes v and stores it under key.
func (s *Store) Put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal value for %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key(key), data)
	})
}

// Get decodes the value stored under key into out.
// Returns ErrNotFound when the key is absent.
func (s *Store) Get(key string, out any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
}

// Has reports whether key has a stored value.
func (s *Store) Has(key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(s.key(key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Each invokes fn for every key/value pair under the store's prefix.
// The key passed to fn has the prefix stripped. Iteration stops on the first
// error from fn.
func (s *Store) Each(fn func(key string, raw []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(s.prefix); it.Next() {
			item := it.Item()
			key := string(item.Key()[len(s.prefix):])
			if err := item.Value(func(val []byte) error {
				return fn(key, val)
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of keys under the store's prefix.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(s.prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Clear drops every key under the store's prefix.
func (s *Store) Clear() error {
	return s.db.DropPrefix(s.prefix)
}

func (s *Store) key(key string) []byte {
	k := make([]byte, 0, len(s.prefix)+len(key))
	k = append(k, s.prefix...)
	return append(k, key...)
}
