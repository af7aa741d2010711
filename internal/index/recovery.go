// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package index

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// keySeparator must never appear in an owner nickname or audio id; both are
// validated filesystem-safe identifiers that exclude it.
const keySeparator = 0x00

// Store persists the index's current owner/audio membership to an embedded
// Badger database so the in-memory map can be rebuilt on restart without a
// full filesystem walk of storage_root.
type Store struct {
	db *badger.DB
}

// OpenStore opens (creating if absent) a Badger database rooted at dir.
func OpenStore(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("index: open recovery store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func recordKey(owner, audio string) []byte {
	key := make([]byte, 0, len(owner)+len(audio)+1)
	key = append(key, owner...)
	key = append(key, keySeparator)
	key = append(key, audio...)
	return key
}

// Put persists that owner owns audio.
func (s *Store) Put(owner, audio string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(owner, audio), []byte{1})
	})
}

// Remove deletes the persisted owner/audio membership record.
func (s *Store) Remove(owner, audio string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(recordKey(owner, audio))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// LoadAll reconstructs the full owner→[]audio mapping from the persisted
// store, for use as Index.Bootstrap's input at process startup.
func (s *Store) LoadAll() (map[string][]string, error) {
	entries := make(map[string][]string)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			owner, audio, ok := splitKey(key)
			if !ok {
				continue
			}
			entries[owner] = append(entries[owner], audio)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index: load recovery store: %w", err)
	}
	return entries, nil
}

func splitKey(key []byte) (owner, audio string, ok bool) {
	for i, b := range key {
		if b == keySeparator {
			return string(key[:i]), string(key[i+1:]), true
		}
	}
	return "", "", false
}
