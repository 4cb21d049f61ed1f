// Copyright (C) 2025 Akusiap Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/sahaif4/akusiap-v1-sub001/services/audit/clarification"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/evaluation"
	"github.com/sahaif4/akusiap-v1-sub001/services/audit/finding"
)

// Key prefixes. Entities are stored as JSON under <prefix><id>.
const (
	prefixInstrument = "instrument/"
	prefixThread     = "thread/"
	prefixFinding    = "finding/"
	prefixCycle      = "cycle/"
)

// lockStripes is the size of the per-entity mutex table. Conflicting
// writes are only possible within one entity, so striped locking keyed
// by entity key suffices; no global lock.
const lockStripes = 64

// BadgerStore is the BadgerDB-backed Store implementation.
//
// Thread Safety: safe for concurrent use. Each Update* serializes per
// entity key via a striped mutex around the read-modify-write sequence.
type BadgerStore struct {
	db    *badger.DB
	gc    *gcRunner
	locks [lockStripes]sync.Mutex
}

// Open creates a BadgerStore with the given configuration.
func Open(cfg Config) (*BadgerStore, error) {
	db, err := openBadger(cfg)
	if err != nil {
		return nil, err
	}

	s := &BadgerStore{db: db}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.gc = newGCRunner(db, cfg.GCInterval, cfg.GCDiscardRatio, cfg.Logger)
		s.gc.start()
	}
	return s, nil
}

// OpenInMemory opens a throwaway store for testing.
func OpenInMemory() (*BadgerStore, error) {
	return Open(InMemoryConfig())
}

// Close stops garbage collection and closes the database.
func (s *BadgerStore) Close() error {
	if s.gc != nil {
		s.gc.stop()
	}
	return s.db.Close()
}

func (s *BadgerStore) lockFor(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &s.locks[h.Sum32()%lockStripes]
}

// create writes a new entity, failing when the key already exists.
func (s *BadgerStore) create(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	return withTxn(ctx, s.db, func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); err == nil {
			return fmt.Errorf("%s: %w", key, ErrAlreadyExists)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set([]byte(key), data)
	})
}

// get reads an entity into out.
func (s *BadgerStore) get(ctx context.Context, key string, out any) error {
	return withReadTxn(ctx, s.db, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
}

// update runs a serialized read-modify-write on one entity.
//
// The mutate function sees the freshly read entity; returning an error
// aborts the transaction with nothing written. The per-key lock makes
// the read-guard-write sequence atomic with respect to other mutations
// of the same entity.
func (s *BadgerStore) update(ctx context.Context, key string, out any, mutate func() error) error {
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	return withTxn(ctx, s.db, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		}); err != nil {
			return err
		}

		if err := mutate(); err != nil {
			return err
		}

		data, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		return txn.Set([]byte(key), data)
	})
}

// list decodes every entity under a prefix via each.
func (s *BadgerStore) list(ctx context.Context, prefix string, each func(val []byte) error) error {
	return withReadTxn(ctx, s.db, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(each); err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateInstrument persists a new instrument.
func (s *BadgerStore) CreateInstrument(ctx context.Context, inst *evaluation.Instrument) error {
	return s.create(ctx, prefixInstrument+inst.ID, inst)
}

// GetInstrument reads one instrument.
func (s *BadgerStore) GetInstrument(ctx context.Context, id string) (*evaluation.Instrument, error) {
	var inst evaluation.Instrument
	if err := s.get(ctx, prefixInstrument+id, &inst); err != nil {
		return nil, err
	}
	return &inst, nil
}

// ListInstruments reads every instrument.
func (s *BadgerStore) ListInstruments(ctx context.Context) ([]evaluation.Instrument, error) {
	var out []evaluation.Instrument
	err := s.list(ctx, prefixInstrument, func(val []byte) error {
		var inst evaluation.Instrument
		if err := json.Unmarshal(val, &inst); err != nil {
			return err
		}
		out = append(out, inst)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateInstrument applies mutate under the instrument's lock.
func (s *BadgerStore) UpdateInstrument(ctx context.Context, id string, mutate func(*evaluation.Instrument) error) (*evaluation.Instrument, error) {
	var inst evaluation.Instrument
	err := s.update(ctx, prefixInstrument+id, &inst, func() error { return mutate(&inst) })
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// CreateThread persists a new clarification thread.
func (s *BadgerStore) CreateThread(ctx context.Context, t *clarification.Thread) error {
	return s.create(ctx, prefixThread+t.ID, t)
}

// GetThread reads one clarification thread.
func (s *BadgerStore) GetThread(ctx context.Context, id string) (*clarification.Thread, error) {
	var t clarification.Thread
	if err := s.get(ctx, prefixThread+id, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateThread applies mutate under the thread's lock.
func (s *BadgerStore) UpdateThread(ctx context.Context, id string, mutate func(*clarification.Thread) error) (*clarification.Thread, error) {
	var t clarification.Thread
	err := s.update(ctx, prefixThread+id, &t, func() error { return mutate(&t) })
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateFinding persists a new finding.
func (s *BadgerStore) CreateFinding(ctx context.Context, f *finding.Finding) error {
	return s.create(ctx, prefixFinding+f.ID, f)
}

// GetFinding reads one finding.
func (s *BadgerStore) GetFinding(ctx context.Context, id string) (*finding.Finding, error) {
	var f finding.Finding
	if err := s.get(ctx, prefixFinding+id, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFindings reads every finding.
func (s *BadgerStore) ListFindings(ctx context.Context) ([]finding.Finding, error) {
	var out []finding.Finding
	err := s.list(ctx, prefixFinding, func(val []byte) error {
		var f finding.Finding
		if err := json.Unmarshal(val, &f); err != nil {
			return err
		}
		out = append(out, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateFinding applies mutate under the finding's lock.
func (s *BadgerStore) UpdateFinding(ctx context.Context, id string, mutate func(*finding.Finding) error) (*finding.Finding, error) {
	var f finding.Finding
	err := s.update(ctx, prefixFinding+id, &f, func() error { return mutate(&f) })
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// PutCycle archives a historical cycle. Cycles are write-once.
func (s *BadgerStore) PutCycle(ctx context.Context, c evaluation.HistoricalCycle) error {
	err := s.create(ctx, prefixCycle+c.Name, c)
	if errors.Is(err, ErrAlreadyExists) {
		return fmt.Errorf("%s: %w", c.Name, ErrCycleFrozen)
	}
	return err
}

// ListCycles reads every archived cycle, ordered by name.
func (s *BadgerStore) ListCycles(ctx context.Context) ([]evaluation.HistoricalCycle, error) {
	var out []evaluation.HistoricalCycle
	err := s.list(ctx, prefixCycle, func(val []byte) error {
		var c evaluation.HistoricalCycle
		if err := json.Unmarshal(val, &c); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

var _ Store = (*BadgerStore)(nil)
