package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/conceptgraph/graphvc/pkg/kv"
	"github.com/conceptgraph/graphvc/pkg/logging"
	"github.com/dgraph-io/badger/v4"
)

// keySeparator splits the partition prefix from the key itself. Partition
// names are fixed identifiers and never contain a NUL byte.
var keySeparator = []byte{0}

type Store struct {
	db       *badger.DB
	logger   logging.Logger
	path     string
	refCount int
}

func composeKey(partitionKey, key []byte) []byte {
	composed := make([]byte, 0, len(partitionKey)+len(keySeparator)+len(key))
	composed = append(composed, partitionKey...)
	composed = append(composed, keySeparator...)
	composed = append(composed, key...)
	return composed
}

func (s *Store) Get(_ context.Context, partitionKey, key []byte) (*kv.ValueWithPredicate, error) {
	if len(partitionKey) == 0 {
		return nil, kv.ErrMissingPartitionKey
	}
	if len(key) == 0 {
		return nil, kv.ErrMissingKey
	}
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(composeKey(partitionKey, key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get value: %w", err)
	}
	return &kv.ValueWithPredicate{
		Value:     value,
		Predicate: kv.Predicate(value),
	}, nil
}

func (s *Store) Set(_ context.Context, partitionKey, key, value []byte) error {
	if len(partitionKey) == 0 {
		return kv.ErrMissingPartitionKey
	}
	if len(key) == 0 {
		return kv.ErrMissingKey
	}
	if value == nil {
		return kv.ErrMissingValue
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(composeKey(partitionKey, key), value)
	})
	if err != nil {
		return fmt.Errorf("set value: %w", err)
	}
	return nil
}

func (s *Store) SetIf(_ context.Context, partitionKey, key, value []byte, valuePredicate kv.Predicate) error {
	if len(partitionKey) == 0 {
		return kv.ErrMissingPartitionKey
	}
	if len(key) == 0 {
		return kv.ErrMissingKey
	}
	if value == nil {
		return kv.ErrMissingValue
	}
	composed := composeKey(partitionKey, key)
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(composed)
		if valuePredicate == nil {
			if err == nil {
				return kv.ErrPredicateFailed
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		} else {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return kv.ErrPredicateFailed
			}
			if err != nil {
				return err
			}
			predicate, ok := valuePredicate.([]byte)
			if !ok {
				return kv.ErrOperationFailed
			}
			current, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !bytes.Equal(current, predicate) {
				return kv.ErrPredicateFailed
			}
		}
		return txn.Set(composed, value)
	})
	if err != nil && !errors.Is(err, kv.ErrPredicateFailed) && !errors.Is(err, kv.ErrOperationFailed) {
		return fmt.Errorf("conditional set: %w", err)
	}
	return err
}

func (s *Store) Delete(_ context.Context, partitionKey, key []byte) error {
	if len(partitionKey) == 0 {
		return kv.ErrMissingPartitionKey
	}
	if len(key) == 0 {
		return kv.ErrMissingKey
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(composeKey(partitionKey, key))
	})
	if err != nil {
		return fmt.Errorf("delete value: %w", err)
	}
	return nil
}

func (s *Store) Scan(_ context.Context, partitionKey, start []byte) (kv.EntriesIterator, error) {
	if len(partitionKey) == 0 {
		return nil, kv.ErrMissingPartitionKey
	}
	prefix := composeKey(partitionKey, nil)
	txn := s.db.NewTransaction(false)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	it.Seek(composeKey(partitionKey, start))
	return &EntriesIterator{
		txn:          txn,
		it:           it,
		prefix:       prefix,
		partitionKey: append([]byte(nil), partitionKey...),
	}, nil
}

func (s *Store) Close() {
	driverLock.Lock()
	defer driverLock.Unlock()
	s.refCount--
	if s.refCount > 0 {
		return
	}
	if err := s.db.Close(); err != nil {
		s.logger.WithError(err).Error("failed to close badger database")
	}
	delete(connectionMap, s.path)
}

type EntriesIterator struct {
	txn          *badger.Txn
	it           *badger.Iterator
	prefix       []byte
	partitionKey []byte
	entry        *kv.Entry
	err          error
	started      bool
}

func (e *EntriesIterator) Next() bool {
	if e.err != nil {
		return false
	}
	if e.started {
		e.it.Next()
	}
	e.started = true
	if !e.it.ValidForPrefix(e.prefix) {
		e.entry = nil
		return false
	}
	item := e.it.Item()
	value, err := item.ValueCopy(nil)
	if err != nil {
		e.err = fmt.Errorf("read scan value: %w", err)
		e.entry = nil
		return false
	}
	e.entry = &kv.Entry{
		PartitionKey: e.partitionKey,
		Key:          append([]byte(nil), item.Key()[len(e.prefix):]...),
		Value:        value,
	}
	return true
}

func (e *EntriesIterator) Entry() *kv.Entry {
	return e.entry
}

func (e *EntriesIterator) Err() error {
	return e.err
}

func (e *EntriesIterator) Close() {
	e.it.Close()
	e.txn.Discard()
	e.entry = nil
	if e.err == nil {
		e.err = kv.ErrClosedEntries
	}
}
