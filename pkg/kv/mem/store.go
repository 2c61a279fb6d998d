package mem

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/conceptgraph/graphvc/pkg/kv"
	"github.com/conceptgraph/graphvc/pkg/kv/kvparams"
)

const DriverName = "mem"

type Driver struct{}

type Store struct {
	mu         sync.RWMutex
	partitions map[string]map[string][]byte
}

//nolint:gochecknoinits
func init() {
	kv.Register(DriverName, &Driver{})
}

func (d *Driver) Open(_ context.Context, _ kvparams.Config) (kv.Store, error) {
	return &Store{
		partitions: make(map[string]map[string][]byte),
	}, nil
}

func (s *Store) Get(_ context.Context, partitionKey, key []byte) (*kv.ValueWithPredicate, error) {
	if len(partitionKey) == 0 {
		return nil, kv.ErrMissingPartitionKey
	}
	if len(key) == 0 {
		return nil, kv.ErrMissingKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.partitions[string(partitionKey)][string(key)]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return &kv.ValueWithPredicate{
		Value:     append([]byte(nil), value...),
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
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(partitionKey, key, value)
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
	s.mu.Lock()
	defer s.mu.Unlock()
	current, found := s.partitions[string(partitionKey)][string(key)]
	if valuePredicate == nil {
		if found {
			return kv.ErrPredicateFailed
		}
	} else {
		predicate, ok := valuePredicate.([]byte)
		if !ok {
			return kv.ErrOperationFailed
		}
		if !found || !bytes.Equal(current, predicate) {
			return kv.ErrPredicateFailed
		}
	}
	s.setLocked(partitionKey, key, value)
	return nil
}

func (s *Store) setLocked(partitionKey, key, value []byte) {
	partition, ok := s.partitions[string(partitionKey)]
	if !ok {
		partition = make(map[string][]byte)
		s.partitions[string(partitionKey)] = partition
	}
	partition[string(key)] = append([]byte(nil), value...)
}

func (s *Store) Delete(_ context.Context, partitionKey, key []byte) error {
	if len(partitionKey) == 0 {
		return kv.ErrMissingPartitionKey
	}
	if len(key) == 0 {
		return kv.ErrMissingKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.partitions[string(partitionKey)], string(key))
	return nil
}

func (s *Store) Scan(_ context.Context, partitionKey, start []byte) (kv.EntriesIterator, error) {
	if len(partitionKey) == 0 {
		return nil, kv.ErrMissingPartitionKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	partition := s.partitions[string(partitionKey)]
	keys := make([]string, 0, len(partition))
	for k := range partition {
		if k >= string(start) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	entries := make([]kv.Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, kv.Entry{
			PartitionKey: append([]byte(nil), partitionKey...),
			Key:          []byte(k),
			Value:        append([]byte(nil), partition[k]...),
		})
	}
	return &EntriesIterator{entries: entries, current: -1}, nil
}

func (s *Store) Close() {}

type EntriesIterator struct {
	entries []kv.Entry
	current int
	err     error
}

func (e *EntriesIterator) Next() bool {
	if e.err != nil || e.current+1 >= len(e.entries) {
		return false
	}
	e.current++
	return true
}

func (e *EntriesIterator) Entry() *kv.Entry {
	if e.current < 0 || e.current >= len(e.entries) {
		return nil
	}
	return &e.entries[e.current]
}

func (e *EntriesIterator) Err() error {
	return e.err
}

func (e *EntriesIterator) Close() {
	e.err = kv.ErrClosedEntries
}
