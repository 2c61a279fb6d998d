package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/conceptgraph/graphvc/pkg/kv/kvparams"
)

const PathDelimiter = "/"

var (
	ErrClosedEntries       = errors.New("closed entries")
	ErrConnectFailed       = errors.New("connect failed")
	ErrDriverConfiguration = errors.New("driver configuration")
	ErrMissingPartitionKey = errors.New("missing partition key")
	ErrMissingKey          = errors.New("missing key")
	ErrMissingValue        = errors.New("missing value")
	ErrNotFound            = errors.New("not found")
	ErrOperationFailed     = errors.New("operation failed")
	ErrPredicateFailed     = errors.New("predicate failed")
	ErrUnknownDriver       = errors.New("unknown driver")
)

func FormatPath(p ...string) string {
	return strings.Join(p, PathDelimiter)
}

// Driver is the interface to access a kv database as a Store.
// Each kv provider implements a Driver.
type Driver interface {
	// Open opens access to the database store. Implementations give access to the same
	// storage based on the params. Implementation can return the same Store instance
	// as long as it provides access to the same storage.
	Open(ctx context.Context, params kvparams.Config) (Store, error)
}

// Predicate value used to update a key based on a previously fetched value.
//
//	Store's Get is used to pull the key's value with the associated predicate.
//	Store's SetIf is used to set the key's value based on the predicate.
type Predicate interface{}

// ValueWithPredicate - Value holds the data and Predicate a value used for conditional set.
type ValueWithPredicate struct {
	Value     []byte
	Predicate Predicate
}

type Store interface {
	// Get returns a result containing the Value and Predicate for the given key,
	// or ErrNotFound if the key doesn't exist. Predicate can be used for SetIf.
	Get(ctx context.Context, partitionKey, key []byte) (*ValueWithPredicate, error)

	// Set stores the given value, overwriting an existing value if one exists
	Set(ctx context.Context, partitionKey, key, value []byte) error

	// SetIf returns an ErrPredicateFailed error if the valuePredicate passed doesn't
	// match the currently stored value. SetIf is a simple compare-and-swap operator:
	// valuePredicate is either the existing value's predicate, or nil for no previous key.
	SetIf(ctx context.Context, partitionKey, key, value []byte, valuePredicate Predicate) error

	// Delete will delete the key, no error if the key doesn't exist
	Delete(ctx context.Context, partitionKey, key []byte) error

	// Scan returns entries that can be read in key order, starting at or after the `start` position
	Scan(ctx context.Context, partitionKey, start []byte) (EntriesIterator, error)

	// Close access to the database store. After calling Close the instance is unusable.
	Close()
}

// EntriesIterator used to enumerate over Scan results
type EntriesIterator interface {
	// Next should be called first before accessing Entry.
	// It processes the next entry and returns true on success, false when done or on error.
	Next() bool

	// Entry is the current entry read after calling Next, nil in case of an error or no more entries.
	Entry() *Entry

	// Err is set to the last error encountered while reading or parsing the next entry.
	Err() error

	// Close releases resources used to scan entries. After calling Close the
	// instance should not be used.
	Close()
}

// Entry holds a pair of key/value
type Entry struct {
	PartitionKey []byte
	Key          []byte
	Value        []byte
}

func (e *Entry) String() string {
	if e == nil {
		return "Entry{nil}"
	}
	return fmt.Sprintf("Entry{%s, %s}", e.Key, e.Value)
}

// map drivers implementation
var (
	drivers   = make(map[string]Driver)
	driversMu sync.RWMutex
)

// Register 'driver' implementation under 'name'. Panics in case of empty name,
// nil driver or a name that is already registered.
func Register(name string, driver Driver) {
	if name == "" {
		panic("kv store register name is missing")
	}
	if driver == nil {
		panic("kv store Register driver is nil")
	}
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, found := drivers[name]; found {
		panic("kv store Register driver already registered " + name)
	}
	drivers[name] = driver
}

// UnregisterAllDrivers removes all loaded drivers, used for test code.
func UnregisterAllDrivers() {
	driversMu.Lock()
	defer driversMu.Unlock()
	for k := range drivers {
		delete(drivers, k)
	}
}

// Open looks up a registered driver by params.Type and returns an opened Store.
// Fails with ErrUnknownDriver in case the driver name is not registered.
func Open(ctx context.Context, params kvparams.Config) (Store, error) {
	driversMu.RLock()
	d, ok := drivers[params.Type]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, params.Type)
	}
	return d.Open(ctx, params)
}

// Drivers returns a list of registered driver names
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	return names
}
