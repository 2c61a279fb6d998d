package kvtest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/conceptgraph/graphvc/pkg/kv"
	"github.com/conceptgraph/graphvc/pkg/kv/kvparams"
	"github.com/go-test/deep"
	nanoid "github.com/matoous/go-nanoid/v2"
)

type MakeStore func(t *testing.T, ctx context.Context) kv.Store

var runTestID = nanoid.MustGenerate("abcdef1234567890", 8)

func uniqueKey(k string) []byte {
	return []byte(runTestID + "-" + k)
}

func samplePartition() []byte {
	return []byte("test-partition")
}

// TestDriver runs the driver conformance suite against the driver registered under 'name'.
func TestDriver(t *testing.T, name string, params kvparams.Config) {
	ms := makeStoreByName(name, params)
	t.Run("Driver_Open", func(t *testing.T) { testDriverOpen(t, ms) })
	t.Run("Store_SetGet", func(t *testing.T) { testStoreSetGet(t, ms) })
	t.Run("Store_SetIf", func(t *testing.T) { testStoreSetIf(t, ms) })
	t.Run("Store_Delete", func(t *testing.T) { testStoreDelete(t, ms) })
	t.Run("Store_Scan", func(t *testing.T) { testStoreScan(t, ms) })
	t.Run("Store_MissingArgument", func(t *testing.T) { testStoreMissingArgument(t, ms) })
}

func makeStoreByName(name string, params kvparams.Config) MakeStore {
	return func(t *testing.T, ctx context.Context) kv.Store {
		t.Helper()
		params.Type = name
		store, err := kv.Open(ctx, params)
		if err != nil {
			t.Fatalf("failed to open kv '%s' store: %s", name, err)
		}
		t.Cleanup(store.Close)
		return store
	}
}

func setupSampleData(t *testing.T, ctx context.Context, store kv.Store, prefix string, items int) []kv.Entry {
	t.Helper()
	entries := make([]kv.Entry, 0, items)
	for i := 0; i < items; i++ {
		entry := sampleEntry(prefix, i)
		err := store.Set(ctx, samplePartition(), entry.Key, entry.Value)
		if err != nil {
			t.Fatalf("failed to setup data with '%s': %s", entry, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func sampleEntry(prefix string, n int) kv.Entry {
	k := fmt.Sprintf("%s-key-%04d", prefix, n)
	v := fmt.Sprintf("%s-value-%04d", prefix, n)
	return kv.Entry{Key: uniqueKey(k), Value: []byte(v)}
}

func testDriverOpen(t *testing.T, ms MakeStore) {
	ctx := context.Background()
	store := ms(t, ctx)
	if store == nil {
		t.Fatal("store is nil")
	}
}

func testStoreSetGet(t *testing.T, ms MakeStore) {
	ctx := context.Background()
	store := ms(t, ctx)

	key := uniqueKey("set-get")
	value := []byte("the-value")
	if err := store.Set(ctx, samplePartition(), key, value); err != nil {
		t.Fatalf("Set failed: %s", err)
	}
	res, err := store.Get(ctx, samplePartition(), key)
	if err != nil {
		t.Fatalf("Get failed: %s", err)
	}
	if diff := deep.Equal(res.Value, value); diff != nil {
		t.Fatalf("Get value mismatch: %s", diff)
	}

	_, err = store.Get(ctx, samplePartition(), uniqueKey("set-get-missing"))
	if !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("Get missing key, expected ErrNotFound, got %v", err)
	}
}

func testStoreSetIf(t *testing.T, ms MakeStore) {
	ctx := context.Background()
	store := ms(t, ctx)

	key := uniqueKey("set-if")
	first := []byte("first")
	second := []byte("second")

	// nil predicate means create-only
	if err := store.SetIf(ctx, samplePartition(), key, first, nil); err != nil {
		t.Fatalf("SetIf (create) failed: %s", err)
	}
	err := store.SetIf(ctx, samplePartition(), key, second, nil)
	if !errors.Is(err, kv.ErrPredicateFailed) {
		t.Fatalf("SetIf (create over existing), expected ErrPredicateFailed, got %v", err)
	}

	res, err := store.Get(ctx, samplePartition(), key)
	if err != nil {
		t.Fatalf("Get failed: %s", err)
	}
	if err := store.SetIf(ctx, samplePartition(), key, second, res.Predicate); err != nil {
		t.Fatalf("SetIf (swap) failed: %s", err)
	}

	// stale predicate must fail
	err = store.SetIf(ctx, samplePartition(), key, first, res.Predicate)
	if !errors.Is(err, kv.ErrPredicateFailed) {
		t.Fatalf("SetIf (stale predicate), expected ErrPredicateFailed, got %v", err)
	}

	got, err := store.Get(ctx, samplePartition(), key)
	if err != nil {
		t.Fatalf("Get failed: %s", err)
	}
	if !bytes.Equal(got.Value, second) {
		t.Fatalf("expected value %q, got %q", second, got.Value)
	}
}

func testStoreDelete(t *testing.T, ms MakeStore) {
	ctx := context.Background()
	store := ms(t, ctx)

	key := uniqueKey("delete")
	if err := store.Set(ctx, samplePartition(), key, []byte("to-delete")); err != nil {
		t.Fatalf("Set failed: %s", err)
	}
	if err := store.Delete(ctx, samplePartition(), key); err != nil {
		t.Fatalf("Delete failed: %s", err)
	}
	_, err := store.Get(ctx, samplePartition(), key)
	if !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("Get after Delete, expected ErrNotFound, got %v", err)
	}
	// delete of a missing key is not an error
	if err := store.Delete(ctx, samplePartition(), uniqueKey("delete-missing")); err != nil {
		t.Fatalf("Delete missing key failed: %s", err)
	}
}

func testStoreScan(t *testing.T, ms MakeStore) {
	ctx := context.Background()
	store := ms(t, ctx)

	const items = 10
	entries := setupSampleData(t, ctx, store, "scan", items)

	iter, err := store.Scan(ctx, samplePartition(), entries[0].Key)
	if err != nil {
		t.Fatalf("Scan failed: %s", err)
	}
	defer iter.Close()

	var got []kv.Entry
	for iter.Next() {
		entry := iter.Entry()
		if bytes.HasPrefix(entry.Key, []byte(runTestID+"-scan")) {
			got = append(got, kv.Entry{Key: entry.Key, Value: entry.Value})
		}
	}
	if err := iter.Err(); err != nil {
		t.Fatalf("Scan iteration error: %s", err)
	}
	if len(got) != items {
		t.Fatalf("Scan returned %d entries, expected %d", len(got), items)
	}
	for i := range got {
		if diff := deep.Equal(got[i], entries[i]); diff != nil {
			t.Fatalf("Scan entry %d mismatch: %s", i, diff)
		}
	}
}

func testStoreMissingArgument(t *testing.T, ms MakeStore) {
	ctx := context.Background()
	store := ms(t, ctx)

	if _, err := store.Get(ctx, nil, uniqueKey("k")); !errors.Is(err, kv.ErrMissingPartitionKey) {
		t.Fatalf("Get without partition, expected ErrMissingPartitionKey, got %v", err)
	}
	if _, err := store.Get(ctx, samplePartition(), nil); !errors.Is(err, kv.ErrMissingKey) {
		t.Fatalf("Get without key, expected ErrMissingKey, got %v", err)
	}
	if err := store.Set(ctx, samplePartition(), uniqueKey("k"), nil); !errors.Is(err, kv.ErrMissingValue) {
		t.Fatalf("Set without value, expected ErrMissingValue, got %v", err)
	}
	if err := store.SetIf(ctx, nil, uniqueKey("k"), []byte("v"), nil); !errors.Is(err, kv.ErrMissingPartitionKey) {
		t.Fatalf("SetIf without partition, expected ErrMissingPartitionKey, got %v", err)
	}
	if _, err := store.Scan(ctx, nil, nil); !errors.Is(err, kv.ErrMissingPartitionKey) {
		t.Fatalf("Scan without partition, expected ErrMissingPartitionKey, got %v", err)
	}
}
