package graphvc

import (
	"context"
	"hash/fnv"
	"sync"
)

const lockStripes = 256

// KeyedBranchLocker serializes branch writers in-process. The engine assumes
// a single authoritative service instance; the compare-and-swap on the branch
// record in the ref store remains the correctness backstop for anything that
// bypasses the locker.
type KeyedBranchLocker struct {
	stripes [lockStripes]sync.Mutex
}

func NewKeyedBranchLocker() *KeyedBranchLocker {
	return &KeyedBranchLocker{}
}

func calculateBranchLockerKey(branchID BranchID) uint64 {
	h := fnv.New64()
	_, _ = h.Write([]byte(branchID))
	_, _ = h.Write([]byte{0})
	return h.Sum64()
}

func (l *KeyedBranchLocker) lock(branchID BranchID, lockedFn BranchLockerFunc) (interface{}, error) {
	stripe := &l.stripes[calculateBranchLockerKey(branchID)%lockStripes]
	stripe.Lock()
	defer stripe.Unlock()
	return lockedFn()
}

// Writer acquires the branch write lock for the span of calling lockedFn.
// Commit creation on a branch is serialized through it.
func (l *KeyedBranchLocker) Writer(_ context.Context, branchID BranchID, lockedFn BranchLockerFunc) (interface{}, error) {
	return l.lock(branchID, lockedFn)
}

// MetadataUpdater acquires the same exclusive lock; merge holds it on the
// target branch for the whole read-diff-commit span so no third party can
// advance the target head mid-merge.
func (l *KeyedBranchLocker) MetadataUpdater(_ context.Context, branchID BranchID, lockedFn BranchLockerFunc) (interface{}, error) {
	return l.lock(branchID, lockedFn)
}
