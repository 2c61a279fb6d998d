package ref

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/conceptgraph/graphvc/pkg/graphvc"
	"github.com/conceptgraph/graphvc/pkg/ident"
	"github.com/conceptgraph/graphvc/pkg/kv"
)

const (
	refsPartition    = "graph-refs"
	commitsPartition = "graph-commits"

	branchesPrefix = "branches"
	tagsPrefix     = "tags"
	commitsPrefix  = "commits"
)

// DefaultMaxWalkDepth bounds every history traversal. The walker keeps a
// visited set, so the bound only trips on a history deeper than any sane
// graph's, never on a cycle.
const DefaultMaxWalkDepth = 100_000

func branchPath(branchID graphvc.BranchID) []byte {
	return []byte(kv.FormatPath(branchesPrefix, branchID.String()))
}

func tagPath(tagID graphvc.TagID) []byte {
	return []byte(kv.FormatPath(tagsPrefix, tagID.String()))
}

func commitPath(commitID graphvc.CommitID) []byte {
	return []byte(kv.FormatPath(commitsPrefix, commitID.String()))
}

// Manager owns the persisted commit, branch and tag records over a kv.Store.
// Commits are append-only JSON blobs keyed by content address; branches and
// tags are small mutable pointer records in their own partition.
type Manager struct {
	kvStore         kv.Store
	addressProvider ident.AddressProvider
	maxWalkDepth    int
}

type ManagerOption func(*Manager)

func WithAddressProvider(provider ident.AddressProvider) ManagerOption {
	return func(m *Manager) {
		m.addressProvider = provider
	}
}

func WithMaxWalkDepth(depth int) ManagerOption {
	return func(m *Manager) {
		m.maxWalkDepth = depth
	}
}

func NewManager(kvStore kv.Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		kvStore:         kvStore,
		addressProvider: ident.NewHexAddressProvider(),
		maxWalkDepth:    DefaultMaxWalkDepth,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) GetCommit(ctx context.Context, commitID graphvc.CommitID) (*graphvc.Commit, error) {
	res, err := m.kvStore.Get(ctx, []byte(commitsPartition), commitPath(commitID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			err = graphvc.ErrCommitNotFound
		}
		return nil, err
	}
	commit := &graphvc.Commit{}
	if err := json.Unmarshal(res.Value, commit); err != nil {
		return nil, fmt.Errorf("decode commit %s: %w", commitID, err)
	}
	return commit, nil
}

func (m *Manager) AddCommit(ctx context.Context, commit graphvc.Commit) (graphvc.CommitID, error) {
	commitID := graphvc.CommitID(m.addressProvider.ContentAddress(commit))
	value, err := json.Marshal(&commit)
	if err != nil {
		return "", fmt.Errorf("encode commit: %w", err)
	}
	err = m.kvStore.SetIf(ctx, []byte(commitsPartition), commitPath(commitID), value, nil)
	// identical content already stored is the same commit
	if err != nil && !errors.Is(err, kv.ErrPredicateFailed) {
		return "", err
	}
	return commitID, nil
}

func (m *Manager) GetBranch(ctx context.Context, branchID graphvc.BranchID) (*graphvc.Branch, error) {
	branch, _, err := m.getBranchWithPredicate(ctx, branchID)
	return branch, err
}

func (m *Manager) getBranchWithPredicate(ctx context.Context, branchID graphvc.BranchID) (*graphvc.Branch, kv.Predicate, error) {
	res, err := m.kvStore.Get(ctx, []byte(refsPartition), branchPath(branchID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			err = graphvc.ErrBranchNotFound
		}
		return nil, nil, err
	}
	branch := &graphvc.Branch{}
	if err := json.Unmarshal(res.Value, branch); err != nil {
		return nil, nil, fmt.Errorf("decode branch %s: %w", branchID, err)
	}
	return branch, res.Predicate, nil
}

func (m *Manager) CreateBranch(ctx context.Context, branchID graphvc.BranchID, branch graphvc.Branch) error {
	value, err := json.Marshal(&branch)
	if err != nil {
		return fmt.Errorf("encode branch: %w", err)
	}
	err = m.kvStore.SetIf(ctx, []byte(refsPartition), branchPath(branchID), value, nil)
	if err != nil {
		if errors.Is(err, kv.ErrPredicateFailed) {
			err = graphvc.ErrBranchAlreadyExists
		}
		return err
	}
	return nil
}

func (m *Manager) BranchUpdate(ctx context.Context, branchID graphvc.BranchID, f graphvc.BranchUpdateFunc) error {
	branch, predicate, err := m.getBranchWithPredicate(ctx, branchID)
	if err != nil {
		return err
	}
	updated, err := f(branch)
	if err != nil {
		return err
	}
	value, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("encode branch: %w", err)
	}
	err = m.kvStore.SetIf(ctx, []byte(refsPartition), branchPath(branchID), value, predicate)
	if errors.Is(err, kv.ErrPredicateFailed) {
		err = graphvc.ErrConcurrentModification
	}
	return err
}

func (m *Manager) DeleteBranch(ctx context.Context, branchID graphvc.BranchID) error {
	_, err := m.GetBranch(ctx, branchID)
	if err != nil {
		return err
	}
	return m.kvStore.Delete(ctx, []byte(refsPartition), branchPath(branchID))
}

func (m *Manager) ListBranches(ctx context.Context) ([]graphvc.BranchRecord, error) {
	var records []graphvc.BranchRecord
	err := m.scanPrefix(ctx, refsPartition, branchesPrefix, func(name string, value []byte) error {
		branch := &graphvc.Branch{}
		if err := json.Unmarshal(value, branch); err != nil {
			return fmt.Errorf("decode branch %s: %w", name, err)
		}
		records = append(records, graphvc.BranchRecord{
			BranchID: graphvc.BranchID(name),
			Branch:   branch,
		})
		return nil
	})
	return records, err
}

func (m *Manager) GetTag(ctx context.Context, tagID graphvc.TagID) (*graphvc.Tag, error) {
	res, err := m.kvStore.Get(ctx, []byte(refsPartition), tagPath(tagID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			err = graphvc.ErrTagNotFound
		}
		return nil, err
	}
	tag := &graphvc.Tag{}
	if err := json.Unmarshal(res.Value, tag); err != nil {
		return nil, fmt.Errorf("decode tag %s: %w", tagID, err)
	}
	return tag, nil
}

func (m *Manager) CreateTag(ctx context.Context, tagID graphvc.TagID, tag graphvc.Tag) error {
	value, err := json.Marshal(&tag)
	if err != nil {
		return fmt.Errorf("encode tag: %w", err)
	}
	err = m.kvStore.SetIf(ctx, []byte(refsPartition), tagPath(tagID), value, nil)
	if err != nil {
		if errors.Is(err, kv.ErrPredicateFailed) {
			err = graphvc.ErrTagAlreadyExists
		}
		return err
	}
	return nil
}

func (m *Manager) DeleteTag(ctx context.Context, tagID graphvc.TagID) error {
	_, err := m.GetTag(ctx, tagID)
	if err != nil {
		return err
	}
	return m.kvStore.Delete(ctx, []byte(refsPartition), tagPath(tagID))
}

func (m *Manager) ListTags(ctx context.Context) ([]graphvc.TagRecord, error) {
	var records []graphvc.TagRecord
	err := m.scanPrefix(ctx, refsPartition, tagsPrefix, func(name string, value []byte) error {
		tag := &graphvc.Tag{}
		if err := json.Unmarshal(value, tag); err != nil {
			return fmt.Errorf("decode tag %s: %w", name, err)
		}
		records = append(records, graphvc.TagRecord{
			TagID: graphvc.TagID(name),
			Tag:   tag,
		})
		return nil
	})
	return records, err
}

func (m *Manager) scanPrefix(ctx context.Context, partition, prefix string, each func(name string, value []byte) error) error {
	fullPrefix := prefix + kv.PathDelimiter
	it, err := m.kvStore.Scan(ctx, []byte(partition), []byte(fullPrefix))
	if err != nil {
		return err
	}
	defer it.Close()
	for it.Next() {
		entry := it.Entry()
		key := string(entry.Key)
		if !strings.HasPrefix(key, fullPrefix) {
			break
		}
		if err := each(strings.TrimPrefix(key, fullPrefix), entry.Value); err != nil {
			return err
		}
	}
	return it.Err()
}

func (m *Manager) FindMergeBase(ctx context.Context, left, right graphvc.CommitID) (*graphvc.CommitRecord, error) {
	return FindLowestCommonAncestor(ctx, m, left, right, m.maxWalkDepth)
}

func (m *Manager) Log(ctx context.Context, from graphvc.CommitID) (graphvc.CommitIterator, error) {
	if _, err := m.GetCommit(ctx, from); err != nil {
		return nil, err
	}
	return NewCommitWalker(ctx, m, from, m.maxWalkDepth), nil
}
