package graphvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/conceptgraph/graphvc/pkg/graph"
	"github.com/conceptgraph/graphvc/pkg/logging"
	"github.com/conceptgraph/graphvc/pkg/validator"
	"github.com/hashicorp/go-multierror"
)

// BranchUpdateFunc updates a branch record under compare-and-swap. Returning
// an error aborts the update.
type BranchUpdateFunc func(branch *Branch) (*Branch, error)

// CommitIterator walks commits from a starting point towards the roots,
// following parent pointers breadth-first.
type CommitIterator interface {
	Next() bool
	Value() *CommitRecord
	Err() error
	Close()
}

// RefManager owns the persisted commit, branch and tag records.
type RefManager interface {
	// GetCommit returns the commit, or ErrCommitNotFound
	GetCommit(ctx context.Context, commitID CommitID) (*Commit, error)

	// AddCommit stores the commit under its content address and returns the
	// address. Storing identical content twice yields the same commit.
	AddCommit(ctx context.Context, commit Commit) (CommitID, error)

	// GetBranch returns the branch, or ErrBranchNotFound
	GetBranch(ctx context.Context, branchID BranchID) (*Branch, error)

	// CreateBranch stores the branch, or fails with ErrBranchAlreadyExists
	CreateBranch(ctx context.Context, branchID BranchID, branch Branch) error

	// BranchUpdate applies f to the current branch record and writes the
	// result back conditionally. Fails with ErrConcurrentModification when the
	// record changed between read and write.
	BranchUpdate(ctx context.Context, branchID BranchID, f BranchUpdateFunc) error

	// DeleteBranch removes the branch pointer, or fails with ErrBranchNotFound
	DeleteBranch(ctx context.Context, branchID BranchID) error

	// ListBranches returns all branches ordered by name
	ListBranches(ctx context.Context) ([]BranchRecord, error)

	// GetTag returns the tag, or ErrTagNotFound
	GetTag(ctx context.Context, tagID TagID) (*Tag, error)

	// CreateTag stores the tag, or fails with ErrTagAlreadyExists
	CreateTag(ctx context.Context, tagID TagID, tag Tag) error

	// DeleteTag removes the tag, or fails with ErrTagNotFound
	DeleteTag(ctx context.Context, tagID TagID) error

	// ListTags returns all tags ordered by name
	ListTags(ctx context.Context) ([]TagRecord, error)

	// FindMergeBase returns the lowest common ancestor of two commits, or
	// ErrNoCommonAncestor when the traversal bound is exhausted without one.
	FindMergeBase(ctx context.Context, left, right CommitID) (*CommitRecord, error)

	// Log returns an iterator walking ancestors of 'from', most recent first
	Log(ctx context.Context, from CommitID) (CommitIterator, error)
}

// BranchLockerFunc is a function to run under a branch lock
type BranchLockerFunc func() (interface{}, error)

// BranchLocker serializes writers on a branch. Commit creation takes the
// writer lock; merge holds the metadata-updater lock on the target branch for
// the whole diff-and-commit span.
type BranchLocker interface {
	Writer(ctx context.Context, branchID BranchID, lockedFn BranchLockerFunc) (interface{}, error)
	MetadataUpdater(ctx context.Context, branchID BranchID, lockedFn BranchLockerFunc) (interface{}, error)
}

// Engine is the version-control facade over a RefManager. It owns no graph
// state of its own: callers apply the change sequences it emits to the live
// graph store.
type Engine struct {
	refManager RefManager
	locker     BranchLocker
	log        logging.Logger
}

type EngineOption func(*Engine)

func WithLogger(log logging.Logger) EngineOption {
	return func(e *Engine) {
		e.log = log
	}
}

func WithBranchLocker(locker BranchLocker) EngineOption {
	return func(e *Engine) {
		e.locker = locker
	}
}

func NewEngine(refManager RefManager, opts ...EngineOption) *Engine {
	e := &Engine{
		refManager: refManager,
		log:        logging.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.locker == nil {
		e.locker = NewKeyedBranchLocker()
	}
	return e
}

// Initialize creates the default branch with a root commit. Safe to call on
// an already-initialized store.
func (e *Engine) Initialize(ctx context.Context) error {
	_, err := e.refManager.GetBranch(ctx, DefaultBranchID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrBranchNotFound) {
		return err
	}
	firstCommit := NewCommit()
	firstCommit.Message = FirstCommitMsg
	commitID, err := e.refManager.AddCommit(ctx, firstCommit)
	if err != nil {
		return err
	}
	err = e.refManager.CreateBranch(ctx, DefaultBranchID, Branch{
		CommitID:     commitID,
		BaseCommitID: commitID,
	})
	if err != nil && !errors.Is(err, ErrBranchAlreadyExists) {
		return err
	}
	e.log.WithContext(ctx).WithField(logging.CommitIDFieldKey, commitID).Info("initialized graph version store")
	return nil
}

// Commit records the given changes as a new commit on the branch and
// advances its head. An empty change set is a valid milestone commit.
func (e *Engine) Commit(ctx context.Context, branchID BranchID, params CommitParams) (CommitID, error) {
	err := validator.Validate([]validator.ValidateArg{
		{Name: "branchID", Value: branchID.String(), Fn: validator.ValidateBranchID},
		{Name: "authorID", Value: params.AuthorID, Fn: validator.ValidateRequiredString},
	})
	if err != nil {
		return "", err
	}
	if err := validateChanges(params.Changes); err != nil {
		return "", err
	}

	res, err := e.locker.Writer(ctx, branchID, func() (interface{}, error) {
		var commitID CommitID
		err := e.refManager.BranchUpdate(ctx, branchID, func(branch *Branch) (*Branch, error) {
			commit := newCommitFromParams(params)
			if branch.CommitID != "" {
				commit.Parents = CommitParents{branch.CommitID}
			}
			var err error
			commitID, err = e.refManager.AddCommit(ctx, commit)
			if err != nil {
				return nil, err
			}
			branch.CommitID = commitID
			return branch, nil
		})
		return commitID, err
	})
	if err != nil {
		return "", err
	}
	commitID := res.(CommitID)
	e.log.WithContext(ctx).WithFields(logging.Fields{
		logging.BranchFieldKey:   branchID,
		logging.CommitIDFieldKey: commitID,
		logging.AuthorFieldKey:   params.AuthorID,
	}).Debug("commit created")
	return commitID, nil
}

func newCommitFromParams(params CommitParams) Commit {
	commit := NewCommit()
	commit.AuthorID = params.AuthorID
	commit.AuthorName = params.AuthorName
	commit.Message = params.Message
	commit.Changes = params.Changes
	commit.Metadata = params.Metadata
	if params.Date != nil {
		commit.CreationDate = time.Unix(*params.Date, 0).UTC()
	}
	return commit
}

func validateChanges(changes graph.Changes) error {
	var merr *multierror.Error
	for i := range changes {
		if err := changes[i].Validate(); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("change %d: %w", i, err))
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidChanges, err)
	}
	return nil
}

// GetCommit returns a commit by hash
func (e *Engine) GetCommit(ctx context.Context, commitID CommitID) (*Commit, error) {
	return e.refManager.GetCommit(ctx, commitID)
}

// Log returns up to 'limit' commits reachable from the branch head, most
// recent first. limit <= 0 means no limit.
func (e *Engine) Log(ctx context.Context, branchID BranchID, limit int) ([]CommitRecord, error) {
	branch, err := e.refManager.GetBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if branch.CommitID == "" {
		return nil, nil
	}
	it, err := e.refManager.Log(ctx, branch.CommitID)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var commits []CommitRecord
	for it.Next() {
		commits = append(commits, *it.Value())
		if limit > 0 && len(commits) >= limit {
			break
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return commits, nil
}

// CreateBranch creates a branch pointing at the source branch's current
// head. Branches are cheap pointer copies, never content copies.
func (e *Engine) CreateBranch(ctx context.Context, branchID, sourceID BranchID, params BranchParams) (*Branch, error) {
	err := validator.Validate([]validator.ValidateArg{
		{Name: "branchID", Value: branchID.String(), Fn: validator.ValidateBranchID},
		{Name: "sourceID", Value: sourceID.String(), Fn: validator.ValidateBranchID},
	})
	if err != nil {
		return nil, err
	}
	source, err := e.refManager.GetBranch(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	branch := Branch{
		CommitID:      source.CommitID,
		BaseCommitID:  source.CommitID,
		CreatedBy:     params.AuthorID,
		CreatedByName: params.AuthorName,
		Description:   params.Description,
	}
	if err := e.refManager.CreateBranch(ctx, branchID, branch); err != nil {
		return nil, err
	}
	e.log.WithContext(ctx).WithFields(logging.Fields{
		logging.BranchFieldKey: branchID,
		logging.SourceFieldKey: sourceID,
	}).Debug("branch created")
	return &branch, nil
}

// GetBranch returns a branch by name
func (e *Engine) GetBranch(ctx context.Context, branchID BranchID) (*Branch, error) {
	return e.refManager.GetBranch(ctx, branchID)
}

// ListBranches returns all branches ordered by name
func (e *Engine) ListBranches(ctx context.Context) ([]BranchRecord, error) {
	return e.refManager.ListBranches(ctx)
}

// DeleteBranch removes a branch pointer. The default branch can never be
// deleted. Commits stay in the store: they are immutable and append-only.
func (e *Engine) DeleteBranch(ctx context.Context, branchID BranchID) error {
	if branchID == DefaultBranchID {
		return ErrDeleteDefaultBranch
	}
	_, err := e.locker.Writer(ctx, branchID, func() (interface{}, error) {
		return nil, e.refManager.DeleteBranch(ctx, branchID)
	})
	return err
}

// CreateTag records a named immutable pointer to an existing commit.
func (e *Engine) CreateTag(ctx context.Context, tagID TagID, commitID CommitID, params TagParams) error {
	err := validator.Validate([]validator.ValidateArg{
		{Name: "tagID", Value: tagID.String(), Fn: validator.ValidateTagID},
		{Name: "commitID", Value: commitID.String(), Fn: validator.ValidateCommitID},
	})
	if err != nil {
		return err
	}
	if _, err := e.refManager.GetCommit(ctx, commitID); err != nil {
		return err
	}
	return e.refManager.CreateTag(ctx, tagID, Tag{
		CommitID: commitID,
		AuthorID: params.AuthorID,
		Message:  params.Message,
	})
}

// GetTag returns a tag by name
func (e *Engine) GetTag(ctx context.Context, tagID TagID) (*Tag, error) {
	return e.refManager.GetTag(ctx, tagID)
}

// DeleteTag removes a tag. Re-tagging a name requires deleting it first.
func (e *Engine) DeleteTag(ctx context.Context, tagID TagID) error {
	return e.refManager.DeleteTag(ctx, tagID)
}

// ListTags returns all tags ordered by name
func (e *Engine) ListTags(ctx context.Context) ([]TagRecord, error) {
	return e.refManager.ListTags(ctx)
}

// BranchStatus reports how far branchID has diverged from baseID: commits
// ahead (reachable from branch but not base), behind (the reverse), and
// their lowest common ancestor.
func (e *Engine) BranchStatus(ctx context.Context, branchID, baseID BranchID) (*BranchStatus, error) {
	branch, err := e.refManager.GetBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	base, err := e.refManager.GetBranch(ctx, baseID)
	if err != nil {
		return nil, err
	}
	if branch.CommitID == "" || base.CommitID == "" {
		return nil, ErrNoCommonAncestor
	}
	ancestor, err := e.refManager.FindMergeBase(ctx, branch.CommitID, base.CommitID)
	if err != nil {
		return nil, err
	}
	branchSet, err := e.reachableSet(ctx, branch.CommitID)
	if err != nil {
		return nil, err
	}
	baseSet, err := e.reachableSet(ctx, base.CommitID)
	if err != nil {
		return nil, err
	}
	status := &BranchStatus{CommonAncestor: ancestor.CommitID}
	for commitID := range branchSet {
		if _, ok := baseSet[commitID]; !ok {
			status.Ahead++
		}
	}
	for commitID := range baseSet {
		if _, ok := branchSet[commitID]; !ok {
			status.Behind++
		}
	}
	return status, nil
}

// reachableSet returns the set of commit ids reachable from 'from',
// inclusive.
func (e *Engine) reachableSet(ctx context.Context, from CommitID) (map[CommitID]struct{}, error) {
	it, err := e.refManager.Log(ctx, from)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	set := make(map[CommitID]struct{})
	for it.Next() {
		set[it.Value().CommitID] = struct{}{}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return set, nil
}
