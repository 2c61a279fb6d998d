package graphvc

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrNotUnique    = errors.New("not unique")
	ErrInvalidValue = errors.New("invalid value")

	ErrBranchNotFound = fmt.Errorf("branch %w", ErrNotFound)
	ErrCommitNotFound = fmt.Errorf("commit %w", ErrNotFound)
	ErrTagNotFound    = fmt.Errorf("tag %w", ErrNotFound)

	ErrBranchAlreadyExists = fmt.Errorf("branch already exists: %w", ErrNotUnique)
	ErrTagAlreadyExists    = fmt.Errorf("tag already exists: %w", ErrNotUnique)

	// ErrConcurrentModification is returned when a branch head moved between
	// read and write. The caller retries against the refreshed head.
	ErrConcurrentModification = errors.New("concurrent modification")

	ErrNoCommonAncestor     = errors.New("no common ancestor")
	ErrNotOnBranch          = errors.New("commit is not reachable from branch head")
	ErrDeleteDefaultBranch  = errors.New("cannot delete the default branch")
	ErrInvalidBranchID      = fmt.Errorf("branch id: %w", ErrInvalidValue)
	ErrInvalidTagID         = fmt.Errorf("tag id: %w", ErrInvalidValue)
	ErrInvalidCommitID      = fmt.Errorf("commit id: %w", ErrInvalidValue)
	ErrInvalidMergeStrategy = fmt.Errorf("merge strategy: %w", ErrInvalidValue)
	ErrInvalidResolution    = fmt.Errorf("conflict resolution: %w", ErrInvalidValue)
	ErrInvalidChanges       = fmt.Errorf("changes: %w", ErrInvalidValue)
)
