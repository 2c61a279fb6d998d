package graphvc

import (
	"context"
	"fmt"

	"github.com/conceptgraph/graphvc/pkg/graph"
	"github.com/conceptgraph/graphvc/pkg/logging"
)

// RevertParams are the caller-supplied fields of a revert commit
type RevertParams struct {
	AuthorID   string
	AuthorName string
}

// RevertCommit applies the inverse of the given commit's changes as a brand
// new commit on the branch. History is never rewritten: revert is strictly
// additive. The commit must be reachable from the branch head.
func (e *Engine) RevertCommit(ctx context.Context, branchID BranchID, commitID CommitID, params RevertParams) (CommitID, error) {
	target, err := e.refManager.GetCommit(ctx, commitID)
	if err != nil {
		return "", err
	}

	res, err := e.locker.Writer(ctx, branchID, func() (interface{}, error) {
		var revertID CommitID
		err := e.refManager.BranchUpdate(ctx, branchID, func(branch *Branch) (*Branch, error) {
			if branch.CommitID == "" {
				return nil, ErrNotOnBranch
			}
			reachable, err := e.isAncestor(ctx, commitID, branch.CommitID)
			if err != nil {
				return nil, err
			}
			if !reachable {
				return nil, fmt.Errorf("%s: %w", commitID, ErrNotOnBranch)
			}

			// invert in reverse order so dependent changes unwind cleanly
			inverted := make(graph.Changes, 0, len(target.Changes))
			for i := len(target.Changes) - 1; i >= 0; i-- {
				inverted = append(inverted, target.Changes[i].Invert())
			}
			commit := NewCommit()
			commit.AuthorID = params.AuthorID
			commit.AuthorName = params.AuthorName
			commit.Message = fmt.Sprintf("Revert %q", target.Message)
			commit.Parents = CommitParents{branch.CommitID}
			commit.Changes = inverted

			revertID, err = e.refManager.AddCommit(ctx, commit)
			if err != nil {
				return nil, err
			}
			branch.CommitID = revertID
			return branch, nil
		})
		return revertID, err
	})
	if err != nil {
		return "", err
	}
	revertID := res.(CommitID)
	e.log.WithContext(ctx).WithFields(logging.Fields{
		logging.BranchFieldKey:   branchID,
		logging.CommitIDFieldKey: revertID,
		"reverted":               commitID,
	}).Debug("commit reverted")
	return revertID, nil
}

// isAncestor reports whether 'ancestor' is reachable from 'from' via parent
// pointers. A commit counts as its own ancestor.
func (e *Engine) isAncestor(ctx context.Context, ancestor, from CommitID) (bool, error) {
	it, err := e.refManager.Log(ctx, from)
	if err != nil {
		return false, err
	}
	defer it.Close()
	for it.Next() {
		if it.Value().CommitID == ancestor {
			return true, nil
		}
	}
	if err := it.Err(); err != nil {
		return false, err
	}
	return false, nil
}
