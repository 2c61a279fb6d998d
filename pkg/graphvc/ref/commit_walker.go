package ref

import (
	"context"
	"errors"
	"fmt"

	"github.com/conceptgraph/graphvc/pkg/graphvc"
)

// ErrWalkLimitExceeded is returned when a history traversal visits more
// commits than its bound allows.
var ErrWalkLimitExceeded = errors.New("commit walk limit exceeded")

// CommitGetter reads a single commit by id.
type CommitGetter interface {
	GetCommit(ctx context.Context, commitID graphvc.CommitID) (*graphvc.Commit, error)
}

// CommitWalker iterates ancestors of a commit breadth-first, most recent
// first. A discovered set guarantees each commit is visited once, so the walk
// terminates even on multi-parent histories (and on an accidental cycle).
type CommitWalker struct {
	getter        CommitGetter
	ctx           context.Context
	queue         []graphvc.CommitID
	discoveredSet map[graphvc.CommitID]struct{}
	maxDepth      int
	visited       int
	value         *graphvc.CommitRecord
	err           error
}

func NewCommitWalker(ctx context.Context, getter CommitGetter, startID graphvc.CommitID, maxDepth int) *CommitWalker {
	return &CommitWalker{
		getter:        getter,
		ctx:           ctx,
		queue:         []graphvc.CommitID{startID},
		discoveredSet: map[graphvc.CommitID]struct{}{startID: {}},
		maxDepth:      maxDepth,
	}
}

func (w *CommitWalker) Next() bool {
	if w.err != nil || len(w.queue) == 0 {
		w.value = nil
		return false // no more values to walk
	}
	if w.visited >= w.maxDepth {
		w.err = fmt.Errorf("%w (%d commits)", ErrWalkLimitExceeded, w.maxDepth)
		w.value = nil
		return false
	}

	// pop
	commitID := w.queue[0]
	w.queue = w.queue[1:]
	commit, err := w.getter.GetCommit(w.ctx, commitID)
	if err != nil {
		w.err = err
		w.value = nil
		return false
	}
	w.visited++

	// fill queue
	for _, parent := range commit.Parents {
		if _, wasDiscovered := w.discoveredSet[parent]; !wasDiscovered {
			w.queue = append(w.queue, parent)
			w.discoveredSet[parent] = struct{}{}
		}
	}
	w.value = &graphvc.CommitRecord{
		CommitID: commitID,
		Commit:   commit,
	}
	return true
}

func (w *CommitWalker) Value() *graphvc.CommitRecord {
	return w.value
}

func (w *CommitWalker) Err() error {
	return w.err
}

func (w *CommitWalker) Close() {
	w.queue = nil
	w.value = nil
}
