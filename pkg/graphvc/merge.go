package graphvc

import (
	"context"
	"fmt"
	"sort"

	"github.com/conceptgraph/graphvc/pkg/graph"
	"github.com/conceptgraph/graphvc/pkg/logging"
	"github.com/google/uuid"
)

const (
	// ReasonAutoResolvedTargetWins marks a conflict the auto strategy resolved
	// by keeping the target branch's version. An automatic merge never fails
	// on divergence. Resolved conflicts stay in MergeResult.Conflicts as an
	// audit trail.
	ReasonAutoResolvedTargetWins = "auto-resolved:target-wins"

	// ReasonManualResolution marks a conflict completed by a caller-supplied
	// resolution on a follow-up attempt.
	ReasonManualResolution = "manual-resolution"

	reasonDivergentEdit = "divergent edits to the same item since the common ancestor"
)

// Merge combines the source branch's history into the target branch. Changes
// since the lowest common ancestor are compared item by item; items edited on
// both sides to different final values conflict. With the manual strategy,
// conflicts fail the attempt without a commit until the caller supplies a
// resolution; with the auto strategy the target branch's version wins and the
// merge always completes. The merge commit carries both heads as parents,
// target first.
func (e *Engine) Merge(ctx context.Context, sourceID, targetID BranchID, params MergeParams) (*MergeResult, error) {
	if err := params.Strategy.Validate(); err != nil {
		return nil, err
	}
	source, err := e.refManager.GetBranch(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	// the target branch is locked for the whole read-diff-commit span
	res, err := e.locker.MetadataUpdater(ctx, targetID, func() (interface{}, error) {
		target, err := e.refManager.GetBranch(ctx, targetID)
		if err != nil {
			return nil, err
		}
		if source.CommitID == "" || target.CommitID == "" {
			return nil, ErrNoCommonAncestor
		}
		return e.merge(ctx, sourceID, targetID, source.CommitID, target.CommitID, params)
	})
	if err != nil {
		return nil, err
	}
	return res.(*MergeResult), nil
}

func (e *Engine) merge(ctx context.Context, sourceID, targetID BranchID, sourceHead, targetHead CommitID, params MergeParams) (*MergeResult, error) {
	ancestor, err := e.refManager.FindMergeBase(ctx, sourceHead, targetHead)
	if err != nil {
		return nil, err
	}

	diffSource, err := e.Diff(ctx, ancestor.CommitID, sourceHead)
	if err != nil {
		return nil, err
	}
	diffTarget, err := e.Diff(ctx, ancestor.CommitID, targetHead)
	if err != nil {
		return nil, err
	}

	sourceChanges := changesByItem(diffSource)
	targetChanges := changesByItem(diffTarget)

	result := &MergeResult{
		Strategy:  params.Strategy,
		AttemptID: uuid.NewString(),
	}

	net := make(map[itemKey]graph.Change)
	for key, change := range sourceChanges {
		net[key] = change
	}
	for key, change := range targetChanges {
		net[key] = change
	}

	var unresolved bool
	for _, key := range sortedOverlap(sourceChanges, targetChanges) {
		sourceChange := sourceChanges[key]
		targetChange := targetChanges[key]
		if sourceChange.Type == targetChange.Type && sourceChange.NewData.Equal(targetChange.NewData) {
			// idempotent convergent edit, either side's copy will do
			continue
		}
		conflict := ConflictRecord{
			ItemID:       key.itemID,
			ItemType:     key.itemType,
			SourceChange: sourceChange,
			TargetChange: targetChange,
			Reason:       reasonDivergentEdit,
		}
		switch params.Strategy {
		case MergeStrategyAuto:
			net[key] = targetChange
			conflict.Reason = ReasonAutoResolvedTargetWins
		case MergeStrategyManual:
			resolution, ok := params.Resolution[key.itemID]
			if !ok {
				unresolved = true
				break
			}
			if err := resolution.Validate(); err != nil {
				return nil, fmt.Errorf("%w: item %s: %s", ErrInvalidResolution, key.itemID, err)
			}
			net[key] = resolution
			conflict.Reason = ReasonManualResolution
		}
		result.Conflicts = append(result.Conflicts, conflict)
	}
	for itemID, resolution := range params.Resolution {
		key := itemKey{itemType: resolution.ItemType, itemID: itemID}
		if _, overlapping := sourceChanges[key]; !overlapping {
			return nil, fmt.Errorf("%w: item %s is not in conflict", ErrInvalidResolution, itemID)
		}
		if _, overlapping := targetChanges[key]; !overlapping {
			return nil, fmt.Errorf("%w: item %s is not in conflict", ErrInvalidResolution, itemID)
		}
	}

	if unresolved {
		// manual strategy with unresolved conflicts: no commit is created, the
		// caller re-invokes with a resolution for each conflicting item
		return result, nil
	}

	commit := NewCommit()
	commit.AuthorID = params.AuthorID
	commit.AuthorName = params.AuthorName
	commit.Message = params.Message
	if commit.Message == "" {
		commit.Message = fmt.Sprintf("Merge branch %q into %q", sourceID, targetID)
	}
	commit.Parents = CommitParents{targetHead, sourceHead}
	commit.Changes = netChangeList(net)

	commitID, err := e.refManager.AddCommit(ctx, commit)
	if err != nil {
		return nil, err
	}
	err = e.refManager.BranchUpdate(ctx, targetID, func(branch *Branch) (*Branch, error) {
		if branch.CommitID != targetHead {
			return nil, ErrConcurrentModification
		}
		branch.CommitID = commitID
		return branch, nil
	})
	if err != nil {
		return nil, err
	}

	result.Success = true
	result.CommitID = commitID
	e.log.WithContext(ctx).WithFields(logging.Fields{
		logging.SourceFieldKey:   sourceID,
		logging.TargetFieldKey:   targetID,
		logging.CommitIDFieldKey: commitID,
		"strategy":               params.Strategy,
		"conflicts":              len(result.Conflicts),
	}).Info("branches merged")
	return result, nil
}

func changesByItem(diff *GraphDiff) map[itemKey]graph.Change {
	byItem := make(map[itemKey]graph.Change)
	for _, change := range diff.Changes() {
		byItem[itemKey{itemType: change.ItemType, itemID: change.ItemID}] = change
	}
	return byItem
}

func sortedOverlap(source, target map[itemKey]graph.Change) []itemKey {
	var overlap []itemKey
	for key := range source {
		if _, ok := target[key]; ok {
			overlap = append(overlap, key)
		}
	}
	sort.Slice(overlap, func(i, j int) bool {
		if overlap[i].itemType != overlap[j].itemType {
			return overlap[i].itemType < overlap[j].itemType
		}
		return overlap[i].itemID < overlap[j].itemID
	})
	return overlap
}

func netChangeList(net map[itemKey]graph.Change) graph.Changes {
	changes := make(graph.Changes, 0, len(net))
	for _, change := range net {
		changes = append(changes, change)
	}
	sortChanges(changes)
	return changes
}
