package ref

import (
	"context"

	"github.com/conceptgraph/graphvc/pkg/graphvc"
)

// FindLowestCommonAncestor returns the most recent commit reachable from both
// left and right via parent-chain traversal. On the subgraph of common
// ancestors, the nodes with no children qualify as lowest common ancestors;
// ties break towards the newer commit, then the lower id, so the result is
// deterministic. Fails with ErrNoCommonAncestor when the two histories do not
// intersect within the traversal bound.
func FindLowestCommonAncestor(ctx context.Context, getter CommitGetter, left, right graphvc.CommitID, maxDepth int) (*graphvc.CommitRecord, error) {
	// the set of all ancestors of the left commit
	leftAncestors := make(map[graphvc.CommitID]struct{})
	iterLeft := NewCommitWalker(ctx, getter, left, maxDepth)
	for iterLeft.Next() {
		leftAncestors[iterLeft.Value().CommitID] = struct{}{}
	}
	if err := iterLeft.Err(); err != nil {
		return nil, err
	}

	// the set of all common ancestors
	commonAncestors := make(map[graphvc.CommitID]*graphvc.CommitRecord)
	iterRight := NewCommitWalker(ctx, getter, right, maxDepth)
	for iterRight.Next() {
		record := iterRight.Value()
		if _, ok := leftAncestors[record.CommitID]; ok {
			commonAncestors[record.CommitID] = record
		}
	}
	if err := iterRight.Err(); err != nil {
		return nil, err
	}
	if len(commonAncestors) == 0 {
		return nil, graphvc.ErrNoCommonAncestor
	}

	// on the subgraph containing only the common ancestors,
	// count the number of children for each node
	children := make(map[graphvc.CommitID]int)
	for _, record := range commonAncestors {
		for _, parent := range record.Parents {
			children[parent]++
		}
	}
	var lca *graphvc.CommitRecord
	for _, record := range commonAncestors {
		if children[record.CommitID] != 0 {
			continue
		}
		if lca == nil || record.CreationDate.After(lca.CreationDate) ||
			(record.CreationDate.Equal(lca.CreationDate) && record.CommitID < lca.CommitID) {
			lca = record
		}
	}
	if lca == nil {
		return nil, graphvc.ErrNoCommonAncestor
	}
	return lca, nil
}
