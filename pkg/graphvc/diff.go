package graphvc

import (
	"context"
	"sort"

	"github.com/conceptgraph/graphvc/pkg/graph"
)

// Diff computes the net set of changes separating two commits: the effect of
// every commit reachable from target but not from base, folded per item.
// When base is not an ancestor of target, base's reachable set still serves
// as the reference for presence/absence, so any two commits can be compared.
func (e *Engine) Diff(ctx context.Context, baseID, targetID CommitID) (*GraphDiff, error) {
	if _, err := e.refManager.GetCommit(ctx, baseID); err != nil {
		return nil, err
	}
	if _, err := e.refManager.GetCommit(ctx, targetID); err != nil {
		return nil, err
	}

	diff := &GraphDiff{BaseID: baseID, TargetID: targetID}
	if baseID == targetID {
		return diff, nil
	}

	baseSet, err := e.reachableSet(ctx, baseID)
	if err != nil {
		return nil, err
	}

	// collect commits reachable from target but not from base, newest first
	it, err := e.refManager.Log(ctx, targetID)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var path []CommitRecord
	for it.Next() {
		record := it.Value()
		if _, reachable := baseSet[record.CommitID]; reachable {
			continue
		}
		path = append(path, *record)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	for _, net := range foldChanges(orderCausally(path)) {
		diff.add(net)
	}
	diff.sortBuckets()
	return diff, nil
}

// orderCausally arranges the walked path so every commit comes after all of
// its parents that are also on the path. The breadth-first walk is newest
// first, but when the path crosses a merge commit it can surface a commit
// before an ancestor reached through the other parent line, so reversing the
// walk alone is not a valid replay order.
func orderCausally(newestFirst []CommitRecord) []CommitRecord {
	index := make(map[CommitID]int, len(newestFirst))
	for i, record := range newestFirst {
		index[record.CommitID] = i
	}
	blocking := make([]int, len(newestFirst))
	children := make([][]int, len(newestFirst))
	for i, record := range newestFirst {
		for _, parent := range record.Parents {
			if j, onPath := index[parent]; onPath {
				blocking[i]++
				children[j] = append(children[j], i)
			}
		}
	}

	// Kahn's algorithm, seeded in reverse walk order for a stable result
	ready := make([]int, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		if blocking[i] == 0 {
			ready = append(ready, i)
		}
	}
	ordered := make([]CommitRecord, 0, len(newestFirst))
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		ordered = append(ordered, newestFirst[i])
		for _, child := range children[i] {
			blocking[child]--
			if blocking[child] == 0 {
				ready = append(ready, child)
			}
		}
	}
	return ordered
}

// itemKey identifies one graph item. Nodes and relationships have separate id
// spaces, so the type is part of the key.
type itemKey struct {
	itemType graph.ItemType
	itemID   string
}

// itemHistory tracks the first and last change to one item along the walked
// path. The first change supplies the item's state at base, the last its
// state at target.
type itemHistory struct {
	first graph.Change
	last  graph.Change
}

// foldChanges replays the path oldest-first and reduces each item's change
// history to its net effect. Items whose state at base equals their state at
// target are omitted.
func foldChanges(oldestFirst []CommitRecord) []graph.Change {
	histories := make(map[itemKey]*itemHistory)
	var order []itemKey
	for _, record := range oldestFirst {
		for _, change := range record.Changes {
			key := itemKey{itemType: change.ItemType, itemID: change.ItemID}
			h, seen := histories[key]
			if !seen {
				histories[key] = &itemHistory{first: change, last: change}
				order = append(order, key)
				continue
			}
			h.last = change
		}
	}

	net := make([]graph.Change, 0, len(order))
	for _, key := range order {
		h := histories[key]
		presentAtBase := h.first.Type != graph.ChangeTypeCreate
		presentAtTarget := h.last.Type != graph.ChangeTypeDelete
		switch {
		case !presentAtBase && presentAtTarget:
			net = append(net, graph.Change{
				Type:     graph.ChangeTypeCreate,
				ItemType: key.itemType,
				ItemID:   key.itemID,
				NewData:  h.last.NewData.Copy(),
				Metadata: h.last.Metadata,
			})
		case presentAtBase && !presentAtTarget:
			net = append(net, graph.Change{
				Type:         graph.ChangeTypeDelete,
				ItemType:     key.itemType,
				ItemID:       key.itemID,
				PreviousData: h.first.PreviousData.Copy(),
				Metadata:     h.last.Metadata,
			})
		case presentAtBase && presentAtTarget:
			if h.first.PreviousData.Equal(h.last.NewData) {
				continue // touched but unchanged
			}
			net = append(net, graph.Change{
				Type:         graph.ChangeTypeUpdate,
				ItemType:     key.itemType,
				ItemID:       key.itemID,
				PreviousData: h.first.PreviousData.Copy(),
				NewData:      h.last.NewData.Copy(),
				Metadata:     h.last.Metadata,
			})
		default:
			// created and deleted along the path: no net effect
		}
	}
	return net
}

func (d *GraphDiff) add(change graph.Change) {
	node := change.ItemType == graph.ItemTypeNode
	switch change.Type {
	case graph.ChangeTypeCreate:
		if node {
			d.AddedNodes = append(d.AddedNodes, change)
		} else {
			d.AddedRelationships = append(d.AddedRelationships, change)
		}
	case graph.ChangeTypeDelete:
		if node {
			d.DeletedNodes = append(d.DeletedNodes, change)
		} else {
			d.DeletedRelationships = append(d.DeletedRelationships, change)
		}
	case graph.ChangeTypeUpdate:
		if node {
			d.ModifiedNodes = append(d.ModifiedNodes, change)
		} else {
			d.ModifiedRelationships = append(d.ModifiedRelationships, change)
		}
	}
}

func (d *GraphDiff) sortBuckets() {
	for _, bucket := range [][]graph.Change{
		d.AddedNodes, d.DeletedNodes, d.ModifiedNodes,
		d.AddedRelationships, d.DeletedRelationships, d.ModifiedRelationships,
	} {
		sortChanges(bucket)
	}
}

// sortChanges orders changes by item type then item id. Net change sets have
// one change per item, so the order is total and deterministic.
func sortChanges(changes []graph.Change) {
	sort.SliceStable(changes, func(i, j int) bool {
		if changes[i].ItemType != changes[j].ItemType {
			return changes[i].ItemType < changes[j].ItemType
		}
		return changes[i].ItemID < changes[j].ItemID
	})
}
