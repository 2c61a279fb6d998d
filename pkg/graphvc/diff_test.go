package graphvc_test

import (
	"context"
	"testing"

	"github.com/conceptgraph/graphvc/pkg/graph"
	"github.com/conceptgraph/graphvc/pkg/graphvc"
	"github.com/stretchr/testify/require"
)

func TestEngine_Diff_SameCommit(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	head := commitChanges(t, engine, graphvc.DefaultBranchID, "base", createNode("n1", "Block"))

	diff, err := engine.Diff(ctx, head, head)
	require.NoError(t, err)
	require.True(t, diff.Empty())
}

func TestEngine_Diff_CommitNotFound(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	head := commitChanges(t, engine, graphvc.DefaultBranchID, "base", createNode("n1", "Block"))

	missing := graphvc.CommitID("deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	_, err := engine.Diff(ctx, missing, head)
	require.ErrorIs(t, err, graphvc.ErrCommitNotFound)
	_, err = engine.Diff(ctx, head, missing)
	require.ErrorIs(t, err, graphvc.ErrCommitNotFound)
}

func TestEngine_Diff_Ancestor(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	base := commitChanges(t, engine, graphvc.DefaultBranchID, "base",
		createNode("n1", "Block"),
		createNode("n2", "Doomed"),
		graph.Change{
			Type:     graph.ChangeTypeCreate,
			ItemType: graph.ItemTypeRelationship,
			ItemID:   "r1",
			NewData:  graph.Properties{"type": "CONTAINS"},
		})
	target := commitChanges(t, engine, graphvc.DefaultBranchID, "rework",
		createNode("n3", "Fresh"),
		updateNode("n1", "Block", "BlockRenamed"),
		deleteNode("n2", "Doomed"))

	diff, err := engine.Diff(ctx, base, target)
	require.NoError(t, err)
	require.Len(t, diff.AddedNodes, 1)
	require.Equal(t, "n3", diff.AddedNodes[0].ItemID)
	require.Len(t, diff.ModifiedNodes, 1)
	require.Equal(t, "n1", diff.ModifiedNodes[0].ItemID)
	require.True(t, diff.ModifiedNodes[0].NewData.Equal(graph.Properties{"name": "BlockRenamed"}))
	require.Len(t, diff.DeletedNodes, 1)
	require.Equal(t, "n2", diff.DeletedNodes[0].ItemID)
	require.Empty(t, diff.AddedRelationships) // r1 is on both sides
}

func TestEngine_Diff_NetEffect(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	base := commitChanges(t, engine, graphvc.DefaultBranchID, "base", createNode("n0", "Anchor"))

	// create then update across two commits folds into a single create
	commitChanges(t, engine, graphvc.DefaultBranchID, "c1",
		createNode("n1", "Draft"),
		createNode("n2", "Ephemeral"))
	target := commitChanges(t, engine, graphvc.DefaultBranchID, "c2",
		updateNode("n1", "Draft", "Final"),
		deleteNode("n2", "Ephemeral"))

	diff, err := engine.Diff(ctx, base, target)
	require.NoError(t, err)
	require.Len(t, diff.AddedNodes, 1)
	require.Equal(t, "n1", diff.AddedNodes[0].ItemID)
	require.True(t, diff.AddedNodes[0].NewData.Equal(graph.Properties{"name": "Final"}))
	// created and deleted along the path leaves no trace
	require.Empty(t, diff.DeletedNodes)
	require.Empty(t, diff.ModifiedNodes)
}

func TestEngine_Diff_UpdateBackAndForth(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	base := commitChanges(t, engine, graphvc.DefaultBranchID, "base", createNode("n1", "Block"))

	commitChanges(t, engine, graphvc.DefaultBranchID, "rename", updateNode("n1", "Block", "Renamed"))
	target := commitChanges(t, engine, graphvc.DefaultBranchID, "rename back", updateNode("n1", "Renamed", "Block"))

	// touched twice but ends where it started
	diff, err := engine.Diff(ctx, base, target)
	require.NoError(t, err)
	require.True(t, diff.Empty())
}

func TestEngine_Diff_NonAncestor(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	commitChanges(t, engine, graphvc.DefaultBranchID, "base", createNode("n1", "Block"))

	_, err := engine.CreateBranch(ctx, "feature", graphvc.DefaultBranchID, graphvc.BranchParams{})
	require.NoError(t, err)
	featureHead := commitChanges(t, engine, "feature", "f1", createNode("n2", "FeatureOnly"))
	mainHead := commitChanges(t, engine, graphvc.DefaultBranchID, "m1", createNode("n3", "MainOnly"))

	// siblings compare against each other, not just ancestors
	diff, err := engine.Diff(ctx, mainHead, featureHead)
	require.NoError(t, err)
	require.Len(t, diff.AddedNodes, 1)
	require.Equal(t, "n2", diff.AddedNodes[0].ItemID)
}

func TestEngine_Diff_AcrossMergeCommit(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	base := commitChanges(t, engine, graphvc.DefaultBranchID, "base", createNode("n1", "Block"))
	commitChanges(t, engine, graphvc.DefaultBranchID, "add temp node", createNode("n2", "Temp"))

	_, err := engine.CreateBranch(ctx, "feature", graphvc.DefaultBranchID, graphvc.BranchParams{})
	require.NoError(t, err)
	commitChanges(t, engine, "feature", "drop temp node", deleteNode("n2", "Temp"))

	result, err := engine.Merge(ctx, "feature", graphvc.DefaultBranchID, graphvc.MergeParams{
		AuthorID: "tester",
		Strategy: graphvc.MergeStrategyAuto,
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	// n2 was created on one line and deleted on the other: across the merge
	// commit it must fold away entirely, not surface as a deletion
	diff, err := engine.Diff(ctx, base, result.CommitID)
	require.NoError(t, err)
	require.True(t, diff.Empty())
}

func TestEngine_Diff_MergeCommitPreviousData(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	base := commitChanges(t, engine, graphvc.DefaultBranchID, "base", createNode("n1", "X"))
	commitChanges(t, engine, graphvc.DefaultBranchID, "first rename", updateNode("n1", "X", "A"))

	_, err := engine.CreateBranch(ctx, "feature", graphvc.DefaultBranchID, graphvc.BranchParams{})
	require.NoError(t, err)
	commitChanges(t, engine, "feature", "second rename", updateNode("n1", "A", "B"))

	result, err := engine.Merge(ctx, "feature", graphvc.DefaultBranchID, graphvc.MergeParams{
		AuthorID: "tester",
		Strategy: graphvc.MergeStrategyAuto,
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	// the net update spans both renames, so previous_data is the state at
	// base, not the intermediate value
	diff, err := engine.Diff(ctx, base, result.CommitID)
	require.NoError(t, err)
	require.Len(t, diff.ModifiedNodes, 1)
	require.Equal(t, "n1", diff.ModifiedNodes[0].ItemID)
	require.True(t, diff.ModifiedNodes[0].PreviousData.Equal(graph.Properties{"name": "X"}))
	require.True(t, diff.ModifiedNodes[0].NewData.Equal(graph.Properties{"name": "B"}))
}

func TestEngine_Diff_SharedIDAcrossItemTypes(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	base := commitChanges(t, engine, graphvc.DefaultBranchID, "base", createNode("x1", "Block"))

	// a node and a relationship may share an id without sharing a history
	target := commitChanges(t, engine, graphvc.DefaultBranchID, "swap",
		deleteNode("x1", "Block"),
		graph.Change{
			Type:     graph.ChangeTypeCreate,
			ItemType: graph.ItemTypeRelationship,
			ItemID:   "x1",
			NewData:  graph.Properties{"type": "LINKS"},
		})

	diff, err := engine.Diff(ctx, base, target)
	require.NoError(t, err)
	require.Len(t, diff.DeletedNodes, 1)
	require.Equal(t, "x1", diff.DeletedNodes[0].ItemID)
	require.Len(t, diff.AddedRelationships, 1)
	require.Equal(t, "x1", diff.AddedRelationships[0].ItemID)
}

func TestGraphDiff_Changes(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	base := commitChanges(t, engine, graphvc.DefaultBranchID, "base", createNode("nb", "Block"))
	target := commitChanges(t, engine, graphvc.DefaultBranchID, "work",
		createNode("nz", "Z"),
		createNode("na", "A"),
		deleteNode("nb", "Block"),
		graph.Change{
			Type:     graph.ChangeTypeCreate,
			ItemType: graph.ItemTypeRelationship,
			ItemID:   "r1",
			NewData:  graph.Properties{"type": "LINKS"},
		})

	diff, err := engine.Diff(ctx, base, target)
	require.NoError(t, err)
	flat := diff.Changes()
	require.Len(t, flat, 4)
	// nodes before relationships, item id ascending within
	require.Equal(t, "na", flat[0].ItemID)
	require.Equal(t, "nb", flat[1].ItemID)
	require.Equal(t, "nz", flat[2].ItemID)
	require.Equal(t, "r1", flat[3].ItemID)
}
