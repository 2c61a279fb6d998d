package graphvc_test

import (
	"context"
	"testing"

	"github.com/conceptgraph/graphvc/pkg/graph"
	"github.com/conceptgraph/graphvc/pkg/graphvc"
	"github.com/stretchr/testify/require"
)

// setupDivergentBranches commits a node on main, forks feature, then renames
// the node differently on each side. Returns the fork point commit.
func setupDivergentBranches(t *testing.T, engine *graphvc.Engine) graphvc.CommitID {
	t.Helper()
	ctx := context.Background()
	base := commitChanges(t, engine, graphvc.DefaultBranchID, "base", createNode("n1", "Block"))
	_, err := engine.CreateBranch(ctx, "feature", graphvc.DefaultBranchID, graphvc.BranchParams{})
	require.NoError(t, err)
	commitChanges(t, engine, "feature", "rename on feature", updateNode("n1", "Block", "BlockV2"))
	commitChanges(t, engine, graphvc.DefaultBranchID, "rename on main", updateNode("n1", "Block", "BlockRenamed"))
	return base
}

func TestEngine_Merge_NonOverlapping(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	base := commitChanges(t, engine, graphvc.DefaultBranchID, "base", createNode("n1", "Block"))
	_, err := engine.CreateBranch(ctx, "feature", graphvc.DefaultBranchID, graphvc.BranchParams{})
	require.NoError(t, err)
	featureHead := commitChanges(t, engine, "feature", "f1", createNode("n2", "FromFeature"))
	mainHead := commitChanges(t, engine, graphvc.DefaultBranchID, "m1", createNode("n3", "FromMain"))

	result, err := engine.Merge(ctx, "feature", graphvc.DefaultBranchID, graphvc.MergeParams{
		AuthorID: "tester",
		Strategy: graphvc.MergeStrategyManual,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Empty(t, result.Conflicts)
	require.NotEmpty(t, result.AttemptID)

	merged, err := engine.GetCommit(ctx, result.CommitID)
	require.NoError(t, err)
	require.Equal(t, graphvc.CommitParents{mainHead, featureHead}, merged.Parents)

	// the merged state carries both sides' additions
	diff, err := engine.Diff(ctx, base, result.CommitID)
	require.NoError(t, err)
	require.Len(t, diff.AddedNodes, 2)
	require.Equal(t, "n2", diff.AddedNodes[0].ItemID)
	require.Equal(t, "n3", diff.AddedNodes[1].ItemID)

	branch, err := engine.GetBranch(ctx, graphvc.DefaultBranchID)
	require.NoError(t, err)
	require.Equal(t, result.CommitID, branch.CommitID)
}

func TestEngine_Merge_ConvergentEdit(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	commitChanges(t, engine, graphvc.DefaultBranchID, "base", createNode("n1", "Block"))
	_, err := engine.CreateBranch(ctx, "feature", graphvc.DefaultBranchID, graphvc.BranchParams{})
	require.NoError(t, err)

	// both sides land on the same final value
	commitChanges(t, engine, "feature", "rename", updateNode("n1", "Block", "BlockV2"))
	commitChanges(t, engine, graphvc.DefaultBranchID, "rename", updateNode("n1", "Block", "BlockV2"))

	result, err := engine.Merge(ctx, "feature", graphvc.DefaultBranchID, graphvc.MergeParams{
		AuthorID: "tester",
		Strategy: graphvc.MergeStrategyManual,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Empty(t, result.Conflicts)
}

func TestEngine_Merge_SourceAlreadyMerged(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	commitChanges(t, engine, graphvc.DefaultBranchID, "base", createNode("n1", "Block"))
	_, err := engine.CreateBranch(ctx, "feature", graphvc.DefaultBranchID, graphvc.BranchParams{})
	require.NoError(t, err)
	featureHead := commitChanges(t, engine, "feature", "f1", createNode("n2", "FromFeature"))
	mainHead := commitChanges(t, engine, graphvc.DefaultBranchID, "m1", createNode("n3", "FromMain"))

	first, err := engine.Merge(ctx, "feature", graphvc.DefaultBranchID, graphvc.MergeParams{
		AuthorID: "tester",
		Strategy: graphvc.MergeStrategyAuto,
	})
	require.NoError(t, err)
	require.True(t, first.Success)
	firstCommit, err := engine.GetCommit(ctx, first.CommitID)
	require.NoError(t, err)
	require.Equal(t, graphvc.CommitParents{mainHead, featureHead}, firstCommit.Parents)

	// merging again still records a two-parent commit, there is no
	// fast-forward mode
	second, err := engine.Merge(ctx, "feature", graphvc.DefaultBranchID, graphvc.MergeParams{
		AuthorID: "tester",
		Strategy: graphvc.MergeStrategyAuto,
	})
	require.NoError(t, err)
	require.True(t, second.Success)
	require.Empty(t, second.Conflicts)

	merged, err := engine.GetCommit(ctx, second.CommitID)
	require.NoError(t, err)
	require.Equal(t, graphvc.CommitParents{first.CommitID, featureHead}, merged.Parents)
}

func TestEngine_Merge_ManualConflict(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	setupDivergentBranches(t, engine)
	before, err := engine.GetBranch(ctx, graphvc.DefaultBranchID)
	require.NoError(t, err)

	result, err := engine.Merge(ctx, "feature", graphvc.DefaultBranchID, graphvc.MergeParams{
		AuthorID: "tester",
		Strategy: graphvc.MergeStrategyManual,
	})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Empty(t, result.CommitID)
	require.Len(t, result.Conflicts, 1)

	conflict := result.Conflicts[0]
	require.Equal(t, "n1", conflict.ItemID)
	require.True(t, conflict.SourceChange.NewData.Equal(graph.Properties{"name": "BlockV2"}))
	require.True(t, conflict.TargetChange.NewData.Equal(graph.Properties{"name": "BlockRenamed"}))

	// no commit was created and the target head did not move
	after, err := engine.GetBranch(ctx, graphvc.DefaultBranchID)
	require.NoError(t, err)
	require.Equal(t, before.CommitID, after.CommitID)
}

func TestEngine_Merge_AutoTargetWins(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	base := setupDivergentBranches(t, engine)

	result, err := engine.Merge(ctx, "feature", graphvc.DefaultBranchID, graphvc.MergeParams{
		AuthorID: "tester",
		Strategy: graphvc.MergeStrategyAuto,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.Conflicts, 1)
	require.Equal(t, graphvc.ReasonAutoResolvedTargetWins, result.Conflicts[0].Reason)

	// the target branch's version survives
	diff, err := engine.Diff(ctx, base, result.CommitID)
	require.NoError(t, err)
	require.Len(t, diff.ModifiedNodes, 1)
	require.True(t, diff.ModifiedNodes[0].NewData.Equal(graph.Properties{"name": "BlockRenamed"}))
}

func TestEngine_Merge_ManualWithResolution(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	base := setupDivergentBranches(t, engine)

	resolved := updateNode("n1", "Block", "BlockFinal")
	result, err := engine.Merge(ctx, "feature", graphvc.DefaultBranchID, graphvc.MergeParams{
		AuthorID: "tester",
		Strategy: graphvc.MergeStrategyManual,
		Resolution: map[string]graph.Change{
			"n1": resolved,
		},
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.Conflicts, 1)
	require.Equal(t, graphvc.ReasonManualResolution, result.Conflicts[0].Reason)

	diff, err := engine.Diff(ctx, base, result.CommitID)
	require.NoError(t, err)
	require.Len(t, diff.ModifiedNodes, 1)
	require.True(t, diff.ModifiedNodes[0].NewData.Equal(graph.Properties{"name": "BlockFinal"}))
}

func TestEngine_Merge_ResolutionForNonConflict(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	setupDivergentBranches(t, engine)

	_, err := engine.Merge(ctx, "feature", graphvc.DefaultBranchID, graphvc.MergeParams{
		AuthorID: "tester",
		Strategy: graphvc.MergeStrategyManual,
		Resolution: map[string]graph.Change{
			"n1":      updateNode("n1", "Block", "BlockFinal"),
			"no-such": updateNode("no-such", "a", "b"),
		},
	})
	require.ErrorIs(t, err, graphvc.ErrInvalidResolution)
}

func TestEngine_Merge_SharedIDAcrossItemTypes(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	commitChanges(t, engine, graphvc.DefaultBranchID, "base",
		createNode("e1", "Block"),
		graph.Change{
			Type:     graph.ChangeTypeCreate,
			ItemType: graph.ItemTypeRelationship,
			ItemID:   "e1",
			NewData:  graph.Properties{"type": "LINKS"},
		})
	_, err := engine.CreateBranch(ctx, "feature", graphvc.DefaultBranchID, graphvc.BranchParams{})
	require.NoError(t, err)

	// both sides touch node e1, only the source touches relationship e1
	commitChanges(t, engine, "feature", "source edits",
		updateNode("e1", "Block", "BlockV2"),
		graph.Change{
			Type:         graph.ChangeTypeUpdate,
			ItemType:     graph.ItemTypeRelationship,
			ItemID:       "e1",
			PreviousData: graph.Properties{"type": "LINKS"},
			NewData:      graph.Properties{"type": "LINKS", "weight": 2},
		})
	commitChanges(t, engine, graphvc.DefaultBranchID, "target edit", updateNode("e1", "Block", "BlockRenamed"))

	result, err := engine.Merge(ctx, "feature", graphvc.DefaultBranchID, graphvc.MergeParams{
		AuthorID: "tester",
		Strategy: graphvc.MergeStrategyManual,
	})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Len(t, result.Conflicts, 1)
	require.Equal(t, graph.ItemTypeNode, result.Conflicts[0].ItemType)
	require.Equal(t, "e1", result.Conflicts[0].ItemID)
}

func TestEngine_Merge_InvalidStrategy(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	commitChanges(t, engine, graphvc.DefaultBranchID, "base", createNode("n1", "Block"))
	_, err := engine.CreateBranch(ctx, "feature", graphvc.DefaultBranchID, graphvc.BranchParams{})
	require.NoError(t, err)

	_, err = engine.Merge(ctx, "feature", graphvc.DefaultBranchID, graphvc.MergeParams{
		AuthorID: "tester",
		Strategy: "theirs",
	})
	require.ErrorIs(t, err, graphvc.ErrInvalidMergeStrategy)
}

func TestEngine_Merge_BranchNotFound(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	_, err := engine.Merge(ctx, "no-such-branch", graphvc.DefaultBranchID, graphvc.MergeParams{
		AuthorID: "tester",
		Strategy: graphvc.MergeStrategyAuto,
	})
	require.ErrorIs(t, err, graphvc.ErrBranchNotFound)
}
