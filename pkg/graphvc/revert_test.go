package graphvc_test

import (
	"context"
	"testing"

	"github.com/conceptgraph/graphvc/pkg/graph"
	"github.com/conceptgraph/graphvc/pkg/graphvc"
	"github.com/stretchr/testify/require"
)

func TestEngine_RevertCommit(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	before := commitChanges(t, engine, graphvc.DefaultBranchID, "base", createNode("n1", "Block"))
	reverted := commitChanges(t, engine, graphvc.DefaultBranchID, "work",
		createNode("n2", "Extra"),
		updateNode("n1", "Block", "Renamed"))

	revertID, err := engine.RevertCommit(ctx, graphvc.DefaultBranchID, reverted, graphvc.RevertParams{
		AuthorID: "tester",
	})
	require.NoError(t, err)

	branch, err := engine.GetBranch(ctx, graphvc.DefaultBranchID)
	require.NoError(t, err)
	require.Equal(t, revertID, branch.CommitID)

	// the revert commit is the exact inverse, so the state before the
	// reverted commit and the new head are indistinguishable
	diff, err := engine.Diff(ctx, before, revertID)
	require.NoError(t, err)
	require.True(t, diff.Empty())

	commit, err := engine.GetCommit(ctx, revertID)
	require.NoError(t, err)
	require.Equal(t, graphvc.CommitParents{reverted}, commit.Parents)
	require.Len(t, commit.Changes, 2)
}

func TestEngine_RevertCommit_InvertedChanges(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	target := commitChanges(t, engine, graphvc.DefaultBranchID, "work", createNode("n1", "Block"))
	revertID, err := engine.RevertCommit(ctx, graphvc.DefaultBranchID, target, graphvc.RevertParams{
		AuthorID: "tester",
	})
	require.NoError(t, err)

	commit, err := engine.GetCommit(ctx, revertID)
	require.NoError(t, err)
	require.Len(t, commit.Changes, 1)
	change := commit.Changes[0]
	require.Equal(t, graph.ChangeTypeDelete, change.Type)
	require.Equal(t, "n1", change.ItemID)
	require.True(t, change.PreviousData.Equal(graph.Properties{"name": "Block"}))
}

func TestEngine_RevertCommit_NotOnBranch(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)
	commitChanges(t, engine, graphvc.DefaultBranchID, "base", createNode("n1", "Block"))

	_, err := engine.CreateBranch(ctx, "feature", graphvc.DefaultBranchID, graphvc.BranchParams{})
	require.NoError(t, err)
	featureOnly := commitChanges(t, engine, "feature", "f1", createNode("n2", "FeatureOnly"))

	// the commit exists but is not reachable from main's head
	_, err = engine.RevertCommit(ctx, graphvc.DefaultBranchID, featureOnly, graphvc.RevertParams{
		AuthorID: "tester",
	})
	require.ErrorIs(t, err, graphvc.ErrNotOnBranch)
}

func TestEngine_RevertCommit_CommitNotFound(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	missing := graphvc.CommitID("deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	_, err := engine.RevertCommit(ctx, graphvc.DefaultBranchID, missing, graphvc.RevertParams{
		AuthorID: "tester",
	})
	require.ErrorIs(t, err, graphvc.ErrCommitNotFound)
}
