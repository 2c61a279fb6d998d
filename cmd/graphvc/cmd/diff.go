package cmd

import (
	"github.com/conceptgraph/graphvc/pkg/graph"
	"github.com/conceptgraph/graphvc/pkg/graphvc"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff <base ref> <target ref>",
	Short: "Show the net changes separating two refs",
	Long: `Diff folds the history between two refs into its net effect per item:
an item created then updated shows once as added, an item created then
deleted does not show at all. A ref is a commit hash, branch or tag.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		engine, closer := getEngine(ctx)
		defer closer()

		base := resolveCommitID(ctx, engine, args[0])
		target := resolveCommitID(ctx, engine, args[1])
		diff, err := engine.Diff(ctx, base, target)
		if err != nil {
			DieErr(err)
		}
		if diff.Empty() {
			Fmt("no changes\n")
			return
		}
		changes := diff.Changes()
		rows := make([]table.Row, 0, len(changes))
		for _, c := range changes {
			rows = append(rows, table.Row{c.Type, c.ItemType, c.ItemID, propsSummary(c)})
		}
		PrintTable(table.Row{"Change", "Item Type", "Item", "Data"}, rows)
	},
}

func propsSummary(c graph.Change) string {
	switch c.Type {
	case graph.ChangeTypeDelete:
		return c.PreviousData.String()
	default:
		return c.NewData.String()
	}
}

var statusCmd = &cobra.Command{
	Use:   "status <branch name> [base branch]",
	Short: "Show how far a branch has diverged from its base",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		engine, closer := getEngine(ctx)
		defer closer()

		base := graphvc.DefaultBranchID
		if len(args) > 1 {
			base = graphvc.BranchID(args[1])
		}
		status, err := engine.BranchStatus(ctx, graphvc.BranchID(args[0]), base)
		if err != nil {
			DieErr(err)
		}
		PrintTable(
			table.Row{"Branch", "Base", "Ahead", "Behind", "Common Ancestor"},
			[]table.Row{{args[0], base, status.Ahead, status.Behind, status.CommonAncestor}},
		)
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(statusCmd)
}
