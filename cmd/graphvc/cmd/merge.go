package cmd

import (
	"encoding/json"
	"os"

	"github.com/conceptgraph/graphvc/pkg/graph"
	"github.com/conceptgraph/graphvc/pkg/graphvc"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <source branch> <target branch>",
	Short: "Merge one branch into another",
	Long: `Merge folds the source branch's changes since the common ancestor into
the target branch as a two-parent commit. With --strategy auto, items
edited differently on both sides keep the target's version and the merge
always completes; with --strategy manual such items are reported as
conflicts and no commit is created until --resolution supplies a chosen
change per conflicting item.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		engine, closer := getEngine(ctx)
		defer closer()

		strategy, _ := cmd.Flags().GetString("strategy")
		message, _ := cmd.Flags().GetString("message")
		resolutionFile, _ := cmd.Flags().GetString("resolution")

		var resolution map[string]graph.Change
		if resolutionFile != "" {
			raw, err := os.ReadFile(resolutionFile)
			if err != nil {
				DieErr(err)
			}
			if err := json.Unmarshal(raw, &resolution); err != nil {
				DieFmt("parse resolution file: %s", err)
			}
		}

		authorID, authorName := currentAuthor()
		result, err := engine.Merge(ctx, graphvc.BranchID(args[0]), graphvc.BranchID(args[1]), graphvc.MergeParams{
			AuthorID:   authorID,
			AuthorName: authorName,
			Message:    message,
			Strategy:   graphvc.MergeStrategy(strategy),
			Resolution: resolution,
		})
		if err != nil {
			DieErr(err)
		}
		if !result.Success {
			Fmt("merge attempt %s found %d conflict(s), no commit created\n", result.AttemptID, len(result.Conflicts))
			printConflicts(result.Conflicts)
			os.Exit(userErrorCode)
		}
		Fmt("merged %s into %s as %s\n", args[0], args[1], result.CommitID)
		if len(result.Conflicts) > 0 {
			printConflicts(result.Conflicts)
		}
	},
}

func printConflicts(conflicts []graphvc.ConflictRecord) {
	rows := make([]table.Row, 0, len(conflicts))
	for _, c := range conflicts {
		rows = append(rows, table.Row{
			c.ItemID,
			c.ItemType,
			propsSummary(c.SourceChange),
			propsSummary(c.TargetChange),
			c.Reason,
		})
	}
	PrintTable(table.Row{"Item", "Item Type", "Source", "Target", "Resolution"}, rows)
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().StringP("strategy", "s", string(graphvc.MergeStrategyManual), "conflict strategy: auto or manual")
	mergeCmd.Flags().StringP("message", "m", "", "merge commit message")
	mergeCmd.Flags().StringP("resolution", "r", "", "path to a JSON object mapping conflicting item ids to resolved changes")
}
