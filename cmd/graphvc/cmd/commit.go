package cmd

import (
	"encoding/json"
	"os"

	"github.com/conceptgraph/graphvc/pkg/graph"
	"github.com/conceptgraph/graphvc/pkg/graphvc"
	"github.com/spf13/cobra"
)

var commitCmd = &cobra.Command{
	Use:   "commit <branch name>",
	Short: "Commit a set of graph changes to a branch",
	Long: `Commit reads a JSON array of changes and records them as a new commit on
the branch. Each change names its type (create/update/delete), item type
(node/relationship), item id and the data before/after.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		engine, closer := getEngine(ctx)
		defer closer()

		message, _ := cmd.Flags().GetString("message")
		changesFile, _ := cmd.Flags().GetString("changes")

		var changes graph.Changes
		if changesFile != "" {
			raw, err := os.ReadFile(changesFile)
			if err != nil {
				DieErr(err)
			}
			if err := json.Unmarshal(raw, &changes); err != nil {
				DieFmt("parse changes file: %s", err)
			}
		}

		authorID, authorName := currentAuthor()
		commitID, err := engine.Commit(ctx, graphvc.BranchID(args[0]), graphvc.CommitParams{
			AuthorID:   authorID,
			AuthorName: authorName,
			Message:    message,
			Changes:    changes,
		})
		if err != nil {
			DieErr(err)
		}
		Fmt("committed %s to %s\n", commitID, args[0])
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(commitCmd)
	commitCmd.Flags().StringP("message", "m", "", "commit message")
	commitCmd.Flags().StringP("changes", "c", "", "path to a JSON file holding the change list")
	_ = commitCmd.MarkFlagRequired("message")
}
