package cmd

import (
	"github.com/conceptgraph/graphvc/pkg/graphvc"
	"github.com/spf13/cobra"
)

var revertCmd = &cobra.Command{
	Use:   "revert <branch name> <ref>",
	Short: "Commit the inverse of a previous commit",
	Long: `Revert records a new commit on the branch undoing the changes of the
named commit. History is append-only: the reverted commit stays in the
log, the new commit cancels its effect.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		engine, closer := getEngine(ctx)
		defer closer()

		commitID := resolveCommitID(ctx, engine, args[1])
		authorID, authorName := currentAuthor()
		revertID, err := engine.RevertCommit(ctx, graphvc.BranchID(args[0]), commitID, graphvc.RevertParams{
			AuthorID:   authorID,
			AuthorName: authorName,
		})
		if err != nil {
			DieErr(err)
		}
		Fmt("reverted %s on %s as %s\n", commitID, args[0], revertID)
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(revertCmd)
}
