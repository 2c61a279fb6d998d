package cmd

import (
	"github.com/conceptgraph/graphvc/pkg/graphvc"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Create, list and delete branches",
}

var branchCreateCmd = &cobra.Command{
	Use:   "create <branch name>",
	Short: "Create a new branch from an existing one",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		engine, closer := getEngine(ctx)
		defer closer()

		source, _ := cmd.Flags().GetString("source")
		description, _ := cmd.Flags().GetString("description")
		authorID, authorName := currentAuthor()
		branch, err := engine.CreateBranch(ctx, graphvc.BranchID(args[0]), graphvc.BranchID(source), graphvc.BranchParams{
			AuthorID:    authorID,
			AuthorName:  authorName,
			Description: description,
		})
		if err != nil {
			DieErr(err)
		}
		Fmt("created branch %s at %s\n", args[0], branch.CommitID)
	},
}

var branchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List branches",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		engine, closer := getEngine(ctx)
		defer closer()

		branches, err := engine.ListBranches(ctx)
		if err != nil {
			DieErr(err)
		}
		rows := make([]table.Row, 0, len(branches))
		for _, b := range branches {
			rows = append(rows, table.Row{b.BranchID, b.CommitID, b.Description})
		}
		PrintTable(table.Row{"Branch", "Head", "Description"}, rows)
	},
}

var branchDeleteCmd = &cobra.Command{
	Use:   "delete <branch name>",
	Short: "Delete a branch",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		engine, closer := getEngine(ctx)
		defer closer()

		if err := engine.DeleteBranch(ctx, graphvc.BranchID(args[0])); err != nil {
			DieErr(err)
		}
		Fmt("deleted branch %s\n", args[0])
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(branchCmd)
	branchCmd.AddCommand(branchCreateCmd)
	branchCmd.AddCommand(branchListCmd)
	branchCmd.AddCommand(branchDeleteCmd)

	branchCreateCmd.Flags().StringP("source", "s", graphvc.DefaultBranchID.String(), "source branch to fork from")
	branchCreateCmd.Flags().StringP("description", "d", "", "branch description")
}
