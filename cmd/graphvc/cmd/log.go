package cmd

import (
	"time"

	"github.com/conceptgraph/graphvc/pkg/graphvc"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log <branch name>",
	Short: "Show the commit history of a branch, most recent first",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		engine, closer := getEngine(ctx)
		defer closer()

		amount, _ := cmd.Flags().GetInt("amount")
		records, err := engine.Log(ctx, graphvc.BranchID(args[0]), amount)
		if err != nil {
			DieErr(err)
		}
		rows := make([]table.Row, 0, len(records))
		for _, r := range records {
			rows = append(rows, table.Row{
				r.CommitID,
				r.AuthorID,
				r.CreationDate.Format(time.RFC3339),
				len(r.Changes),
				r.Message,
			})
		}
		PrintTable(table.Row{"Commit", "Author", "Date", "Changes", "Message"}, rows)
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().IntP("amount", "n", 0, "limit the number of commits shown (0 for all)")
}
