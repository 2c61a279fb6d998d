package cmd

import (
	"github.com/conceptgraph/graphvc/pkg/graphvc"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Create, list and delete tags",
}

var tagCreateCmd = &cobra.Command{
	Use:   "create <tag name> <ref>",
	Short: "Tag a commit with an immutable name",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		engine, closer := getEngine(ctx)
		defer closer()

		message, _ := cmd.Flags().GetString("message")
		commitID := resolveCommitID(ctx, engine, args[1])
		authorID, _ := currentAuthor()
		err := engine.CreateTag(ctx, graphvc.TagID(args[0]), commitID, graphvc.TagParams{
			AuthorID: authorID,
			Message:  message,
		})
		if err != nil {
			DieErr(err)
		}
		Fmt("created tag %s at %s\n", args[0], commitID)
	},
}

var tagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		engine, closer := getEngine(ctx)
		defer closer()

		tags, err := engine.ListTags(ctx)
		if err != nil {
			DieErr(err)
		}
		rows := make([]table.Row, 0, len(tags))
		for _, tag := range tags {
			rows = append(rows, table.Row{tag.TagID, tag.CommitID, tag.Message})
		}
		PrintTable(table.Row{"Tag", "Commit", "Message"}, rows)
	},
}

var tagDeleteCmd = &cobra.Command{
	Use:   "delete <tag name>",
	Short: "Delete a tag",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		engine, closer := getEngine(ctx)
		defer closer()

		if err := engine.DeleteTag(ctx, graphvc.TagID(args[0])); err != nil {
			DieErr(err)
		}
		Fmt("deleted tag %s\n", args[0])
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(tagCmd)
	tagCmd.AddCommand(tagCreateCmd)
	tagCmd.AddCommand(tagListCmd)
	tagCmd.AddCommand(tagDeleteCmd)

	tagCreateCmd.Flags().StringP("message", "m", "", "tag message")
}
