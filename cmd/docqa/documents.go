package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List uploaded documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer func() {
			_ = a.Close()
		}()

		docs, err := a.DocumentService.List(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, docs)
		}
		if len(docs) == 0 {
			fmt.Fprintln(out, "No documents.")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tSIZE\tCHUNKS\tTEXT\tUPLOADED")
		for _, d := range docs {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
				d.ID, d.OriginalName, d.SizeBytes, d.ChunkCount, d.TextLength,
				d.UploadedAt.Local().Format(time.DateTime))
		}
		return tw.Flush()
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <document-id>",
	Short: "Remove a document, its chunks and its stored file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer func() {
			_ = a.Close()
		}()

		res, err := a.DocumentService.Remove(ctx, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), res)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%d chunks)\n", res.DocumentID, res.VectorsDeleted)
		return nil
	},
}
