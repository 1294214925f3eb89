package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"docqa/internal/rag"
)

const previewRunes = 80

var queryAnswer bool

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Rank indexed chunks against a question",
	Long: `Run retrieval for a question and print the ranked chunks with the score of every
signal. With --answer, also generate an answer from the retrieved context.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		question := strings.Join(args, " ")

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer func() {
			_ = a.Close()
		}()

		result, err := a.ChatService.Retrieve(ctx, question)
		if err != nil {
			return err
		}

		var answer *rag.AskResponse
		if queryAnswer {
			resp, err := a.Engine.Ask(ctx, rag.AskRequest{Question: question})
			if err != nil {
				return err
			}
			answer = &resp
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, struct {
				Retrieval *rag.Result      `json:"retrieval"`
				Answer    *rag.AskResponse `json:"answer,omitempty"`
			}{result, answer})
		}

		printRetrieval(out, result)
		if answer != nil {
			fmt.Fprintf(out, "\nAnswer (%s):\n%s\n", answer.SearchQuality, answer.Answer)
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().BoolVar(&queryAnswer, "answer", false, "also generate an answer")
}

func printRetrieval(w io.Writer, res *rag.Result) {
	a := res.Analysis
	fmt.Fprintf(w, "Keywords: %s\n", strings.Join(a.Keywords, ", "))
	fmt.Fprintf(w, "Numbers:  %s\n", strings.Join(a.Numbers, ", "))
	fmt.Fprintf(w, "Phrases:  %s\n", strings.Join(a.Phrases, " | "))
	if len(res.Expansions) > 0 {
		fmt.Fprintf(w, "Expanded: %s\n", strings.Join(res.Expansions, " | "))
	}
	fmt.Fprintf(w, "Threshold %.2f, top %d of %d candidates, %d context chars\n\n",
		res.ThresholdUsed, res.TopK, res.Candidates, res.ContextChars)

	if len(res.ContextChunks) == 0 {
		fmt.Fprintln(w, "No chunks retrieved.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tFINAL\tSEM\tKW\tNUM\tPHR\tDOCUMENT\tCHUNK\tTEXT")
	for i, sc := range res.ContextChunks {
		fmt.Fprintf(tw, "%d\t%.3f\t%.3f\t%.2f\t%.2f\t%.2f\t%s\t%d\t%s\n",
			i+1,
			sc.FinalScore,
			sc.SemanticScore,
			sc.KeywordScore,
			sc.NumberScore,
			sc.PhraseScore,
			sc.Chunk.DocumentName,
			sc.Chunk.ChunkIndex,
			preview(sc.Chunk.Text),
		)
	}
	_ = tw.Flush()
}

// preview flattens text to one line of at most previewRunes runes.
func preview(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(s) <= previewRunes {
		return s
	}
	return string([]rune(s)[:previewRunes]) + "..."
}
