package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/dermwatch/internal/mcp"
	"github.com/blackwell-systems/dermwatch/internal/output"
)

var analyzeHistory int

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run an AI analysis of recent records",
	Long: `Send the last 30 days of records to the configured AI service for an
analysis of trends, likely triggers and recommendations. Needs at least 3
records and is limited to a few runs per day (see 'dermwatch usage').

Use --history N to list the N most recent saved analyses instead.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeHistory, "history", 0, "List the N most recent saved analyses")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(ctx) }()

	sess, err := rt.requireSession()
	if err != nil {
		return err
	}

	if analyzeHistory > 0 {
		transcripts, err := rt.db.ListTranscripts(ctx, sess.UserID, analyzeHistory)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(transcripts)
		}
		if len(transcripts) == 0 {
			fmt.Println("No saved analyses yet. Run 'dermwatch analyze' to create one.")
			return nil
		}
		for _, t := range transcripts {
			fmt.Println(output.Section("Analysis " + t.AnalysisDate))
			fmt.Println()
			fmt.Println(t.Insights)
		}
		fmt.Println()
		fmt.Println(output.StyleMuted.Render(rt.pipeline.Disclaimer()))
		return nil
	}

	payload, printed, err := rt.call(ctx, sess, "trigger_ai_analysis", map[string]any{})
	if err != nil || printed {
		return err
	}

	res := payload.(mcp.AnalysisResult)
	fmt.Println(output.Section("AI Analysis"))
	fmt.Println()
	fmt.Println(res.Analysis)
	fmt.Println()
	fmt.Println(output.StyleMuted.Render(rt.pipeline.Disclaimer()))
	fmt.Println()
	fmt.Printf(" %s %s\n",
		output.StyleLabel.Render("Analyses left today"),
		output.StyleValue.Render(fmt.Sprintf("%d", res.RemainingUsesToday)))
	return nil
}
