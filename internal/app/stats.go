package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/dermwatch/internal/analyzer"
	"github.com/blackwell-systems/dermwatch/internal/mcp"
	"github.com/blackwell-systems/dermwatch/internal/output"
)

var statsTop int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show correlations between triggers and itching",
	Long: `Analyze the last 30 days of records: average itch and sleep quality,
foods that coincide with higher or lower itch, and how sleep, exercise and
mood relate to symptoms. Foods need at least two records to be listed.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsTop, "top", 5, "Number of worst and best foods to list")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
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
	payload, printed, err := rt.call(ctx, sess, "get_statistics", map[string]any{})
	if err != nil || printed {
		return err
	}

	ins := payload.(mcp.StatisticsResult).Insights
	renderOverview(ins)
	renderFoods(ins, statsTop)
	renderCorrelations(ins)
	return nil
}

func renderOverview(ins analyzer.Insights) {
	fmt.Println(output.Section("Overview"))

	fmt.Printf(" %s %s\n",
		output.StyleLabel.Render("Records analyzed"),
		output.StyleValue.Render(fmt.Sprintf("%d", ins.TotalRecords)))
	fmt.Printf(" %s %s\n",
		output.StyleLabel.Render("Avg itch level"),
		output.ItchBar(float64(ins.AvgItch), 10))
	sleep := "not rated"
	if ins.AvgSleep > 0 {
		sleep = ins.AvgSleep.String() + "/5"
	}
	fmt.Printf(" %s %s\n",
		output.StyleLabel.Render("Avg sleep quality"),
		output.StyleValue.Render(sleep))

	fmt.Println()
}

func renderFoods(ins analyzer.Insights, n int) {
	fmt.Println(output.Section("Foods"))
	fmt.Println()

	if len(ins.FoodCorrelations) == 0 {
		fmt.Println(" No food logged on at least two records yet.")
		fmt.Println()
		return
	}

	worst, best := analyzer.RankFoods(ins.FoodCorrelations, n)

	fmt.Printf(" %s\n", output.StyleBold.Render("Highest itch"))
	foodTable(worst).Print()
	fmt.Println()
	fmt.Printf(" %s\n", output.StyleBold.Render("Lowest itch"))
	foodTable(best).Print()
	fmt.Println()
}

func foodTable(foods []analyzer.FoodRank) *output.Table {
	tbl := output.NewTable("Food", "Avg itch", "Records")
	for _, f := range foods {
		tbl.AddRow(
			f.Food,
			output.ItchStyle(float64(f.AvgItch)).Render(f.AvgItch.String()),
			fmt.Sprintf("%d", f.Count),
		)
	}
	return tbl
}

func renderCorrelations(ins analyzer.Insights) {
	fmt.Println(output.Section("Correlations"))
	fmt.Println()

	tbl := output.NewTable("Factor", "Compared", "Avg itch", "Difference")
	if s := ins.Sleep; s != nil {
		tbl.AddRow("Sleep", "good / poor", s.GoodSleep.String()+" / "+s.PoorSleep.String(), output.TrendArrow(float64(s.Difference), false))
	}
	if e := ins.Exercise; e != nil {
		tbl.AddRow("Exercise", "with / without", e.WithExercise.String()+" / "+e.NoExercise.String(), output.TrendArrow(float64(e.Difference), true))
	}
	if m := ins.Mood; m != nil {
		tbl.AddRow("Mood", "good / bad", m.GoodMood.String()+" / "+m.BadMood.String(), output.TrendArrow(float64(m.Difference), false))
	}

	findings := analyzer.Findings(ins)
	if len(findings) == 0 {
		fmt.Println(" Not enough contrast yet: each factor needs records on both sides.")
		fmt.Println()
		return
	}
	tbl.Print()
	fmt.Println()

	for _, f := range findings {
		marker := output.StyleSuccess.Render("•")
		if f.Concern {
			marker = output.StyleWarning.Render("!")
		}
		fmt.Printf(" %s %s\n", marker, f.Text)
	}
	fmt.Println()
}
