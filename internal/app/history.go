package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/dermwatch/internal/mcp"
	"github.com/blackwell-systems/dermwatch/internal/output"
)

var (
	historyDays  int
	historyFrom  string
	historyTo    string
	historyToday bool
)

// allTimeStart is the lower bound used for "--days 0".
const allTimeStart = "1970-01-01"

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past records",
	Long: `List records newest first. By default shows the last 30 days.

Examples:
  dermwatch history
  dermwatch history --days 7
  dermwatch history --days 0          # all records
  dermwatch history --from 2025-01-01 --to 2025-01-31
  dermwatch history --today`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyDays, "days", 30, "Days to look back (0 for all records)")
	historyCmd.Flags().StringVar(&historyFrom, "from", "", "Start date YYYY-MM-DD (overrides --days)")
	historyCmd.Flags().StringVar(&historyTo, "to", "", "End date YYYY-MM-DD (default: today)")
	historyCmd.Flags().BoolVar(&historyToday, "today", false, "Show today's records in time order")
	rootCmd.AddCommand(historyCmd)
}

// historyArgs builds search_records arguments from the flags.
func historyArgs(days int, from, to string) map[string]any {
	args := map[string]any{}
	switch {
	case from != "":
		args["start_date"] = from
	case days <= 0:
		args["start_date"] = allTimeStart
	default:
		args["days"] = days
	}
	if to != "" {
		args["end_date"] = to
	}
	return args
}

func runHistory(cmd *cobra.Command, args []string) error {
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

	if historyToday {
		payload, printed, err := rt.call(ctx, sess, "get_today_records", map[string]any{})
		if err != nil || printed {
			return err
		}
		res := payload.(mcp.TodayRecordsResult)
		fmt.Println(output.Section("Today " + res.Date))
		renderRecords(res.Records, false)
		return nil
	}

	payload, printed, err := rt.call(ctx, sess, "search_records", historyArgs(historyDays, historyFrom, historyTo))
	if err != nil || printed {
		return err
	}
	res := payload.(mcp.SearchRecordsResult)
	title := fmt.Sprintf("History %s to %s", res.DateRange.From, res.DateRange.To)
	if res.DateRange.From == allTimeStart {
		title = "History (all records)"
	}
	fmt.Println(output.Section(title))
	renderRecords(res.Records, true)
	return nil
}

func renderRecords(records []mcp.RecordView, showDate bool) {
	fmt.Println()
	if len(records) == 0 {
		fmt.Println(" No records. Use 'dermwatch record' to add one.")
		return
	}

	tbl := output.NewTable("Date", "Time", "Itch", "Mood", "Foods", "Sleep", "Exercise")
	for _, r := range records {
		date := r.Date
		if !showDate {
			date = ""
		}
		tbl.AddRow(
			date,
			localClock(r.Time),
			output.ItchStyle(float64(r.ItchLevel)).Render(fmt.Sprintf("%d", r.ItchLevel)),
			r.Mood,
			strings.Join(r.FoodItems, ", "),
			sleepSummary(r),
			exerciseSummary(r),
		)
	}
	tbl.Print()
	fmt.Printf("\n %s\n", output.StyleMuted.Render(fmt.Sprintf("%d records", len(records))))
}

func localClock(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ""
	}
	return t.Local().Format("15:04")
}

func sleepSummary(r mcp.RecordView) string {
	var parts []string
	if r.SleepDuration != nil {
		parts = append(parts, fmt.Sprintf("%.1fh", *r.SleepDuration))
	}
	if r.SleepQuality > 0 {
		parts = append(parts, fmt.Sprintf("q%d", r.SleepQuality))
	}
	return strings.Join(parts, " ")
}

func exerciseSummary(r mcp.RecordView) string {
	if r.ExerciseType == "" {
		return ""
	}
	s := r.ExerciseType
	if r.ExerciseDuration != nil {
		s += fmt.Sprintf(" %dm", *r.ExerciseDuration)
	}
	return s
}
