package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/blackwell-systems/dermwatch/internal/mcp"
	"github.com/blackwell-systems/dermwatch/internal/output"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Log a daily health record",
	Long: `Log diet, exercise, sleep and symptoms for a day. --itch and --mood are
required; everything else is optional. Several records may share a date.

Examples:
  dermwatch record --itch 6 --mood bad --food milk --food bread --meal dinner
  dermwatch record --itch 3 --mood good --sleep-hours 7.5 --sleep-quality 4
  dermwatch record --itch 5 --mood neutral --exercise running --exercise-minutes 30 --intensity medium`,
	Args: cobra.NoArgs,
	RunE: runRecord,
}

// recordFlags maps CLI flag names to add_record argument names.
var recordFlags = []struct {
	flag, arg string
}{
	{"date", "date"},
	{"meal", "meal_type"},
	{"food", "food_items"},
	{"food-notes", "food_notes"},
	{"exercise", "exercise_type"},
	{"exercise-minutes", "exercise_duration"},
	{"intensity", "exercise_intensity"},
	{"sleep-hours", "sleep_duration"},
	{"sleep-quality", "sleep_quality"},
	{"sleep-notes", "sleep_notes"},
	{"itch", "itch_level"},
	{"area", "affected_areas"},
	{"mood", "mood"},
	{"notes", "symptom_notes"},
	{"voice", "voice_input"},
}

func init() {
	defineRecordFlags(recordCmd.Flags())
	_ = recordCmd.MarkFlagRequired("itch")
	_ = recordCmd.MarkFlagRequired("mood")
	rootCmd.AddCommand(recordCmd)
}

func defineRecordFlags(f *pflag.FlagSet) {
	f.String("date", "", "Record date YYYY-MM-DD (default: today, UTC)")
	f.String("meal", "", "Meal type: breakfast, lunch, dinner or snack")
	f.StringSlice("food", nil, "Food eaten (repeat or comma-separate)")
	f.String("food-notes", "", "Diet notes")
	f.String("exercise", "", "Exercise type, e.g. running")
	f.Int("exercise-minutes", 0, "Exercise duration in minutes")
	f.String("intensity", "", "Exercise intensity: low, medium or high")
	f.Float64("sleep-hours", 0, "Hours slept")
	f.Int("sleep-quality", 0, "Sleep quality 1 (poor) to 5 (good)")
	f.String("sleep-notes", "", "Sleep notes")
	f.Int("itch", 0, "Itch level 1 (mild) to 10 (severe)")
	f.StringSlice("area", nil, "Affected body area (repeat or comma-separate)")
	f.String("mood", "", "Mood: good, neutral or bad")
	f.String("notes", "", "Symptom notes")
	f.String("voice", "", "Dictated transcript, stored as-is")
}

// recordArgs builds add_record arguments from the flags the user set.
// Unset flags are omitted so the tool applies its own defaults.
func recordArgs(flags *pflag.FlagSet) (map[string]any, error) {
	args := make(map[string]any)
	for _, rf := range recordFlags {
		fl := flags.Lookup(rf.flag)
		if fl == nil || !fl.Changed {
			continue
		}
		var (
			v   any
			err error
		)
		switch fl.Value.Type() {
		case "int":
			v, err = flags.GetInt(rf.flag)
		case "float64":
			v, err = flags.GetFloat64(rf.flag)
		case "stringSlice":
			v, err = flags.GetStringSlice(rf.flag)
		default:
			v, err = flags.GetString(rf.flag)
		}
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", rf.flag, err)
		}
		args[rf.arg] = v
	}
	return args, nil
}

func runRecord(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	toolArgs, err := recordArgs(cmd.Flags())
	if err != nil {
		return err
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(ctx) }()

	sess, err := rt.requireSession()
	if err != nil {
		return err
	}
	payload, printed, err := rt.call(ctx, sess, "add_record", toolArgs)
	if err != nil || printed {
		return err
	}

	res := payload.(mcp.AddRecordResult)
	r := res.Record
	fmt.Printf("%s %s  itch %s  mood %s\n",
		output.StyleSuccess.Render("Recorded"),
		r.Date,
		output.ItchStyle(float64(r.ItchLevel)).Render(fmt.Sprintf("%d/10", r.ItchLevel)),
		r.Mood)
	if len(r.FoodItems) > 0 {
		fmt.Printf("  %s %s\n", output.StyleMuted.Render("foods:"), strings.Join(r.FoodItems, ", "))
	}
	for _, w := range res.Warnings {
		fmt.Printf("  %s %s\n", output.StyleWarning.Render("warning:"), w)
	}
	return nil
}
