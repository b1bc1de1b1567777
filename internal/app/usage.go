package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/dermwatch/internal/mcp"
	"github.com/blackwell-systems/dermwatch/internal/output"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show today's AI analysis usage",
	Args:  cobra.NoArgs,
	RunE:  runUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, args []string) error {
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
	payload, printed, err := rt.call(ctx, sess, "get_usage", map[string]any{})
	if err != nil || printed {
		return err
	}

	res := payload.(mcp.UsageResult)
	fmt.Printf("%s  %s\n", output.QuotaBar(res.Used, res.Limit), output.StyleMuted.Render(fmt.Sprintf("%d remaining today (UTC)", res.Remaining)))
	return nil
}
