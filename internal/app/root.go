// Package app contains the Cobra command tree for dermwatch.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "dermwatch",
	Short: "Dermatitis health journal with correlation insights and AI analysis",
	Long: `dermwatch keeps a daily journal of diet, exercise, sleep and skin
symptoms, finds which of them coincide with worse itching, and runs a
limited number of AI analyses per day over the last 30 days of records.

The same operations are exposed to AI agents as tools, over MCP stdio
('dermwatch mcp') or HTTP ('dermwatch serve').

The user is taken from DERMWATCH_SESSION_TOKEN (a token from
'dermwatch token') or DERMWATCH_USER_ID.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("dermwatch", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  record    Log a daily health record")
		fmt.Println("  history   List past records")
		fmt.Println("  stats     Show correlations between triggers and itching")
		fmt.Println("  analyze   Run an AI analysis of recent records")
		fmt.Println("  usage     Show today's AI analysis usage")
		fmt.Println("  mcp       Serve the agent tools over MCP stdio")
		fmt.Println("  serve     Serve the agent tools over HTTP")
		fmt.Println("  token     Issue a session token")
		return nil
	},
}

// Execute is the entry point called from main. Interrupts cancel the
// command context so servers shut down cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/dermwatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output raw JSON payloads")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
}
