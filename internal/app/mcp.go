package app

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/dermwatch/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server exposing the health-journal tools",
	Long: `Start a Model Context Protocol stdio server that an AI agent can call.
The server exposes six tools:

  search_records       Records in a date range, newest first
  get_today_records    Records for one day in time order
  get_statistics       Correlations over the last 30 days
  trigger_ai_analysis  AI analysis, limited per day
  get_usage            Today's AI analysis usage
  add_record           Log a new record

Every call runs as the user from DERMWATCH_SESSION_TOKEN or
DERMWATCH_USER_ID. Without either, the tools answer NotAuthenticated.

Example MCP configuration:
  {"mcpServers":{"dermwatch":{"command":"dermwatch","args":["mcp"],
    "env":{"DERMWATCH_USER_ID":"<uuid>"}}}}`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(ctx) }()

	sess, err := rt.session()
	if err != nil {
		return err
	}
	if sess == nil {
		rt.log.Warn().Msg("no user configured; tools will answer NotAuthenticated")
	}

	srv := mcp.NewServer(rt.dispatcher, sess, appVersion)
	return srv.Run(ctx, os.Stdin, os.Stdout)
}
