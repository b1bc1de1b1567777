package app

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/dermwatch/internal/logx"
	"github.com/blackwell-systems/dermwatch/internal/server"
	"github.com/blackwell-systems/dermwatch/internal/session"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the health-journal tools over HTTP",
	Long: `Start an HTTP server exposing the agent tools:

  GET  /healthcheck
  GET  /api/tools
  POST /api/tools/{name}   body: tool arguments as a JSON object

Requests authenticate with "Authorization: Bearer <token>", using tokens
from 'dermwatch token' signed with DERMWATCH_JWT_SECRET.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(ctx) }()

	var issuer *session.Issuer
	if rt.secrets.JWTSecret != "" {
		if issuer, err = rt.issuer(0); err != nil {
			return err
		}
	} else {
		rt.log.Warn().Msg("DERMWATCH_JWT_SECRET is not set; every request is unauthenticated")
	}

	if !flagVerbose {
		gin.SetMode(gin.ReleaseMode)
	}

	addr := rt.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := server.New(rt.dispatcher, issuer, server.Config{
		Addr:            addr,
		AllowOrigins:    rt.cfg.Server.AllowOrigins,
		ShutdownTimeout: rt.cfg.Server.ShutdownTimeout,
	}, logx.For("http"))
	return srv.Run(ctx)
}
