// Package server exposes the tool dispatcher over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/blackwell-systems/dermwatch/internal/mcp"
	"github.com/blackwell-systems/dermwatch/internal/session"
)

// DefaultShutdownTimeout bounds graceful shutdown in Run.
const DefaultShutdownTimeout = 10 * time.Second

const sessionKey = "session"

// Config configures the HTTP server.
type Config struct {
	Addr            string
	AllowOrigins    []string
	ShutdownTimeout time.Duration
}

// Server routes HTTP requests to a Dispatcher. Callers authenticate with a
// bearer token issued by the session Issuer.
type Server struct {
	cfg        Config
	dispatcher *mcp.Dispatcher
	issuer     *session.Issuer
	engine     *gin.Engine
	log        zerolog.Logger
}

// New builds the router. issuer may be nil, in which case every request is
// unauthenticated.
func New(d *mcp.Dispatcher, issuer *session.Issuer, cfg Config, log zerolog.Logger) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	s := &Server{cfg: cfg, dispatcher: d, issuer: issuer, log: log}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	if len(cfg.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Authorization", "Content-Type"},
		}))
	}

	r.GET("/healthcheck", healthCheck)
	api := r.Group("/api")
	api.Use(s.authenticate())
	{
		api.GET("/tools", s.listTools)
		api.POST("/tools/:name", s.callTool)
	}

	s.engine = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// authenticate resolves the bearer token into a session. A missing or
// invalid token leaves the request unauthenticated; the tools decide
// whether they need a user.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token != "" && s.issuer != nil {
			sess, err := s.issuer.Verify(token)
			if err != nil {
				s.log.Debug().Err(err).Msg("rejected bearer token")
			} else {
				c.Set(sessionKey, sess)
			}
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func sessionFrom(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}

func healthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) listTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": s.dispatcher.Tools()})
}

func (s *Server) callTool(c *gin.Context) {
	args, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_kind": mcp.KindInvalidInput})
		return
	}

	payload, ok := s.dispatcher.Call(c.Request.Context(), sessionFrom(c), c.Param("name"), args)
	status := http.StatusOK
	if !ok {
		if env, isEnv := payload.(mcp.ErrorEnvelope); isEnv {
			status = statusFor(env.ErrorKind)
		} else {
			status = http.StatusInternalServerError
		}
	}
	c.JSON(status, payload)
}

// statusFor maps an error kind to an HTTP status. The body is the same
// envelope the stdio transport returns.
func statusFor(kind mcp.ErrorKind) int {
	switch kind {
	case mcp.KindNotAuthenticated:
		return http.StatusUnauthorized
	case mcp.KindUnknownTool:
		return http.StatusNotFound
	case mcp.KindInvalidInput:
		return http.StatusBadRequest
	case mcp.KindInsufficientData:
		return http.StatusUnprocessableEntity
	case mcp.KindQuotaExceeded:
		return http.StatusTooManyRequests
	case mcp.KindServiceError, mcp.KindEmptyResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		var ev *zerolog.Event
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		default:
			ev = log.Info()
		}
		ev = ev.Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Int64("duration_ms", time.Since(start).Milliseconds())
		if sess := sessionFrom(c); sess != nil {
			ev = ev.Str("user_id", sess.UserID)
		}
		ev.Msg("HTTP request")
	}
}
