// Package status serves a read-only HTTP API over the running bot.
// It uses Echo v5 with JWT authentication and streams failure reports
// to websocket clients.
package status

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	echojwt "github.com/labstack/echo-jwt/v5"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"go.uber.org/zap"

	"interbot/pkg/config"
	"interbot/pkg/cron"
	"interbot/pkg/logger"
	"interbot/pkg/slash"
	"interbot/pkg/version"
)

// SessionInfo exposes live gateway figures.
type SessionInfo interface {
	Latency() time.Duration
	GuildCount() int
}

// JobLister lists scheduled jobs.
type JobLister interface {
	Jobs() []cron.Job
}

// MetricsSource returns a named set of counters.
type MetricsSource func() map[string]uint64

// Deps are the components the API reports on. Nil fields are omitted from
// responses.
type Deps struct {
	Registry *slash.Registry
	Stats    *slash.Stats
	Session  SessionInfo
	Jobs     JobLister
	Metrics  map[string]MetricsSource
}

// Server is the status HTTP server.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server
	cfg        config.StatusConfig
	log        *logger.Logger
	deps       Deps
	hub        *Hub
	startedAt  time.Time
}

// NewServer creates a status server. Routes are registered immediately;
// nothing listens until Start.
func NewServer(cfg config.StatusConfig, log *logger.Logger, hub *Hub, deps Deps) *Server {
	s := &Server{
		cfg:       cfg,
		log:       log,
		deps:      deps,
		hub:       hub,
		startedAt: time.Now(),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	e := echo.New()

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet},
	}))

	e.GET("/healthz", s.handleHealth)

	// Websocket auth uses the token query param.
	e.GET("/api/failures/ws", s.handleFailuresWS)

	api := e.Group("/api")
	api.Use(echojwt.WithConfig(echojwt.Config{
		KeyFunc: func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(s.cfg.JWTSecret), nil
		},
	}))

	api.GET("/status", s.handleStatus)
	api.GET("/commands", s.handleCommands)
	api.GET("/stats", s.handleStats)
	api.GET("/jobs", s.handleJobs)
	api.GET("/metrics", s.handleMetrics)

	s.echo = e
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// Start starts listening in the background.
func (s *Server) Start() error {
	if s.cfg.JWTSecret == "" {
		return fmt.Errorf("status API requires status.jwt_secret")
	}
	addr := s.Addr()
	s.log.Info("Status server starting", zap.String("addr", addr))

	// http.Server directly so fx controls shutdown.
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("Status server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Status server stopping")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(c *echo.Context) error {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	uptime := time.Since(s.startedAt)
	resp := map[string]interface{}{
		"version":            version.GetVersion(),
		"commit":             version.GetCommit(),
		"build_time":         version.GetBuild(),
		"discordgo":          version.Discordgo(),
		"os":                 runtime.GOOS,
		"arch":               runtime.GOARCH,
		"go_version":         runtime.Version(),
		"pid":                os.Getpid(),
		"uptime":             uptime.Round(time.Second).String(),
		"uptime_seconds":     int64(uptime.Seconds()),
		"memory_alloc_bytes": mem.Alloc,
		"memory_sys_bytes":   mem.Sys,
		"goroutines":         runtime.NumGoroutine(),
	}
	if s.deps.Registry != nil {
		resp["namespace"] = s.deps.Registry.Namespace()
		resp["command_count"] = s.deps.Registry.Len()
	}
	if s.deps.Session != nil {
		resp["guilds"] = s.deps.Session.GuildCount()
		resp["latency_ms"] = s.deps.Session.Latency().Milliseconds()
	}
	if s.hub != nil {
		resp["feed_clients"] = s.hub.Clients()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCommands(c *echo.Context) error {
	if s.deps.Registry == nil {
		return c.JSON(http.StatusOK, []*discordgo.ApplicationCommand{})
	}
	return c.JSON(http.StatusOK, s.deps.Registry.Definitions())
}

func (s *Server) handleStats(c *echo.Context) error {
	if s.deps.Stats == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "stats unavailable"})
	}
	return c.JSON(http.StatusOK, s.deps.Stats.Snapshot())
}

func (s *Server) handleJobs(c *echo.Context) error {
	if s.deps.Jobs == nil {
		return c.JSON(http.StatusOK, []cron.Job{})
	}
	return c.JSON(http.StatusOK, s.deps.Jobs.Jobs())
}

func (s *Server) handleMetrics(c *echo.Context) error {
	names := make([]string, 0, len(s.deps.Metrics))
	for name := range s.deps.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := make(map[string]map[string]uint64, len(names))
	for _, name := range names {
		if src := s.deps.Metrics[name]; src != nil {
			resp[name] = src()
		}
	}
	return c.JSON(http.StatusOK, resp)
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) handleFailuresWS(c *echo.Context) error {
	tokenStr := c.QueryParam("token")
	if tokenStr == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "token required"})
	}
	sub, err := ParseSubject(s.cfg.JWTSecret, tokenStr)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
	}
	if s.hub == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "failure feed disabled"})
	}

	conn, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.log.Error("Failure feed upgrade failed", zap.Error(err))
		return nil
	}
	defer conn.Close()

	s.log.Info("Failure feed client connected", zap.String("subject", sub))
	s.hub.serve(conn)
	s.log.Info("Failure feed client disconnected", zap.String("subject", sub))
	return nil
}
