// Package server exposes lifeos over HTTP: the table API, the derived
// workspace views, the openclaw proxy and the WebSocket push channel.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"lifeos/internal/agent"
	"lifeos/internal/extract"
	"lifeos/internal/notify"
	"lifeos/internal/store"
	"lifeos/internal/tables"
	"lifeos/internal/workspace"
)

// Tables is the table façade used by the handlers.
type Tables interface {
	Handle(ctx context.Context, req tables.Request) tables.Response
	Tasks(ctx context.Context) tables.TaskView
	Streams(ctx context.Context) []store.Record
	UpcomingStreams(ctx context.Context, now time.Time) []store.Record
	CreateStream(ctx context.Context, fields map[string]any) (store.Record, error)
	UpdateStream(ctx context.Context, id string, fields map[string]any) (store.Record, error)
	DeleteStream(ctx context.Context, id string) error
	Snapshot(ctx context.Context) notify.Snapshot
}

// Workspace produces the derived read views.
type Workspace interface {
	Inventory(ctx context.Context) workspace.Inventory
	Calendar(ctx context.Context) extract.Calendar
	Memory(ctx context.Context) extract.Sections
	Projects(ctx context.Context) []workspace.Project
	Journal(ctx context.Context) []workspace.JournalEntry
	Analytics(ctx context.Context) workspace.Analytics
	Assets(ctx context.Context) map[string][]workspace.Asset
}

// Agent proxies the openclaw CLI.
type Agent interface {
	Status(ctx context.Context) (string, error)
	Jobs(ctx context.Context) (agent.Jobs, error)
	Spawn(ctx context.Context, task, agentID string) (agent.Spawned, error)
	Kill(ctx context.Context, target string) (string, error)
	Run(ctx context.Context, args ...string) (agent.Output, error)
}

// Deps are the components the server routes to.
type Deps struct {
	Tables    Tables
	Workspace Workspace
	Agent     Agent
	Hub       *notify.Hub
	Logger    *slog.Logger

	// StaticDir holds the built dashboard client. Empty disables static
	// serving.
	StaticDir string

	// Now is the clock for upcoming streams. Defaults to time.Now.
	Now func() time.Time
}

// Server is the lifeos HTTP server.
type Server struct {
	tables    Tables
	workspace Workspace
	agent     Agent
	hub       *notify.Hub
	log       *slog.Logger
	staticDir string
	now       func() time.Time

	router   *gin.Engine
	upgrader websocket.Upgrader
}

// New builds the server and its routes. Panics if a required dependency is
// missing.
func New(deps Deps) *Server {
	if deps.Tables == nil || deps.Workspace == nil || deps.Agent == nil || deps.Hub == nil {
		panic("server: missing dependency")
	}

	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	if deps.Now == nil {
		deps.Now = time.Now
	}

	router := gin.New()
	router.Use(requestLogger(deps.Logger), gin.Recovery(), cors.Default())

	s := &Server{
		tables:    deps.Tables,
		workspace: deps.Workspace,
		agent:     deps.Agent,
		hub:       deps.Hub,
		log:       deps.Logger,
		staticDir: deps.StaticDir,
		now:       deps.Now,
		router:    router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Same open policy as the REST routes.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	api := router.Group("/api")
	{
		api.GET("/tables/:table", s.handleListTable)
		api.POST("/tables/:table", s.handleCreateRecord)
		api.PATCH("/tables/:table/:id", s.handleUpdateRecord)
		api.DELETE("/tables/:table/:id", s.handleDeleteRecord)

		api.GET("/tasks", s.handleTasks)

		api.GET("/streams", s.handleStreams)
		api.GET("/streams/upcoming", s.handleUpcomingStreams)
		api.POST("/streams", s.handleCreateStream)
		api.PATCH("/streams/:id", s.handleUpdateStream)
		api.DELETE("/streams/:id", s.handleDeleteStream)

		api.GET("/inventory", s.handleInventory)
		api.GET("/journal", s.handleJournal)
		api.GET("/projects/detailed", s.handleProjects)
		api.GET("/memory/all", s.handleMemory)
		api.GET("/analytics", s.handleAnalytics)
		api.GET("/assets/library", s.handleAssets)
		api.GET("/content/calendar", s.handleCalendar)

		api.GET("/status", s.handleStatus)
		api.GET("/subagents", s.handleSubagents)
		api.POST("/subagents/spawn", s.handleSpawn)
		api.POST("/subagents/kill", s.handleKill)
	}

	router.GET("/ws", s.handleWS)
	router.NoRoute(s.handleStatic)

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// requestLogger logs one line per request.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}

		log.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
