package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"lifeos/internal/agent"
	"lifeos/internal/store"
	"lifeos/internal/tables"
)

// ---- tables ----

func (s *Server) handleListTable(c *gin.Context) {
	s.respondTable(c, s.tables.Handle(c.Request.Context(), tables.Request{
		Op:    tables.OpList,
		Table: c.Param("table"),
	}), func(data any) any { return gin.H{"data": data} })
}

func (s *Server) handleCreateRecord(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}

	s.respondTable(c, s.tables.Handle(c.Request.Context(), tables.Request{
		Op:     tables.OpCreate,
		Table:  c.Param("table"),
		Fields: fields,
	}), nil)
}

func (s *Server) handleUpdateRecord(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}

	s.respondTable(c, s.tables.Handle(c.Request.Context(), tables.Request{
		Op:     tables.OpUpdate,
		Table:  c.Param("table"),
		ID:     c.Param("id"),
		Fields: fields,
	}), nil)
}

func (s *Server) handleDeleteRecord(c *gin.Context) {
	s.respondTable(c, s.tables.Handle(c.Request.Context(), tables.Request{
		Op:    tables.OpDelete,
		Table: c.Param("table"),
		ID:    c.Param("id"),
	}), func(any) any { return gin.H{"success": true} })
}

// respondTable maps a façade outcome to a status code. wrap shapes the body
// of successful responses; nil sends the data as is.
func (s *Server) respondTable(c *gin.Context, resp tables.Response, wrap func(any) any) {
	switch resp.Outcome {
	case tables.OutcomeOK:
		body := resp.Data
		if wrap != nil {
			body = wrap(resp.Data)
		}

		c.JSON(http.StatusOK, body)
	case tables.OutcomeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": resp.Message})
	case tables.OutcomeInvalid:
		c.JSON(http.StatusBadRequest, gin.H{"error": resp.Message})
	default:
		s.log.WarnContext(c.Request.Context(), "table request failed", "path", c.Request.URL.Path, "error", resp.Message)
		c.JSON(http.StatusInternalServerError, gin.H{"error": resp.Message})
	}
}

// bindFields decodes a JSON object body. An empty body is an empty object.
// On failure it writes a 400 and returns false.
func bindFields(c *gin.Context) (map[string]any, bool) {
	var fields map[string]any

	err := c.ShouldBindJSON(&fields)
	if err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})

		return nil, false
	}

	if fields == nil {
		fields = map[string]any{}
	}

	return fields, true
}

func (s *Server) handleTasks(c *gin.Context) {
	c.JSON(http.StatusOK, s.tables.Tasks(c.Request.Context()))
}

// ---- streams ----

func (s *Server) handleStreams(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"streams": s.tables.Streams(c.Request.Context())})
}

func (s *Server) handleUpcomingStreams(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"streams": s.tables.UpcomingStreams(c.Request.Context(), s.now())})
}

func (s *Server) handleCreateStream(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}

	rec, err := s.tables.CreateStream(c.Request.Context(), fields)
	if err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleUpdateStream(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}

	rec, err := s.tables.UpdateStream(c.Request.Context(), c.Param("id"), fields)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stream not found"})

		return
	}

	if err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDeleteStream(c *gin.Context) {
	if err := s.tables.DeleteStream(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ---- workspace views ----

func (s *Server) handleInventory(c *gin.Context) {
	c.JSON(http.StatusOK, s.workspace.Inventory(c.Request.Context()))
}

func (s *Server) handleJournal(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"entries": s.workspace.Journal(c.Request.Context())})
}

func (s *Server) handleProjects(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"projects": s.workspace.Projects(c.Request.Context())})
}

func (s *Server) handleMemory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sections": s.workspace.Memory(c.Request.Context())})
}

func (s *Server) handleAnalytics(c *gin.Context) {
	c.JSON(http.StatusOK, s.workspace.Analytics(c.Request.Context()))
}

func (s *Server) handleAssets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": s.workspace.Assets(c.Request.Context())})
}

func (s *Server) handleCalendar(c *gin.Context) {
	c.JSON(http.StatusOK, s.workspace.Calendar(c.Request.Context()))
}

// ---- openclaw ----

func (s *Server) handleStatus(c *gin.Context) {
	status, err := s.agent.Status(c.Request.Context())
	if err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (s *Server) handleSubagents(c *gin.Context) {
	jobs, err := s.agent.Jobs(c.Request.Context())
	if err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusOK, jobs)
}

type spawnRequest struct {
	Task    string `json:"task"`
	AgentID string `json:"agentId"`
}

func (s *Server) handleSpawn(c *gin.Context) {
	var req spawnRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})

		return
	}

	spawned, err := s.agent.Spawn(c.Request.Context(), req.Task, req.AgentID)
	if err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusOK, spawned)
}

type killRequest struct {
	Target string `json:"target"`
}

func (s *Server) handleKill(c *gin.Context) {
	var req killRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})

		return
	}

	result, err := s.agent.Kill(c.Request.Context(), req.Target)
	if err != nil {
		s.fail(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// fail writes err as JSON. Input errors are 400, everything else 500.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, agent.ErrEmptyTask), errors.Is(err, agent.ErrEmptyTarget),
		errors.Is(err, store.ErrInvalidTable):
		status = http.StatusBadRequest
	default:
		s.log.WarnContext(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
