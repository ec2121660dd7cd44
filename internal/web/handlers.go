// internal/web/handlers.go
package web

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"nagwatch/internal/command"
	"nagwatch/internal/database"
	"nagwatch/internal/status"
)

// CommandRequest is one command in a POST /api/commands body.
type CommandRequest struct {
	Name   string   `json:"name" binding:"required"`
	Params []string `json:"params"`
}

type SubmitRequest struct {
	Commands []CommandRequest `json:"commands" binding:"required"`
}

// HostResponse adds the host's services to a hoststatus record.
type HostResponse struct {
	status.Host
	Services []status.Service `json:"services"`
}

// snapshot answers with 503 and the load error when the status file cannot
// be read or parsed.
func (s *Server) snapshot(c *gin.Context) (*status.Snapshot, bool) {
	snap, err := s.client.Snapshot()
	if err != nil {
		logrus.WithError(err).Warn("Status snapshot unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return nil, false
	}
	return snap, true
}

// GET /api/info
func (s *Server) getInfo(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snap.Info()})
}

// GET /api/program
func (s *Server) getProgram(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snap.Program()})
}

// GET /api/hosts?match=<regexp>
func (s *Server) getHosts(c *gin.Context) {
	var matcher status.Matcher = status.MatchAll
	if pattern := c.Query("match"); pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match pattern: " + err.Error()})
			return
		}
		matcher = re
	}

	snap, ok := s.snapshot(c)
	if !ok {
		return
	}

	hosts := snap.HostsMatching(matcher)
	c.JSON(http.StatusOK, gin.H{
		"data":  hosts,
		"count": len(hosts),
	})
}

// GET /api/hosts/:name
func (s *Server) getHost(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}

	name := c.Param("name")
	host, found := snap.Host(name)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Host not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": HostResponse{
		Host:     host,
		Services: snap.Services(name),
	}})
}

// GET /api/hosts/:name/services
func (s *Server) getHostServices(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}

	services := snap.Services(c.Param("name"))
	c.JSON(http.StatusOK, gin.H{
		"data":  services,
		"count": len(services),
	})
}

// GET /api/contacts
func (s *Server) getContacts(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}

	contacts, err := snap.ContactRecords()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  contacts,
		"count": len(contacts),
	})
}

// POST /api/commands
func (s *Server) submitCommands(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmds := make([]command.Command, 0, len(req.Commands))
	for _, r := range req.Commands {
		cmd, err := command.Parse(r.Name, r.Params)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cmds = append(cmds, cmd)
	}
	if len(cmds) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no commands given"})
		return
	}

	at, submitErr := s.client.SubmitCommands(cmds)

	records := database.RecordsFor(cmds, at, submitErr)
	if s.store != nil {
		err := s.store.RecordCommands(c.Request.Context(), records)
		s.recordDatabaseOperation("record_commands", err)
		if err != nil {
			logrus.WithError(err).Error("Failed to journal submitted commands")
		}
	}

	s.broadcast(WSMessage{Type: "commands_submitted", Data: records})

	if submitErr != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": submitErr.Error(),
			"data":  records,
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"data":  records,
		"count": len(records),
	})
}

// GET /api/commands/history?host=&name=&since=&limit=
func (s *Server) getCommandHistory(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "command journal disabled"})
		return
	}

	filters := database.HistoryFilters{
		HostName: c.Query("host"),
		Name:     c.Query("name"),
		Limit:    100,
	}
	if sinceStr := c.Query("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		filters.Since = &since
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		filters.Limit = limit
	}

	history, err := s.store.GetCommandHistory(c.Request.Context(), filters)
	s.recordDatabaseOperation("get_history", err)
	if err != nil {
		logrus.WithError(err).Error("Failed to get command history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get command history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  history,
		"count": len(history),
	})
}

// GET /api/commands/:id
func (s *Server) getCommand(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "command journal disabled"})
		return
	}

	rec, err := s.store.GetCommand(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Command not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get command"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rec})
}

// GET /api/stats
func (s *Server) getStats(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}

	resp := gin.H{"snapshot": snap.Summary()}
	if _, loadedAt, err := s.client.Cached(); err == nil {
		resp["loaded_at"] = loadedAt
	}
	if s.store != nil {
		if stats, err := s.store.GetDatabaseStats(c.Request.Context()); err == nil {
			resp["journal"] = stats
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GET /api/health reports whether a snapshot has ever been loaded, without
// forcing a reload.
func (s *Server) healthCheck(c *gin.Context) {
	resp := gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"version":   Version,
	}

	if _, loadedAt, err := s.client.Cached(); err != nil {
		resp["status"] = "degraded"
		resp["snapshot"] = err.Error()
	} else {
		resp["snapshot_loaded_at"] = loadedAt
		resp["snapshot_age_seconds"] = time.Since(loadedAt).Seconds()
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) recordDatabaseOperation(op string, err error) {
	if s.metrics != nil {
		s.metrics.RecordDatabaseOperation(op, err)
	}
}
