// internal/web/purge_handlers.go
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func (s *Server) setupPurgeRoutes() {
	api := s.router.Group("/api")
	{
		api.DELETE("/commands/history", s.purgeCommandHistory)
		api.POST("/snapshot/refresh", s.refreshSnapshot)
	}
}

// DELETE /api/commands/history?before=<RFC3339>
// Without before, the configured retention applies.
func (s *Server) purgeCommandHistory(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "command journal disabled"})
		return
	}

	cutoff := time.Now().Add(-s.config.Database.HistoryRetention)
	if beforeStr := c.Query("before"); beforeStr != "" {
		before, err := time.Parse(time.RFC3339, beforeStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "before must be RFC3339"})
			return
		}
		cutoff = before
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	deleted, err := s.store.DeleteHistoryBefore(ctx, cutoff)
	s.recordDatabaseOperation("purge_history", err)
	if err != nil {
		logrus.WithError(err).Error("Failed to purge command history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to purge command history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Command history purged successfully",
		"deleted":   deleted,
		"cutoff":    cutoff,
		"timestamp": time.Now(),
	})
}

// POST /api/snapshot/refresh forces a reparse of the status file.
func (s *Server) refreshSnapshot(c *gin.Context) {
	snap, err := s.client.Reload()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	summary := snap.Summary()
	s.broadcast(WSMessage{Type: "snapshot_refreshed", Data: summary})
	c.JSON(http.StatusOK, gin.H{"data": summary})
}
