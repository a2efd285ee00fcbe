package server

import (
	"net/http"

	usagedomain "github.com/bundlewatch/bundlewatch/internal/usage/domain"
	"github.com/gin-gonic/gin"
)

// GetLatest serves the most recent active records.
func (s *Server) GetLatest(c *gin.Context) {
	var req usagedomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, usagedomain.ErrInvalidLimit)
		return
	}

	records, err := s.usagesvc.Latest(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// GetHistory serves a trailing window of active records, oldest first.
func (s *Server) GetHistory(c *gin.Context) {
	var req usagedomain.HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, usagedomain.ErrInvalidDays)
		return
	}

	records, err := s.usagesvc.History(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// GetStats serves the aggregate statistics object.
func (s *Server) GetStats(c *gin.Context) {
	stats, err := s.usagesvc.Stats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// TriggerCollect runs one collection tick on demand.
func (s *Server) TriggerCollect(c *gin.Context) {
	if err := s.collector.RunOnce(c.Request.Context()); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
