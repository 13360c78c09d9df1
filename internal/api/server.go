// Package api exposes the administrative HTTP surface: health, staging
// status and a manual ETL trigger.
package api

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BartekS5/opinions-etl/internal/scheduler"
	"github.com/BartekS5/opinions-etl/pkg/logger"
)

const (
	readTimeout   = 10 * time.Second
	writeTimeout  = 10 * time.Minute
	idleTimeout   = 120 * time.Second
	recentBatches = 5
)

type BatchLister interface {
	List() ([]string, error)
}

type Trigger interface {
	RunOnce(ctx context.Context) (scheduler.Cycle, error)
	LastRun() (scheduler.Cycle, bool)
}

// Handler serves the admin endpoints. Probe, when set, reports analytical
// store health.
type Handler struct {
	Staging BatchLister
	Trigger Trigger
	Probe   func(ctx context.Context) bool
}

func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.Health)
	etl := router.Group("/api/etl")
	etl.GET("/status", h.Status)
	etl.POST("/run", h.Run)
	return router
}

func (h *Handler) Health(c *gin.Context) {
	if h.Probe != nil && !h.Probe(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "analyticalStore": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
}

func (h *Handler) Status(c *gin.Context) {
	batches, err := h.Staging.List()
	if err != nil {
		logger.Error("Failed to list staged batches: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list staged batches"})
		return
	}

	recent := make([]string, 0, recentBatches)
	for i := len(batches) - 1; i >= 0 && len(recent) < recentBatches; i-- {
		recent = append(recent, filepath.Base(batches[i]))
	}

	body := gin.H{
		"stagedBatches": len(batches),
		"recentBatches": recent,
		"lastRun":       nil,
	}
	if last, ok := h.Trigger.LastRun(); ok {
		body["lastRun"] = last
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) Run(c *gin.Context) {
	logger.Info("Manual ETL run requested from %s", c.ClientIP())
	cycle, err := h.Trigger.RunOnce(c.Request.Context())
	if errors.Is(err, scheduler.ErrBusy) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cycle)
}

// Server wraps the router in an http.Server.
type Server struct {
	server *http.Server
}

func NewServer(addr string, h *Handler) *Server {
	gin.SetMode(gin.ReleaseMode)
	return &Server{server: &http.Server{
		Addr:         addr,
		Handler:      NewRouter(h),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}}
}

// Start serves until Shutdown; it returns nil after a graceful shutdown.
func (s *Server) Start() error {
	logger.Info("Admin API listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
