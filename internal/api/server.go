// Package api exposes roster upload, PTO entry, schedule generation, and
// CSV export over HTTP.
package api

import (
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mfenwick/oncall-roster/pkg/core/engine"
	"github.com/mfenwick/oncall-roster/pkg/history"
)

// Server holds the staged inputs and the last generated result.
// Staging is plain in-memory state guarded by a mutex; every generate
// request constructs a fresh engine run from it.
type Server struct {
	store  history.Store
	logger *zap.Logger

	mu         sync.Mutex
	rosters    engine.Rosters
	pto        map[string]string
	lastResult *engine.Result

	// genMu serializes whole generation runs: Load followed by Save is a
	// read-modify-write against the history store.
	genMu sync.Mutex
}

// NewServer creates an API server backed by the given history store
func NewServer(store history.Store, logger *zap.Logger) *Server {
	return &Server{
		store:  store,
		logger: logger,
		pto:    make(map[string]string),
	}
}

// Router builds the HTTP routes
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/rosters/:tier", s.uploadRoster)
	router.POST("/pto", s.addPTO)
	router.POST("/generate", s.generate)
	router.GET("/export.csv", s.exportCSV)

	return router
}

// Run starts the HTTP server on the given address
func (s *Server) Run(addr string) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.Router().Run(addr)
}

func (s *Server) error(c *gin.Context, status int, err error) {
	s.logger.Warn("Request failed",
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
		zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error()})
}
