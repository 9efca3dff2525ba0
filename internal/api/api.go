// Package api provides the gin-based HTTP control plane for the
// discovery engine: a single scan trigger plus a health check.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localcam/taposcan"
	"github.com/localcam/taposcan/internal/config"
	"github.com/localcam/taposcan/internal/publisher"
)

// Server is the HTTP control plane around camscan.Scan.
type Server struct {
	cfg       config.ServerConfig
	scanCfg   config.ScanConfig
	publisher *publisher.Publisher
	logger    *zap.SugaredLogger
	router    *gin.Engine
}

// New creates a new API server. pub may be nil if RabbitMQ publishing
// is disabled.
func New(cfg config.ServerConfig, scanCfg config.ScanConfig, pub *publisher.Publisher, logger *zap.SugaredLogger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:       cfg,
		scanCfg:   scanCfg,
		publisher: pub,
		logger:    logger,
		router:    gin.New(),
	}

	s.setupRoutes()
	return s
}

// Router returns the gin router.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	s.router.GET("/health", s.healthHandler)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/scan", s.scanHandler)
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		c.Next()

		s.logger.Debugw("request completed",
			"path", path,
			"status", c.Writer.Status(),
			"method", c.Request.Method,
		)
	}
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "taposcan",
	})
}

// scanHandler runs one full synchronous sweep and returns its result.
// The request blocks for the duration of the sweep; there is no
// background scan/status/stop lifecycle.
func (s *Server) scanHandler(c *gin.Context) {
	var req ScanRequest
	_ = c.ShouldBindJSON(&req)

	parallelism := req.MaxParallelism
	if parallelism <= 0 {
		parallelism = s.scanCfg.MaxParallelism
	}

	requestID := uuid.New().String()
	s.logger.Infow("scan requested", "request_id", requestID, "max_parallelism", parallelism)

	detections, diag, err := camscan.Scan(c.Request.Context(),
		camscan.WithMaxParallelism(parallelism),
		camscan.WithLogger(s.logger),
	)
	if err != nil {
		s.logger.Errorw("scan failed", "request_id", requestID, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"request_id": requestID,
			"error":      err.Error(),
		})
		return
	}

	resp := ScanResponse{
		RequestID:              requestID,
		SubnetsScanned:         diag.SubnetsScanned,
		EnumeratedHostCount:    diag.EnumeratedHostCount,
		ResponsiveHostCount:    diag.ResponsiveHostCount,
		ARPSeedCount:           diag.ARPSeedCount,
		ONVIFHintCount:         diag.ONVIFHintCount,
		TapoBroadcastHintCount: diag.TapoBroadcastHintCount,
		TapoUnicastHintCount:   diag.TapoUnicastHintCount,
	}
	for _, d := range detections {
		resp.Detections = append(resp.Detections, DetectionView{
			IP:         d.IP,
			Hostname:   d.Hostname,
			MAC:        d.MAC,
			OpenPorts:  d.OpenPorts,
			Confidence: d.Confidence,
			Reason:     d.Reason,
		})
	}

	if req.Publish && s.publisher != nil {
		resp.PublishFailures = s.publisher.PublishAll(detections)
	}

	c.JSON(http.StatusOK, resp)
}
