package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"transom/internal/asrworker"
	"transom/internal/batchengine"
	"transom/internal/config"
	"transom/internal/engine"
	"transom/internal/jobengine"
	"transom/internal/logging"
	"transom/internal/registry"
)

// Deps bundles everything the transport needs to drive the core.
type Deps struct {
	Config      *config.Config
	Registry    *registry.Registry
	Queue       *engine.Queue
	JobRunner   *jobengine.Runner
	BatchRunner *batchengine.Runner
	ASR         *asrworker.Supervisor
	HTTPClient  *http.Client
	TTL         time.Duration
	Logger      *slog.Logger
}

// Server renders the job/batch lifecycle core over HTTP.
type Server struct {
	deps   Deps
	logger *slog.Logger
}

// NewRouter constructs a gin.Engine with every v2 route registered.
func NewRouter(deps Deps) *gin.Engine {
	if deps.HTTPClient == nil {
		deps.HTTPClient = http.DefaultClient
	}
	s := &Server{deps: deps, logger: logging.NewComponentLogger(deps.Logger, "httpapi")}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	v2 := r.Group("/v2")
	{
		v2.POST("/jobs", s.createJob)
		v2.GET("/jobs", s.listJobs)
		v2.GET("/jobs/:id", s.getJob)
		v2.GET("/jobs/:id/artifacts/:name", s.downloadJobArtifact)

		v2.POST("/batches", s.createBatch)
		v2.GET("/batches", s.listBatches)
		v2.GET("/batches/:id", s.getBatch)
		v2.GET("/batches/:id/items/:idx/artifacts/:name", s.downloadBatchItemArtifact)
		v2.POST("/batches/:id/cancel", s.cancelBatch)
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			logging.String("event_type", "http_request"),
			logging.String("method", c.Request.Method),
			logging.String("path", c.FullPath()),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(start)))
	}
}
