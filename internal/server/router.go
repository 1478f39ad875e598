package server

import (
	"github.com/abenov/mediavault/internal/asset"
	"github.com/abenov/mediavault/internal/config"
	"github.com/abenov/mediavault/internal/logger"
	"github.com/abenov/mediavault/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config       config.Config
	DB           *pgxpool.Pool
	ObjectStore  *minio.Client
	Broker       *redis.Client
	AssetService *asset.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(logger.Middleware())
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)
	metrics.InitMetrics()
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	if deps.AssetService != nil {
		api := router.Group("/")
		asset.RegisterRoutes(api, deps.AssetService)
	}

	return router
}
