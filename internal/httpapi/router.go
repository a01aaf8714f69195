package httpapi

import (
	"net/http"

	"mahalla-taskboard/pkg/cache"
	"mahalla-taskboard/pkg/config"
	"mahalla-taskboard/pkg/health"
	"mahalla-taskboard/pkg/middleware"
	"mahalla-taskboard/services/broadcast"
	"mahalla-taskboard/services/stats"
	"mahalla-taskboard/services/task"
	"mahalla-taskboard/services/territory"
	"mahalla-taskboard/services/user"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

var Module = fx.Module("httpapi",
	fx.Provide(
		NewResponseCache,
		NewHandler,
		NewRouter,
		asHTTPHandler,
	),
)

func NewResponseCache(cfg *config.Config) *cache.ResponseCache {
	return cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries)
}

// Handler carries the service dependencies of the HTTP API.
type Handler struct {
	tasks       *task.Service
	stats       *stats.Service
	territories *territory.Service
	users       *user.Service
	broadcasts  *broadcast.Service
	cache       *cache.ResponseCache
}

type HandlerParams struct {
	fx.In
	Tasks       *task.Service
	Stats       *stats.Service
	Territories *territory.Service
	Users       *user.Service
	Broadcasts  *broadcast.Service
	Cache       *cache.ResponseCache
}

func NewHandler(p HandlerParams) *Handler {
	return &Handler{
		tasks:       p.Tasks,
		stats:       p.Stats,
		territories: p.Territories,
		users:       p.Users,
		broadcasts:  p.Broadcasts,
		cache:       p.Cache,
	}
}

func NewRouter(cfg *config.Config, h *Handler, healthSvc health.HealthService) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Error())

	r.GET("/healthz", healthSvc.Liveness)
	r.GET("/readyz", healthSvc.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/tasks", h.createTask)
		api.GET("/tasks", h.listTasks)
		api.GET("/tasks/:id", h.getTask)
		api.POST("/tasks/:id/status", h.appendStatus)
		api.POST("/tasks/:id/submissions", h.submitReport)
		api.POST("/tasks/:id/grade", h.gradeTask)
		api.GET("/tasks/:id/stats", h.getTaskStats)

		api.GET("/statistics/:period", h.getStatistics)

		api.POST("/regions", h.createRegion)
		api.GET("/regions", h.listRegions)
		api.POST("/districts", h.createDistrict)
		api.GET("/districts", h.listDistricts)
		api.POST("/mahallas", h.createMahalla)
		api.GET("/mahallas", h.listMahallas)
		api.GET("/mahallas/:id", h.getMahalla)
		api.GET("/mahallas/:id/statistics", h.getMahallaStats)

		api.POST("/users/verify", h.verifyUser)
		api.GET("/users/:id", h.getUser)
		api.GET("/users/by-telegram/:telegram_id", h.getUserByTelegram)
		api.GET("/users/:id/stats", h.getUserStats)

		api.POST("/broadcasts", h.sendBroadcast)
		api.GET("/broadcasts", h.listBroadcasts)
		api.POST("/broadcasts/:id/status", h.updateBroadcastStatus)
	}

	return r
}

func asHTTPHandler(e *gin.Engine) http.Handler {
	return e
}
