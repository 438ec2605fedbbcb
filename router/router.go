package router

import (
	"chatdesk/api"
	"chatdesk/config"
	_ "chatdesk/docs"
	"chatdesk/middleware"
	"chatdesk/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Deps 路由依赖，由 main 组装
type Deps struct {
	Config     *config.Config
	Dispatcher api.Dispatcher
	Bots       api.BotStore
	Knowledge  api.KnowledgeStore
	History    api.InteractionStore
	Exports    api.ExportStore
	Settings   api.SettingsStore
	Stats      api.StatsSource
	Listers    api.ListerSource
	Monitor    api.SnapshotSource
	Hub        *api.MetricsHub
	Limiters   *ratelimit.Set
	RateLimits api.RateLimitPersister
}

// SetupRouter 设置路由
func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORS())

	exempt := cfg.RateLimit.ExemptPaths
	if len(exempt) == 0 {
		exempt = middleware.DefaultExemptPaths
	}
	limit := func(class string) gin.HandlerFunc {
		return middleware.RateLimit(d.Limiters, class, exempt)
	}

	// 运维接口，不限流
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws", d.Hub.Handle)

	chatHandler := api.NewChatHandler(d.Dispatcher)
	modelsHandler := api.NewModelsHandler(d.Listers)
	systemHandler := api.NewSystemHandler(d.Monitor)
	botHandler := api.NewBotHandler(d.Bots, cfg.Server.BaseURL)
	knowledgeHandler := api.NewKnowledgeHandler(d.Knowledge)
	analyticsHandler := api.NewAnalyticsHandler(d.History, d.Stats)
	exportHandler := api.NewExportHandler(d.Exports)
	adminHandler := api.NewAdminHandler(cfg, d.Settings, d.Limiters, d.RateLimits)

	apiGroup := r.Group("/api")

	// 聊天（公开，嵌入挂件直接调用）
	apiGroup.POST("/chat/:botId", limit(ratelimit.ClassChat), chatHandler.Chat)

	general := apiGroup.Group("", limit(ratelimit.ClassAPI))
	{
		general.GET("/models/gemini", modelsHandler.Gemini)
		general.GET("/models/openrouter", modelsHandler.OpenRouter)
		general.GET("/system/health", systemHandler.Health)
	}

	// 后台管理
	admin := apiGroup.Group("/admin", limit(ratelimit.ClassAdmin))
	{
		admin.POST("/login", adminHandler.AdminLogin)

		adminAuth := admin.Group("", middleware.JWTAuth())
		{
			adminAuth.GET("/settings/:key", adminHandler.GetSetting)
			adminAuth.PUT("/settings/:key", adminHandler.PutSetting)
			adminAuth.GET("/rate-limits", adminHandler.GetRateLimits)
			adminAuth.PUT("/rate-limits", adminHandler.PutRateLimits)
		}
	}

	// 机器人、知识库、统计需要管理员登录；先限流再鉴权
	bots := apiGroup.Group("/bots", limit(ratelimit.ClassAPI), middleware.JWTAuth())
	{
		bots.GET("", botHandler.List)
		bots.POST("", botHandler.Create)
		bots.GET("/:id", botHandler.Get)
		bots.PATCH("/:id", botHandler.Update)
		bots.DELETE("/:id", botHandler.Delete)
		bots.GET("/:id/embed", botHandler.Embed)

		bots.GET("/:id/knowledge", knowledgeHandler.List)

		bots.GET("/:id/analytics", analyticsHandler.Stats)
		bots.GET("/:id/interactions", analyticsHandler.Interactions)
		bots.GET("/:id/interactions/export", analyticsHandler.Export)
		bots.GET("/:id/interactions/export/csv", exportHandler.ExportCSV)
		bots.GET("/:id/interactions/export/json", exportHandler.ExportJSON)
	}

	uploads := apiGroup.Group("/bots", limit(ratelimit.ClassUpload), middleware.JWTAuth())
	{
		uploads.POST("/:id/knowledge", knowledgeHandler.Create)
		uploads.DELETE("/:id/knowledge/:entryId", knowledgeHandler.Delete)
	}

	return r
}
