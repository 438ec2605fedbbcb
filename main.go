package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chatdesk/api"
	"chatdesk/config"
	"chatdesk/database"
	"chatdesk/llm"
	"chatdesk/logging"
	"chatdesk/middleware"
	"chatdesk/ratelimit"
	"chatdesk/router"
	"chatdesk/service"
	"chatdesk/store"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// @title ChatDesk API
// @version 1.0
// @description 机器人管理平台：聊天分发、限流、知识库、使用统计与系统健康
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const version = "v1.0.0"

var (
	configFile  string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "外部配置文件路径（可选）")
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（简写）")
	flag.StringVar(&port, "port", "", "监听端口，如: 8080 或 :8080")
	flag.StringVar(&port, "p", "", "监听端口（简写）")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.BoolVar(&showVersion, "v", false, "显示版本信息（简写）")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Println("chatdesk", version)
		return
	}

	// .env 不存在时忽略
	_ = godotenv.Load()

	// 加载配置（内置配置 + 可选的外部配置覆盖 + 环境变量）
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("加载配置失败")
	}
	logging.Setup(cfg.Log)

	// 命令行参数覆盖端口配置
	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
		log.Info().Str("port", port).Msg("命令行指定端口")
	}
	config.PrintConfig(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("服务异常退出")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	middleware.InitJWT(cfg)

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("数据库初始化失败: %w", err)
	}
	st := store.New(db)

	registry := newRegistry(cfg)
	dispatcher := service.NewChatDispatcher(st, registry, service.NewCredentialResolver(st, cfg.Providers), cfg.Chat)

	rateLimits := service.NewRateLimitSettings(st, cfg.RateLimit)
	rules, err := rateLimits.Load(ctx)
	if err != nil {
		return fmt.Errorf("加载限流规则失败: %w", err)
	}
	limiters := newLimiters(ctx, cfg, rules)

	alerter := service.NewAlertMailer(service.NewEmailService(&cfg.Email), cfg.Alert)
	var notifier service.Alerter
	if alerter != nil {
		notifier = alerter
	}
	monitor := service.NewHealthMonitor(st, service.GopsutilSampler{}, notifier, cfg.Health)

	hub := api.NewMetricsHub(monitor, cfg.Health.Interval)
	go hub.Run(ctx)

	r := router.SetupRouter(router.Deps{
		Config:     cfg,
		Dispatcher: dispatcher,
		Bots:       st,
		Knowledge:  st,
		History:    st,
		Exports:    st,
		Settings:   st,
		Stats:      service.NewAnalytics(st),
		Listers:    registry,
		Monitor:    monitor,
		Hub:        hub,
		Limiters:   limiters,
		RateLimits: rateLimits,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.Port).
			Str("swagger", fmt.Sprintf("http://localhost%s/swagger/index.html", cfg.Server.Port)).
			Msg("chatdesk 已启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// 等待进行中的请求（包括调用记录写入）完成
	log.Info().Dur("timeout", cfg.Server.ShutdownTimeout).Msg("正在关闭服务")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭服务失败: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("服务已关闭")
	return nil
}

// newRegistry 注册三个服务商适配器
func newRegistry(cfg *config.Config) *llm.Registry {
	fallback, _ := llm.ParseProvider(cfg.Chat.FallbackProvider)
	registry := llm.NewRegistry(fallback)

	p := cfg.Providers
	registry.Register(llm.ProviderAnthropic, llm.NewAnthropicClient(llm.AnthropicConfig{
		BaseURL:      p.Anthropic.BaseURL,
		DefaultModel: p.Anthropic.DefaultModel,
	}))
	registry.Register(llm.ProviderGoogle, llm.NewGeminiClient(llm.GeminiConfig{
		APIKey:       p.Google.APIKey,
		BaseURL:      p.Google.BaseURL,
		DefaultModel: p.Google.DefaultModel,
	}))
	registry.Register(llm.ProviderOpenRouter, llm.NewOpenRouterClient(llm.OpenRouterConfig{
		APIKey:       p.OpenRouter.APIKey,
		BaseURL:      p.OpenRouter.BaseURL,
		DefaultModel: p.OpenRouter.DefaultModel,
		Referer:      p.OpenRouter.Referer,
		Title:        p.OpenRouter.Title,
	}))
	return registry
}

// newLimiters 配置了 Redis 且可连接时多实例共享计数，否则使用进程内计数
func newLimiters(ctx context.Context, cfg *config.Config, rules map[string]ratelimit.Rule) *ratelimit.Set {
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		err := rdb.Ping(pingCtx).Err()
		if err == nil {
			log.Info().Str("addr", cfg.Redis.Addr).Msg("限流使用 Redis")
			return ratelimit.NewRedisSet(rdb, cfg.Redis.KeyPrefix, rules)
		}
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis 不可用，限流改用进程内计数")
		_ = rdb.Close()
	}

	set := ratelimit.NewMemorySet(rules)
	go set.RunJanitor(ctx, time.Minute)
	return set
}
