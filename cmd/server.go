/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mautops/docflow-gin/internal/api"
	"github.com/mautops/docflow-gin/internal/auth"
	"github.com/mautops/docflow-gin/internal/config"
	"github.com/mautops/docflow-gin/internal/container"
	"github.com/mautops/docflow-gin/internal/metrics"
	"github.com/mautops/docflow-gin/internal/model"
	"github.com/mautops/docflow-gin/internal/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// applyLogConfig 应用日志配置到请求日志器和全局 logger
func applyLogConfig(cfg *config.LogConfig) {
	if logger, err := api.NewLoggerFromConfig(cfg); err != nil {
		logrus.WithError(err).Warn("Failed to build logger from config, keeping current one")
	} else {
		api.UseLogger(logger)
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the Docflow Gin API server.
The server will listen on the configured host and port,
and provide REST API interfaces for document approval workflows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		applyLogConfig(&cfg.Log)

		// 配置文件热重载: 运行中调整日志级别无需重启
		if configPath != "" {
			watcher := config.NewWatcher(cfg, configPath)
			watcher.OnChange(func(newCfg *config.Config) {
				applyLogConfig(&newCfg.Log)
			})
			if err := watcher.Start(); err != nil {
				logrus.WithError(err).Warn("Failed to start config watcher")
			} else {
				defer watcher.Stop()
			}
		}

		// 分布式追踪(可选)
		if cfg.Tracing.Enabled {
			if err := api.InitTracing("docflow-gin", cfg.Tracing.JaegerEndpoint); err != nil {
				logrus.WithError(err).Warn("Failed to initialize tracing")
			} else {
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := api.ShutdownTracing(shutdownCtx); err != nil {
						logrus.WithError(err).Warn("Failed to shut down tracing")
					}
				}()
			}
		}

		// 2. 初始化容器
		ctr, err := container.NewContainer(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		// 3. 启动 WebSocket Hub 和指标收集器
		go ctr.Hub().Run()
		collector := metrics.NewCollector(ctr.DB(), 15*time.Second)
		collector.Start()
		defer collector.Stop()

		// 4. 设置路由
		router := setupRouter(ctr, cfg)

		// 5. 启动服务器
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		// 启动服务器(在 goroutine 中)
		go func() {
			log.Printf("Server starting on %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("Shutting down server...")

		// 优雅关闭
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}

		log.Println("Server exited")
		return nil
	},
}

// setupRouter 设置路由并绑定控制器
func setupRouter(ctr *container.Container, cfg *config.Config) *gin.Engine {
	if config.IsProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// 通用中间件
	router.Use(api.RequestIDMiddleware())
	router.Use(api.RequestLogMiddleware())
	router.Use(api.ErrorHandlerMiddleware())
	router.Use(api.SecurityHeadersMiddleware())
	router.Use(api.CORSMiddleware(cfg.CORS))
	router.Use(api.RateLimitMiddleware(100, 200))
	router.Use(api.TracingMiddleware())

	// 控制器
	authController := api.NewAuthController(ctr.AuthService())
	userController := api.NewUserController(ctr.UserService())
	documentController := api.NewDocumentController(ctr.DocumentService(), ctr.QueryService())
	dashboardController := api.NewDashboardController(ctr.StatisticsService())
	healthController := api.NewHealthController(ctr.DB())

	// 健康检查与指标端点
	router.GET("/health", healthController.Check)
	router.GET("/metrics", api.MetricsHandler)

	// WebSocket 路由
	router.GET("/ws", websocket.WebSocketHandler(ctr.Hub(), ctr.TokenManager()))

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		// 认证路由(无需 token)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authController.Register)
			authGroup.POST("/login", authController.Login)
		}

		// 需要认证的路由
		authed := v1.Group("")
		authed.Use(auth.Middleware(ctr.TokenManager()))
		{
			// 令牌续期与登出需要有效令牌
			authed.POST("/auth/refresh", authController.Refresh)
			authed.POST("/auth/logout", authController.Logout)

			// 用户管理路由
			users := authed.Group("/users")
			{
				users.GET("", auth.RequireRoles(model.RoleAdmin), userController.List)
				users.GET("/approvers", userController.ListApprovers)
				users.GET("/:id", userController.Get)
			}

			// 文档管理路由
			documents := authed.Group("/documents")
			{
				// 具体路径路由必须在 /:id 之前注册,Gin 会优先匹配更长的路径
				documents.GET("/pending", auth.RequireRoles(model.RoleApprover, model.RoleAdmin), documentController.Pending)

				documents.POST("", auth.RequireRoles(model.RoleSubmitter, model.RoleAdmin), documentController.Create)
				documents.GET("", documentController.List)
				documents.GET("/:id", documentController.Get)
				documents.POST("/:id/approve", auth.RequireRoles(model.RoleApprover, model.RoleAdmin), documentController.Approve)
				documents.POST("/:id/reject", auth.RequireRoles(model.RoleApprover, model.RoleAdmin), documentController.Reject)
				documents.GET("/:id/audit", documentController.AuditTrail)
			}

			// 仪表盘路由
			authed.GET("/dashboard/stats", dashboardController.Stats)
		}
	}

	// 自定义 NoRoute 处理器,返回 JSON 格式的 404
	// 必须在所有业务路由注册之后设置,确保未匹配的路由返回 JSON 而不是 HTML
	router.NoRoute(func(c *gin.Context) {
		api.Error(c, http.StatusNotFound, "route not found", "the requested route does not exist")
	})

	return router
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// 服务器配置标志
	serverCmd.Flags().String("config", "", "Config file path (default: config.yaml)")
	serverCmd.Flags().String("host", "0.0.0.0", "Server host")
	serverCmd.Flags().Int("port", 8080, "Server port")
}

// LoadConfig 加载配置
func LoadConfig(configPath string) (*config.Config, error) {
	return config.Load(configPath)
}
