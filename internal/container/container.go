package container

import (
	"fmt"
	"time"

	"github.com/mautops/docflow-gin/internal/auth"
	"github.com/mautops/docflow-gin/internal/config"
	"github.com/mautops/docflow-gin/internal/database"
	"github.com/mautops/docflow-gin/internal/repository"
	"github.com/mautops/docflow-gin/internal/service"
	"github.com/mautops/docflow-gin/internal/websocket"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理所有应用依赖,包括数据库、仓储、服务和推送 Hub
type Container struct {
	db           *gorm.DB
	userRepo     repository.UserRepository
	docRepo      repository.DocumentRepository
	auditRepo    repository.AuditTrailRepository
	tokens       *auth.TokenManager
	hub          *websocket.Hub
	authService  service.AuthService
	userService  service.UserService
	docService   service.DocumentService
	queryService service.QueryService
	statsService service.StatisticsService
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. 初始化数据库(带重试机制)
	// 默认重试 3 次,初始间隔 1 秒,指数退避
	dial := database.Connect
	if config.IsProduction(cfg) {
		dial = database.ConnectProduction
	}
	db, err := database.ConnectWithRetry(dial, cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return NewContainerWithDB(cfg, db), nil
}

// NewContainerWithDB 用已有数据库连接构建容器,测试时传入 SQLite 内存库
func NewContainerWithDB(cfg *config.Config, db *gorm.DB) *Container {
	// 2. 初始化仓储
	userRepo := repository.NewUserRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	auditRepo := repository.NewAuditTrailRepository(db)

	// 3. 初始化 JWT 签发器
	tokens := auth.NewTokenManager(
		cfg.JWT.Secret,
		cfg.JWT.Issuer,
		time.Duration(cfg.JWT.TTLHours)*time.Hour,
	)

	// 4. 初始化 WebSocket Hub
	hub := websocket.NewHub()

	// 5. 初始化服务
	docService := service.NewDocumentService(docRepo, userRepo, hub)
	queryService := service.NewQueryService(docRepo, auditRepo)

	return &Container{
		db:           db,
		userRepo:     userRepo,
		docRepo:      docRepo,
		auditRepo:    auditRepo,
		tokens:       tokens,
		hub:          hub,
		authService:  service.NewAuthService(userRepo, tokens),
		userService:  service.NewUserService(userRepo),
		docService:   docService,
		queryService: queryService,
		statsService: service.NewStatisticsService(db),
	}
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// UserRepository 获取用户仓储
func (c *Container) UserRepository() repository.UserRepository {
	return c.userRepo
}

// DocumentRepository 获取文档仓储
func (c *Container) DocumentRepository() repository.DocumentRepository {
	return c.docRepo
}

// AuditTrailRepository 获取审计日志仓储
func (c *Container) AuditTrailRepository() repository.AuditTrailRepository {
	return c.auditRepo
}

// TokenManager 获取 JWT 签发器
func (c *Container) TokenManager() *auth.TokenManager {
	return c.tokens
}

// Hub 获取 WebSocket Hub
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// AuthService 获取认证服务
func (c *Container) AuthService() service.AuthService {
	return c.authService
}

// UserService 获取用户服务
func (c *Container) UserService() service.UserService {
	return c.userService
}

// DocumentService 获取文档服务
func (c *Container) DocumentService() service.DocumentService {
	return c.docService
}

// QueryService 获取查询服务
func (c *Container) QueryService() service.QueryService {
	return c.queryService
}

// StatisticsService 获取统计服务
func (c *Container) StatisticsService() service.StatisticsService {
	return c.statsService
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	return nil
}
