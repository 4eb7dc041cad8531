package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mautops/docflow-gin/internal/config"
	"github.com/mautops/docflow-gin/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// BuildDSN 构建 PostgreSQL DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// GetPoolConfig 获取连接池配置
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 600,  // 10 分钟
	}
}

// GetProductionPoolConfig 获取生产环境连接池配置
func GetProductionPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    20,
		MaxOpenConns:    200,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 300,  // 生产环境缩短空闲时间
	}
}

// resolvePoolConfig 合并配置值和默认值
func resolvePoolConfig(cfg config.DatabaseConfig, defaults *PoolConfig) *PoolConfig {
	if cfg.MaxIdleConns <= 0 && cfg.MaxOpenConns <= 0 {
		return defaults
	}

	pool := &PoolConfig{
		MaxIdleConns:    cfg.MaxIdleConns,
		MaxOpenConns:    cfg.MaxOpenConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}
	if pool.MaxIdleConns == 0 {
		pool.MaxIdleConns = defaults.MaxIdleConns
	}
	if pool.MaxOpenConns == 0 {
		pool.MaxOpenConns = defaults.MaxOpenConns
	}
	if pool.ConnMaxLifetime == 0 {
		pool.ConnMaxLifetime = defaults.ConnMaxLifetime
	}
	if pool.ConnMaxIdleTime == 0 {
		pool.ConnMaxIdleTime = defaults.ConnMaxIdleTime
	}
	return pool
}

// connect 连接数据库并应用连接池配置
func connect(cfg config.DatabaseConfig, defaults *PoolConfig) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	pool := resolvePoolConfig(cfg, defaults)
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// Connect 连接数据库
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return connect(cfg, GetPoolConfig())
}

// ConnectProduction 连接数据库(生产环境连接池配置)
func ConnectProduction(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return connect(cfg, GetProductionPoolConfig())
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	// 检测数据库类型
	dialector := db.Dialector.Name()

	// SQLite 对部分 DDL 支持有限,手动建表
	// GORM SQLite dialector 的名称可能是 "sqlite" 或 "sqlite3"
	if dialector == "sqlite" || dialector == "sqlite3" {
		if err := createSQLiteTables(db); err != nil {
			return fmt.Errorf("failed to create SQLite tables: %w", err)
		}
	} else {
		// PostgreSQL 等其他数据库使用 AutoMigrate
		if err := db.AutoMigrate(
			&model.UserModel{},
			&model.DocumentModel{},
			&model.StageModel{},
			&model.AuditEntryModel{},
		); err != nil {
			return fmt.Errorf("failed to auto migrate: %w", err)
		}
	}

	// 创建索引
	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createSQLiteTables 为 SQLite 手动创建表
func createSQLiteTables(db *gorm.DB) error {
	// 创建 users 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password VARCHAR(255) NOT NULL,
			role VARCHAR(32) NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	// 创建 documents 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id VARCHAR(64) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			file_link TEXT,
			status VARCHAR(32) NOT NULL,
			submitter_id VARCHAR(64) NOT NULL,
			current_stage_number INTEGER NOT NULL,
			stage_count INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			completed_at DATETIME
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}

	// 创建 stages 表 (组合主键 document_id, stage_number)
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS stages (
			document_id VARCHAR(64) NOT NULL,
			stage_number INTEGER NOT NULL,
			approver_id VARCHAR(64) NOT NULL,
			status VARCHAR(32) NOT NULL,
			comment TEXT,
			action_at DATETIME,
			PRIMARY KEY (document_id, stage_number)
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create stages table: %w", err)
	}

	// 创建 audit_trail 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_trail (
			id VARCHAR(64) PRIMARY KEY,
			document_id VARCHAR(64) NOT NULL,
			seq INTEGER NOT NULL,
			actor_id VARCHAR(64) NOT NULL,
			action VARCHAR(64) NOT NULL,
			details TEXT,
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create audit_trail table: %w", err)
	}

	return nil
}

// CreateIndexes 创建数据库索引
func CreateIndexes(db *gorm.DB) error {
	// users 表索引
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email)").Error; err != nil {
		return fmt.Errorf("failed to create idx_users_email: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)").Error; err != nil {
		return fmt.Errorf("failed to create idx_users_role: %w", err)
	}

	// documents 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_documents_status: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_documents_submitter_id ON documents(submitter_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_documents_submitter_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_documents_created_at: %w", err)
	}

	// stages 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_stages_approver_id ON stages(approver_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_stages_approver_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_stages_status ON stages(status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_stages_status: %w", err)
	}

	// audit_trail 表索引
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_audit_document_seq ON audit_trail(document_id, seq)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_document_seq: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_trail(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_created_at: %w", err)
	}

	return nil
}

// ConnectWithRetry 带重试的数据库连接
// dial 传 Connect 或 ConnectProduction,由调用方按环境选择
func ConnectWithRetry(dial func(config.DatabaseConfig) (*gorm.DB, error), cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = dial(cfg)
		if err == nil {
			return db, nil
		}

		// 如果不是最后一次重试,等待后重试
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2 // 指数退避
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return false
	}

	return true
}
