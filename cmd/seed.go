/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/docflow-gin/internal/config"
	"github.com/mautops/docflow-gin/internal/database"
	"github.com/mautops/docflow-gin/internal/model"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

// seedUser 种子用户定义
type seedUser struct {
	Name     string
	Email    string
	Password string
	Role     model.UserRole
}

var seedUsers = []seedUser{
	{Name: "Admin User", Email: "admin@example.com", Password: "admin123", Role: model.RoleAdmin},
	{Name: "John Submitter", Email: "submitter1@example.com", Password: "submit123", Role: model.RoleSubmitter},
	{Name: "Jane Submitter", Email: "submitter2@example.com", Password: "submit123", Role: model.RoleSubmitter},
	{Name: "Alice Approver", Email: "approver1@example.com", Password: "approve123", Role: model.RoleApprover},
	{Name: "Bob Approver", Email: "approver2@example.com", Password: "approve123", Role: model.RoleApprover},
	{Name: "Charlie Approver", Email: "approver3@example.com", Password: "approve123", Role: model.RoleApprover},
}

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with test users",
	Long: `Seed the database with a fixed set of test users:
one admin, two submitters and three approvers.

Existing users are removed first, so only use this against
development databases.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. 连接数据库并迁移
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		defer func() {
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				sqlDB.Close()
			}
		}()
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		// 3. 清空已有用户
		if err := db.Exec("DELETE FROM users").Error; err != nil {
			return fmt.Errorf("failed to clear users: %w", err)
		}
		log.Println("Cleared existing users")

		// 4. 创建种子用户
		now := time.Now()
		for _, su := range seedUsers {
			hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password for %s: %w", su.Email, err)
			}
			user := &model.UserModel{
				ID:        uuid.New().String(),
				Name:      su.Name,
				Email:     su.Email,
				Password:  string(hash),
				Role:      su.Role,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := db.Create(user).Error; err != nil {
				return fmt.Errorf("failed to create user %s: %w", su.Email, err)
			}
			log.Printf("Created %s: %s", su.Role, su.Email)
		}

		log.Println("Seed completed successfully")
		log.Println("Test credentials:")
		log.Println("  Admin:     admin@example.com / admin123")
		log.Println("  Submitter: submitter1@example.com / submit123")
		log.Println("  Approver:  approver1@example.com / approve123")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	// 添加配置标志
	seedCmd.Flags().String("config", "", "Config file path (default: search in current directory, ./config, or $HOME/.docflow-gin)")
}
