package model

import (
	"errors"
	"time"
)

// UserRole 用户角色
type UserRole string

const (
	RoleAdmin     UserRole = "Admin"     // 管理员,可查看全部文档
	RoleSubmitter UserRole = "Submitter" // 提交人,仅可查看自己提交的文档
	RoleApprover  UserRole = "Approver"  // 审批人,仅可查看自己持有阶段的文档
)

// Valid 校验角色取值
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleSubmitter, RoleApprover:
		return true
	}
	return false
}

// UserModel 用户数据模型
type UserModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"` // bcrypt 哈希
	Role      UserRole  `gorm:"type:varchar(32);not null;index" json:"role"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// Validate 验证用户模型
func (um *UserModel) Validate() error {
	if um.ID == "" {
		return errors.New("user ID is required")
	}
	if um.Email == "" {
		return errors.New("email is required")
	}
	if um.Password == "" {
		return errors.New("password is required")
	}
	if !um.Role.Valid() {
		return errors.New("user role is invalid")
	}
	return nil
}
