package repository

import (
	"errors"

	"github.com/mautops/docflow-gin/internal/model"
	"gorm.io/gorm"
)

// UserRepository 用户仓储接口
// FindByID 同时充当工作流的审批人目录(workflow.ApproverDirectory)
type UserRepository interface {
	Save(user *model.UserModel) error
	FindByID(id string) (*model.UserModel, error)
	FindByEmail(email string) (*model.UserModel, error)
	FindByRole(role model.UserRole) ([]*model.UserModel, error)
	FindAll() ([]*model.UserModel, error)
}

// userRepository 用户仓储实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Save 保存用户,写入前校验模型完整性
func (r *userRepository) Save(user *model.UserModel) error {
	if err := user.Validate(); err != nil {
		return err
	}
	return r.db.Save(user).Error
}

// FindByID 根据 ID 查找用户,不存在时返回 (nil, nil)
func (r *userRepository) FindByID(id string) (*model.UserModel, error) {
	var user model.UserModel
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail 根据邮箱查找用户,不存在时返回 (nil, nil)
func (r *userRepository) FindByEmail(email string) (*model.UserModel, error) {
	var user model.UserModel
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindByRole 查找指定角色的所有用户
func (r *userRepository) FindByRole(role model.UserRole) ([]*model.UserModel, error) {
	var users []*model.UserModel
	err := r.db.Where("role = ?", role).Order("created_at ASC").Find(&users).Error
	return users, err
}

// FindAll 查找所有用户
func (r *userRepository) FindAll() ([]*model.UserModel, error) {
	var users []*model.UserModel
	err := r.db.Order("created_at ASC").Find(&users).Error
	return users, err
}
