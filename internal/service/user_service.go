package service

import (
	"errors"

	"github.com/mautops/docflow-gin/internal/model"
	"github.com/mautops/docflow-gin/internal/repository"
)

// ErrUserNotFound 用户不存在
var ErrUserNotFound = errors.New("user not found")

// UserService 用户服务接口
type UserService interface {
	Get(id string) (*model.UserModel, error)
	ListApprovers() ([]*model.UserModel, error)
	ListAll() ([]*model.UserModel, error)
}

// userService 用户服务实现
type userService struct {
	userRepo repository.UserRepository
}

// NewUserService 创建用户服务
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// Get 获取用户详情
func (s *userService) Get(id string) (*model.UserModel, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ListApprovers 列出全部审批人,供提交人创建文档时选择审批序列
func (s *userService) ListApprovers() ([]*model.UserModel, error) {
	return s.userRepo.FindByRole(model.RoleApprover)
}

// ListAll 列出全部用户
func (s *userService) ListAll() ([]*model.UserModel, error) {
	return s.userRepo.FindAll()
}
