package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/docflow-gin/internal/auth"
	"github.com/mautops/docflow-gin/internal/model"
	"github.com/mautops/docflow-gin/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// 认证相关错误
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRole        = errors.New("invalid user role")
)

// AuthService 认证服务接口
// 负责注册、登录、令牌续期,并签发携带角色声明的 JWT
type AuthService interface {
	Register(req *RegisterRequest) (*model.UserModel, error)
	Login(req *LoginRequest) (*LoginResult, error)
	Refresh(userID string) (*LoginResult, error)
}

// RegisterRequest 注册请求
// @Description 用户注册的请求参数
type RegisterRequest struct {
	Name     string `json:"name" example:"张三" binding:"required"`                 // 用户名
	Email    string `json:"email" example:"user@example.com" binding:"required,email"` // 邮箱
	Password string `json:"password" example:"secret123" binding:"required,min=6"`     // 密码
	Role     string `json:"role" example:"Submitter" binding:"required"`               // 角色: Admin/Submitter/Approver
}

// LoginRequest 登录请求
// @Description 用户登录的请求参数
type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com" binding:"required,email"` // 邮箱
	Password string `json:"password" example:"secret123" binding:"required"`           // 密码
}

// LoginResult 登录结果
type LoginResult struct {
	Token string           `json:"token"`
	User  *model.UserModel `json:"user"`
}

// authService 认证服务实现
type authService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenManager) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Register 注册用户,密码使用 bcrypt 哈希存储
func (s *authService) Register(req *RegisterRequest) (*model.UserModel, error) {
	role := model.UserRole(req.Role)
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	existing, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.UserModel{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hash),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userRepo.Save(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login 校验凭证并签发 JWT
// 查无此人和密码错误返回同一个错误,不泄露邮箱是否已注册
func (s *authService) Login(req *LoginRequest) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user}, nil
}

// Refresh 为已认证用户续期令牌。
// 用户信息从库里重读,续期后的 JWT 携带最新的角色声明,
// 用户被删除时续期失败,旧令牌自然过期
func (s *authService) Refresh(userID string) (*LoginResult, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user}, nil
}
