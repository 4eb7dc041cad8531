package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/docflow-gin/internal/auth"
	"github.com/mautops/docflow-gin/internal/service"
)

// AuthController 认证控制器
type AuthController struct {
	authService service.AuthService
}

// NewAuthController 创建认证控制器
func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Register 注册用户
// @Summary      注册用户
// @Description  注册新用户并指定角色
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        request body service.RegisterRequest true "注册信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req service.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	user, err := c.authService.Register(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			Error(ctx, http.StatusConflict, "email already registered", "")
		case errors.Is(err, service.ErrInvalidRole):
			Error(ctx, http.StatusBadRequest, "invalid user role", req.Role)
		default:
			Error(ctx, http.StatusInternalServerError, "failed to register user", err.Error())
		}
		return
	}

	Success(ctx, user)
}

// Login 用户登录
// @Summary      用户登录
// @Description  校验邮箱密码并签发 JWT
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        request body service.LoginRequest true "登录信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req service.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	result, err := c.authService.Login(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			Error(ctx, http.StatusUnauthorized, "invalid email or password", "")
			return
		}
		Error(ctx, http.StatusInternalServerError, "failed to login", err.Error())
		return
	}

	Success(ctx, result)
}

// Refresh 续期令牌
// @Summary      续期令牌
// @Description  为当前登录用户签发新的 JWT,角色声明取自最新的用户数据
// @Tags         认证
// @Accept       json
// @Produce      json
// @Success      200  {object}  Response
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/refresh [post]
// @Security     BearerAuth
func (c *AuthController) Refresh(ctx *gin.Context) {
	result, err := c.authService.Refresh(auth.CallerID(ctx))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			Error(ctx, http.StatusUnauthorized, "user no longer exists", "")
			return
		}
		Error(ctx, http.StatusInternalServerError, "failed to refresh token", err.Error())
		return
	}

	Success(ctx, result)
}

// Logout 用户登出
// @Summary      用户登出
// @Description  登出接口。JWT 无状态,服务端不保留会话,客户端丢弃令牌即完成登出
// @Tags         认证
// @Accept       json
// @Produce      json
// @Success      200  {object}  Response
// @Router       /auth/logout [post]
// @Security     BearerAuth
func (c *AuthController) Logout(ctx *gin.Context) {
	Success(ctx, nil)
}
