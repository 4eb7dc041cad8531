package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/docflow-gin/internal/service"
	"github.com/mautops/docflow-gin/internal/utils"
)

// UserController 用户控制器
type UserController struct {
	userService service.UserService
}

// NewUserController 创建用户控制器
func NewUserController(userService service.UserService) *UserController {
	return &UserController{userService: userService}
}

// Get 获取用户详情
// @Summary      获取用户详情
// @Description  根据 ID 获取用户信息
// @Tags         用户管理
// @Accept       json
// @Produce      json
// @Param        id path string true "用户 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /users/{id} [get]
// @Security     BearerAuth
func (c *UserController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := utils.ValidateUserID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid user ID", err.Error())
		return
	}

	user, err := c.userService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			Error(ctx, http.StatusNotFound, "user not found", id)
			return
		}
		Error(ctx, http.StatusInternalServerError, "failed to get user", err.Error())
		return
	}

	Success(ctx, user)
}

// ListApprovers 列出审批人
// @Summary      列出审批人
// @Description  返回全部审批人,供提交文档时选择审批序列
// @Tags         用户管理
// @Accept       json
// @Produce      json
// @Success      200  {object}  Response
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /users/approvers [get]
// @Security     BearerAuth
func (c *UserController) ListApprovers(ctx *gin.Context) {
	users, err := c.userService.ListApprovers()
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to list approvers", err.Error())
		return
	}

	Success(ctx, users)
}

// List 列出全部用户
// @Summary      列出全部用户
// @Description  返回系统内全部用户,仅管理员可用
// @Tags         用户管理
// @Accept       json
// @Produce      json
// @Success      200  {object}  Response
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /users [get]
// @Security     BearerAuth
func (c *UserController) List(ctx *gin.Context) {
	users, err := c.userService.ListAll()
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to list users", err.Error())
		return
	}

	Success(ctx, users)
}
