package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mautops/docflow-gin/internal/model"
)

// 上下文键
const (
	ContextUserID = "user_id"
	ContextName   = "name"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// Middleware JWT 认证中间件,把 {id, role} 解析进请求上下文
func Middleware(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "missing authorization header",
			})
			c.Abort()
			return
		}

		// 移除 "Bearer " 前缀
		if len(token) > 7 && strings.EqualFold(token[:7], "Bearer ") {
			token = token[7:]
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "invalid token",
				"detail":  err.Error(),
			})
			c.Abort()
			return
		}

		// 将用户信息存储到上下文
		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextName, claims.Name)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// RequireRoles 角色守卫中间件,必须挂在 Middleware 之后
func RequireRoles(roles ...model.UserRole) gin.HandlerFunc {
	allowed := make(map[model.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := model.UserRole(c.GetString(ContextRole))
		if _, ok := allowed[role]; !ok {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "insufficient role",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CallerID 从上下文获取调用方用户 ID
func CallerID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// CallerRole 从上下文获取调用方角色
func CallerRole(c *gin.Context) model.UserRole {
	return model.UserRole(c.GetString(ContextRole))
}
