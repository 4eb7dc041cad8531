package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mautops/docflow-gin/internal/api"
	"github.com/mautops/docflow-gin/internal/auth"
	"github.com/mautops/docflow-gin/internal/config"
	"github.com/mautops/docflow-gin/internal/container"
	"github.com/mautops/docflow-gin/internal/database"
	"github.com/mautops/docflow-gin/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv API 集成测试环境
type testEnv struct {
	router *gin.Engine
	ctr    *container.Container
}

// setupTestEnv 用内存数据库搭建完整的 API 栈
func setupTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := config.Default()
	cfg.JWT.Secret = "test-secret"
	ctr := container.NewContainerWithDB(cfg, db)

	documentController := api.NewDocumentController(ctr.DocumentService(), ctr.QueryService())
	dashboardController := api.NewDashboardController(ctr.StatisticsService())
	authController := api.NewAuthController(ctr.AuthService())

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.POST("/auth/register", authController.Register)
	v1.POST("/auth/login", authController.Login)

	authed := v1.Group("")
	authed.Use(auth.Middleware(ctr.TokenManager()))
	{
		authed.POST("/auth/refresh", authController.Refresh)
		authed.POST("/auth/logout", authController.Logout)
		authed.GET("/documents/pending", documentController.Pending)
		authed.POST("/documents", documentController.Create)
		authed.GET("/documents", documentController.List)
		authed.GET("/documents/:id", documentController.Get)
		authed.POST("/documents/:id/approve", documentController.Approve)
		authed.POST("/documents/:id/reject", documentController.Reject)
		authed.GET("/documents/:id/audit", documentController.AuditTrail)
		authed.GET("/dashboard/stats", dashboardController.Stats)
	}

	return &testEnv{router: router, ctr: ctr}
}

// seedUser 写入用户并返回其 Bearer token
func (e *testEnv) seedUser(t *testing.T, id string, role model.UserRole) string {
	now := time.Now()
	user := &model.UserModel{
		ID:        id,
		Name:      id,
		Email:     id + "@example.com",
		Password:  "$2a$10$hashhashhashhashhashha",
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.ctr.UserRepository().Save(user))

	token, err := e.ctr.TokenManager().Issue(user)
	require.NoError(t, err)
	return token
}

// do 发送带认证的 JSON 请求
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decodeData 解码统一响应中的 data 字段
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	var resp struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

// TestDocumentAPI_FullFlow 测试通过 HTTP 接口走完完整审批流程
func TestDocumentAPI_FullFlow(t *testing.T) {
	env := setupTestEnv(t)

	submitterToken := env.seedUser(t, "submitter-001", model.RoleSubmitter)
	approver1Token := env.seedUser(t, "approver-001", model.RoleApprover)
	approver2Token := env.seedUser(t, "approver-002", model.RoleApprover)

	// 创建文档
	w := env.do(t, http.MethodPost, "/api/v1/documents", submitterToken, gin.H{
		"title":        "采购合同",
		"description":  "年度采购合同审批",
		"file_link":    "https://files.example.com/contract.pdf",
		"approver_ids": []string{"approver-001", "approver-002"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var doc model.DocumentModel
	decodeData(t, w, &doc)
	assert.Equal(t, model.DocumentPending, doc.Status)
	assert.Equal(t, "submitter-001", doc.SubmitterID)
	assert.Equal(t, 1, doc.ProgressCompleted)
	assert.Equal(t, 2, doc.ProgressTotal)

	// 第一审批人的待办队列包含该文档
	w = env.do(t, http.MethodGet, "/api/v1/documents/pending", approver1Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pending []model.DocumentModel
	decodeData(t, w, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, doc.ID, pending[0].ID)

	// 第一阶段通过
	w = env.do(t, http.MethodPost, "/api/v1/documents/"+doc.ID+"/approve", approver1Token, gin.H{"comment": "同意"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated model.DocumentModel
	decodeData(t, w, &updated)
	assert.Equal(t, model.DocumentInProgress, updated.Status)
	assert.Equal(t, 2, updated.CurrentStageNumber)

	// 第二阶段通过,进入终态
	w = env.do(t, http.MethodPost, "/api/v1/documents/"+doc.ID+"/approve", approver2Token, gin.H{"comment": "批准"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &updated)
	assert.Equal(t, model.DocumentApproved, updated.Status)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, 2, updated.ProgressCompleted)
	assert.Equal(t, 2, updated.ProgressTotal)

	// 审计日志完整
	w = env.do(t, http.MethodGet, "/api/v1/documents/"+doc.ID+"/audit", submitterToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []model.AuditEntryModel
	decodeData(t, w, &entries)
	require.Len(t, entries, 3)
	assert.Equal(t, model.ActionDocumentCreated, entries[0].Action)
	assert.Equal(t, "Stage 2 approved. Comment: 批准", entries[2].Details)

	// 仪表盘统计
	w = env.do(t, http.MethodGet, "/api/v1/dashboard/stats", submitterToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]interface{}
	decodeData(t, w, &stats)
	assert.EqualValues(t, 1, stats["total_documents"])
	assert.EqualValues(t, 1, stats["approved_count"])
}

// TestDocumentAPI_ErrorMapping 测试工作流错误到 HTTP 状态码的映射
func TestDocumentAPI_ErrorMapping(t *testing.T) {
	env := setupTestEnv(t)

	submitterToken := env.seedUser(t, "submitter-001", model.RoleSubmitter)
	approver1Token := env.seedUser(t, "approver-001", model.RoleApprover)
	approver2Token := env.seedUser(t, "approver-002", model.RoleApprover)

	// 未认证: 401
	w := env.do(t, http.MethodGet, "/api/v1/documents", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 非法审批人列表: 400
	w = env.do(t, http.MethodPost, "/api/v1/documents", submitterToken, gin.H{
		"title":        "测试",
		"description":  "测试",
		"file_link":    "https://example.com/f.pdf",
		"approver_ids": []string{"ghost"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 文档不存在: 404
	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/documents/%s/approve", uuid.New().String()), approver1Token, gin.H{})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 创建一个文档
	w = env.do(t, http.MethodPost, "/api/v1/documents", submitterToken, gin.H{
		"title":        "测试",
		"description":  "测试",
		"file_link":    "https://example.com/f.pdf",
		"approver_ids": []string{"approver-001", "approver-002"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var doc model.DocumentModel
	decodeData(t, w, &doc)

	// 没轮到的审批人动作: 403
	w = env.do(t, http.MethodPost, "/api/v1/documents/"+doc.ID+"/approve", approver2Token, gin.H{})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 第一阶段通过后重复动作: 409
	w = env.do(t, http.MethodPost, "/api/v1/documents/"+doc.ID+"/approve", approver1Token, gin.H{})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, "/api/v1/documents/"+doc.ID+"/approve", approver1Token, gin.H{})
	assert.Equal(t, http.StatusConflict, w.Code)
}

// TestDocumentAPI_ApproveWithoutBody 测试不带请求体的审批动作按空意见处理
func TestDocumentAPI_ApproveWithoutBody(t *testing.T) {
	env := setupTestEnv(t)

	submitterToken := env.seedUser(t, "submitter-001", model.RoleSubmitter)
	approverToken := env.seedUser(t, "approver-001", model.RoleApprover)

	w := env.do(t, http.MethodPost, "/api/v1/documents", submitterToken, gin.H{
		"title":        "测试",
		"description":  "测试",
		"file_link":    "https://example.com/f.pdf",
		"approver_ids": []string{"approver-001"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var doc model.DocumentModel
	decodeData(t, w, &doc)

	// comment 可选,省略请求体不应 400
	w = env.do(t, http.MethodPost, "/api/v1/documents/"+doc.ID+"/approve", approverToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated model.DocumentModel
	decodeData(t, w, &updated)
	assert.Equal(t, model.DocumentApproved, updated.Status)
	assert.Empty(t, updated.Stages[0].Comment)
}

// TestDocumentAPI_ListScoping 测试列表接口的角色过滤
func TestDocumentAPI_ListScoping(t *testing.T) {
	env := setupTestEnv(t)

	submitter1Token := env.seedUser(t, "submitter-001", model.RoleSubmitter)
	submitter2Token := env.seedUser(t, "submitter-002", model.RoleSubmitter)
	env.seedUser(t, "approver-001", model.RoleApprover)
	adminToken := env.seedUser(t, "admin-001", model.RoleAdmin)

	for _, token := range []string{submitter1Token, submitter1Token, submitter2Token} {
		w := env.do(t, http.MethodPost, "/api/v1/documents", token, gin.H{
			"title":        "测试",
			"description":  "测试",
			"file_link":    "https://example.com/f.pdf",
			"approver_ids": []string{"approver-001"},
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	listTotal := func(token string) float64 {
		w := env.do(t, http.MethodGet, "/api/v1/documents", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Pagination struct {
				Total float64 `json:"total"`
			} `json:"pagination"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp.Pagination.Total
	}

	assert.EqualValues(t, 2, listTotal(submitter1Token))
	assert.EqualValues(t, 1, listTotal(submitter2Token))
	assert.EqualValues(t, 3, listTotal(adminToken))
}

// TestAuthAPI_RegisterAndLogin 测试注册登录接口
func TestAuthAPI_RegisterAndLogin(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     "Alice Approver",
		"email":    "alice@example.com",
		"password": "secret123",
		"role":     "Approver",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 重复注册: 409
	w = env.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     "Alice Approver",
		"email":    "alice@example.com",
		"password": "secret123",
		"role":     "Approver",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// 登录拿到 token
	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var result struct {
		Token string          `json:"token"`
		User  model.UserModel `json:"user"`
	}
	decodeData(t, w, &result)
	assert.NotEmpty(t, result.Token)

	// 用 token 访问受保护接口
	w = env.do(t, http.MethodGet, "/api/v1/documents", result.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 密码错误: 401
	w = env.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestAuthAPI_RefreshAndLogout 测试令牌续期与登出接口
func TestAuthAPI_RefreshAndLogout(t *testing.T) {
	env := setupTestEnv(t)

	token := env.seedUser(t, "approver-001", model.RoleApprover)

	// 续期拿到新令牌,新令牌可以访问受保护接口
	w := env.do(t, http.MethodPost, "/api/v1/auth/refresh", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result struct {
		Token string          `json:"token"`
		User  model.UserModel `json:"user"`
	}
	decodeData(t, w, &result)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "approver-001", result.User.ID)

	w = env.do(t, http.MethodGet, "/api/v1/documents", result.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 未认证的续期被拒
	w = env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 登出是无状态操作,返回成功即可
	w = env.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
