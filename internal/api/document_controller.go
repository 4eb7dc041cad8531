package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mautops/docflow-gin/internal/auth"
	"github.com/mautops/docflow-gin/internal/model"
	"github.com/mautops/docflow-gin/internal/service"
	"github.com/mautops/docflow-gin/internal/utils"
)

// DocumentController 文档控制器
type DocumentController struct {
	docService   service.DocumentService
	queryService service.QueryService
}

// NewDocumentController 创建文档控制器
func NewDocumentController(docService service.DocumentService, queryService service.QueryService) *DocumentController {
	return &DocumentController{
		docService:   docService,
		queryService: queryService,
	}
}

// validateDocumentID 验证文档 ID 并返回错误响应(如果无效)
func (c *DocumentController) validateDocumentID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateDocumentID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid document ID", err.Error())
		return false
	}
	return true
}

// ActionRequest 审批动作请求体
// @Description 审批同意/拒绝的请求参数
type ActionRequest struct {
	Comment string `json:"comment" example:"同意,预算范围内"` // 审批意见,可为空
}

// Create 创建文档
// @Summary      提交审批文档
// @Description  创建文档并按给定顺序生成审批阶段
// @Tags         文档管理
// @Accept       json
// @Produce      json
// @Param        request body service.CreateDocumentRequest true "文档信息"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /documents [post]
// @Security     BearerAuth
func (c *DocumentController) Create(ctx *gin.Context) {
	var req service.CreateDocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := utils.ValidateDocumentTitle(req.Title); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid title", err.Error())
		return
	}
	description, err := utils.TrimAndValidate(req.Description, 4000)
	if err != nil {
		Error(ctx, http.StatusBadRequest, "invalid description", err.Error())
		return
	}
	req.Description = description

	// 提交人取自认证上下文,不信任请求体
	req.SubmitterID = auth.CallerID(ctx)

	doc, err := c.docService.Create(ctx.Request.Context(), &req)
	if err != nil {
		WorkflowError(ctx, err)
		return
	}

	Success(ctx, doc)
}

// List 查询文档列表
// @Summary      查询文档列表
// @Description  分页查询文档,按调用方角色过滤可见范围,支持按状态过滤
// @Tags         文档管理
// @Accept       json
// @Produce      json
// @Param        status    query string false "文档状态" Enums(Pending, InProgress, Approved, Rejected)
// @Param        page      query int    false "页码,从 1 开始"
// @Param        page_size query int    false "每页数量"
// @Success      200  {object}  PaginatedResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /documents [get]
// @Security     BearerAuth
func (c *DocumentController) List(ctx *gin.Context) {
	filter := &service.ListDocumentsFilter{
		CallerID:   auth.CallerID(ctx),
		CallerRole: auth.CallerRole(ctx),
	}

	if raw := ctx.Query("status"); raw != "" {
		status := model.DocumentStatus(raw)
		if !status.Valid() {
			Error(ctx, http.StatusBadRequest, "invalid status filter", raw)
			return
		}
		filter.Status = &status
	}
	filter.Page, _ = strconv.Atoi(ctx.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(ctx.DefaultQuery("page_size", "10"))

	page, err := c.queryService.ListDocuments(filter)
	if err != nil {
		WorkflowError(ctx, err)
		return
	}

	Paginated(ctx, page.Items, NewPagination(page.Page, filter.PageSize, page.Total))
}

// Get 获取文档详情
// @Summary      获取文档详情
// @Description  根据 ID 获取文档及其阶段和审计日志
// @Tags         文档管理
// @Accept       json
// @Produce      json
// @Param        id path string true "文档 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /documents/{id} [get]
// @Security     BearerAuth
func (c *DocumentController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateDocumentID(ctx, id) {
		return
	}

	doc, err := c.docService.Get(id)
	if err != nil {
		WorkflowError(ctx, err)
		return
	}

	Success(ctx, doc)
}

// Pending 查询待办队列
// @Summary      查询待审批文档
// @Description  返回当前阶段等待调用方处理的文档队列
// @Tags         文档管理
// @Accept       json
// @Produce      json
// @Success      200  {object}  Response
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /documents/pending [get]
// @Security     BearerAuth
func (c *DocumentController) Pending(ctx *gin.Context) {
	docs, err := c.queryService.PendingForApprover(auth.CallerID(ctx))
	if err != nil {
		WorkflowError(ctx, err)
		return
	}

	Success(ctx, docs)
}

// bindAction 解析审批动作请求体。
// comment 可为空,请求体缺失(EOF)按空意见处理,不算错误。
func (c *DocumentController) bindAction(ctx *gin.Context) (ActionRequest, bool) {
	var req ActionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return req, false
	}
	return req, true
}

// Approve 审批通过当前阶段
// @Summary      审批通过
// @Description  当前阶段审批人通过文档,最后一个阶段通过后文档进入 Approved 终态
// @Tags         文档管理
// @Accept       json
// @Produce      json
// @Param        id path string true "文档 ID"
// @Param        request body ActionRequest true "审批意见"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /documents/{id}/approve [post]
// @Security     BearerAuth
func (c *DocumentController) Approve(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateDocumentID(ctx, id) {
		return
	}

	req, ok := c.bindAction(ctx)
	if !ok {
		return
	}

	doc, err := c.docService.Approve(ctx.Request.Context(), id, auth.CallerID(ctx), req.Comment)
	if err != nil {
		WorkflowError(ctx, err)
		return
	}

	Success(ctx, doc)
}

// Reject 拒绝当前阶段
// @Summary      审批拒绝
// @Description  当前阶段审批人拒绝文档,文档立即进入 Rejected 终态
// @Tags         文档管理
// @Accept       json
// @Produce      json
// @Param        id path string true "文档 ID"
// @Param        request body ActionRequest true "审批意见"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /documents/{id}/reject [post]
// @Security     BearerAuth
func (c *DocumentController) Reject(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateDocumentID(ctx, id) {
		return
	}

	req, ok := c.bindAction(ctx)
	if !ok {
		return
	}

	doc, err := c.docService.Reject(ctx.Request.Context(), id, auth.CallerID(ctx), req.Comment)
	if err != nil {
		WorkflowError(ctx, err)
		return
	}

	Success(ctx, doc)
}

// AuditTrail 查询审计日志
// @Summary      查询文档审计日志
// @Description  按时序返回文档的完整审计记录
// @Tags         文档管理
// @Accept       json
// @Produce      json
// @Param        id path string true "文档 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /documents/{id}/audit [get]
// @Security     BearerAuth
func (c *DocumentController) AuditTrail(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateDocumentID(ctx, id) {
		return
	}

	entries, err := c.queryService.GetAuditTrail(id)
	if err != nil {
		WorkflowError(ctx, err)
		return
	}

	Success(ctx, entries)
}
