package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mautops/docflow-gin/internal/workflow"
)

// APIError API 错误
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware 错误处理中间件
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			var apiErr *APIError
			if errors.As(err, &apiErr) {
				Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
			} else {
				Error(c, http.StatusInternalServerError, "internal server error", err.Error())
			}
		}
	}
}

// WrapError 包装错误
func WrapError(err error, code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Detail:  err.Error(),
	}
}

// 审批流错误码到 HTTP 状态码的映射
var workflowStatusCodes = map[string]int{
	workflow.CodeInvalidApproverSet:     http.StatusBadRequest,
	workflow.CodeInvalidApprover:        http.StatusBadRequest,
	workflow.CodeDocumentNotFound:       http.StatusNotFound,
	workflow.CodeNotAssignedApprover:    http.StatusForbidden,
	workflow.CodeStageAlreadyProcessed:  http.StatusConflict,
	workflow.CodeConcurrentModification: http.StatusConflict,
	workflow.CodeInvalidStage:           http.StatusConflict,
}

// WorkflowError 将审批流错误映射为 HTTP 错误响应
// 非审批流错误统一按 500 处理
func WorkflowError(c *gin.Context, err error) {
	var wfErr *workflow.Error
	if errors.As(err, &wfErr) {
		status, ok := workflowStatusCodes[wfErr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		Error(c, status, wfErr.Message, wfErr.Code)
		return
	}
	Error(c, http.StatusInternalServerError, "internal server error", err.Error())
}

