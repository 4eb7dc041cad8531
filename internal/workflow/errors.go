package workflow

import "errors"

// 错误码,调用方根据 Code 分支处理,不要匹配 Message 文本
const (
	CodeInvalidApproverSet     = "INVALID_APPROVER_SET"
	CodeInvalidApprover        = "INVALID_APPROVER"
	CodeDocumentNotFound       = "DOCUMENT_NOT_FOUND"
	CodeNotAssignedApprover    = "NOT_ASSIGNED_APPROVER"
	CodeStageAlreadyProcessed  = "STAGE_ALREADY_PROCESSED"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeInvalidStage           = "INVALID_STAGE"
)

// Error 工作流错误
type Error struct {
	Code    string // 稳定的符号错误码
	Message string // 人类可读的描述
}

func (e *Error) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrInvalidApproverSet = &Error{
		Code:    CodeInvalidApproverSet,
		Message: "approver list must contain 1 to 10 unique approver IDs",
	}
	ErrDocumentNotFound = &Error{
		Code:    CodeDocumentNotFound,
		Message: "document not found",
	}
	ErrNotAssignedApprover = &Error{
		Code:    CodeNotAssignedApprover,
		Message: "you are not the approver for the current stage",
	}
	ErrStageAlreadyProcessed = &Error{
		Code:    CodeStageAlreadyProcessed,
		Message: "stage already processed",
	}
	ErrConcurrentModification = &Error{
		Code:    CodeConcurrentModification,
		Message: "document was modified concurrently, refresh and retry",
	}
	ErrInvalidStage = &Error{
		Code:    CodeInvalidStage,
		Message: "no current stage exists for this document",
	}
)

// NewInvalidApproverError 构造指明具体审批人的 InvalidApprover 错误
func NewInvalidApproverError(approverID string) *Error {
	return &Error{
		Code:    CodeInvalidApprover,
		Message: "invalid approver ID: " + approverID,
	}
}

// CodeOf 提取工作流错误码,非工作流错误返回空串
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
