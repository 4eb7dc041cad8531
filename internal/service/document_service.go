package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/docflow-gin/internal/metrics"
	"github.com/mautops/docflow-gin/internal/model"
	"github.com/mautops/docflow-gin/internal/repository"
	"github.com/mautops/docflow-gin/internal/websocket"
	"github.com/mautops/docflow-gin/internal/workflow"
)

// DocumentService 文档服务接口
type DocumentService interface {
	Create(ctx context.Context, req *CreateDocumentRequest) (*model.DocumentModel, error)
	Get(id string) (*model.DocumentModel, error)
	Approve(ctx context.Context, id string, approverID string, comment string) (*model.DocumentModel, error)
	Reject(ctx context.Context, id string, approverID string, comment string) (*model.DocumentModel, error)
}

// CreateDocumentRequest 创建文档请求
// @Description 创建审批文档的请求参数
type CreateDocumentRequest struct {
	Title       string   `json:"title" example:"采购合同" binding:"required"`                        // 文档标题
	Description string   `json:"description" example:"2026 年度采购合同" binding:"required"`           // 文档描述
	FileLink    string   `json:"file_link" example:"https://files.example.com/doc-001.pdf" binding:"required"` // 外部文件引用
	SubmitterID string   `json:"-"`                                                              // 由认证上下文填充
	ApproverIDs []string `json:"approver_ids" example:"user-001,user-002" binding:"required"`    // 审批人 ID 列表,顺序即审批顺序
}

// documentService 文档服务实现
type documentService struct {
	docRepo  repository.DocumentRepository
	userRepo repository.UserRepository
	hub      *websocket.Hub
}

// NewDocumentService 创建文档服务
func NewDocumentService(docRepo repository.DocumentRepository, userRepo repository.UserRepository, hub ...*websocket.Hub) DocumentService {
	var h *websocket.Hub
	if len(hub) > 0 {
		h = hub[0]
	}
	return &documentService{
		docRepo:  docRepo,
		userRepo: userRepo,
		hub:      h,
	}
}

// Create 创建文档
// 校验审批人列表并生成阶段,文档、阶段和 CREATED 审计记录在一个事务内落库
func (s *documentService) Create(ctx context.Context, req *CreateDocumentRequest) (*model.DocumentModel, error) {
	stages, err := workflow.BuildStages(req.ApproverIDs, s.userRepo)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &model.DocumentModel{
		ID:                 uuid.New().String(),
		Title:              req.Title,
		Description:        req.Description,
		FileLink:           req.FileLink,
		Status:             model.DocumentPending,
		SubmitterID:        req.SubmitterID,
		CurrentStageNumber: 1,
		StageCount:         len(stages),
		Stages:             stages,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	entry := &model.AuditEntryModel{
		ID:        uuid.New().String(),
		ActorID:   req.SubmitterID,
		Action:    model.ActionDocumentCreated,
		Details:   fmt.Sprintf("Document %q created", req.Title),
		CreatedAt: now,
	}

	if err := s.docRepo.Create(doc, entry); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	metrics.RecordDocumentCreated()

	created, err := s.docRepo.FindByID(doc.ID)
	if err != nil {
		return nil, err
	}
	s.notify(created, websocket.EventDocumentCreated)
	return created, nil
}

// Get 获取文档详情
func (s *documentService) Get(id string) (*model.DocumentModel, error) {
	return s.docRepo.FindByID(id)
}

// Approve 审批通过当前阶段
//
// 先做一次非原子预检,把常见失败转成友好的类型化错误;
// 随后的条件写入才是权威判定,预检通过后被别人抢先时返回 ConcurrentModification。
func (s *documentService) Approve(ctx context.Context, id string, approverID string, comment string) (*model.DocumentModel, error) {
	doc, err := s.docRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := workflow.CheckAction(doc, approverID); err != nil {
		return nil, err
	}

	t := workflow.ApproveTransition(doc.CurrentStageNumber, doc.StageCount)
	entry := &model.AuditEntryModel{
		ID:      uuid.New().String(),
		ActorID: approverID,
		Action:  model.ActionStageApproved,
		Details: fmt.Sprintf("Stage %d approved. Comment: %s", doc.CurrentStageNumber, comment),
	}

	err = s.docRepo.ApplyTransition(&repository.TransitionUpdate{
		DocumentID:  id,
		StageNumber: doc.CurrentStageNumber,
		ApproverID:  approverID,
		Comment:     comment,
		Transition:  t,
		Entry:       entry,
	})
	if err != nil {
		if workflow.CodeOf(err) == workflow.CodeConcurrentModification {
			metrics.RecordApprovalConflict()
		}
		return nil, err
	}

	metrics.RecordApproval("approve")

	updated, err := s.docRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	s.notify(updated, websocket.EventStageApproved)
	return updated, nil
}

// Reject 拒绝当前阶段
// 拒绝无论发生在哪个阶段都立即将文档置为 Rejected 终态,后续阶段不再流转
func (s *documentService) Reject(ctx context.Context, id string, approverID string, comment string) (*model.DocumentModel, error) {
	doc, err := s.docRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if err := workflow.CheckAction(doc, approverID); err != nil {
		return nil, err
	}

	t := workflow.RejectTransition(doc.CurrentStageNumber)
	entry := &model.AuditEntryModel{
		ID:      uuid.New().String(),
		ActorID: approverID,
		Action:  model.ActionStageRejected,
		Details: fmt.Sprintf("Stage %d rejected. Comment: %s", doc.CurrentStageNumber, comment),
	}

	err = s.docRepo.ApplyTransition(&repository.TransitionUpdate{
		DocumentID:  id,
		StageNumber: doc.CurrentStageNumber,
		ApproverID:  approverID,
		Comment:     comment,
		Transition:  t,
		Entry:       entry,
	})
	if err != nil {
		if workflow.CodeOf(err) == workflow.CodeConcurrentModification {
			metrics.RecordApprovalConflict()
		}
		return nil, err
	}

	metrics.RecordApproval("reject")

	updated, err := s.docRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	s.notify(updated, websocket.EventStageRejected)
	return updated, nil
}

// notify 将文档状态变化推送给提交人和所有阶段审批人
func (s *documentService) notify(doc *model.DocumentModel, event string) {
	if s.hub == nil || doc == nil {
		return
	}
	s.hub.NotifyDocument(doc, event)
}
