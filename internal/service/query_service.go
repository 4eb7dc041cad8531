package service

import (
	"fmt"

	"github.com/mautops/docflow-gin/internal/model"
	"github.com/mautops/docflow-gin/internal/repository"
)

// QueryService 查询服务接口,只读,直接反映持久化状态,不做任何缓存
type QueryService interface {
	ListDocuments(filter *ListDocumentsFilter) (*DocumentPage, error)
	PendingForApprover(approverID string) ([]*model.DocumentModel, error)
	GetAuditTrail(documentID string) ([]*model.AuditEntryModel, error)
}

// ListDocumentsFilter 文档列表查询过滤器
type ListDocumentsFilter struct {
	Status     *model.DocumentStatus
	CallerID   string
	CallerRole model.UserRole
	Page       int
	PageSize   int
}

// DocumentPage 分页查询结果
type DocumentPage struct {
	Items      []*model.DocumentModel `json:"items"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	TotalPages int                    `json:"total_pages"`
}

// queryService 查询服务实现
type queryService struct {
	docRepo   repository.DocumentRepository
	auditRepo repository.AuditTrailRepository
}

// NewQueryService 创建查询服务
func NewQueryService(docRepo repository.DocumentRepository, auditRepo repository.AuditTrailRepository) QueryService {
	return &queryService{
		docRepo:   docRepo,
		auditRepo: auditRepo,
	}
}

// ListDocuments 分页查询文档列表
// 角色过滤在查询时应用: Submitter 只看自己的,Approver 只看自己持有阶段的,Admin 看全部
func (s *queryService) ListDocuments(filter *ListDocumentsFilter) (*DocumentPage, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	docs, total, err := s.docRepo.FindPaginated(&repository.DocumentFilter{
		Status:     filter.Status,
		CallerID:   filter.CallerID,
		CallerRole: filter.CallerRole,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &DocumentPage{
		Items:      docs,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}

// PendingForApprover 查询等待指定审批人处理的文档队列
func (s *queryService) PendingForApprover(approverID string) ([]*model.DocumentModel, error) {
	docs, err := s.docRepo.FindPendingForApprover(approverID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending documents: %w", err)
	}
	return docs, nil
}

// GetAuditTrail 按时序返回文档的审计日志
func (s *queryService) GetAuditTrail(documentID string) ([]*model.AuditEntryModel, error) {
	// 先确认文档存在,保证查不到时返回 DocumentNotFound 而不是空列表
	if _, err := s.docRepo.FindByID(documentID); err != nil {
		return nil, err
	}
	return s.auditRepo.FindByDocumentID(documentID)
}
