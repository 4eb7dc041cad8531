package repository

import (
	"github.com/mautops/docflow-gin/internal/model"
	"gorm.io/gorm"
)

// AuditTrailRepository 审计日志仓储接口。
// 只提供读取,追加发生在 DocumentRepository 的事务内部,
// 保证审计记录与状态流转同生共死,不存在已流转未审计的中间态。
type AuditTrailRepository interface {
	FindByDocumentID(documentID string) ([]*model.AuditEntryModel, error)
}

// auditTrailRepository 审计日志仓储实现
type auditTrailRepository struct {
	db *gorm.DB
}

// NewAuditTrailRepository 创建审计日志仓储
func NewAuditTrailRepository(db *gorm.DB) AuditTrailRepository {
	return &auditTrailRepository{db: db}
}

// FindByDocumentID 按追加顺序返回文档的完整审计日志
func (r *auditTrailRepository) FindByDocumentID(documentID string) ([]*model.AuditEntryModel, error) {
	var entries []*model.AuditEntryModel
	err := r.db.Where("document_id = ?", documentID).Order("seq ASC").Find(&entries).Error
	return entries, err
}
