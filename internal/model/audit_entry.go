package model

import (
	"errors"
	"time"
)

// 审计动作
const (
	ActionDocumentCreated = "DOCUMENT_CREATED"
	ActionStageApproved   = "STAGE_APPROVED"
	ActionStageRejected   = "STAGE_REJECTED"
)

// AuditEntryModel 审计日志数据模型
// 仅追加,不提供修改和删除;Seq 在单个文档内单调递增,保证严格时序
type AuditEntryModel struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	DocumentID string    `gorm:"type:varchar(64);not null;index" json:"document_id"`
	Seq        int       `gorm:"not null" json:"seq"`
	ActorID    string    `gorm:"type:varchar(64);not null;index" json:"actor_id"`
	Action     string    `gorm:"type:varchar(64);not null;index" json:"action"`
	Details    string    `gorm:"type:text" json:"details"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName 指定表名
func (AuditEntryModel) TableName() string {
	return "audit_trail"
}

// Validate 验证审计日志模型
func (am *AuditEntryModel) Validate() error {
	if am.ID == "" {
		return errors.New("audit entry ID is required")
	}
	if am.DocumentID == "" {
		return errors.New("document ID is required")
	}
	if am.ActorID == "" {
		return errors.New("actor ID is required")
	}
	if am.Action == "" {
		return errors.New("action is required")
	}
	if am.Seq < 1 {
		return errors.New("seq must be positive")
	}
	return nil
}
