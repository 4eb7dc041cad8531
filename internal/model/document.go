package model

import (
	"errors"
	"time"
)

// DocumentStatus 文档状态
type DocumentStatus string

const (
	DocumentPending    DocumentStatus = "Pending"    // 等待第一个审批人处理
	DocumentInProgress DocumentStatus = "InProgress" // 审批流程进行中
	DocumentApproved   DocumentStatus = "Approved"   // 所有阶段审批通过(终态)
	DocumentRejected   DocumentStatus = "Rejected"   // 任一阶段被拒绝(终态)
)

// Valid 校验文档状态取值
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentPending, DocumentInProgress, DocumentApproved, DocumentRejected:
		return true
	}
	return false
}

// Terminal 判断是否为终态,终态文档不允许任何阶段流转
func (s DocumentStatus) Terminal() bool {
	return s == DocumentApproved || s == DocumentRejected
}

// DocumentModel 文档数据模型
type DocumentModel struct {
	ID                 string            `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Title              string            `gorm:"type:varchar(255);not null" json:"title"`
	Description        string            `gorm:"type:text;not null" json:"description"`
	FileLink           string            `gorm:"type:text;not null" json:"file_link"` // 外部文件引用
	Status             DocumentStatus    `gorm:"type:varchar(32);not null;index" json:"status"`
	SubmitterID        string            `gorm:"type:varchar(64);not null;index" json:"submitter_id"`
	CurrentStageNumber int               `gorm:"not null" json:"current_stage_number"` // 1-based 阶段指针
	StageCount         int               `gorm:"not null" json:"stage_count"`
	Stages             []StageModel      `gorm:"foreignKey:DocumentID;references:ID" json:"stages"`
	AuditTrail         []AuditEntryModel `gorm:"foreignKey:DocumentID;references:ID" json:"audit_trail"`
	CreatedAt          time.Time         `gorm:"not null;index" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"not null" json:"updated_at"`
	CompletedAt        *time.Time        `gorm:"index" json:"completed_at"` // 仅在进入终态时设置一次

	// 审批进度投影,查询时由仓储计算,不落库
	ProgressCompleted int `gorm:"-" json:"progress_completed"`
	ProgressTotal     int `gorm:"-" json:"progress_total"`
}

// TableName 指定表名
func (DocumentModel) TableName() string {
	return "documents"
}

// Validate 验证文档模型
func (dm *DocumentModel) Validate() error {
	if dm.ID == "" {
		return errors.New("document ID is required")
	}
	if dm.Title == "" {
		return errors.New("document title is required")
	}
	if dm.SubmitterID == "" {
		return errors.New("submitter ID is required")
	}
	if !dm.Status.Valid() {
		return errors.New("document status is invalid")
	}
	if dm.StageCount <= 0 {
		return errors.New("document must have at least one stage")
	}
	if dm.CurrentStageNumber < 1 || dm.CurrentStageNumber > dm.StageCount+1 {
		return errors.New("current stage number out of range")
	}
	return nil
}

// CurrentStage 返回当前阶段;指针越过末尾(全部通过)时返回 nil
func (dm *DocumentModel) CurrentStage() *StageModel {
	for i := range dm.Stages {
		if dm.Stages[i].StageNumber == dm.CurrentStageNumber {
			return &dm.Stages[i]
		}
	}
	return nil
}
