package model

import (
	"errors"
	"time"
)

// StageStatus 阶段状态
type StageStatus string

const (
	StagePending  StageStatus = "Pending"  // 等待审批
	StageApproved StageStatus = "Approved" // 审批通过(终态)
	StageRejected StageStatus = "Rejected" // 审批拒绝(终态)
)

// Valid 校验阶段状态取值
func (s StageStatus) Valid() bool {
	switch s {
	case StagePending, StageApproved, StageRejected:
		return true
	}
	return false
}

// Terminal 判断阶段是否已处理完毕
func (s StageStatus) Terminal() bool {
	return s == StageApproved || s == StageRejected
}

// StageModel 审批阶段数据模型
// 阶段在文档创建时一次性生成,编号从 1 开始连续,顺序和成员之后不可变更
type StageModel struct {
	DocumentID  string      `gorm:"primaryKey;type:varchar(64)" json:"document_id"`
	StageNumber int         `gorm:"primaryKey;autoIncrement:false" json:"stage_number"`
	ApproverID  string      `gorm:"type:varchar(64);not null;index" json:"approver_id"`
	Status      StageStatus `gorm:"type:varchar(32);not null" json:"status"`
	Comment     string      `gorm:"type:text" json:"comment"`
	ActionAt    *time.Time  `json:"action_at"` // 仅在审批动作发生时设置一次
}

// TableName 指定表名
func (StageModel) TableName() string {
	return "stages"
}

// Validate 验证阶段模型
func (sm *StageModel) Validate() error {
	if sm.DocumentID == "" {
		return errors.New("document ID is required")
	}
	if sm.StageNumber < 1 {
		return errors.New("stage number must be positive")
	}
	if sm.ApproverID == "" {
		return errors.New("approver ID is required")
	}
	if !sm.Status.Valid() {
		return errors.New("stage status is invalid")
	}
	return nil
}
