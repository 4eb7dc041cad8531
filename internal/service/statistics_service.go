package service

import (
	"fmt"

	"github.com/mautops/docflow-gin/internal/model"
	"github.com/mautops/docflow-gin/internal/repository"
	"gorm.io/gorm"
)

// StatisticsService 统计服务接口
type StatisticsService interface {
	GetDashboardStats(callerID string, callerRole model.UserRole) (*DashboardStats, error)
}

// StatusCount 按状态统计
type StatusCount struct {
	Status model.DocumentStatus `json:"status"`
	Count  int64                `json:"count"`
}

// DashboardStats 仪表盘统计
// @Description 仪表盘统计数据
type DashboardStats struct {
	TotalDocuments       int64          `json:"total_documents"`         // 文档总数
	ApprovedCount        int64          `json:"approved_count"`          // 审批通过数
	RejectedCount        int64          `json:"rejected_count"`          // 审批拒绝数
	AvgApprovalTimeMs    float64        `json:"avg_approval_time_ms"`    // 平均审批耗时(毫秒,仅统计 Approved 文档)
	AvgApprovalTimeHours float64        `json:"avg_approval_time_hours"` // 平均审批耗时(小时)
	StatusDistribution   []*StatusCount `json:"status_distribution"`     // 状态分布
}

// statisticsService 统计服务实现
type statisticsService struct {
	db *gorm.DB
}

// NewStatisticsService 创建统计服务
func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetDashboardStats 获取仪表盘统计
// 读取查询时刻的持久化状态,角色可见范围规则与列表查询一致
func (s *statisticsService) GetDashboardStats(callerID string, callerRole model.UserRole) (*DashboardStats, error) {
	scoped := func() *gorm.DB {
		return s.db.Model(&model.DocumentModel{}).
			Scopes(repository.RoleScope(callerID, callerRole))
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	var approved int64
	if err := scoped().Where("documents.status = ?", model.DocumentApproved).Count(&approved).Error; err != nil {
		return nil, fmt.Errorf("failed to count approved documents: %w", err)
	}

	var rejected int64
	if err := scoped().Where("documents.status = ?", model.DocumentRejected).Count(&rejected).Error; err != nil {
		return nil, fmt.Errorf("failed to count rejected documents: %w", err)
	}

	avgMs, err := s.avgApprovalTimeMs(scoped())
	if err != nil {
		return nil, err
	}

	var distribution []*StatusCount
	err = scoped().
		Select("documents.status as status, COUNT(*) as count").
		Group("documents.status").
		Scan(&distribution).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get status distribution: %w", err)
	}

	return &DashboardStats{
		TotalDocuments:       total,
		ApprovedCount:        approved,
		RejectedCount:        rejected,
		AvgApprovalTimeMs:    avgMs,
		AvgApprovalTimeHours: avgMs / (1000 * 60 * 60),
		StatusDistribution:   distribution,
	}, nil
}

// avgApprovalTimeMs 计算 Approved 文档从创建到完成的平均耗时(毫秒)。
// 时间差的 SQL 表达式依数据库方言而不同,与迁移逻辑相同的方式检测方言。
func (s *statisticsService) avgApprovalTimeMs(query *gorm.DB) (float64, error) {
	var expr string
	dialector := s.db.Dialector.Name()
	if dialector == "sqlite" || dialector == "sqlite3" {
		expr = "AVG((julianday(completed_at) - julianday(created_at)) * 86400000.0)"
	} else {
		expr = "AVG(EXTRACT(EPOCH FROM (completed_at - created_at)) * 1000)"
	}

	var avg *float64
	err := query.
		Where("documents.status = ? AND completed_at IS NOT NULL", model.DocumentApproved).
		Select(expr).
		Scan(&avg).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute average approval time: %w", err)
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}
