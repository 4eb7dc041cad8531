package repository

import (
	"errors"
	"time"

	"github.com/mautops/docflow-gin/internal/model"
	"github.com/mautops/docflow-gin/internal/workflow"
	"gorm.io/gorm"
)

// DocumentFilter 文档列表查询过滤器
type DocumentFilter struct {
	Status     *model.DocumentStatus
	CallerID   string
	CallerRole model.UserRole
	Page       int
	PageSize   int
}

// TransitionUpdate 一次原子审批流转的全部写入参数
type TransitionUpdate struct {
	DocumentID  string
	StageNumber int // 发起写入前观察到的当前阶段号
	ApproverID  string
	Comment     string
	Transition  workflow.Transition
	Entry       *model.AuditEntryModel
}

// DocumentRepository 文档仓储接口。
// ApplyTransition 是文档状态唯一的修改入口(创建除外),
// 其余组件一律只读,不得直接写文档、阶段或审计数据。
type DocumentRepository interface {
	Create(doc *model.DocumentModel, entry *model.AuditEntryModel) error
	FindByID(id string) (*model.DocumentModel, error)
	FindPaginated(filter *DocumentFilter) ([]*model.DocumentModel, int64, error)
	FindPendingForApprover(approverID string) ([]*model.DocumentModel, error)
	ApplyTransition(u *TransitionUpdate) error
}

// documentRepository 文档仓储实现
type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建文档仓储
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create 原子插入文档、全部阶段和 DOCUMENT_CREATED 审计记录。
// 所有行在写入前经过模型校验,非法数据在事务内被拦截并整体回滚。
func (r *documentRepository) Create(doc *model.DocumentModel, entry *model.AuditEntryModel) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := doc.Validate(); err != nil {
			return err
		}
		if err := tx.Omit("Stages", "AuditTrail").Create(doc).Error; err != nil {
			return err
		}
		for i := range doc.Stages {
			doc.Stages[i].DocumentID = doc.ID
			if err := doc.Stages[i].Validate(); err != nil {
				return err
			}
			if err := tx.Create(&doc.Stages[i]).Error; err != nil {
				return err
			}
		}
		entry.DocumentID = doc.ID
		entry.Seq = 1
		if err := entry.Validate(); err != nil {
			return err
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		return nil
	})
}

// FindByID 根据 ID 查找文档,预加载有序的阶段和审计日志
func (r *documentRepository) FindByID(id string) (*model.DocumentModel, error) {
	var doc model.DocumentModel
	err := r.db.
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("stage_number ASC")
		}).
		Preload("AuditTrail", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq ASC")
		}).
		Where("id = ?", id).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.ErrDocumentNotFound
		}
		return nil, err
	}
	attachProgress(&doc)
	return &doc, nil
}

// FindPaginated 分页查询文档列表,按角色过滤可见范围:
// Submitter 只看自己提交的,Approver 只看自己持有阶段的,Admin 看全部
func (r *documentRepository) FindPaginated(filter *DocumentFilter) ([]*model.DocumentModel, int64, error) {
	query := r.db.Model(&model.DocumentModel{}).
		Scopes(RoleScope(filter.CallerID, filter.CallerRole))

	if filter.Status != nil {
		query = query.Where("documents.status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	var docs []*model.DocumentModel
	err := query.
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("stage_number ASC")
		}).
		Order("documents.created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&docs).Error
	if err != nil {
		return nil, 0, err
	}
	for _, doc := range docs {
		attachProgress(doc)
	}
	return docs, total, nil
}

// FindPendingForApprover 查找等待指定审批人处理的文档:
// 当前阶段的审批人匹配,且文档未进入终态
func (r *documentRepository) FindPendingForApprover(approverID string) ([]*model.DocumentModel, error) {
	var docs []*model.DocumentModel
	err := r.db.Model(&model.DocumentModel{}).
		Joins("JOIN stages ON stages.document_id = documents.id AND stages.stage_number = documents.current_stage_number").
		Where("stages.approver_id = ?", approverID).
		Where("documents.status IN ?", []model.DocumentStatus{model.DocumentPending, model.DocumentInProgress}).
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("stage_number ASC")
		}).
		Order("documents.created_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		attachProgress(doc)
	}
	return docs, nil
}

// attachProgress 填充查询结果上的审批进度投影
func attachProgress(doc *model.DocumentModel) {
	doc.ProgressCompleted, doc.ProgressTotal = workflow.Progress(doc)
}

// ApplyTransition 以单个事务执行一次条件写入式审批流转。
//
// 阶段行和文档行的 UPDATE 都带有完整前置条件并检查受影响行数,
// 任何一处条件不再成立(他人已处理、阶段号变化、文档已终态)即整体回滚,
// 返回 ErrConcurrentModification。同一阶段的 N 个并发动作恰好一个成功。
// 终态写入(completedAt)折叠在同一事务里,不存在第二次独立的 finalize 写。
func (r *documentRepository) ApplyTransition(u *TransitionUpdate) error {
	now := time.Now()
	return r.db.Transaction(func(tx *gorm.DB) error {
		// 阶段行条件更新: 只有仍处于 Pending 且归属匹配时才生效
		res := tx.Model(&model.StageModel{}).
			Where("document_id = ? AND stage_number = ? AND approver_id = ? AND status = ?",
				u.DocumentID, u.StageNumber, u.ApproverID, model.StagePending).
			Updates(map[string]interface{}{
				"status":    u.Transition.StageStatus,
				"comment":   u.Comment,
				"action_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return workflow.ErrConcurrentModification
		}

		// 文档行条件更新: 阶段指针必须仍指向观察到的阶段,状态必须非终态
		docUpdates := map[string]interface{}{
			"status":               u.Transition.DocumentStatus,
			"current_stage_number": u.Transition.NextStage,
			"updated_at":           now,
		}
		if u.Transition.Final {
			docUpdates["completed_at"] = now
		}
		res = tx.Model(&model.DocumentModel{}).
			Where("id = ? AND current_stage_number = ? AND status IN ?",
				u.DocumentID, u.StageNumber,
				[]model.DocumentStatus{model.DocumentPending, model.DocumentInProgress}).
			Updates(docUpdates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return workflow.ErrConcurrentModification
		}

		// 审计追加: 文档行 CAS 已保证同一文档的写入串行,Seq 不会重复
		var count int64
		if err := tx.Model(&model.AuditEntryModel{}).
			Where("document_id = ?", u.DocumentID).
			Count(&count).Error; err != nil {
			return err
		}
		u.Entry.DocumentID = u.DocumentID
		u.Entry.Seq = int(count) + 1
		u.Entry.CreatedAt = now
		if err := u.Entry.Validate(); err != nil {
			return err
		}
		if err := tx.Create(u.Entry).Error; err != nil {
			return err
		}

		return nil
	})
}

// RoleScope 按调用方角色限定文档可见范围,统计服务复用同一规则
func RoleScope(callerID string, role model.UserRole) func(*gorm.DB) *gorm.DB {
	return func(query *gorm.DB) *gorm.DB {
		switch role {
		case model.RoleSubmitter:
			return query.Where("documents.submitter_id = ?", callerID)
		case model.RoleApprover:
			return query.Where(
				"EXISTS (SELECT 1 FROM stages WHERE stages.document_id = documents.id AND stages.approver_id = ?)",
				callerID)
		default: // Admin 不加过滤
			return query
		}
	}
}
