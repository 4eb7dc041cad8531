package repository_test

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mautops/docflow-gin/internal/database"
	"github.com/mautops/docflow-gin/internal/model"
	"github.com/mautops/docflow-gin/internal/repository"
	"github.com/mautops/docflow-gin/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB 创建文档仓储测试数据库
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))
	return db
}

// newTestDocument 构造一个含 stageCount 个阶段的待落库文档
func newTestDocument(submitterID string, stageCount int) (*model.DocumentModel, *model.AuditEntryModel) {
	now := time.Now()
	doc := &model.DocumentModel{
		ID:                 uuid.New().String(),
		Title:              "采购合同",
		Description:        "年度采购合同审批",
		FileLink:           "https://files.example.com/contract.pdf",
		Status:             model.DocumentPending,
		SubmitterID:        submitterID,
		CurrentStageNumber: 1,
		StageCount:         stageCount,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	for i := 1; i <= stageCount; i++ {
		doc.Stages = append(doc.Stages, model.StageModel{
			StageNumber: i,
			ApproverID:  fmt.Sprintf("approver-%03d", i),
			Status:      model.StagePending,
		})
	}
	entry := &model.AuditEntryModel{
		ID:        uuid.New().String(),
		ActorID:   submitterID,
		Action:    model.ActionDocumentCreated,
		Details:   fmt.Sprintf("Document %q created", doc.Title),
		CreatedAt: now,
	}
	return doc, entry
}

// TestDocumentRepository_CreateAndFind 测试创建后查回文档、阶段和审计记录
func TestDocumentRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentRepository(db)

	doc, entry := newTestDocument("submitter-001", 3)
	require.NoError(t, repo.Create(doc, entry))

	found, err := repo.FindByID(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Title, found.Title)
	assert.Equal(t, model.DocumentPending, found.Status)
	assert.Equal(t, 1, found.CurrentStageNumber)
	assert.Equal(t, 3, found.StageCount)

	// 阶段按编号有序
	require.Len(t, found.Stages, 3)
	for i, stage := range found.Stages {
		assert.Equal(t, i+1, stage.StageNumber)
		assert.Equal(t, model.StagePending, stage.Status)
	}

	// 创建审计记录 Seq 从 1 开始
	require.Len(t, found.AuditTrail, 1)
	assert.Equal(t, 1, found.AuditTrail[0].Seq)
	assert.Equal(t, model.ActionDocumentCreated, found.AuditTrail[0].Action)

	// 进度投影: 新文档处于第 1 阶段
	assert.Equal(t, 1, found.ProgressCompleted)
	assert.Equal(t, 3, found.ProgressTotal)
}

// TestDocumentRepository_Create_InvalidDocument 测试非法文档被校验拦截并整体回滚
func TestDocumentRepository_Create_InvalidDocument(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentRepository(db)

	// 阶段指针越界
	doc, entry := newTestDocument("submitter-001", 2)
	doc.CurrentStageNumber = 5
	assert.Error(t, repo.Create(doc, entry))

	// 阶段缺少审批人,文档行已插入但事务必须回滚
	doc, entry = newTestDocument("submitter-001", 2)
	doc.Stages[1].ApproverID = ""
	assert.Error(t, repo.Create(doc, entry))

	_, err := repo.FindByID(doc.ID)
	assert.Equal(t, workflow.CodeDocumentNotFound, workflow.CodeOf(err))
}

// TestDocumentRepository_FindByID_NotFound 测试查找不存在的文档
func TestDocumentRepository_FindByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentRepository(db)

	_, err := repo.FindByID("no-such-doc")
	assert.Equal(t, workflow.CodeDocumentNotFound, workflow.CodeOf(err))
}

// TestDocumentRepository_ApplyTransition 测试一次审批通过的条件写入
func TestDocumentRepository_ApplyTransition(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentRepository(db)

	doc, entry := newTestDocument("submitter-001", 2)
	require.NoError(t, repo.Create(doc, entry))

	err := repo.ApplyTransition(&repository.TransitionUpdate{
		DocumentID:  doc.ID,
		StageNumber: 1,
		ApproverID:  "approver-001",
		Comment:     "同意",
		Transition:  workflow.ApproveTransition(1, 2),
		Entry: &model.AuditEntryModel{
			ID:      uuid.New().String(),
			ActorID: "approver-001",
			Action:  model.ActionStageApproved,
			Details: "Stage 1 approved. Comment: 同意",
		},
	})
	require.NoError(t, err)

	found, err := repo.FindByID(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentInProgress, found.Status)
	assert.Equal(t, 2, found.CurrentStageNumber)
	assert.Nil(t, found.CompletedAt)

	assert.Equal(t, model.StageApproved, found.Stages[0].Status)
	assert.Equal(t, "同意", found.Stages[0].Comment)
	assert.NotNil(t, found.Stages[0].ActionAt)
	assert.Equal(t, model.StagePending, found.Stages[1].Status)

	// 审计记录追加且 Seq 递增
	require.Len(t, found.AuditTrail, 2)
	assert.Equal(t, 2, found.AuditTrail[1].Seq)
	assert.Equal(t, model.ActionStageApproved, found.AuditTrail[1].Action)
}

// TestDocumentRepository_ApplyTransition_Final 测试终态写入折叠在同一事务
func TestDocumentRepository_ApplyTransition_Final(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentRepository(db)

	doc, entry := newTestDocument("submitter-001", 1)
	require.NoError(t, repo.Create(doc, entry))

	err := repo.ApplyTransition(&repository.TransitionUpdate{
		DocumentID:  doc.ID,
		StageNumber: 1,
		ApproverID:  "approver-001",
		Transition:  workflow.ApproveTransition(1, 1),
		Entry: &model.AuditEntryModel{
			ID:      uuid.New().String(),
			ActorID: "approver-001",
			Action:  model.ActionStageApproved,
		},
	})
	require.NoError(t, err)

	found, err := repo.FindByID(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentApproved, found.Status)
	assert.Equal(t, 2, found.CurrentStageNumber)
	require.NotNil(t, found.CompletedAt)

	// Approved 终态进度收敛到 count/count,指针越界不外泄
	assert.Equal(t, 1, found.ProgressCompleted)
	assert.Equal(t, 1, found.ProgressTotal)
}

// TestDocumentRepository_ApplyTransition_SecondWriterLoses 测试同一阶段的第二次写入被拒绝
func TestDocumentRepository_ApplyTransition_SecondWriterLoses(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentRepository(db)

	doc, entry := newTestDocument("submitter-001", 2)
	require.NoError(t, repo.Create(doc, entry))

	apply := func(action string, tr workflow.Transition) error {
		return repo.ApplyTransition(&repository.TransitionUpdate{
			DocumentID:  doc.ID,
			StageNumber: 1,
			ApproverID:  "approver-001",
			Transition:  tr,
			Entry: &model.AuditEntryModel{
				ID:      uuid.New().String(),
				ActorID: "approver-001",
				Action:  action,
			},
		})
	}

	// 第一次通过成功
	require.NoError(t, apply(model.ActionStageApproved, workflow.ApproveTransition(1, 2)))

	// 基于同一旧观察的第二次写入(无论 approve 还是 reject)必须失败
	err := apply(model.ActionStageApproved, workflow.ApproveTransition(1, 2))
	assert.Equal(t, workflow.CodeConcurrentModification, workflow.CodeOf(err))

	err = apply(model.ActionStageRejected, workflow.RejectTransition(1))
	assert.Equal(t, workflow.CodeConcurrentModification, workflow.CodeOf(err))

	// 失败的写入不留下任何痕迹: 状态不变,审计只有 2 条
	found, err := repo.FindByID(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentInProgress, found.Status)
	assert.Len(t, found.AuditTrail, 2)
}

// setupFileTestDB 创建文件数据库,供多个写入方并发访问。
// 内存库单连接,测不出真正的并发写入。
func setupFileTestDB(t *testing.T) *gorm.DB {
	dsn := "file:" + filepath.Join(t.TempDir(), "docflow.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))
	return db
}

// TestDocumentRepository_ApplyTransition_ConcurrentWriters 测试真正并发的写入竞争:
// 两个审批动作基于同一观察同时发起,恰好一个成功,败者得到并发冲突错误
func TestDocumentRepository_ApplyTransition_ConcurrentWriters(t *testing.T) {
	db := setupFileTestDB(t)
	repo := repository.NewDocumentRepository(db)

	doc, entry := newTestDocument("submitter-001", 2)
	require.NoError(t, repo.Create(doc, entry))

	// approve 与 reject 同时基于 "第一阶段待处理" 的观察发起写入
	updates := []*repository.TransitionUpdate{
		{
			DocumentID:  doc.ID,
			StageNumber: 1,
			ApproverID:  "approver-001",
			Transition:  workflow.ApproveTransition(1, 2),
			Entry: &model.AuditEntryModel{
				ID:      uuid.New().String(),
				ActorID: "approver-001",
				Action:  model.ActionStageApproved,
			},
		},
		{
			DocumentID:  doc.ID,
			StageNumber: 1,
			ApproverID:  "approver-001",
			Transition:  workflow.RejectTransition(1),
			Entry: &model.AuditEntryModel{
				ID:      uuid.New().String(),
				ActorID: "approver-001",
				Action:  model.ActionStageRejected,
			},
		},
	}

	var wg sync.WaitGroup
	results := make([]error, len(updates))
	for i, u := range updates {
		wg.Add(1)
		go func(i int, u *repository.TransitionUpdate) {
			defer wg.Done()
			results[i] = repo.ApplyTransition(u)
		}(i, u)
	}
	wg.Wait()

	// 恰好一个成功,败者必须拿到并发冲突
	var succeeded, conflicted int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case workflow.CodeOf(err) == workflow.CodeConcurrentModification:
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)

	// 终态与胜者一致,败者不留下任何痕迹
	found, err := repo.FindByID(doc.ID)
	require.NoError(t, err)
	require.Len(t, found.AuditTrail, 2)
	switch found.AuditTrail[1].Action {
	case model.ActionStageApproved:
		assert.Equal(t, model.DocumentInProgress, found.Status)
		assert.Equal(t, 2, found.CurrentStageNumber)
		assert.Equal(t, model.StageApproved, found.Stages[0].Status)
	case model.ActionStageRejected:
		assert.Equal(t, model.DocumentRejected, found.Status)
		assert.Equal(t, 1, found.CurrentStageNumber)
		assert.Equal(t, model.StageRejected, found.Stages[0].Status)
		require.NotNil(t, found.CompletedAt)
	default:
		t.Fatalf("unexpected audit action: %s", found.AuditTrail[1].Action)
	}
	assert.Equal(t, model.StagePending, found.Stages[1].Status)
}

// TestDocumentRepository_ApplyTransition_TerminalDocument 测试终态文档拒绝继续流转
func TestDocumentRepository_ApplyTransition_TerminalDocument(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentRepository(db)

	doc, entry := newTestDocument("submitter-001", 2)
	require.NoError(t, repo.Create(doc, entry))

	// 第一阶段直接拒绝,文档进入 Rejected 终态
	require.NoError(t, repo.ApplyTransition(&repository.TransitionUpdate{
		DocumentID:  doc.ID,
		StageNumber: 1,
		ApproverID:  "approver-001",
		Transition:  workflow.RejectTransition(1),
		Entry: &model.AuditEntryModel{
			ID:      uuid.New().String(),
			ActorID: "approver-001",
			Action:  model.ActionStageRejected,
		},
	}))

	// 第二阶段审批人尝试通过,阶段行仍是 Pending 但文档已终态,必须失败
	err := repo.ApplyTransition(&repository.TransitionUpdate{
		DocumentID:  doc.ID,
		StageNumber: 2,
		ApproverID:  "approver-002",
		Transition:  workflow.ApproveTransition(2, 2),
		Entry: &model.AuditEntryModel{
			ID:      uuid.New().String(),
			ActorID: "approver-002",
			Action:  model.ActionStageApproved,
		},
	})
	assert.Equal(t, workflow.CodeConcurrentModification, workflow.CodeOf(err))

	// 被拒绝后后续阶段保持 Pending
	found, err := repo.FindByID(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentRejected, found.Status)
	assert.Equal(t, model.StagePending, found.Stages[1].Status)
}

// TestDocumentRepository_FindPendingForApprover 测试待办队列查询
func TestDocumentRepository_FindPendingForApprover(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentRepository(db)

	// 文档 1: 第一阶段是 approver-001
	doc1, entry1 := newTestDocument("submitter-001", 2)
	require.NoError(t, repo.Create(doc1, entry1))

	// 文档 2: 同样第一阶段是 approver-001,但已被通过,当前阶段指向 approver-002
	doc2, entry2 := newTestDocument("submitter-001", 2)
	require.NoError(t, repo.Create(doc2, entry2))
	require.NoError(t, repo.ApplyTransition(&repository.TransitionUpdate{
		DocumentID:  doc2.ID,
		StageNumber: 1,
		ApproverID:  "approver-001",
		Transition:  workflow.ApproveTransition(1, 2),
		Entry: &model.AuditEntryModel{
			ID:      uuid.New().String(),
			ActorID: "approver-001",
			Action:  model.ActionStageApproved,
		},
	}))

	// approver-001 只剩文档 1 待办
	pending, err := repo.FindPendingForApprover("approver-001")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, doc1.ID, pending[0].ID)

	// approver-002 轮到文档 2
	pending, err = repo.FindPendingForApprover("approver-002")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, doc2.ID, pending[0].ID)
}

// TestDocumentRepository_FindPaginated_RoleScope 测试角色可见范围过滤
func TestDocumentRepository_FindPaginated_RoleScope(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentRepository(db)

	docA, entryA := newTestDocument("submitter-001", 1)
	require.NoError(t, repo.Create(docA, entryA))
	docB, entryB := newTestDocument("submitter-002", 2)
	require.NoError(t, repo.Create(docB, entryB))

	// Submitter 只看自己的
	docs, total, err := repo.FindPaginated(&repository.DocumentFilter{
		CallerID:   "submitter-001",
		CallerRole: model.RoleSubmitter,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, docs, 1)
	assert.Equal(t, docA.ID, docs[0].ID)

	// Approver 只看自己持有阶段的(approver-002 只出现在 docB 的第二阶段)
	docs, total, err = repo.FindPaginated(&repository.DocumentFilter{
		CallerID:   "approver-002",
		CallerRole: model.RoleApprover,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, docs, 1)
	assert.Equal(t, docB.ID, docs[0].ID)

	// Admin 看全部
	_, total, err = repo.FindPaginated(&repository.DocumentFilter{
		CallerID:   "admin-001",
		CallerRole: model.RoleAdmin,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

// TestDocumentRepository_FindPaginated_StatusFilter 测试状态过滤和分页
func TestDocumentRepository_FindPaginated_StatusFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewDocumentRepository(db)

	for i := 0; i < 3; i++ {
		doc, entry := newTestDocument("submitter-001", 1)
		require.NoError(t, repo.Create(doc, entry))
	}

	pending := model.DocumentPending
	docs, total, err := repo.FindPaginated(&repository.DocumentFilter{
		Status:     &pending,
		CallerRole: model.RoleAdmin,
		Page:       1,
		PageSize:   2,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, docs, 2)

	approved := model.DocumentApproved
	_, total, err = repo.FindPaginated(&repository.DocumentFilter{
		Status:     &approved,
		CallerRole: model.RoleAdmin,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}
