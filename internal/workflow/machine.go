package workflow

import (
	"github.com/mautops/docflow-gin/internal/model"
)

// 状态机规则:
//
//	文档: Pending -> InProgress -> {Approved | Rejected}
//	阶段: Pending -> {Approved | Rejected}
//
// Approved 和 Rejected 均为终态,没有出边。
// 本包只包含纯函数,不做任何持久化,条件写入由 repository 层执行。

// CheckAction 检查 actor 能否对文档的当前阶段执行审批动作。
// approve 和 reject 的前置条件完全相同,返回 nil 表示允许。
func CheckAction(doc *model.DocumentModel, actorID string) error {
	if doc == nil {
		return ErrDocumentNotFound
	}
	if doc.Status.Terminal() || doc.CurrentStageNumber > doc.StageCount {
		return ErrInvalidStage
	}
	stage := doc.CurrentStage()
	if stage == nil {
		return ErrInvalidStage
	}
	if stage.ApproverID != actorID {
		return ErrNotAssignedApprover
	}
	if stage.Status != model.StagePending {
		return ErrStageAlreadyProcessed
	}
	return nil
}

// CanApprove 判断 actor 能否审批通过当前阶段
func CanApprove(doc *model.DocumentModel, actorID string) bool {
	return CheckAction(doc, actorID) == nil
}

// CanReject 判断 actor 能否拒绝当前阶段,前置条件与 CanApprove 一致
func CanReject(doc *model.DocumentModel, actorID string) bool {
	return CheckAction(doc, actorID) == nil
}

// Transition 一次合法审批动作推导出的文档级变更
type Transition struct {
	StageStatus    model.StageStatus    // 当前阶段的新状态
	DocumentStatus model.DocumentStatus // 文档的新状态
	NextStage      int                  // 新的阶段指针
	Final          bool                 // 是否进入终态(需要设置 completedAt)
}

// ApproveTransition 计算审批通过阶段 stageNumber 后的状态变更。
// 最后一个阶段通过时文档直接进入 Approved 终态,指针越过阶段总数。
func ApproveTransition(stageNumber, stageCount int) Transition {
	t := Transition{
		StageStatus: model.StageApproved,
		NextStage:   stageNumber + 1,
	}
	if stageNumber >= stageCount {
		t.DocumentStatus = model.DocumentApproved
		t.Final = true
	} else {
		t.DocumentStatus = model.DocumentInProgress
	}
	return t
}

// RejectTransition 计算拒绝阶段 stageNumber 后的状态变更。
// 拒绝无论发生在哪个阶段都立即终止流程,后续阶段保持 Pending 不再变动。
func RejectTransition(stageNumber int) Transition {
	return Transition{
		StageStatus:    model.StageRejected,
		DocumentStatus: model.DocumentRejected,
		NextStage:      stageNumber,
		Final:          true,
	}
}

// DeriveDocumentStatus 由阶段状态推导文档状态,用于不变式校验:
// 任一阶段 Rejected 则为 Rejected;全部 Approved 则为 Approved;
// 第一阶段尚未动作则为 Pending;其余情况为 InProgress。
func DeriveDocumentStatus(stages []model.StageModel) model.DocumentStatus {
	if len(stages) == 0 {
		return model.DocumentPending
	}
	approved := 0
	for _, s := range stages {
		switch s.Status {
		case model.StageRejected:
			return model.DocumentRejected
		case model.StageApproved:
			approved++
		}
	}
	switch approved {
	case len(stages):
		return model.DocumentApproved
	case 0:
		return model.DocumentPending
	default:
		return model.DocumentInProgress
	}
}

// Progress 计算展示用的阶段进度 (completed, total)。
// 指针越界时收敛到 min(current, count)/count;终态 Approved 恒为 count/count。
func Progress(doc *model.DocumentModel) (int, int) {
	if doc.StageCount == 0 {
		return 0, 0
	}
	if doc.Status == model.DocumentApproved {
		return doc.StageCount, doc.StageCount
	}
	current := doc.CurrentStageNumber
	if current > doc.StageCount {
		current = doc.StageCount
	}
	return current, doc.StageCount
}
