package workflow

import (
	"github.com/mautops/docflow-gin/internal/model"
)

// MaxStages 单个文档允许的最大审批阶段数
const MaxStages = 10

// ApproverDirectory 审批人目录,由仓储层实现。
// 给定用户 ID 返回用户,不存在时返回 (nil, nil)。
type ApproverDirectory interface {
	FindByID(id string) (*model.UserModel, error)
}

// BuildStages 校验审批人列表并生成有序阶段列表。
//
// 输入顺序即审批顺序,本函数不排序也不去重,发现重复直接拒绝。
// 每个 ID 必须能解析为持有 Approver 角色的用户。
// 纯校验和构造,持久化由调用方完成。
func BuildStages(approverIDs []string, directory ApproverDirectory) ([]model.StageModel, error) {
	if len(approverIDs) == 0 || len(approverIDs) > MaxStages {
		return nil, ErrInvalidApproverSet
	}

	seen := make(map[string]struct{}, len(approverIDs))
	for _, id := range approverIDs {
		if _, dup := seen[id]; dup {
			return nil, ErrInvalidApproverSet
		}
		seen[id] = struct{}{}
	}

	stages := make([]model.StageModel, 0, len(approverIDs))
	for i, id := range approverIDs {
		user, err := directory.FindByID(id)
		if err != nil {
			return nil, err
		}
		if user == nil || user.Role != model.RoleApprover {
			return nil, NewInvalidApproverError(id)
		}
		stages = append(stages, model.StageModel{
			StageNumber: i + 1,
			ApproverID:  user.ID,
			Status:      model.StagePending,
		})
	}

	return stages, nil
}
