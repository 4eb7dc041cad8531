package websocket

import (
	"encoding/json"
	"time"

	"github.com/mautops/docflow-gin/internal/model"
	"github.com/sirupsen/logrus"
)

// 文档事件类型
const (
	EventDocumentCreated = "document_created"
	EventStageApproved   = "stage_approved"
	EventStageRejected   = "stage_rejected"
)

// DocumentEvent 推送给客户端的文档事件
type DocumentEvent struct {
	Event              string    `json:"event"`
	DocumentID         string    `json:"document_id"`
	Title              string    `json:"title"`
	Status             string    `json:"status"`
	CurrentStageNumber int       `json:"current_stage_number"`
	StageCount         int       `json:"stage_count"`
	Timestamp          time.Time `json:"timestamp"`
}

// NotifyDocument 将文档事件推送给相关用户: 提交人和各审批人
// 推送失败只影响实时性,审批结果以数据库为准
func (h *Hub) NotifyDocument(doc *model.DocumentModel, event string) {
	payload, err := json.Marshal(&DocumentEvent{
		Event:              event,
		DocumentID:         doc.ID,
		Title:              doc.Title,
		Status:             string(doc.Status),
		CurrentStageNumber: doc.CurrentStageNumber,
		StageCount:         doc.StageCount,
		Timestamp:          time.Now(),
	})
	if err != nil {
		logrus.WithError(err).Warn("Failed to marshal document event")
		return
	}

	notified := map[string]struct{}{doc.SubmitterID: {}}
	h.BroadcastToUser(doc.SubmitterID, payload)

	for _, stage := range doc.Stages {
		if _, ok := notified[stage.ApproverID]; ok {
			continue
		}
		notified[stage.ApproverID] = struct{}{}
		h.BroadcastToUser(stage.ApproverID, payload)
	}
}
