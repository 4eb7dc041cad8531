package websocket_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mautops/docflow-gin/internal/model"
	"github.com/mautops/docflow-gin/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startHub 启动 Hub 并注册客户端
func startHub(clients ...*websocket.Client) *websocket.Hub {
	hub := websocket.NewHub()
	go hub.Run()
	for _, client := range clients {
		hub.Register <- client
	}
	// 等待 Hub 处理注册
	time.Sleep(50 * time.Millisecond)
	return hub
}

// TestHub_RegisterUnregister 测试客户端注册注销
func TestHub_RegisterUnregister(t *testing.T) {
	client := websocket.NewClient("client-001", "user-001", nil, nil)
	hub := startHub(client)

	assert.True(t, hub.HasClient("client-001"))
	assert.Equal(t, 1, hub.GetClientCount())

	hub.Unregister <- client
	time.Sleep(50 * time.Millisecond)
	assert.False(t, hub.HasClient("client-001"))
	assert.Equal(t, 0, hub.GetClientCount())
}

// TestHub_BroadcastToUser 测试定向推送只到达目标用户
func TestHub_BroadcastToUser(t *testing.T) {
	alice := websocket.NewClient("client-001", "user-alice", nil, nil)
	bob := websocket.NewClient("client-002", "user-bob", nil, nil)
	hub := startHub(alice, bob)

	hub.BroadcastToUser("user-alice", []byte("hello"))

	select {
	case msg := <-alice.Send:
		assert.Equal(t, "hello", string(msg))
	case <-time.After(time.Second):
		t.Fatal("alice did not receive message")
	}

	select {
	case msg := <-bob.Send:
		t.Fatalf("bob should not receive message, got %q", msg)
	default:
	}
}

// TestHub_NotifyDocument 测试文档事件推送给提交人和各审批人
func TestHub_NotifyDocument(t *testing.T) {
	submitter := websocket.NewClient("client-001", "submitter-001", nil, nil)
	approver := websocket.NewClient("client-002", "approver-001", nil, nil)
	outsider := websocket.NewClient("client-003", "user-other", nil, nil)
	hub := startHub(submitter, approver, outsider)

	doc := &model.DocumentModel{
		ID:                 "doc-001",
		Title:              "采购合同",
		Status:             model.DocumentInProgress,
		SubmitterID:        "submitter-001",
		CurrentStageNumber: 2,
		StageCount:         3,
		Stages: []model.StageModel{
			{StageNumber: 1, ApproverID: "approver-001"},
			// 同一审批人出现两次也只推送一次
			{StageNumber: 2, ApproverID: "approver-001"},
		},
	}
	hub.NotifyDocument(doc, websocket.EventStageApproved)

	for _, client := range []*websocket.Client{submitter, approver} {
		select {
		case payload := <-client.Send:
			var event websocket.DocumentEvent
			require.NoError(t, json.Unmarshal(payload, &event))
			assert.Equal(t, websocket.EventStageApproved, event.Event)
			assert.Equal(t, "doc-001", event.DocumentID)
			assert.Equal(t, 2, event.CurrentStageNumber)
		case <-time.After(time.Second):
			t.Fatalf("client %s did not receive event", client.ID)
		}
	}

	// 审批人去重: 队列里只有一条
	select {
	case payload := <-approver.Send:
		t.Fatalf("approver received duplicate event: %s", payload)
	default:
	}

	// 无关用户不收到推送
	select {
	case payload := <-outsider.Send:
		t.Fatalf("outsider received event: %s", payload)
	default:
	}
}
