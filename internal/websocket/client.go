package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// 单次写入的超时时间
	writeWait = 10 * time.Second

	// 收到 pong 后允许的最长静默时间
	pongWait = 60 * time.Second

	// ping 周期,必须小于 pongWait
	pingPeriod = (pongWait * 9) / 10

	// 入站消息大小上限。客户端只接收审批事件推送,
	// 入站方向没有业务消息,这个上限纯粹是防御性的
	maxMessageSize = 512 * 1024
)

// Client 一条已认证的 WebSocket 连接。
// 同一用户可以同时持有多条连接(多标签页),
// 文档事件会推送到该用户的每一条连接。
type Client struct {
	// ID 连接 ID,每条连接唯一
	ID string

	// UserID 连接所属用户,投递审批事件时按此路由
	UserID string

	// Hub 所属的事件中心
	Hub *Hub

	// Conn 底层 WebSocket 连接
	Conn *websocket.Conn

	// Send 待推送的事件队列,缓冲写满说明客户端消费太慢
	Send chan []byte
}

// NewClient 创建客户端连接
func NewClient(id string, userID string, hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}
}

// ReadPump 消费入站帧直到连接关闭。
// 推送是单向的,入站数据全部丢弃,这个循环只负责
// 响应 pong 维持心跳,以及在断开时从 Hub 注销自己。
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).WithFields(logrus.Fields{
					"client": c.ID,
					"user":   c.UserID,
				}).Warn("WebSocket connection closed unexpectedly")
			}
			break
		}
	}
}

// WritePump 把 Send 队列里的文档事件推给客户端,并按周期发送 ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 注销了这条连接
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(event)

			// 把队列里积压的事件合并到同一帧发出
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"client": c.ID,
					"user":   c.UserID,
				}).Debug("Failed to flush document events")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
