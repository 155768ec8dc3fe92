// Package server WebSocket 事件网关
//
// 领域数据发生变更时把 {entity, action, id} 推送给所有已连接的
// 前端，前端据此刷新列表而不用轮询。只推变更通知，不推数据本体。
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// upgrader WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ChangeEvent 推送给客户端的变更通知
type ChangeEvent struct {
	Type      string    `json:"type"` // 恒为 "change"
	Entity    string    `json:"entity"`
	Action    string    `json:"action"` // created | updated | deleted
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// EventGateway WebSocket 事件网关
//
// 网关只做扇出：写失败的连接直接摘除，不做重试或补发。
type EventGateway struct {
	clients map[*websocket.Conn]bool
	mu      sync.Mutex // 保护 clients 和并发写
	metrics *Metrics
}

// NewEventGateway 创建事件网关实例
func NewEventGateway(metrics *Metrics) *EventGateway {
	return &EventGateway{
		clients: make(map[*websocket.Conn]bool),
		metrics: metrics,
	}
}

// Notify 广播一条领域变更
// 实现各领域包的 Notifier 接口。
func (g *EventGateway) Notify(entity, action, id string) {
	event := ChangeEvent{
		Type:      "change",
		Entity:    entity,
		Action:    action,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for conn := range g.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(g.clients, conn)
			if g.metrics != nil {
				g.metrics.WSConnectionsActive.Dec()
			}
			continue
		}
		if g.metrics != nil {
			g.metrics.RecordWSMessage("out", "change")
		}
	}
}

// HandleWebSocket 处理 WebSocket 连接请求
//
// 路由: GET /ws/events
//
// 客户端消息：
//
//	心跳：{"type": "ping"} -> 响应 {"type": "pong"}
func (g *EventGateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[events] WebSocket upgrade error: %v", err)
		return
	}

	g.addClient(conn)
	defer g.removeClient(conn)

	log.Printf("[events] WebSocket client connected: %s", r.RemoteAddr)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var in struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &in); err != nil {
			continue
		}
		if in.Type == "ping" {
			if g.metrics != nil {
				g.metrics.RecordWSMessage("in", "ping")
			}
			g.writeTo(conn, map[string]string{"type": "pong"})
		}
	}
}

// ClientCount 当前连接数（测试用）
func (g *EventGateway) ClientCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.clients)
}

func (g *EventGateway) addClient(conn *websocket.Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[conn] = true
	if g.metrics != nil {
		g.metrics.WSConnectionsActive.Inc()
	}
}

func (g *EventGateway) removeClient(conn *websocket.Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.clients[conn] {
		delete(g.clients, conn)
		if g.metrics != nil {
			g.metrics.WSConnectionsActive.Dec()
		}
	}
	conn.Close()
}

func (g *EventGateway) writeTo(conn *websocket.Conn, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	conn.WriteMessage(websocket.TextMessage, payload)
}
