package progress

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"poppiconni-pipeline-server/modules/common/model"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// 개발용 - 모든 origin 허용
		return true
	},
}

// client - 한 generation을 구독하는 websocket 연결
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub - generation id별 상태 전이 브로드캐스트
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*client]struct{}
}

// NewHub - Hub 생성
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*client]struct{}),
	}
}

// statusMessage - 구독자에게 전송되는 메시지
type statusMessage struct {
	Type   string                 `json:"type"`
	Record model.StatusProjection `json:"record"`
}

// NotifyStatus - 상태 전이를 해당 generation 구독자 전원에게 전송
// Orchestrator의 Notifier 계약 구현
func (h *Hub) NotifyStatus(record *model.GenerationRecord) {
	h.mu.RLock()
	clients := h.subscribers[record.GenerationID]
	if len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	payload, err := json.Marshal(statusMessage{
		Type:   "status_update",
		Record: record.Projection(),
	})
	if err != nil {
		h.mu.RUnlock()
		log.Printf("❌ [Progress] Failed to marshal status: %v", err)
		return
	}

	stale := []*client{}
	for c := range clients {
		select {
		case c.send <- payload:
		default:
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		h.unsubscribe(record.GenerationID, c)
	}
}

func (h *Hub) subscribe(generationID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[generationID] == nil {
		h.subscribers[generationID] = make(map[*client]struct{})
	}
	h.subscribers[generationID][c] = struct{}{}
	log.Printf("👤 [Progress] Subscriber joined %s (total: %d)", generationID, len(h.subscribers[generationID]))
}

func (h *Hub) unsubscribe(generationID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.subscribers[generationID]; ok {
		if _, exists := clients[c]; exists {
			close(c.send)
			delete(clients, c)
		}
		if len(clients) == 0 {
			delete(h.subscribers, generationID)
		}
	}
}

// RegisterRoutes - 라우트 등록
func (h *Hub) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws/pipeline/{generationId}", h.handleWebSocket)
	log.Println("✅ Progress routes registered: /ws/pipeline/{generationId}")
}

// handleWebSocket - GET /ws/pipeline/{generationId} 구독 연결
func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	generationID := vars["generationId"]
	if generationID == "" {
		http.Error(w, "generationId is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ [Progress] WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, 16),
	}
	h.subscribe(generationID, c)

	go c.writePump()
	go c.readPump(h, generationID)
}

// readPump - 클라이언트는 메시지를 보내지 않음, 연결 종료 감지용
func (c *client) readPump(h *Hub, generationID string) {
	defer func() {
		h.unsubscribe(generationID, c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️ [Progress] WebSocket error: %v", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("❌ [Progress] WebSocket write error: %v", err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
