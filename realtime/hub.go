// Package realtime pushes workflow progress to WebSocket subscribers. Each
// case has its own subscriber set; clients subscribe to the cases they are
// watching and receive agent status and workflow state messages as JSON.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"caseassist-backend/agents"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

// Message is the envelope every subscriber receives
type Message struct {
	Type    string      `json:"type"`
	CaseID  uuid.UUID   `json:"case_id"`
	Payload interface{} `json:"payload"`
}

// Hub fans workflow events out to the WebSocket connections subscribed to
// each case. Writes are serialized per connection; a connection whose write
// fails is dropped from the case.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[*subscriber]struct{}
	logger *zap.Logger
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   map[uuid.UUID]map[*subscriber]struct{}{},
		logger: logger,
	}
}

// Subscribe registers an accepted connection for a case and returns an
// unsubscribe function. The caller owns the connection's read loop.
func (h *Hub) Subscribe(caseID uuid.UUID, conn *websocket.Conn) func() {
	sub := &subscriber{conn: conn}
	h.mu.Lock()
	if h.subs[caseID] == nil {
		h.subs[caseID] = map[*subscriber]struct{}{}
	}
	h.subs[caseID][sub] = struct{}{}
	h.mu.Unlock()

	return func() { h.drop(caseID, sub) }
}

// SubscriberCount reports how many connections are watching a case
func (h *Hub) SubscriberCount(caseID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[caseID])
}

// BroadcastAgentStatus implements agents.Broadcaster
func (h *Hub) BroadcastAgentStatus(caseID uuid.UUID, event agents.AgentEvent) {
	h.broadcast(caseID, Message{Type: "agent_status", CaseID: caseID, Payload: event})
}

// BroadcastWorkflowState implements agents.Broadcaster
func (h *Hub) BroadcastWorkflowState(caseID uuid.UUID, state agents.WorkflowState) {
	h.broadcast(caseID, Message{Type: "workflow_state", CaseID: caseID, Payload: state})
}

func (h *Hub) broadcast(caseID uuid.UUID, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*subscriber, 0, len(h.subs[caseID]))
	for sub := range h.subs[caseID] {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		if err := sub.write(data); err != nil {
			h.logger.Debug("dropping dead subscriber",
				zap.String("case_id", caseID.String()), zap.Error(err))
			h.drop(caseID, sub)
		}
	}
}

func (h *Hub) drop(caseID uuid.UUID, sub *subscriber) {
	h.mu.Lock()
	if set, ok := h.subs[caseID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, caseID)
		}
	}
	h.mu.Unlock()
	sub.conn.Close(websocket.StatusNormalClosure, "unsubscribed")
}

// write serializes writes: the WebSocket does not support concurrent writers
func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.conn.Write(ctx, websocket.MessageText, data)
}
