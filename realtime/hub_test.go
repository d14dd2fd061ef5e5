package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"caseassist-backend/agents"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subscribeServer(t *testing.T, hub *Hub, caseID uuid.UUID) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		hub.Subscribe(caseID, conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubBroadcastsAgentStatusToSubscribers(t *testing.T) {
	hub := NewHub(nil)
	caseID := uuid.New()
	srv := subscribeServer(t, hub, caseID)

	conn := dial(t, srv)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	require.Eventually(t, func() bool { return hub.SubscriberCount(caseID) == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastAgentStatus(caseID, agents.AgentEvent{AgentName: "intake", Status: "running", Progress: 0})

	msg := readMessage(t, conn)
	assert.Equal(t, "agent_status", msg.Type)
	assert.Equal(t, caseID, msg.CaseID)
	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "intake", payload["agent_name"])
	assert.Equal(t, "running", payload["status"])
}

func TestHubBroadcastsWorkflowState(t *testing.T) {
	hub := NewHub(nil)
	caseID := uuid.New()
	srv := subscribeServer(t, hub, caseID)

	conn := dial(t, srv)
	defer conn.Close(websocket.StatusNormalClosure, "done")
	require.Eventually(t, func() bool { return hub.SubscriberCount(caseID) == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastWorkflowState(caseID, agents.WorkflowState{
		CaseID:          caseID,
		CompletedAgents: []string{"intake"},
		WorkflowStatus:  agents.WorkflowRunning,
		CurrentAgent:    "research",
	})

	msg := readMessage(t, conn)
	assert.Equal(t, "workflow_state", msg.Type)
	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "running", payload["workflow_status"])
	assert.Equal(t, "research", payload["current_agent"])
}

func TestHubScopesBroadcastsToCase(t *testing.T) {
	hub := NewHub(nil)
	watched := uuid.New()
	other := uuid.New()
	srv := subscribeServer(t, hub, watched)

	conn := dial(t, srv)
	defer conn.Close(websocket.StatusNormalClosure, "done")
	require.Eventually(t, func() bool { return hub.SubscriberCount(watched) == 1 }, time.Second, 10*time.Millisecond)

	// an event for another case never reaches this subscriber
	hub.BroadcastAgentStatus(other, agents.AgentEvent{AgentName: "intake", Status: "running"})
	hub.BroadcastAgentStatus(watched, agents.AgentEvent{AgentName: "drafting", Status: "completed", Progress: 100})

	msg := readMessage(t, conn)
	payload := msg.Payload.(map[string]interface{})
	assert.Equal(t, "drafting", payload["agent_name"])
}

func TestHubUnsubscribeRemovesConnection(t *testing.T) {
	hub := NewHub(nil)
	caseID := uuid.New()

	var unsubscribe func()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		unsubscribe = hub.Subscribe(caseID, conn)
	}))
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close(websocket.StatusNormalClosure, "done")
	require.Eventually(t, func() bool { return hub.SubscriberCount(caseID) == 1 }, time.Second, 10*time.Millisecond)

	unsubscribe()
	assert.Equal(t, 0, hub.SubscriberCount(caseID))
}
