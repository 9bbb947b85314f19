package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Ackah054/theft-detection/internal/alerts"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()
	if hub == nil {
		t.Fatal("NewHub returned nil")
	}
	if hub.clients == nil {
		t.Error("clients map should be initialized")
	}
	if hub.broadcast == nil {
		t.Error("broadcast channel should be initialized")
	}
	if hub.register == nil {
		t.Error("register channel should be initialized")
	}
	if hub.unregister == nil {
		t.Error("unregister channel should be initialized")
	}
}

func TestHub_ClientCount(t *testing.T) {
	hub := NewHub()
	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestMessageType_Constants(t *testing.T) {
	tests := []struct {
		msgType  MessageType
		expected string
	}{
		{MessageTypeAlert, "alert"},
		{MessageTypeAlertStatus, "alert_status"},
		{MessageTypeStats, "stats"},
		{MessageTypePing, "ping"},
		{MessageTypePong, "pong"},
	}

	for _, tt := range tests {
		if string(tt.msgType) != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, string(tt.msgType))
		}
	}
}

func TestHub_Run_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{
		hub:  hub,
		send: make(chan []byte, 256),
	}

	hub.register <- client
	time.Sleep(10 * time.Millisecond)
	if hub.ClientCount() != 1 {
		t.Errorf("Expected 1 client, got %d", hub.ClientCount())
	}

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)
	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestHub_BroadcastAlert(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{
		hub:  hub,
		send: make(chan []byte, 256),
	}

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	alert := &alerts.Alert{
		ID:         "a1",
		Type:       alerts.TypeTheft,
		Severity:   alerts.SeverityHigh,
		Confidence: 92,
		Status:     alerts.StatusActive,
	}
	hub.BroadcastAlert(alert)
	time.Sleep(10 * time.Millisecond)

	select {
	case data := <-client.send:
		var received Message
		if err := json.Unmarshal(data, &received); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if received.Type != MessageTypeAlert {
			t.Errorf("Expected type %s, got %s", MessageTypeAlert, received.Type)
		}
		payload, ok := received.Data.(map[string]any)
		if !ok {
			t.Fatal("Data should be a map")
		}
		if payload["id"] != "a1" {
			t.Errorf("Expected alert id 'a1', got %v", payload["id"])
		}
	default:
		t.Error("Expected message on client.send channel")
	}
}

func TestHub_BroadcastStatusChange(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{
		hub:  hub,
		send: make(chan []byte, 256),
	}

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.BroadcastStatusChange(&alerts.Alert{ID: "a1", Status: alerts.StatusResolved})
	time.Sleep(10 * time.Millisecond)

	select {
	case data := <-client.send:
		var received Message
		if err := json.Unmarshal(data, &received); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if received.Type != MessageTypeAlertStatus {
			t.Errorf("Expected type %s, got %s", MessageTypeAlertStatus, received.Type)
		}
	default:
		t.Error("Expected message on client.send channel")
	}
}

func TestHub_BroadcastStats(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{
		hub:  hub,
		send: make(chan []byte, 256),
	}

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.BroadcastStats(alerts.Stats{Total: 3, Active: 2, Resolved: 1})
	time.Sleep(10 * time.Millisecond)

	select {
	case data := <-client.send:
		var received Message
		if err := json.Unmarshal(data, &received); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if received.Type != MessageTypeStats {
			t.Errorf("Expected type %s, got %s", MessageTypeStats, received.Type)
		}
		payload, ok := received.Data.(map[string]any)
		if !ok {
			t.Fatal("Data should be a map")
		}
		if payload["total"] != float64(3) {
			t.Errorf("Expected total 3, got %v", payload["total"])
		}
	default:
		t.Error("Expected message on client.send channel")
	}
}

func TestHub_DropsMessageWhenClientBufferFull(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// No reader and no buffer, so every send to this client must be skipped.
	stuck := &Client{
		hub:  hub,
		send: make(chan []byte),
	}
	healthy := &Client{
		hub:  hub,
		send: make(chan []byte, 256),
	}

	hub.register <- stuck
	hub.register <- healthy
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(Message{Type: MessageTypeStats, Data: "test"})
	time.Sleep(10 * time.Millisecond)

	select {
	case <-healthy.send:
	default:
		t.Error("healthy client should receive message")
	}
	if hub.ClientCount() != 2 {
		t.Errorf("Expected 2 clients, got %d", hub.ClientCount())
	}
}

func TestHandleWebSocket_PingPong(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatalf("Failed to send ping: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp Message
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("Failed to read pong: %v", err)
	}
	if resp.Type != MessageTypePong {
		t.Errorf("Expected type %s, got %s", MessageTypePong, resp.Type)
	}
}

func TestHandleWebSocket_ReceivesBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	defer conn.Close()

	// Let the hub register the connection before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	hub.BroadcastAlert(&alerts.Alert{ID: "a1", Status: alerts.StatusActive})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp Message
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("Failed to read broadcast: %v", err)
	}
	if resp.Type != MessageTypeAlert {
		t.Errorf("Expected type %s, got %s", MessageTypeAlert, resp.Type)
	}
}
