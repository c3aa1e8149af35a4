package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/lab1702/arena-bot/game"
)

func newTestClient(s *Server) *Client {
	return &Client{
		ID:     1,
		server: s,
		send:   make(chan ServerMessage, 64),
	}
}

// lastReply drains the client's queue and returns the final message.
func lastReply(t *testing.T, c *Client) ServerMessage {
	t.Helper()
	var msg ServerMessage
	got := false
	for {
		select {
		case msg = <-c.send:
			got = true
		default:
			if !got {
				t.Fatal("Expected a reply, got none")
			}
			return msg
		}
	}
}

func TestHandleMessageRouting(t *testing.T) {
	arena := newTestArena()
	s := NewServer(arena, quietLogger())
	c := newTestClient(s)

	c.handleMessage(ClientMessage{Type: MsgTypeAddBot})
	if reply := lastReply(t, c); reply.Type != MsgTypeInfo {
		t.Errorf("Expected info after addbot, got %+v", reply)
	}
	if n := arena.countKind(KindBot); n != 1 {
		t.Fatalf("Expected 1 bot, got %d", n)
	}

	c.handleMessage(ClientMessage{Type: MsgTypePause, Data: json.RawMessage(`{"paused":true}`)})
	if !s.Paused() {
		t.Error("Expected the server to be paused")
	}
	c.handleMessage(ClientMessage{Type: MsgTypePause, Data: json.RawMessage(`{"paused":false}`)})
	if s.Paused() {
		t.Error("Expected the server to resume")
	}
	lastReply(t, c)

	c.handleMessage(ClientMessage{Type: MsgTypePattern, Data: json.RawMessage(`{"pattern":"zigzag"}`)})
	if reply := lastReply(t, c); reply.Type != MsgTypeInfo {
		t.Errorf("Expected info after pattern, got %+v", reply)
	}
	if arena.State().Pattern != PatternZigzag {
		t.Errorf("Expected zigzag, got %s", arena.State().Pattern)
	}

	c.handleMessage(ClientMessage{Type: MsgTypeRemoveBot})
	if reply := lastReply(t, c); reply.Type != MsgTypeInfo {
		t.Errorf("Expected info after removebot, got %+v", reply)
	}
	if n := arena.countKind(KindBot); n != 0 {
		t.Errorf("Expected no bots, got %d", n)
	}
}

func TestHandleMessageRejects(t *testing.T) {
	tests := []struct {
		name string
		msg  ClientMessage
	}{
		{"unknown type", ClientMessage{Type: "nonexistent_type", Data: json.RawMessage(`{}`)}},
		{"remove with no bots", ClientMessage{Type: MsgTypeRemoveBot}},
		{"remove unknown id", ClientMessage{Type: MsgTypeRemoveBot, Data: json.RawMessage(`{"id":"nope"}`)}},
		{"bad removebot payload", ClientMessage{Type: MsgTypeRemoveBot, Data: json.RawMessage(`[1]`)}},
		{"bad pause payload", ClientMessage{Type: MsgTypePause, Data: json.RawMessage(`"yes"`)}},
		{"unknown pattern", ClientMessage{Type: MsgTypePattern, Data: json.RawMessage(`{"pattern":"loop"}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(newTestArena(), quietLogger())
			c := newTestClient(s)
			c.handleMessage(tt.msg)
			if reply := lastReply(t, c); reply.Type != MsgTypeError {
				t.Errorf("Expected an error reply, got %+v", reply)
			}
		})
	}
}

func TestRemoveBotRefusesPilot(t *testing.T) {
	arena := newTestArena()
	pilot := arena.AddPilot()
	s := NewServer(arena, quietLogger())
	c := newTestClient(s)

	data, _ := json.Marshal(RemoveBotData{ID: pilot.ID})
	c.handleMessage(ClientMessage{Type: MsgTypeRemoveBot, Data: data})
	if reply := lastReply(t, c); reply.Type != MsgTypeError {
		t.Errorf("Expected an error removing a pilot, got %+v", reply)
	}
	if arena.Ship(pilot.ID) == nil {
		t.Error("Expected the pilot to stay in the arena")
	}
}

func TestAddBotReportsFullArena(t *testing.T) {
	arena := newTestArena()
	for i := 0; i < MaxBots; i++ {
		arena.AddBot()
	}
	s := NewServer(arena, quietLogger())
	c := newTestClient(s)

	c.handleMessage(ClientMessage{Type: MsgTypeAddBot})
	reply := lastReply(t, c)
	if reply.Type != MsgTypeError || !strings.Contains(reply.Data.(string), "full") {
		t.Errorf("Expected an arena-full error, got %+v", reply)
	}
}

func TestHandleBots(t *testing.T) {
	arena := newTestArena()
	arena.AddPilot()
	arena.AddBot()
	arena.AddBot()
	s := NewServer(arena, quietLogger())
	arena.Step(FrameDT)

	rec := httptest.NewRecorder()
	s.HandleBots(rec, httptest.NewRequest(http.MethodGet, "/api/bots", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON, got %q", ct)
	}

	var body struct {
		Frame  uint64       `json:"frame"`
		Paused bool         `json:"paused"`
		Bots   []BotSummary `json:"bots"`
		Stats  ArenaStats   `json:"stats"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if body.Frame != 1 {
		t.Errorf("Expected frame 1, got %d", body.Frame)
	}
	if len(body.Bots) != 2 {
		t.Fatalf("Expected 2 bots, got %d", len(body.Bots))
	}
	for _, b := range body.Bots {
		var m game.Mode
		if err := m.UnmarshalText([]byte(b.Mode)); err != nil {
			t.Errorf("Expected a valid mode, got %q", b.Mode)
		}
		if b.Boost <= 0 || b.Health != ShipMaxHealth {
			t.Errorf("Expected fresh resources, got %+v", b)
		}
	}
}

func TestHandleBot(t *testing.T) {
	arena := newTestArena()
	b, _ := arena.AddBot()
	s := NewServer(arena, quietLogger())

	router := mux.NewRouter()
	router.HandleFunc("/api/bots/{id}", s.HandleBot)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bots/"+b.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var st ShipState
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if st.ID != b.ID || st.Kind != KindBot || st.Bot == nil {
		t.Errorf("Expected bot telemetry for %s, got %+v", b.ID, st)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bots/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestIsValidOrigin(t *testing.T) {
	tests := []struct {
		name   string
		host   string
		origin string
		want   bool
	}{
		{"no origin", "arena.example:8080", "", true},
		{"same origin", "arena.example:8080", "http://arena.example:8080", true},
		{"localhost dev", "arena.example:8080", "http://localhost:3000", true},
		{"loopback dev", "arena.example:8080", "http://127.0.0.1", true},
		{"foreign origin", "arena.example:8080", "http://evil.example", false},
		{"malformed origin", "arena.example:8080", "http://[::1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := isValidOrigin(r); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestWebSocketTelemetry(t *testing.T) {
	arena := newTestArena()
	arena.AddPilot()
	s := NewServer(arena, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)
	defer s.Shutdown()

	ts := httptest.NewServer(http.HandlerFunc(s.HandleWebSocket))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(ClientMessage{Type: MsgTypeAddBot}); err != nil {
		t.Fatalf("Failed to send addbot: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	sawInfo, sawBot := false, false
	for !sawInfo || !sawBot {
		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("Failed to read (info=%v bot=%v): %v", sawInfo, sawBot, err)
		}
		switch msg.Type {
		case MsgTypeInfo:
			sawInfo = true
		case MsgTypeUpdate:
			var st ArenaState
			if err := json.Unmarshal(msg.Data, &st); err != nil {
				t.Fatalf("Failed to decode update: %v", err)
			}
			for _, sh := range st.Ships {
				if sh.Bot != nil {
					sawBot = true
				}
			}
		}
	}
}
