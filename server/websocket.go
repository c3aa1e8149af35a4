package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// isValidOrigin checks if the origin is allowed to connect
func isValidOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// No origin header - could be a non-browser client
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		log.Warn("invalid origin URL", "origin", origin)
		return false
	}

	// Allow same-origin connections
	if r.Host == originURL.Host {
		return true
	}

	// Allow localhost connections for development
	if strings.HasPrefix(originURL.Host, "localhost:") ||
		strings.HasPrefix(originURL.Host, "127.0.0.1:") ||
		originURL.Host == "localhost" ||
		originURL.Host == "127.0.0.1" {
		return true
	}

	log.Warn("rejected websocket connection", "origin", origin)
	return false
}

var upgrader = websocket.Upgrader{
	CheckOrigin:       isValidOrigin,
	EnableCompression: true, // Enable per-message deflate compression
}

// Message types
const (
	MsgTypeAddBot    = "addbot"
	MsgTypeRemoveBot = "removebot"
	MsgTypePause     = "pause"
	MsgTypePattern   = "pattern"
	MsgTypeUpdate    = "update"
	MsgTypeInfo      = "info"
	MsgTypeError     = "error"
)

// BroadcastEvery sends telemetry on every Nth frame.
const BroadcastEvery = 3

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Client represents a connected telemetry viewer
type Client struct {
	ID     int
	conn   *websocket.Conn
	send   chan ServerMessage
	server *Server
}

// Server runs the arena frame loop and streams it to websocket clients.
type Server struct {
	mu         sync.RWMutex // guards clients and nextID
	clients    map[int]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan ServerMessage
	nextID     int

	arenaMu sync.Mutex // guards arena and paused
	arena   *Arena
	paused  bool

	logger   *log.Logger
	done     chan struct{}
	stopOnce sync.Once
}

// NewServer wraps an arena in a telemetry server.
func NewServer(arena *Arena, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		clients:    make(map[int]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan ServerMessage, 256),
		arena:      arena,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Run starts the frame loop and handles client events until ctx is
// cancelled or Shutdown is called.
func (s *Server) Run(ctx context.Context) error {
	go s.gameLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			s.Shutdown()
			s.closeClients()
			return nil
		case <-s.done:
			s.closeClients()
			return nil

		case client := <-s.register:
			s.mu.Lock()
			s.clients[client.ID] = client
			s.mu.Unlock()
			s.logger.Info("client connected", "client", client.ID)

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client.ID]; ok {
				delete(s.clients, client.ID)
				close(client.send)
			}
			s.mu.Unlock()
			s.logger.Info("client disconnected", "client", client.ID)

		case message := <-s.broadcast:
			s.mu.RLock()
			for _, client := range s.clients {
				select {
				case client.send <- message:
					// Successfully sent
				default:
					// Client send channel is full, skip this message
					s.logger.Warn("client send buffer full, skipping broadcast", "client", client.ID)
				}
			}
			s.mu.RUnlock()
		}
	}
}

// Shutdown stops the frame loop and disconnects every client.
func (s *Server) Shutdown() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, client := range s.clients {
		delete(s.clients, id)
		close(client.send)
	}
}

// gameLoop runs the arena simulation
func (s *Server) gameLoop(ctx context.Context) {
	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			if frame, stepped := s.step(); stepped && frame%BroadcastEvery == 0 {
				s.sendArenaState()
			}
		}
	}
}

// step advances the arena one frame unless paused.
func (s *Server) step() (uint64, bool) {
	s.arenaMu.Lock()
	defer s.arenaMu.Unlock()
	if s.paused {
		return s.arena.Frame(), false
	}
	s.arena.Step(FrameDT)
	return s.arena.Frame(), true
}

// sendArenaState queues a telemetry frame for every client
func (s *Server) sendArenaState() {
	s.arenaMu.Lock()
	state := s.arena.State()
	s.arenaMu.Unlock()

	select {
	case s.broadcast <- ServerMessage{Type: MsgTypeUpdate, Data: state}:
	default:
		s.logger.Warn("broadcast queue full, dropping frame", "frame", state.Frame)
	}
}

// BotSummary is one row of the /api/bots listing.
type BotSummary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Mode       string  `json:"mode"`
	Health     float64 `json:"health"`
	Boost      float64 `json:"boost"`
	Heat       float64 `json:"heat"`
	Overheated bool    `json:"overheated"`
	Kills      int     `json:"kills"`
	Deaths     int     `json:"deaths"`
}

// HandleBots reports every bot's mode and resources as JSON.
func (s *Server) HandleBots(w http.ResponseWriter, r *http.Request) {
	// Enable CORS for cross-origin requests
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")

	s.arenaMu.Lock()
	bots := make([]BotSummary, 0)
	for _, sh := range s.arena.Ships() {
		if sh.agent == nil {
			continue
		}
		bots = append(bots, BotSummary{
			ID:         sh.ID,
			Name:       sh.Name,
			Mode:       sh.agent.Mode().String(),
			Health:     sh.health.Current(),
			Boost:      sh.agent.Boost(),
			Heat:       sh.agent.Heat(),
			Overheated: sh.agent.Overheated(),
			Kills:      sh.kills,
			Deaths:     sh.deaths,
		})
	}
	response := map[string]interface{}{
		"frame":  s.arena.Frame(),
		"paused": s.paused,
		"bots":   bots,
		"stats":  s.arena.Stats(),
	}
	s.arenaMu.Unlock()

	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("encode bots response", "err", err)
	}
}

// HandleBot reports one ship's full telemetry, routed as /api/bots/{id}.
func (s *Server) HandleBot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")

	id := mux.Vars(r)["id"]
	s.arenaMu.Lock()
	var state *ShipState
	if sh := s.arena.Ship(id); sh != nil {
		st := sh.state()
		state = &st
	}
	s.arenaMu.Unlock()

	if state == nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "ship not found"})
		return
	}
	if err := json.NewEncoder(w).Encode(state); err != nil {
		s.logger.Error("encode bot response", "err", err)
	}
}

// HandleWebSocket upgrades a telemetry viewer connection
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade", "err", err)
		return
	}

	s.mu.Lock()
	clientID := s.nextID
	s.nextID++
	s.mu.Unlock()

	client := &Client{
		ID:     clientID,
		conn:   conn,
		send:   make(chan ServerMessage, 256),
		server: s,
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.server.unregister <- c:
		case <-c.server.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg ClientMessage
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.Warn("websocket read", "client", c.ID, "err", err)
			}
			break
		}

		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
