package server

import (
	"encoding/json"
	"errors"
	"fmt"
)

// RemoveBotData names the bot to remove. An empty ID removes the newest bot.
type RemoveBotData struct {
	ID string `json:"id"`
}

// PauseData freezes or resumes the frame loop
type PauseData struct {
	Paused bool `json:"paused"`
}

// PatternData switches the pilots' flight pattern
type PatternData struct {
	Pattern string `json:"pattern"`
}

// handleMessage processes a message from the client
func (c *Client) handleMessage(msg ClientMessage) {
	// Recover from any panic to prevent disconnection
	defer func() {
		if r := recover(); r != nil {
			c.server.logger.Error("panic in handleMessage", "client", c.ID, "type", msg.Type, "panic", r)
		}
	}()

	switch msg.Type {
	case MsgTypeAddBot:
		c.handleAddBot(msg.Data)
	case MsgTypeRemoveBot:
		c.handleRemoveBot(msg.Data)
	case MsgTypePause:
		c.handlePause(msg.Data)
	case MsgTypePattern:
		c.handlePattern(msg.Data)
	default:
		c.server.logger.Warn("unknown message type", "client", c.ID, "type", msg.Type)
		c.reply(MsgTypeError, fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (c *Client) handleAddBot(_ json.RawMessage) {
	s := c.server
	s.arenaMu.Lock()
	ship, err := s.arena.AddBot()
	s.arenaMu.Unlock()
	if err != nil {
		c.reply(MsgTypeError, err.Error())
		return
	}
	c.reply(MsgTypeInfo, fmt.Sprintf("%s joined the arena", ship.Name))
}

func (c *Client) handleRemoveBot(data json.RawMessage) {
	var req RemoveBotData
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			c.reply(MsgTypeError, "invalid removebot payload")
			return
		}
	}

	s := c.server
	s.arenaMu.Lock()
	var err error
	if req.ID == "" {
		err = s.arena.RemoveLastBot()
	} else if sh := s.arena.Ship(req.ID); sh != nil && sh.Kind != KindBot {
		err = fmt.Errorf("remove %s: not a bot", req.ID)
	} else {
		err = s.arena.RemoveShip(req.ID)
	}
	s.arenaMu.Unlock()

	if err != nil {
		if errors.Is(err, ErrShipNotFound) {
			c.reply(MsgTypeError, "no such bot")
			return
		}
		c.reply(MsgTypeError, err.Error())
		return
	}
	c.reply(MsgTypeInfo, "bot removed")
}

func (c *Client) handlePause(data json.RawMessage) {
	var req PauseData
	if err := json.Unmarshal(data, &req); err != nil {
		c.reply(MsgTypeError, "invalid pause payload")
		return
	}
	c.server.SetPaused(req.Paused)
	if req.Paused {
		c.reply(MsgTypeInfo, "paused")
	} else {
		c.reply(MsgTypeInfo, "resumed")
	}
}

func (c *Client) handlePattern(data json.RawMessage) {
	var req PatternData
	if err := json.Unmarshal(data, &req); err != nil {
		c.reply(MsgTypeError, "invalid pattern payload")
		return
	}
	p, err := ParsePattern(req.Pattern)
	if err != nil {
		c.reply(MsgTypeError, err.Error())
		return
	}

	s := c.server
	s.arenaMu.Lock()
	s.arena.SetPattern(p)
	s.arenaMu.Unlock()
	c.reply(MsgTypeInfo, fmt.Sprintf("pilots now fly %s", p))
}

// reply sends a message to this client only. A full buffer drops it.
func (c *Client) reply(msgType string, text string) {
	select {
	case c.send <- ServerMessage{Type: msgType, Data: text}:
	default:
		c.server.logger.Warn("client send buffer full, dropping reply", "client", c.ID, "type", msgType)
	}
}

// SetPaused freezes or resumes the frame loop.
func (s *Server) SetPaused(paused bool) {
	s.arenaMu.Lock()
	s.paused = paused
	s.arenaMu.Unlock()
}

// Paused reports whether the frame loop is frozen.
func (s *Server) Paused() bool {
	s.arenaMu.Lock()
	defer s.arenaMu.Unlock()
	return s.paused
}
