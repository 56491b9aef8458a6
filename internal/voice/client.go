package voice

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/JawadJisan/coursepilot/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// EventType voice call lifecycle event
type EventType string

const (
	EventCallStart   EventType = "call-start"
	EventCallEnd     EventType = "call-end"
	EventMessage     EventType = "message"
	EventSpeechStart EventType = "speech-start"
	EventSpeechEnd   EventType = "speech-end"
	EventError       EventType = "error"
)

var (
	writeWait    = 10 * time.Second
	pongWait     = 30 * time.Second
	pingInterval = pongWait * 9 / 10
)

// CallOptions template and variables for starting an interview call
type CallOptions struct {
	AssistantID string            `json:"assistantId"`
	Questions   []string          `json:"questions"`
	Variables   map[string]string `json:"variables"`
}

// Handler event callback; message events receive *domain.TranscriptEntry,
// error events receive error, the rest receive nil
type Handler func(payload interface{})

type frame struct {
	Type       string `json:"type"`
	Role       string `json:"role,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Client voice call session over the websocket gateway. The gateway runs the
// AI agent; the client feeds it the question template, listens for lifecycle
// events and accumulates final transcripts for feedback generation.
type Client struct {
	gatewayURL string
	logger     *zap.Logger

	mu         sync.Mutex
	conn       *websocket.Conn
	handlers   map[EventType][]Handler
	transcript []domain.TranscriptEntry
	done       chan struct{}
}

// NewClient create a Client for the given gateway
func NewClient(gatewayURL string, logger *zap.Logger) *Client {
	return &Client{
		gatewayURL: gatewayURL,
		logger:     logger,
		handlers:   make(map[EventType][]Handler),
	}
}

// On register a handler for a lifecycle event
func (c *Client) On(event EventType, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], h)
}

// Transcript the accumulated exchanges of the current call
func (c *Client) Transcript() []domain.TranscriptEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.TranscriptEntry(nil), c.transcript...)
}

// Start dial the gateway and begin a call with the given options
func (c *Client) Start(ctx context.Context, opts *CallOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.gatewayURL, nil)
	if err != nil {
		return err
	}

	start, _ := json.Marshal(struct {
		Type string       `json:"type"`
		Call *CallOptions `json:"call"`
	}{Type: "start", Call: opts})
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, start); err != nil {
		conn.Close()
		return err
	}

	c.conn = conn
	c.transcript = nil
	c.done = make(chan struct{})
	go c.readRoutine(conn)
	go c.heartbeatRoutine(conn, c.done)
	return nil
}

// Stop end the call and close the connection. Safe to call twice.
func (c *Client) Stop() {
	c.mu.Lock()
	conn := c.conn
	done := c.done
	c.conn = nil
	c.done = nil
	c.mu.Unlock()
	if conn == nil {
		return
	}

	close(done)
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"end"}`))
	conn.Close()
}

func (c *Client) readRoutine(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.emit(EventCallEnd, nil)
			return
		}
		f := new(frame)
		if err := json.Unmarshal(raw, f); err != nil {
			c.logger.Debug("Dropping malformed gateway frame", zap.Error(err))
			continue
		}
		switch EventType(f.Type) {
		case EventCallStart:
			c.emit(EventCallStart, nil)
		case EventCallEnd:
			c.emit(EventCallEnd, nil)
			return
		case EventSpeechStart:
			c.emit(EventSpeechStart, nil)
		case EventSpeechEnd:
			c.emit(EventSpeechEnd, nil)
		case EventMessage:
			entry := &domain.TranscriptEntry{Role: f.Role, Content: f.Transcript}
			c.mu.Lock()
			c.transcript = append(c.transcript, *entry)
			c.mu.Unlock()
			c.emit(EventMessage, entry)
		case EventError:
			c.emit(EventError, &GatewayError{Message: f.Error})
		}
	}
}

func (c *Client) heartbeatRoutine(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) emit(event EventType, payload interface{}) {
	c.mu.Lock()
	hs := append([]Handler(nil), c.handlers[event]...)
	c.mu.Unlock()
	for _, h := range hs {
		h(payload)
	}
}

// GatewayError error event payload from the gateway
type GatewayError struct {
	Message string
}

func (ge *GatewayError) Error() string {
	return ge.Message
}
