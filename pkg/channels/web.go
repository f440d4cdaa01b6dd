package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/brixta-dev/cemtemchat/pkg/bus"
	"github.com/brixta-dev/cemtemchat/pkg/config"
	"github.com/brixta-dev/cemtemchat/pkg/logger"
	"github.com/brixta-dev/cemtemchat/pkg/session"
)

const webErrorMessage = "Sorry, something went wrong while processing your message. Please try again."

// clientEvent is what the browser sends over the socket.
type clientEvent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// serverEvent is what the server pushes to the browser. One event type at a
// time; unset fields are omitted.
type serverEvent struct {
	Type     string `json:"type"`
	OK       bool   `json:"ok,omitempty"`
	Typing   bool   `json:"typing,omitempty"`
	Text     string `json:"text,omitempty"`
	Awaiting bool   `json:"awaiting,omitempty"`
	Message  string `json:"message,omitempty"`
}

// wsConn is one browser connection. Each connection is its own session;
// state is dropped when the socket closes.
type wsConn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte

	writeMu sync.Mutex

	// sendMu guards closed and the send channel against a disconnect
	// racing an outbound dispatch. Only dropConn closes send, and only
	// with sendMu held.
	sendMu sync.Mutex
	closed bool
}

// WebChannel serves the browser client over WebSocket. Events mirror the
// web UI protocol: send_message and confirm_post inbound; ready, status,
// message and error outbound.
type WebChannel struct {
	*BaseChannel
	cfg      config.WebConfig
	sessions *session.Manager
	upgrader websocket.Upgrader
	server   *echo.Echo

	mu    sync.RWMutex
	conns map[string]*wsConn
}

func NewWebChannel(cfg config.WebConfig, msgBus *bus.MessageBus, sessions *session.Manager) *WebChannel {
	c := &WebChannel{
		BaseChannel: NewBaseChannel("web", msgBus),
		cfg:         cfg,
		sessions:    sessions,
		conns:       make(map[string]*wsConn),
	}
	c.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     c.checkOrigin,
	}
	return c
}

func (c *WebChannel) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients send no Origin header.
		return true
	}
	for _, allowed := range c.cfg.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

func (c *WebChannel) Start(ctx context.Context) error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/", c.handleHealth)
	e.GET("/ws", c.handleWebSocket)

	c.server = e
	c.setRunning(true)

	logger.InfoCF("web", "Web channel listening", map[string]interface{}{
		"addr":    c.cfg.Addr,
		"origins": strings.Join(c.cfg.AllowedOrigins, ","),
	})

	go func() {
		if err := e.Start(c.cfg.Addr); err != nil && err != http.ErrServerClosed {
			logger.ErrorCF("web", "Web server stopped", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	return nil
}

func (c *WebChannel) Stop(ctx context.Context) error {
	logger.InfoC("web", "Stopping web channel...")
	c.setRunning(false)
	if c.server != nil {
		return c.server.Shutdown(ctx)
	}
	return nil
}

func (c *WebChannel) handleHealth(ec echo.Context) error {
	return ec.JSON(http.StatusOK, map[string]interface{}{
		"ok":      true,
		"service": "web",
		"origins": c.cfg.AllowedOrigins,
	})
}

func (c *WebChannel) handleWebSocket(ec echo.Context) error {
	ws, err := c.upgrader.Upgrade(ec.Response(), ec.Request(), nil)
	if err != nil {
		logger.WarnCF("web", "WebSocket upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	conn := &wsConn{
		id:   uuid.New().String(),
		ws:   ws,
		send: make(chan []byte, 64),
	}

	c.mu.Lock()
	c.conns[conn.id] = conn
	c.mu.Unlock()

	logger.InfoCF("web", "Client connected", map[string]interface{}{"conn": conn.id})

	c.enqueue(conn, serverEvent{Type: "ready", OK: true})

	go c.writePump(conn)
	go c.readPump(conn)

	return nil
}

func (c *WebChannel) readPump(conn *wsConn) {
	defer c.dropConn(conn)

	_ = conn.ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	})

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.WarnCF("web", "WebSocket read error", map[string]interface{}{
					"conn":  conn.id,
					"error": err.Error(),
				})
			}
			return
		}

		var ev clientEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.enqueue(conn, serverEvent{Type: "error", Message: "invalid JSON message"})
			continue
		}

		switch ev.Type {
		case "send_message":
			text := strings.TrimSpace(ev.Text)
			if text == "" {
				c.enqueue(conn, serverEvent{Type: "error", Message: "empty text"})
				continue
			}
			c.enqueue(conn, serverEvent{Type: "status", Typing: true})
			c.HandleMessage(conn.id, conn.id, text)
		case "confirm_post":
			c.enqueue(conn, serverEvent{Type: "status", Typing: true})
			c.HandleConfirm(conn.id, conn.id)
		default:
			c.enqueue(conn, serverEvent{Type: "error", Message: "unknown event type: " + ev.Type})
		}
	}
}

func (c *WebChannel) writePump(conn *wsConn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.ws.Close()
	}()

	for {
		select {
		case data, ok := <-conn.send:
			_ = conn.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if !ok {
				_ = conn.writeMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.writeMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := conn.writeMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (conn *wsConn) writeMessage(messageType int, data []byte) error {
	conn.writeMu.Lock()
	defer conn.writeMu.Unlock()
	return conn.ws.WriteMessage(messageType, data)
}

// dropConn unregisters a connection and discards its conversation state.
// Safe to call more than once.
func (c *WebChannel) dropConn(conn *wsConn) {
	c.mu.Lock()
	_, registered := c.conns[conn.id]
	delete(c.conns, conn.id)
	c.mu.Unlock()
	if !registered {
		return
	}

	conn.sendMu.Lock()
	conn.closed = true
	close(conn.send)
	conn.sendMu.Unlock()

	_ = conn.ws.Close()
	c.sessions.Remove("web:" + conn.id)
	logger.InfoCF("web", "Client disconnected", map[string]interface{}{"conn": conn.id})
}

func (c *WebChannel) enqueue(conn *wsConn, ev serverEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	conn.sendMu.Lock()
	if conn.closed {
		conn.sendMu.Unlock()
		return
	}
	select {
	case conn.send <- data:
		conn.sendMu.Unlock()
	default:
		conn.sendMu.Unlock()
		logger.WarnCF("web", "Send buffer full, dropping connection", map[string]interface{}{
			"conn": conn.id,
		})
		go c.dropConn(conn)
	}
}

func (c *WebChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	c.mu.RLock()
	conn, ok := c.conns[msg.ChatID]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no connection for chat %s", msg.ChatID)
	}

	c.enqueue(conn, serverEvent{Type: "status", Typing: false})
	if msg.IsError {
		logger.ErrorCF("web", "Turn failed", map[string]interface{}{
			"conn":  msg.ChatID,
			"error": msg.Content,
		})
		c.enqueue(conn, serverEvent{Type: "error", Message: webErrorMessage})
		return nil
	}
	c.enqueue(conn, serverEvent{Type: "message", Text: msg.Content, Awaiting: msg.AwaitingConfirmation})
	return nil
}
