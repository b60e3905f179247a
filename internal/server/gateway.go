// Package server exposes the WebSocket gateway: HTTP handlers that let
// browser clients speak the chat grammar, with one WebSocket text message
// standing in for one length-prefixed frame, plus health and debug
// endpoints.
package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"

	"github.com/parley-chat/parley/internal/wire"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// wsConn adapts a WebSocket connection to wire.Conn. Text messages map 1:1
// onto frames, so the session and dispatcher code is shared verbatim with
// the TCP path.
type wsConn struct {
	conn  *websocket.Conn
	limit int64
}

func newWSConn(conn *websocket.Conn, limit int) wire.Conn {
	conn.SetReadLimit(int64(limit))
	return &wsConn{conn: conn, limit: int64(limit)}
}

func (c *wsConn) ReadFrame() (string, error) {
	msgType, payload, err := c.conn.ReadMessage()
	if err != nil {
		if errors.Is(err, websocket.ErrReadLimit) {
			return "", fmt.Errorf("%w: message exceeds limit %d", wire.ErrProtocol, c.limit)
		}
		return "", fmt.Errorf("%w: %v", wire.ErrClosed, err)
	}
	if msgType != websocket.TextMessage {
		return "", fmt.Errorf("%w: unexpected message type %d", wire.ErrProtocol, msgType)
	}
	return string(payload), nil
}

func (c *wsConn) WriteFrame(s string) error {
	return c.conn.WriteMessage(websocket.TextMessage, []byte(s))
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

func (c *wsConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// WebSocketHandler upgrades the HTTP connection and runs a full chat session
// over it: the same handshake, grammar, and room semantics as the TCP
// listener.
func (srv *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	cfg := currentConfig()
	srv.runSession(NewSession(newWSConn(conn, cfg.MaxFrameSize), srv.registry))
}

// HealthHandler provides a simple health check endpoint that returns server
// status as plain text.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Parley server is running!")
}

// DebugRoomsHandler renders the active rooms as a plain-text table:
// name, owner, and current members. Display only; the snapshot may be stale
// the moment it is written.
func (srv *Server) DebugRoomsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Room", "Owner", "Members"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, info := range srv.registry.List() {
		members := srv.registry.memberNames(info.Name)
		table.Append([]string{info.Name, info.Owner, strings.Join(members, ", ")})
	}
	table.Render()
}

// TestPageHandler serves a minimal HTML page that connects to the WebSocket
// gateway, performs the name handshake, and sends raw command lines.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>Parley Gateway Test</title>
    <style>
        body { font-family: monospace; margin: 20px; }
        #lines { border: 1px solid #ccc; height: 320px; padding: 8px; overflow-y: scroll; margin: 10px 0; background: #f9f9f9; }
        input[type="text"] { width: 420px; padding: 4px; }
    </style>
</head>
<body>
    <h1>Parley Gateway Test</h1>
    <p>Commands: /create &lt;name&gt;, /join &lt;name&gt;, /rooms, /leave, /kick &lt;user&gt;, /close, exit</p>
    <div id="lines"></div>
    <input type="text" id="input" placeholder="Type your name first, then commands or chat...">
    <button onclick="send()">Send</button>
    <script>
        const lines = document.getElementById('lines');
        const input = document.getElementById('input');
        const ws = new WebSocket('ws://' + location.host + '/ws');
        function addLine(text) {
            const div = document.createElement('div');
            div.textContent = text;
            lines.appendChild(div);
            lines.scrollTop = lines.scrollHeight;
        }
        ws.onmessage = (e) => addLine(e.data);
        ws.onclose = () => addLine('-- connection closed --');
        function send() {
            if (input.value && ws.readyState === WebSocket.OPEN) {
                ws.send(input.value);
                input.value = '';
            }
        }
        input.addEventListener('keypress', (e) => { if (e.key === 'Enter') send(); });
    </script>
</body>
</html>`
	if _, err := fmt.Fprint(w, html); err != nil {
		log.Printf("Error writing HTML response: %v", err)
	}
}
