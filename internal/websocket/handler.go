package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to WebSocket
// and runs them as Hub clients. originPatterns follows
// websocket.AcceptOptions; a lone "*" accepts any origin.
func HandleWebSocket(hub *Hub, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	opts := &ws.AcceptOptions{OriginPatterns: originPatterns}
	if len(originPatterns) == 1 && originPatterns[0] == "*" {
		opts = &ws.AcceptOptions{InsecureSkipVerify: true}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, opts)
		if err != nil {
			logger.Warn("accept websocket", "error", err, "remote", r.RemoteAddr)
			return
		}

		client := NewClient(hub, conn)
		client.Run(r.Context())
	}
}
