package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"
)

// Handler upgrades requests to websocket connections and runs them as hub
// clients. An empty originPatterns list accepts any origin.
func Handler(hub *Hub, originPatterns []string) http.HandlerFunc {
	opts := &ws.AcceptOptions{
		OriginPatterns:     originPatterns,
		InsecureSkipVerify: len(originPatterns) == 0,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, opts)
		if err != nil {
			hub.logger.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		defer conn.CloseNow()

		NewClient(hub, conn).Run(r.Context())
	}
}
