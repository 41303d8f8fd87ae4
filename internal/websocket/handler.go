package websocket

import (
	"net/http"
	"strconv"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades the request and runs it as a hub client. An
// optional ?member_id= narrows the stream to one member. With no origin
// patterns every origin is accepted, which suits a household LAN.
func HandleWebSocket(hub *Hub, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memberID int64
		if v := r.URL.Query().Get("member_id"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id <= 0 {
				http.Error(w, "invalid member_id", http.StatusBadRequest)
				return
			}
			memberID = id
		}

		opts := &ws.AcceptOptions{OriginPatterns: originPatterns}
		if len(originPatterns) == 0 {
			opts.InsecureSkipVerify = true
		}
		conn, err := ws.Accept(w, r, opts)
		if err != nil {
			hub.logger.Warn("accept failed", "remote", r.RemoteAddr, "error", err)
			return
		}

		NewClient(hub, conn, memberID).Run(r.Context())
	}
}
