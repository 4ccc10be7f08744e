package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"new-launcher/database"
)

// The zero CheckOrigin only accepts same-host browser origins.
var upgrader = websocket.Upgrader{}

type wsMessage struct {
	Type    string          `json:"type"`
	Name    string          `json:"name,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// watchDocument streams the current document and then every write to it.
func (h *handler) watchDocument(name database.Name) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WS upgrade error: %v", err)
			return
		}
		defer conn.Close()

		// Subscribe before the initial read so no write falls in between.
		updates, cancel := h.store.Subscribe(name)
		defer cancel()

		current, err := h.store.Read(name)
		if err != nil {
			log.Printf("read %s: %v", name, err)
			conn.WriteJSON(wsMessage{Type: "error", Name: string(name), Message: "failed to read document"}) //nolint:errcheck
			return
		}
		if err := conn.WriteJSON(wsMessage{Type: "update", Name: string(name), Data: current}); err != nil {
			return
		}

		// Goroutine: drain client frames so close frames are processed, and
		// signal when the client goes away.
		clientGone := make(chan struct{})
		go func() {
			defer close(clientGone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case data, ok := <-updates:
				if !ok {
					return
				}
				if err := conn.WriteJSON(wsMessage{Type: "update", Name: string(name), Data: data}); err != nil {
					return
				}
			case <-clientGone:
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}
