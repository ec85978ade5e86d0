package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/pigjjun/board/backend/internal/content"
	"github.com/pigjjun/board/backend/internal/live"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type LiveHandler struct {
	content  *content.Service
	hub      *live.Hub
	upgrader websocket.Upgrader
}

func NewLiveHandler(svc *content.Service, hub *live.Hub, origins []string) *LiveHandler {
	allowed := make(map[string]bool)
	for _, o := range origins {
		allowed[o] = true
	}
	return &LiveHandler{
		content: svc,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Stream upgrades to a WebSocket and forwards the post's change events
// until the client goes away.
func (h *LiveHandler) Stream(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := h.content.GetPost(c.Request.Context(), postID); err != nil {
		respondError(c, err, "Failed to open stream")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already wrote the error response
		return
	}
	defer conn.Close()

	events, cancel := h.hub.Subscribe(live.PostTopic(postID))
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("live: post %d: write failed: %v", postID, err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
