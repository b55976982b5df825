package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lumenlearn/guidance-backend/internal/pkg/ctxutil"
	"github.com/lumenlearn/guidance-backend/internal/pkg/logger"
	"github.com/lumenlearn/guidance-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub

	mu      sync.Mutex
	clients map[uuid.UUID]*realtime.SSEClient // key: SessionID (UserToken.ID)
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{
		log:     log.With("handler", "RealtimeHandler"),
		hub:     hub,
		clients: make(map[uuid.UUID]*realtime.SSEClient),
	}
}

// SSEStream holds the connection open and streams hub messages for the
// user's channel. One stream per session; a reconnect replaces the old one.
func (rh *RealtimeHandler) SSEStream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil || rd.SessionID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{"message": "not authenticated", "code": "unauthorized"},
		})
		return
	}

	rh.mu.Lock()
	if existing, ok := rh.clients[rd.SessionID]; ok {
		rh.hub.CloseClient(existing)
		delete(rh.clients, rd.SessionID)
	}
	client := rh.hub.NewSSEClient(rd.UserID)
	rh.clients[rd.SessionID] = client
	rh.mu.Unlock()

	// Every session of a user listens on the user's channel.
	rh.hub.AddChannel(client, rd.UserID.String())
	rh.log.Info("SSE stream open", "user_id", rd.UserID, "session_id", rd.SessionID)

	defer func() {
		rh.mu.Lock()
		if current, ok := rh.clients[rd.SessionID]; ok && current == client {
			delete(rh.clients, rd.SessionID)
		}
		rh.mu.Unlock()
		rh.hub.RemoveClient(client)
		rh.log.Info("SSE stream closed", "user_id", rd.UserID, "session_id", rd.SessionID)
	}()

	rh.hub.ServeHTTP(c.Writer, c.Request, client)
}
