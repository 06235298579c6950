package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"realtime-events/internal/events"
	"realtime-events/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browsers cannot attach an Authorization header to a websocket
		// handshake from arbitrary origins, and the CORS middleware already
		// gates the REST surface. Origin is accepted here; tighten for
		// deployments that pin a frontend host.
		return true
	},
}

// ChatHandler owns the realtime surface: the websocket attach point and the
// REST triggers that feed the event manager.
type ChatHandler struct {
	manager *events.Manager
	log     *zap.Logger
}

// NewChatHandler wires the handler to the process-wide event manager.
func NewChatHandler(manager *events.Manager, log *zap.Logger) *ChatHandler {
	return &ChatHandler{manager: manager, log: log}
}

// Attach upgrades the request to a websocket, registers the caller with
// the manager and starts the connection's pumps. Auth middleware runs
// before this handler; the identity it verified is what the connection is
// keyed on.
func (h *ChatHandler) Attach(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &events.Client{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Conn:  conn,
	}
	client.InitSendQueue(events.DefaultQueueSize)

	h.manager.RegisterClient(client)
	client.Start()
}

// SendMessageRequest is the body of a targeted send.
type SendMessageRequest struct {
	To      string `json:"to" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// SendMessage delivers a chat event to one connected user. The sender
// fields are taken from the verified caller, never from the body. A
// recipient that is not connected yields 404, not an error.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	sender, ok := middleware.GetUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing 'to' or 'content' field"})
		return
	}

	event := events.NewChatEvent(sender.ID, sender.Name, sender.Email, req.Content)
	if !h.manager.SendEventToUser(req.To, event) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not connected"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ActiveUsers returns a snapshot of everyone currently connected.
func (h *ChatHandler) ActiveUsers(c *gin.Context) {
	users := h.manager.GetActiveUsers()
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}
