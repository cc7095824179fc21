package notification

import (
	"errors"
	"net/http"
	"time"

	"cleanservice/internal/middleware"
	"cleanservice/internal/pkg/response"
	"cleanservice/internal/pkg/session"
	"cleanservice/internal/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

type Handler struct {
	service  *Service
	hub      *Hub
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHandler builds the handler. An empty origins list accepts any origin.
func NewHandler(service *Service, hub *Hub, origins []string, log *zap.Logger) *Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Handler{
		service: service,
		hub:     hub,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed[origin]
			},
		},
	}
}

func (h *Handler) RegisterRoutes(api *gin.RouterGroup, sessions *session.Manager) {
	g := api.Group("/notifications", middleware.RequireStaff(sessions))
	{
		g.GET("", h.List)
		g.GET("/unread-count", h.UnreadCount)
		g.GET("/ws", h.Connect)
		g.PUT("/read-all", h.MarkAllAsRead)
		g.PUT("/:id/read", h.MarkAsRead)
		g.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	limit, offset := utils.Pagination(c)
	res, err := h.service.List(c.Request.Context(), c.GetInt64("user_id"), utils.QueryBool(c, "unread"), limit, offset)
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) UnreadCount(c *gin.Context) {
	count, err := h.service.UnreadCount(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"count": count})
}

func (h *Handler) MarkAsRead(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid notification ID")
		return
	}
	if err := h.service.MarkAsRead(c.Request.Context(), id, c.GetInt64("user_id")); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Notification marked as read")
}

func (h *Handler) MarkAllAsRead(c *gin.Context) {
	n, err := h.service.MarkAllAsRead(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": n})
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid notification ID")
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, c.GetInt64("user_id")); err != nil {
		handleError(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Notification deleted")
}

// Connect upgrades to a websocket that receives assignment notifications
// as they are created.
func (h *Handler) Connect(c *gin.Context) {
	staffID := c.GetInt64("user_id")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Int64("staff_id", staffID), zap.Error(err))
		return
	}

	h.hub.Register(staffID, conn)
	defer h.hub.Unregister(staffID, conn)

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	if count, err := h.service.UnreadCount(c.Request.Context(), staffID); err == nil {
		h.hub.SendToStaff(staffID, Event{Type: EventUnreadCount, Data: gin.H{"count": count}})
	}

	done := make(chan struct{})
	defer close(done)
	go h.pingLoop(staffID, conn, done)

	h.readLoop(staffID, conn)
}

func (h *Handler) pingLoop(staffID int64, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if !h.hub.Ping(staffID, conn) {
				return
			}
		}
	}
}

// readLoop answers client pings and returns when the socket closes.
func (h *Handler) readLoop(staffID int64, conn *websocket.Conn) {
	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket closed", zap.Int64("staff_id", staffID), zap.Error(err))
			}
			return
		}
		if msg.Type == "ping" {
			h.hub.SendToStaff(staffID, Event{Type: EventPong})
		}
	}
}

func handleError(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Notification not found")
		return
	}
	response.Internal(c, err)
}
