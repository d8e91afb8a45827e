package handler

import (
	"errors"
	"net/http"
	"time"

	"infinite-pages/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendQueueSize  = 256
)

// WebSocketHandler upgrades progress subscriptions. Browsers cannot set the
// Authorization header on WebSocket requests, so the token travels in the
// token query parameter.
type WebSocketHandler struct {
	manager        *ConnectionManager
	jwtSecret      []byte
	allowedOrigins map[string]bool
	logger         *zap.Logger
}

// NewWebSocketHandler creates a WebSocketHandler.
func NewWebSocketHandler(manager *ConnectionManager, jwtSecret string, allowedOrigins []string, logger *zap.Logger) *WebSocketHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &WebSocketHandler{
		manager:        manager,
		jwtSecret:      []byte(jwtSecret),
		allowedOrigins: origins,
		logger:         logger.Named("WebSocketHandler"),
	}
}

func (h *WebSocketHandler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return h.allowedOrigins[origin]
		},
	}
}

// ServeWS handles GET /api/ws/progress.
func (h *WebSocketHandler) ServeWS(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		handleServiceError(c, models.ErrUnauthorized)
		return
	}

	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, models.ErrTokenInvalid
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			handleServiceError(c, models.ErrTokenExpired)
			return
		}
		handleServiceError(c, models.ErrTokenInvalid)
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		handleServiceError(c, models.ErrTokenInvalid)
		return
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err), zap.String("userID", userID.String()))
		return
	}
	h.logger.Info("Progress connection established", zap.String("userID", userID.String()))

	client := &wsClient{
		userID: userID.String(),
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
	}
	h.manager.registerClient(client)

	go client.writePump(h.logger)
	go client.readPump(h.manager, h.logger)
}

// readPump drains client frames; the progress channel is server-to-client
// only, so anything received is discarded.
func (c *wsClient) readPump(manager *ConnectionManager, logger *zap.Logger) {
	defer func() {
		manager.unregisterClient(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error", zap.Error(err), zap.String("userID", c.userID))
			}
			return
		}
	}
}

func (c *wsClient) writePump(logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("WebSocket write failed", zap.Error(err), zap.String("userID", c.userID))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
