// Package http exposes the gateway's HTTP and WebSocket surface.
package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	abDomain "github.com/Razorrag/reddy-anna-sub005/internal/modules/andarbahar/domain"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/gateway/usecase"
	"github.com/Razorrag/reddy-anna-sub005/internal/modules/gateway/ws"
	"github.com/Razorrag/reddy-anna-sub005/pkg/logger"
)

// Handler handles HTTP/WebSocket requests
type Handler struct {
	useCase   *usecase.GatewayUseCase
	manager   *ws.Manager
	jwtSecret []byte
}

// NewHandler creates a new HTTP handler
func NewHandler(useCase *usecase.GatewayUseCase, manager *ws.Manager, jwtSecret string) *Handler {
	return &Handler{
		useCase:   useCase,
		manager:   manager,
		jwtSecret: []byte(jwtSecret),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict origins once the frontend domain is fixed
	},
}

// RegisterRoutes mounts the gateway routes on a gin engine
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWebSocket)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// HandleWebSocket upgrades the connection and starts the pumps. Session
// issuance is external; only HS256 validation of the presented token
// happens here.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	ctx := logger.WithRequestID(c.Request.Context(), logger.GenerateRequestID())

	token := c.Query("token")
	if token == "" {
		logger.Warn(ctx).Msg("missing auth token")
		c.String(http.StatusUnauthorized, "Unauthorized")
		return
	}

	userID, role, err := h.validateToken(token)
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("token validation failed")
		c.String(http.StatusUnauthorized, "Unauthorized")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error(ctx).Err(err).Msg("websocket upgrade failed")
		return
	}

	logger.Info(ctx).
		Int64("user_id", userID).
		Str("role", role).
		Str("remote_addr", c.Request.RemoteAddr).
		Msg("websocket connected")

	client := h.manager.Register(conn, userID, role)
	go client.WritePump()

	// Full snapshot first, so the client never sees a partial state
	if err := h.useCase.SendSnapshot(ctx, client); err != nil {
		logger.Error(ctx).Err(err).Int64("user_id", userID).Msg("initial snapshot failed")
	}

	go client.ReadPump(func(cl *ws.Connection, message []byte) {
		msgCtx := logger.WithRequestID(context.Background(), logger.GenerateRequestID())
		msgCtx = logger.WithFields(msgCtx, map[string]interface{}{
			"user_id": cl.UserID,
			"role":    cl.Role,
		})

		response, err := h.useCase.HandleMessage(msgCtx, cl, message)
		if err != nil {
			logger.Warn(msgCtx).Err(err).Msg("command rejected")
			h.manager.SendToUser(cl.UserID, usecase.ErrorMessage(err))
			return
		}
		if response != nil {
			h.manager.SendToUser(cl.UserID, response)
		}
	})
}

func (h *Handler) validateToken(tokenString string) (int64, string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return h.jwtSecret, nil
	})
	if err != nil {
		return 0, "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", fmt.Errorf("invalid token claims")
	}
	uid, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", fmt.Errorf("missing user_id claim")
	}
	role, _ := claims["role"].(string)
	if role != abDomain.RoleAdmin {
		role = abDomain.RolePlayer
	}
	return int64(uid), role, nil
}
