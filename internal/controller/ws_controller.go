package controller

import (
	"eq-coach-be/internal/pkg/logger"
	"eq-coach-be/internal/pkg/serverutils"
	internalWS "eq-coach-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// IWsController upgrades authenticated clients onto the hub that carries
// toasts and streamed replies.
type IWsController interface {
	RegisterRoutes(r fiber.Router)
	ServeWs(ctx *fiber.Ctx) error
}

type wsController struct {
	hub    *internalWS.Hub
	secret []byte
	logger logger.ILogger
}

func NewWsController(hub *internalWS.Hub, jwtSecret string, log logger.ILogger) IWsController {
	return &wsController{hub: hub, secret: []byte(jwtSecret), logger: log}
}

func (c *wsController) RegisterRoutes(r fiber.Router) {
	r.Get("/ws", c.ServeWs)
}

func (c *wsController) ServeWs(ctx *fiber.Ctx) error {
	// Browsers cannot set headers on the handshake, so the query param wins.
	tokenStr := ctx.Query("token")
	if tokenStr == "" {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
	}

	userID, err := serverutils.ParseUserToken(tokenStr, c.secret)
	if err != nil {
		c.logger.Warn("WS_CONTROLLER", "Invalid token in handshake", map[string]interface{}{"error": err.Error()})
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}

	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		c.logger.Info("WS_CONTROLLER", "WebSocket session started", map[string]interface{}{"user_id": userID.String()})
		internalWS.ServeWs(c.hub, conn, userID)
		c.logger.Info("WS_CONTROLLER", "WebSocket session ended", map[string]interface{}{"user_id": userID.String()})
	})(ctx)
}
