package handler

import (
	"emergence-monitor-be/internal/constant"
	"emergence-monitor-be/internal/dto"
	"emergence-monitor-be/internal/pkg/logger"
	internalWS "emergence-monitor-be/internal/websocket"
	"emergence-monitor-be/pkg/graph"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
)

// DashboardHandler owns the dashboard websocket endpoint and routes viewer
// actions back into the render pipeline.
type DashboardHandler struct {
	hub       *internalWS.Hub
	renderer  *graph.Renderer
	jwtSecret string
	logger    logger.ILogger
}

func NewDashboardHandler(hub *internalWS.Hub, renderer *graph.Renderer, jwtSecret string, log logger.ILogger) *DashboardHandler {
	return &DashboardHandler{
		hub:       hub,
		renderer:  renderer,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// ServeWs upgrades a dashboard connection. When a JWT secret is configured
// the handshake must carry a valid token; without one the endpoint is open,
// which is the development default.
func (h *DashboardHandler) ServeWs(c *fiber.Ctx) error {
	if h.jwtSecret != "" {
		// 1. Get Token source
		// Priority 1: Query Param (Browser standard)
		tokenStr := c.Query("token")

		// Priority 2: Authorization Header (Tooling/Non-browser standard)
		if tokenStr == "" {
			authHeader := c.Get("Authorization")
			if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
				tokenStr = authHeader[7:]
			}
		}

		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
		}

		// 2. Parse JWT
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.ErrUnauthorized
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			h.logger.Warn("DashboardHandler", "Invalid Token in WS Handshake", map[string]interface{}{"error": err})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}
	}

	// Upgrade via Fiber WebSocket Middleware
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("DashboardHandler", "Starting dashboard session", nil)
			internalWS.ServeWs(h.hub, conn, h, h.welcome()...)
			h.logger.Info("DashboardHandler", "Dashboard session ended", nil)
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// welcome builds the replay a new dashboard receives ahead of live traffic.
// Frames only publish when the graph changes, so without it a viewer joining
// a quiet session would face an empty canvas until the next update.
func (h *DashboardHandler) welcome() [][]byte {
	frame := h.renderer.Frame()
	if frame == nil {
		return nil
	}
	return [][]byte{internalWS.Envelope(constant.KindFrame, frame)}
}

// HandleAction applies a viewer interaction to the renderer. Unknown actions
// are dropped; a dashboard on an older build must not kill anything.
func (h *DashboardHandler) HandleAction(action dto.DashboardAction) {
	switch action.Action {
	case constant.ActionPinNode:
		if !h.renderer.Pin(action.Key, action.X, action.Y) {
			h.logger.Debug("DashboardHandler", "Pin for unknown node", map[string]interface{}{"key": action.Key})
		}
	case constant.ActionReleaseNode:
		h.renderer.Release(action.Key)
	default:
		h.logger.Warn("DashboardHandler", "Unknown dashboard action", map[string]interface{}{"action": action.Action})
	}
}

// RegisterRoutes registers the dashboard websocket endpoint.
func (h *DashboardHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws", h.ServeWs)
}
