package handler

import (
	"finance-qa-be/internal/pkg/logger"
	"finance-qa-be/internal/service"
	internalWS "finance-qa-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SessionFeedHandler streams a session's events to websocket clients.
type SessionFeedHandler struct {
	service service.IAssistantService
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewSessionFeedHandler(service service.IAssistantService, hub *internalWS.Hub, log logger.ILogger) *SessionFeedHandler {
	return &SessionFeedHandler{
		service: service,
		hub:     hub,
		logger:  log,
	}
}

func (h *SessionFeedHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/assistant/v1/sessions/:id/ws", h.ServeWs)
}

// ServeWs upgrades the request once the session is known to exist.
func (h *SessionFeedHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	sessionID := c.Params("id")
	if _, err := h.service.GetSession(c.UserContext(), sessionID); err != nil {
		return err
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("SessionFeedHandler", "Starting WebSocket session", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(h.hub, conn, sessionID)
		h.logger.Info("SessionFeedHandler", "WebSocket session ended", map[string]interface{}{"session_id": sessionID})
	})(c)
}
