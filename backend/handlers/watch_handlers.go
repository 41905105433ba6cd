package handlers

import (
	"log/slog"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// RegisterWatchRoutes wires the websocket endpoint that streams trade
// transition events to clients.
func RegisterWatchRoutes(app *fiber.App, webApp *WebApp) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/trades/:id", websocket.New(webApp.watchTrade))
}

// watchTrade pushes every committed transition of one trade to the client
// as JSON. The subscription is read-only and best-effort; dropping the
// socket never affects the trade.
func (webApp *WebApp) watchTrade(conn *websocket.Conn) {
	tradeID := conn.Params("id")

	events, cancel := webApp.Manager.Notifier().Subscribe(tradeID)
	defer cancel()

	// Drain the client side so we notice the peer going away; inbound
	// payloads are ignored.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				slog.Debug("Watch stream write failed",
					slog.String("type", "http"),
					slog.String("trade_id", tradeID),
					slog.Any("error", err),
				)
				return
			}
		case <-closed:
			return
		}
	}
}
