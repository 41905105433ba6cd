package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lucentgarden/tradehub/backend/middleware"
	"github.com/lucentgarden/tradehub/tradehub/catalog"
	"github.com/lucentgarden/tradehub/tradehub/database"
	"github.com/lucentgarden/tradehub/tradehub/database/repositories"
	"github.com/lucentgarden/tradehub/tradehub/trading"
)

// WebApp holds the API's dependencies.
type WebApp struct {
	Manager       *trading.Manager
	Catalog       catalog.Accessor
	Notifications repositories.NotificationRepository
	Stats         repositories.UserStatsRepository
	DB            *database.DB
	Version       string
}

// SetupRoutes registers all endpoints on the app.
func SetupRoutes(app *fiber.App, webApp *WebApp) {
	mutationLimiter := middleware.NewRateLimiter(30, time.Minute)

	app.Get("/healthz", webApp.HealthCheck)

	app.Get("/catalog/items", webApp.ListCatalogItems)
	app.Post("/values/preview", webApp.PreviewValue)

	trades := app.Group("/trades")
	trades.Get("/", webApp.ListTrades)
	trades.Post("/", middleware.AuthRequired(), mutationLimiter.Middleware(), webApp.PostTrade)
	trades.Get("/:id", webApp.GetTrade)
	trades.Post("/:id/join", middleware.AuthRequired(), mutationLimiter.Middleware(), webApp.JoinTrade)
	trades.Post("/:id/accept", middleware.AuthRequired(), mutationLimiter.Middleware(), webApp.AcceptTrade)
	trades.Post("/:id/decline", middleware.AuthRequired(), mutationLimiter.Middleware(), webApp.DeclineTrade)
	trades.Delete("/:id", middleware.AuthRequired(), mutationLimiter.Middleware(), webApp.CancelTrade)

	me := app.Group("/me", middleware.AuthRequired())
	me.Get("/notifications", webApp.ListNotifications)
	me.Get("/stats", webApp.GetStats)

	RegisterWatchRoutes(app, webApp)
}
