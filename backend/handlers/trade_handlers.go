package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/lucentgarden/tradehub/backend/middleware"
	"github.com/lucentgarden/tradehub/backend/models"
	"github.com/lucentgarden/tradehub/backend/utils"
	dbmodels "github.com/lucentgarden/tradehub/tradehub/database/models"
	"github.com/lucentgarden/tradehub/tradehub/database/repositories"
	"github.com/lucentgarden/tradehub/tradehub/trading"
)

const defaultListLimit = 50

// HealthCheck reports process and database health.
func (webApp *WebApp) HealthCheck(c *fiber.Ctx) error {
	health := models.NewHealthCheck(webApp.Version)

	if webApp.DB == nil {
		health.AddComponent("database", "unhealthy", "database connection is nil")
	} else if err := webApp.DB.Ping(c.Context()); err != nil {
		health.AddComponent("database", "unhealthy", err.Error())
	} else {
		health.AddComponent("database", "healthy", "")
	}

	status := fiber.StatusOK
	if health.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return utils.SendJSON(c, status, health)
}

// ListCatalogItems returns the full tradeable catalog.
func (webApp *WebApp) ListCatalogItems(c *fiber.Ctx) error {
	items, err := webApp.Catalog.Items(c.Context())
	if err != nil {
		return err
	}
	return utils.SendSuccess(c, fiber.Map{"items": items}, "")
}

// PreviewValue resolves one selection without persisting anything, so
// clients can show the final value before posting.
func (webApp *WebApp) PreviewValue(c *fiber.Ctx) error {
	var req models.PreviewValueRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendBadRequest(c, "Malformed request body", nil)
	}
	if req.Item.CatalogID == "" {
		return utils.SendBadRequest(c, "Missing catalog id", nil)
	}

	snapshot, err := webApp.Manager.PreviewValue(c.Context(), trading.ItemSelection{
		CatalogID:  req.Item.CatalogID,
		MutationID: req.Item.MutationID,
		TraitIDs:   req.Item.TraitIDs,
	})
	if err != nil {
		return err
	}
	return utils.SendSuccess(c, snapshot, "")
}

// ListTrades returns trades matching the query filters.
func (webApp *WebApp) ListTrades(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > 200 {
		limit = defaultListLimit
	}
	offset, _ := strconv.Atoi(c.Query("offset"))

	query := trading.ListQuery{
		Status:     dbmodels.TradeStatus(c.Query("status")),
		Offering:   c.Query("offering"),
		LookingFor: c.Query("lookingFor"),
		Limit:      limit,
		Offset:     offset,
	}
	if c.Query("mine") == "true" {
		if identity := middleware.ExtractIdentity(c); identity != nil {
			query.UserID = identity.ID
		}
	}

	trades, err := webApp.Manager.List(c.Context(), query)
	if err != nil {
		return err
	}
	return utils.SendSuccess(c, fiber.Map{"trades": trades}, "")
}

// PostTrade creates a new listing owned by the caller.
func (webApp *WebApp) PostTrade(c *fiber.Ctx) error {
	identity := middleware.ExtractIdentity(c)

	var req models.PostTradeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendBadRequest(c, "Malformed request body", nil)
	}

	trade, err := webApp.Manager.Post(c.Context(), identity.ID,
		models.ToSelections(req.Offering),
		models.ToSelections(req.LookingFor),
	)
	if err != nil {
		return err
	}
	return utils.SendCreated(c, trade, "Trade posted")
}

// GetTrade returns one trade and counts the view.
func (webApp *WebApp) GetTrade(c *fiber.Ctx) error {
	trade, err := webApp.Manager.Get(c.Context(), c.Params("id"), true)
	if err != nil {
		return err
	}
	return utils.SendSuccess(c, trade, "")
}

// JoinTrade makes the caller the joiner of an open trade.
func (webApp *WebApp) JoinTrade(c *fiber.Ctx) error {
	identity := middleware.ExtractIdentity(c)
	trade, err := webApp.Manager.Join(c.Context(), c.Params("id"), identity.ID)
	if err != nil {
		return err
	}
	return utils.SendSuccess(c, trade, "Joined trade")
}

// AcceptTrade records the caller's acceptance.
func (webApp *WebApp) AcceptTrade(c *fiber.Ctx) error {
	identity := middleware.ExtractIdentity(c)
	trade, err := webApp.Manager.Accept(c.Context(), c.Params("id"), identity.ID)
	if err != nil {
		return err
	}

	message := "Acceptance recorded"
	if trade.Status == dbmodels.TradeCompleted {
		message = "Trade completed"
	}
	return utils.SendSuccess(c, trade, message)
}

// DeclineTrade fails a pending trade on behalf of the caller.
func (webApp *WebApp) DeclineTrade(c *fiber.Ctx) error {
	identity := middleware.ExtractIdentity(c)
	trade, err := webApp.Manager.Decline(c.Context(), c.Params("id"), identity.ID)
	if err != nil {
		return err
	}
	return utils.SendSuccess(c, trade, "Trade declined")
}

// CancelTrade removes the caller's own active listing.
func (webApp *WebApp) CancelTrade(c *fiber.Ctx) error {
	identity := middleware.ExtractIdentity(c)
	trade, err := webApp.Manager.Cancel(c.Context(), c.Params("id"), identity.ID)
	if err != nil {
		return err
	}
	return utils.SendSuccess(c, trade, "Trade cancelled")
}

// ListNotifications returns the caller's recent notifications.
func (webApp *WebApp) ListNotifications(c *fiber.Ctx) error {
	identity := middleware.ExtractIdentity(c)

	limit, _ := strconv.Atoi(c.Query("limit"))
	notifications, err := webApp.Notifications.ListRecentByUser(c.Context(), identity.ID, limit)
	if err != nil {
		return err
	}
	return utils.SendSuccess(c, fiber.Map{"notifications": notifications}, "")
}

// GetStats returns the caller's trade counters.
func (webApp *WebApp) GetStats(c *fiber.Ctx) error {
	identity := middleware.ExtractIdentity(c)

	stats, err := webApp.Stats.Get(c.Context(), identity.ID)
	if err != nil {
		if err == repositories.ErrNotFound {
			stats = &dbmodels.UserStats{UserID: identity.ID}
		} else {
			return err
		}
	}
	return utils.SendSuccess(c, stats, "")
}
