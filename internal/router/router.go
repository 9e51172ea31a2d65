package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/auction-marketplace/internal/config"
	"github.com/iliyamo/auction-marketplace/internal/handler"
	"github.com/iliyamo/auction-marketplace/internal/middleware"
	"github.com/iliyamo/auction-marketplace/internal/utils"
)

// Deps bundles what the routes need.  Redis may be nil, which turns rate
// limiting off.
type Deps struct {
	Engine     handler.Engine
	Settings   handler.SettingsWriter
	Reputation handler.ReputationReader
	JWTSecret  string
	RateLimit  config.RateLimitConfig
	Redis      *redis.Client
}

// RegisterRoutes mounts every endpoint on e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	// Liveness and public reputation need no token.
	e.GET("/healthz", handler.Health)

	ah := handler.NewAuctionHandler(d.Engine)
	th := handler.NewTransactionHandler(d.Engine)
	adm := handler.NewAdminHandler(d.Settings, d.Reputation)

	e.GET("/v1/users/:id/ratings", adm.GetReputation)

	// Everything else is authenticated and rate limited per user and route.
	v1 := e.Group("/v1",
		middleware.JWTAuth(d.JWTSecret),
		middleware.NewTokenBucket(d.RateLimit, d.Redis),
	)

	// ---- Bidding ----
	// Sellers may bid on other sellers' listings; the engine rejects self-bids.
	bidding := v1.Group("/listings", middleware.RequireRole(utils.RoleBidder, utils.RoleSeller))
	bidding.POST("/:id/bids", ah.PlaceBid)
	bidding.POST("/:id/buy-now", ah.BuyNow)

	// ---- Moderation ----
	v1.POST("/listings/:id/blocks", ah.BlockBidder, middleware.RequireRole(utils.RoleSeller))

	// ---- Transactions ----
	// Buyer or seller depending on the step; the engine checks the party.
	tx := v1.Group("/transactions", middleware.RequireRole(utils.RoleBidder, utils.RoleSeller))
	tx.POST("/:id/payment", th.SubmitPayment)
	tx.POST("/:id/shipping", th.ConfirmShipping)
	tx.POST("/:id/receipt", th.ConfirmReceipt)
	tx.POST("/:id/cancel", th.Cancel)
	tx.POST("/:id/ratings", th.SubmitRating)

	// ---- Admin ----
	admin := v1.Group("/admin", middleware.RequireRole(utils.RoleAdmin))
	admin.PUT("/settings/:key", adm.PutSetting)
}
