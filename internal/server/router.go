package server

import (
	"time"

	"auction-ledger/services/auction/handler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Services bundles everything the router wires into handlers
type Services struct {
	Ledger    handler.LedgerService
	Catalog   handler.CatalogService
	Watchlist handler.WatchlistService
	Comments  handler.CommentService
	Accounts  handler.AccountService
	Auth      Authenticator

	// AllowedOrigins configures CORS. A single "*" allows every origin.
	AllowedOrigins []string
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(svc Services) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging
	router.Use(corsMiddleware(svc.AllowedOrigins))

	auctionHandler := handler.NewAuctionHandler(svc.Ledger, svc.Catalog, svc.Watchlist, svc.Comments)
	accountHandler := handler.NewAccountHandler(svc.Accounts)

	requireAuth := RequireAuth(svc.Auth)
	optionalAuth := OptionalAuth(svc.Auth)

	router.GET("/", auctionHandler.IndexHandler)
	router.GET("/all", auctionHandler.AllListingsHandler)
	router.GET("/categories", auctionHandler.CategoriesHandler)
	router.GET("/category/:name", auctionHandler.CategoryHandler)
	router.GET("/list/:id", optionalAuth, auctionHandler.ListingHandler)

	router.POST("/register", accountHandler.RegisterHandler)
	router.POST("/login", accountHandler.LoginHandler)

	authed := router.Group("", requireAuth)
	{
		authed.POST("/logout", accountHandler.LogoutHandler)

		authed.GET("/create", auctionHandler.CreateFormHandler)
		authed.POST("/create", auctionHandler.CreateListingHandler)

		authed.POST("/bid/:id", auctionHandler.PlaceBidHandler)
		authed.POST("/close/:id", auctionHandler.CloseAuctionHandler)
		authed.POST("/comment/:id", auctionHandler.CommentHandler)

		authed.GET("/additem/:id", auctionHandler.AddToWatchlistHandler)
		authed.POST("/additem/:id", auctionHandler.AddToWatchlistHandler)
		authed.GET("/removeitem/:id", auctionHandler.RemoveFromWatchlistHandler)
		authed.POST("/removeitem/:id", auctionHandler.RemoveFromWatchlistHandler)

		authed.GET("/watchlist", auctionHandler.WatchlistHandler)
		authed.GET("/won", auctionHandler.WonListingsHandler)
	}

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
