package main

import (
	"context"
	"time"

	"auction-ledger/internal/accounts"
	auction "auction-ledger/internal/auctionService"
	"auction-ledger/internal/config"
	"auction-ledger/internal/database"
	"auction-ledger/internal/repository"
	"auction-ledger/internal/server"
	"auction-ledger/internal/session"
	"auction-ledger/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("failed to load configuration", map[string]any{"error": err.Error()})
	}
	if err := utils.SetLevel(cfg.App.LogLevel); err != nil {
		utils.Warn("unknown log level, keeping default", map[string]any{"level": cfg.App.LogLevel})
	}

	db, err := database.Connect(cfg.Database.Driver, cfg.GetDSN())
	if err != nil {
		utils.Fatal("failed to connect to database", map[string]any{"driver": cfg.Database.Driver, "error": err.Error()})
	}
	if err := database.AutoMigrate(db); err != nil {
		utils.Fatal("failed to migrate database", map[string]any{"error": err.Error()})
	}

	repo := repository.NewGormRepo(db)

	revoked := newRevocationStore(cfg)

	accountSvc, err := accounts.NewService(repo, revoked, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		utils.Fatal("failed to create account service", map[string]any{"error": err.Error()})
	}

	catalog := auction.NewCatalogService(repo, repo)
	seedCategories(catalog, cfg.App.DefaultCategories)

	router := server.SetupRouter(server.Services{
		Ledger:         auction.NewLedger(repo, repo, repo, repo),
		Catalog:        catalog,
		Watchlist:      auction.NewWatchlistService(repo),
		Comments:       auction.NewCommentService(repo),
		Accounts:       accountSvc,
		Auth:           accountSvc,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})

	utils.Info("starting auction server", map[string]any{"addr": cfg.Addr(), "driver": cfg.Database.Driver})
	if err := router.Run(cfg.Addr()); err != nil {
		utils.Fatal("failed to start server", map[string]any{"error": err.Error()})
	}
}

// newRevocationStore uses Redis when configured and falls back to process memory
func newRevocationStore(cfg *config.Config) session.RevocationStore {
	if cfg.Redis.Addr == "" {
		return session.NewMemoryRevocationStore()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := session.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		utils.Fatal("failed to connect to redis", map[string]any{"addr": cfg.Redis.Addr, "error": err.Error()})
	}
	return session.NewRedisRevocationStore(client)
}

// seedCategories makes sure the configured default categories exist
func seedCategories(catalog *auction.CatalogService, names []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := catalog.EnsureCategories(ctx, names); err != nil {
		utils.Fatal("failed to seed categories", map[string]any{"error": err.Error()})
	}
}
