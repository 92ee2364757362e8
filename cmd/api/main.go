package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mockerp/alchemy-bridge/internal/alchemy"
	"github.com/mockerp/alchemy-bridge/internal/config"
	"github.com/mockerp/alchemy-bridge/internal/handlers"
	"github.com/mockerp/alchemy-bridge/internal/logger"
	"github.com/mockerp/alchemy-bridge/internal/materials"
	"github.com/mockerp/alchemy-bridge/internal/products"
	"github.com/mockerp/alchemy-bridge/internal/transfer"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// The UI is served from a static host and calls this API cross-origin.
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, cfg)

	return r
}

func main() {
	zlog, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zlog.Sync()

	manager := config.NewManager(config.FromEnv(), nil)

	client := alchemy.NewClient(os.Getenv("ALCHEMY_API_BASE"), nil)
	tokens := alchemy.NewTokenManager(client, manager)
	manager.SetInvalidator(tokens.Invalidate)

	store := materials.NewStore(tokens.Invalidate)
	store.Seed()

	appBase := os.Getenv("ALCHEMY_APP_BASE")
	if appBase == "" {
		appBase = alchemy.DefaultAppBaseURL
	}
	productStore := products.NewStore(appBase, func() string {
		return manager.Snapshot().Tenant
	})

	orchestrator := transfer.New(client, tokens, store, manager, zlog,
		transfer.WithAppBaseURL(appBase))

	r := setupRouter(handlers.HandlerConfig{
		Materials: store,
		Products:  productStore,
		Config:    manager,
		Tokens:    tokens,
		Transfers: orchestrator,
		Log:       zlog,
	})

	addr := ":" + port()
	zlog.Info("server listening", "addr", addr)
	if err := r.Run(addr); err != nil {
		zlog.Fatal("server stopped", "err", err.Error())
	}
}

func port() string {
	if p := os.Getenv("PORT"); p != "" {
		return p
	}
	return "3000"
}
