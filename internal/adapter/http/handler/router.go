package handler

import (
	"pet-auction-house/internal/adapter/http/middleware"
	redisStore "pet-auction-house/internal/adapter/storage/redis"
	"pet-auction-house/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	LedgerSvc      ports.LedgerService
	PetSvc         ports.PetService
	LotSvc         ports.LotService
	BidSvc         ports.BidService
	SettlementSvc  ports.SettlementService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	accountHandler := NewAccountHandler(deps.LedgerSvc)
	petHandler := NewPetHandler(deps.PetSvc)
	lotHandler := NewLotHandler(deps.LotSvc)
	bidHandler := NewBidHandler(deps.BidSvc, deps.SettlementSvc)

	accounts := v1.Group("/accounts", jwtAuth)
	{
		accounts.GET("/me", rl("market_read"), accountHandler.GetProfile)
	}

	pets := v1.Group("/pets", jwtAuth)
	{
		pets.GET("", rl("market_read"), petHandler.ListOwn)
		pets.POST("", rl("market_write"), petHandler.Create)
	}

	lots := v1.Group("/lots", jwtAuth)
	{
		lots.GET("", rl("market_read"), lotHandler.ListOpen)
		lots.POST("", rl("market_write"), lotHandler.Create)
		lots.GET("/:id/bids", rl("market_read"), lotHandler.ListBids)
		lots.POST("/:id/close", rl("market_write"), lotHandler.Close)
	}

	bids := v1.Group("/bids", jwtAuth)
	{
		bids.GET("", rl("market_read"), bidHandler.ListActive)
		bids.POST("", rl("market_write"), bidHandler.Place)
		bids.DELETE("/:id", rl("market_write"), bidHandler.Withdraw)
		bids.POST("/:id/accept", rl("settlement"), bidHandler.Accept)
	}

	return r
}
