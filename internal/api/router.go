package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lookupbot/credit-engine/internal/api/handler"
	"github.com/lookupbot/credit-engine/internal/api/middleware"
	"github.com/lookupbot/credit-engine/internal/core/domain"
	"github.com/lookupbot/credit-engine/internal/core/ports"
)

// Deps bundles everything the router needs wired in.
type Deps struct {
	DB          *mongo.Database
	Redis       *redis.Client
	Auth        ports.AuthService
	Charges     ports.ChargeService
	Admin       ports.AdminService
	JWTSecret   string
	AdminUserID int64
	Logger      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("credits"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth)
	accountHandler := handler.NewAccountHandler(d.Charges)
	adminHandler := handler.NewAdminHandler(d.Admin, d.AdminUserID)
	authMiddleware := middleware.Auth(d.JWTSecret)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.DB, d.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Operator routes (any authenticated staff role) ---
	v1 := e.Group("/v1", authMiddleware, middleware.RBAC(domain.RoleAdmin, domain.RoleOperator))
	v1.GET("/accounts/:id/balance", accountHandler.GetBalance)
	v1.POST("/accounts/:id/claim-daily", accountHandler.ClaimDaily)

	// --- Admin routes ---
	admin := e.Group("/v1/admin", authMiddleware, middleware.RBAC(domain.RoleAdmin))
	admin.POST("/credits/grant", adminHandler.GrantCredits)
	admin.POST("/credits/revoke", adminHandler.RevokeCredits)
	admin.POST("/blocks", adminHandler.Block)
	admin.DELETE("/blocks/:id", adminHandler.Unblock)
	admin.POST("/special", adminHandler.PromoteSpecial)
	admin.DELETE("/special/:id", adminHandler.DemoteSpecial)
	admin.GET("/accounts", adminHandler.ListAccounts)
	admin.GET("/accounts/:id/history", adminHandler.GetHistory)

	return e
}
