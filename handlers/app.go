package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"paymordomo/middleware"
	"paymordomo/objstore"
	"paymordomo/services"
	"paymordomo/session"
	"paymordomo/workers"
)

// receiptLimit caps uploaded receipt size.
const receiptLimit = 10 * 1024 * 1024

type Deps struct {
	Sessions      *session.Service
	Transactions  *services.TransactionService
	Goals         *services.GoalService
	Contributions *services.ContributionService
	Dashboard     *services.DashboardService
	Reports       *services.ReportService
	Badges        *services.BadgeService
	Log           *zap.Logger

	// Resync backs the admin resync endpoint and Uploads is served under
	// /uploads to the owning user. Either left nil is not routed.
	Resync  *workers.BadgeResync
	Uploads objstore.Store

	AllowedOrigins string
	// RateLimit is requests per minute per IP; 0 disables the limiter.
	RateLimit int
}

func NewApp(d Deps) *fiber.App {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		BodyLimit:    receiptLimit,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger(d.Log))
	if d.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        d.RateLimit,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return ErrorResponseJSON(c, fiber.StatusTooManyRequests, "Too Many Requests", "Muitas requisições, tente novamente em instantes")
			},
		}))
	}
	origins := d.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Cache-Control",
		MaxAge:       86400,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupAuthRoutes(app, d.Sessions)

	secured := app.Group("/",
		middleware.Protected(d.Sessions.Secret(), func(c *fiber.Ctx, err error) error {
			return ErrorResponseJSON(c, fiber.StatusUnauthorized, "Unauthorized", "Sessão inválida ou expirada")
		}),
		middleware.UserContext(d.Sessions, d.Log),
	)
	SetupProfileRoutes(secured, d.Sessions)
	SetupTransactionRoutes(secured, d.Transactions)
	SetupGoalRoutes(secured, d.Goals)
	SetupContributionRoutes(secured, d.Contributions)
	SetupDashboardRoutes(secured, d.Dashboard, d.Reports)
	SetupBadgeRoutes(secured, d.Badges)
	if d.Resync != nil {
		SetupAdminRoutes(secured, d.Resync)
	}
	if d.Uploads != nil {
		SetupUploadRoutes(secured, d.Uploads)
	}

	return app
}
