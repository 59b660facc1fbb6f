package router

import (
	"net/http"
	"time"

	authsvc "teamhub-backend/internal/application/auth"
	emailsvc "teamhub-backend/internal/application/emails"
	healthsvc "teamhub-backend/internal/application/health"
	invsvc "teamhub-backend/internal/application/invitations"
	"teamhub-backend/internal/application/membership"
	orgsvc "teamhub-backend/internal/application/org"
	uploadsvc "teamhub-backend/internal/application/uploads"
	"teamhub-backend/internal/config"
	"teamhub-backend/internal/infrastructure/cache"
	"teamhub-backend/internal/infrastructure/database"
	"teamhub-backend/internal/infrastructure/supabase"
	healthhandler "teamhub-backend/internal/interfaces/handlers/health"
	invhandler "teamhub-backend/internal/interfaces/handlers/invitations"
	orghandler "teamhub-backend/internal/interfaces/handlers/org"
	uploadhandler "teamhub-backend/internal/interfaces/handlers/uploads"
	"teamhub-backend/internal/metrics"
	"teamhub-backend/internal/middleware"
	"teamhub-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const inviteThrottleWindow = time.Minute

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// App is the composed application and the resources it owns.
type App struct {
	Fiber   *fiber.App
	DB      *gorm.DB
	Redis   *redis.Client
	Limiter *middleware.RateLimiter
}

// Close releases the limiter, Redis and database. Call after the server stops.
func (a *App) Close() error {
	if a.Limiter != nil {
		a.Limiter.Stop()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// CreateApp opens every dependency once and wires routes.
func CreateApp(cfg *config.Config) (*App, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	out := &App{DB: db}
	if err := database.Prepare(db, cfg.DatabaseURL, cfg.RunMigrations); err != nil {
		_ = out.Close()
		return nil, err
	}
	rdb, err := cache.Open(cfg.RedisURL)
	if err != nil {
		_ = out.Close()
		return nil, err
	}
	out.Redis = rdb

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewCollector(reg)

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})
	out.Fiber = app

	app.Use(middleware.Tracing())
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.RouteLogger(rec))

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             &gormDBPinger{db: db},
		HealthAdminKey: cfg.HealthAdminKey,
		Options:        healthsvc.Options{IdentityHealthURL: cfg.SupabaseURL + "/auth/v1/health"},
	}
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(reg)))

	sb := supabase.New(cfg.SupabaseURL, cfg.SupabaseSecretKey)
	verifier := authsvc.NewVerifier(sb)
	store := membership.NewStore(db, database.NewRPC(db, cfg.DatabaseURL))

	var emailSender emailsvc.Sender
	if cfg.SendinblueAPIKey != "" {
		emailSender = &emailsvc.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom}
	}
	var throttle invsvc.Throttle
	if t := cache.NewThrottle(rdb, inviteThrottleWindow); t != nil {
		throttle = t
	}

	os := &orgsvc.Service{Store: store}
	is := &invsvc.Service{
		Store:         store,
		Throttle:      throttle,
		Email:         emailSender,
		Metrics:       rec,
		InviteBaseURL: cfg.InviteBaseURL,
	}
	ups := &uploadsvc.Service{Client: sb}

	api := app.Group("/api/v1", middleware.RequireAuth(verifier, rec))
	if cfg.RateLimitPerMinute > 0 {
		out.Limiter = middleware.NewRateLimiter(middleware.PerMinute(cfg.RateLimitPerMinute))
		api.Use(out.Limiter.Handler())
	}

	ih := &invhandler.Handlers{Service: is, Orgs: os, Seats: store}
	ig := api.Group("/invitations")
	ig.Post("/", ih.Create)
	ig.Get("/", ih.List)
	ig.Get("/:token", ih.Validate)
	ig.Post("/:token/redeem", ih.Redeem)
	ig.Delete("/:token", ih.Revoke)

	oh := &orghandler.Handlers{Service: os}
	og := api.Group("/orgs")
	og.Post("/", oh.CreateOrg)
	og.Get("/:orgId", oh.ViewOrg)
	og.Patch("/:orgId", oh.UpdateOrg)
	og.Get("/:orgId/members", oh.ListMembers)
	og.Delete("/:orgId/members/:userId", oh.RemoveMember)
	og.Post("/:orgId/teams", oh.CreateTeam)
	og.Get("/:orgId/plan", oh.Plan)

	uph := &uploadhandler.Handlers{Service: ups}
	canUpload := middleware.AuthorizeOrgPermission(os, constants.UploadAssets)
	api.Post("/uploads/:orgId/logo", canUpload, uph.UploadOrgLogo)
	api.Post("/uploads/:orgId/document", canUpload, uph.UploadOrgDocument)

	return out, nil
}

// Handler adapts the Fiber app to net/http for serverless runtimes.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
