package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/marketingreboot/reboot-api/internal/access"
	"github.com/marketingreboot/reboot-api/internal/auth"
	"github.com/marketingreboot/reboot-api/internal/config"
	"github.com/marketingreboot/reboot-api/internal/database"
	"github.com/marketingreboot/reboot-api/internal/handlers"
	"github.com/marketingreboot/reboot-api/internal/logging"
	"github.com/marketingreboot/reboot-api/internal/metrics"
	authmw "github.com/marketingreboot/reboot-api/internal/middleware"
	"github.com/marketingreboot/reboot-api/internal/roles"
	"github.com/marketingreboot/reboot-api/internal/services"
	"github.com/marketingreboot/reboot-api/internal/sse"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Env, cfg.LogLevel)

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("Invalid REDIS_URL")
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Fatal("Failed to connect to redis")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	seeds := roles.NewSeeds(cfg.Access.SeedAdminEmails...)
	policy := access.Policy{AdminBypassesVerification: cfg.Access.AdminBypassesVerification}
	routes := access.Routes{
		Authenticated: cfg.Access.AuthenticatedPaths,
		Contributor:   cfg.Access.ContributorPaths,
		Exclude:       access.DefaultExclude,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	hub := sse.NewHub()
	go hub.Run(hubCtx)

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	tokenService := services.NewTokenService(rdb)
	credentialService := services.NewCredentialService(db)
	profileService := services.NewProfileService(db, log, m, cfg.FetchTimeout)
	postService := services.NewPostService(db)
	engagementService := services.NewEngagementService(db)

	provider := auth.NewLocalProvider(credentialService, jwtService, tokenService)

	authHandler := handlers.NewAuthHandler(provider, cfg.JWTRefreshExpiry, cfg.CookieSecure, log)
	profileHandler := handlers.NewProfileHandler(profileService, engagementService, seeds)
	postHandler := handlers.NewPostHandler(postService)
	engagementHandler := handlers.NewEngagementHandler(engagementService)
	adminHandler := handlers.NewAdminHandler(profileService, postService, hub, log)
	pageHandler := handlers.NewPageHandler(profileService, postService, engagementService, seeds)
	eventsHandler := handlers.NewEventsHandler(hub)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.BaseURL},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", authHandler.SignUp)
	authGroup.Post("/signin", authHandler.SignIn)
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Post("/signout", authHandler.SignOut)

	public := api.Group("")
	public.Use(authmw.OptionalAuth(provider))
	public.Use(authmw.Facts(profileService, seeds, log))
	public.Get("/posts", postHandler.List)
	public.Get("/posts/:id", postHandler.Get)
	public.Get("/contributors/:id", profileHandler.Get)
	public.Get("/contributors/:id/followers/count", engagementHandler.FollowerCount)

	protected := api.Group("")
	protected.Use(authmw.Auth(provider))
	protected.Use(authmw.Facts(profileService, seeds, log))

	protected.Get("/auth/session", authHandler.Session)
	protected.Post("/auth/signout-all", authHandler.SignOutAll)

	protected.Get("/profiles/me", profileHandler.GetMe)
	protected.Patch("/profiles/me", profileHandler.UpdateMe)

	protected.Post("/posts/:id/save", engagementHandler.Save)
	protected.Delete("/posts/:id/save", engagementHandler.Unsave)
	protected.Get("/saved", engagementHandler.ListSaved)
	protected.Post("/contributors/:id/follow", engagementHandler.Follow)
	protected.Delete("/contributors/:id/follow", engagementHandler.Unfollow)

	protected.Get("/events", eventsHandler.Connect)

	cms := api.Group("/cms")
	cms.Use(authmw.Auth(provider))
	cms.Use(authmw.Facts(profileService, seeds, log))
	cms.Use(authmw.Require(policy, access.Author, m))
	cms.Post("/posts", postHandler.Create)
	cms.Patch("/posts/:id", postHandler.Update)
	cms.Delete("/posts/:id", postHandler.Delete)

	admin := api.Group("/admin")
	admin.Use(authmw.Auth(provider))
	admin.Use(authmw.Facts(profileService, seeds, log))
	admin.Use(authmw.Require(policy, access.Admin, m))
	admin.Get("/profiles", adminHandler.ListProfiles)
	admin.Get("/stats", adminHandler.Stats)
	admin.Patch("/profiles/:id/role", adminHandler.SetRole)
	admin.Patch("/profiles/:id/admin", adminHandler.SetAdmin)
	admin.Patch("/profiles/:id/verification", adminHandler.SetVerification)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	metricsHandler := m.Handler()
	app.Get("/metrics", func(c *drift.Context) {
		metricsHandler.ServeHTTP(c.Response, c.Request)
	})

	pages := app.Group("")
	pages.Use(authmw.Edge(authmw.EdgeConfig{
		Sessions:     provider,
		Profiles:     profileService,
		Seeds:        seeds,
		Policy:       policy,
		Routes:       routes,
		LoginPath:    cfg.Access.LoginPath,
		HomePath:     cfg.Access.HomePath,
		RefreshTTL:   cfg.JWTRefreshExpiry,
		CookieSecure: cfg.CookieSecure,
		Timeout:      cfg.FetchTimeout,
		Logger:       log,
		Metrics:      m,
	}))
	pages.Get("/", pageHandler.Home)
	pages.Get("/login", pageHandler.Login)
	pages.Get("/dashboard", pageHandler.Dashboard)
	pages.Get("/profile/edit", pageHandler.EditProfile)
	pages.Get("/posts/new", pageHandler.NewPost)
	pages.Get("/saved", pageHandler.Saved)
	pages.Get("/cms", pageHandler.CMS)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
