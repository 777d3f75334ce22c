package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tessera/access"
	"tessera/admin"
	"tessera/blocks"
	"tessera/cache"
	"tessera/common"
	"tessera/database"
	"tessera/email"
	"tessera/forms"
	"tessera/frontend"
	"tessera/media"
	"tessera/render"
	"tessera/site"
	"tessera/store"
)

const domainIndexTTL = time.Minute

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}
	if err := cfg.RequireServer(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := common.NewLogger(cfg.Env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to build logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	db, err := common.ConnectDb(cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := database.RunMigrations(db, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	catalog := blocks.NewDefaultCatalog()
	loaded, errs := catalog.LoadCatalogDir(cfg.TenantsDir)
	for _, err := range errs {
		log.Warn("tenant catalog", zap.Error(err))
	}
	log.Info("block catalog ready", zap.Strings("tenants", catalog.Tenants()), zap.Int("fromFiles", loaded))

	registry := render.NewDefaultRegistry(catalog, log)
	pipeline := render.NewPipeline(registry, cfg.IsDevelopment(), log)

	pageCache := cache.New(cfg.CacheDir, cfg.CacheMaxAge)
	go pruneCache(pageCache, log)

	st := store.New(db)
	st.SetPopulator(media.NewPopulator(st))
	guarded := st.WithGuard(access.DefaultPolicy())
	domains := frontend.NewDomainIndex(st, domainIndexTTL, log)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), common.RequestLogger(log))

	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   !cfg.IsDevelopment(),
	})
	router.Use(sessions.Sessions("tessera-session", sessionStore))
	if len(cfg.CORSOrigins) > 0 {
		router.Use(common.CORS(cfg.CORSOrigins))
	}
	router.Use(common.TenantHostMiddleware(router, cfg.BaseDomain, domains.Lookup))

	router.LoadHTMLGlob("*/views/*.html")
	router.Static("/public", "./public")

	storage := media.NewStorage(cfg.MediaDir)
	media.NewMediaModule(storage).RegisterRoutes(router)

	frontend.NewFrontendModule(guarded, pipeline, pageCache, log).RegisterRoutes(router)
	site.NewSiteModule(guarded, cfg.BaseDomain, log).RegisterRoutes(router)
	formsModule := forms.NewFormsModule(guarded, log)
	if mailer := email.NewEmailService(cfg); mailer.Enabled() {
		formsModule.WithNotifier(mailer)
	} else {
		log.Info("SMTP not configured, form notifications disabled")
	}
	formsModule.RegisterRoutes(router)
	admin.NewAdminModule(db, guarded, catalog, registry, pageCache, log).RegisterRoutes(router)

	log.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}

func pruneCache(c *cache.Cache, log *zap.Logger) {
	if c.MaxAge() <= 0 {
		return
	}
	ticker := time.NewTicker(c.MaxAge())
	defer ticker.Stop()
	for range ticker.C {
		removed, err := c.Prune()
		if err != nil {
			log.Warn("cache prune failed", zap.Error(err))
			continue
		}
		if removed > 0 {
			log.Debug("cache pruned", zap.Int("removed", removed))
		}
	}
}
