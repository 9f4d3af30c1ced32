// Package spacetraveling serves a blog whose posts live in a Prismic
// repository. It lists posts with incremental "load more" pagination,
// renders post pages with reading time and previous/next navigation,
// supports CMS preview sessions and can also write the whole site to disk.
package spacetraveling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/eringen/spacetraveling/metrics"
	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/views"
)

// App is the central spacetraveling application. It wires together the
// CMS client, post cache, banner store, handlers and middleware.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Client  *prismic.Client
	Posts   *posts.Service
	Cache   *PostCache
	Banners *BannerStore
	Metrics *metrics.PrometheusRecorder

	log          *slog.Logger
	registry     *prom.Registry
	site         views.SiteConfig
	limiter      *RateLimiter
	scheduler    *scheduler
	httpClient   *http.Client
	customRoutes []func(*App)
	initialized  bool
}

// New validates cfg and creates an App. Nothing is opened or started
// until Init or Start is called.
func New(cfg SiteConfig, opts ...Option) (*App, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	a := &App{
		Config:     cfg,
		Echo:       echo.New(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	a.Metrics = metrics.NewPrometheusRecorder(a.registry)

	client, err := prismic.NewClient(cfg.PrismicEndpoint,
		prismic.WithAccessToken(cfg.PrismicAccessToken),
		prismic.WithObserver(a.Metrics.ObserveCMSRequest),
	)
	if err != nil {
		return nil, fmt.Errorf("spacetraveling: %w", err)
	}
	a.Client = client
	a.Posts = posts.NewService(client, cfg.PageSize)
	a.Cache = NewPostCache(a.Posts, cfg.RevalidateAfter, a.Metrics)

	loc, _ := time.LoadLocation(cfg.TimeZone)
	a.site = views.SiteConfig{
		Name:           cfg.Name,
		URL:            cfg.URL,
		Description:    cfg.Description,
		Author:         cfg.Author,
		UtterancesRepo: cfg.UtterancesRepo,
		Locale:         views.NewLocale(cfg.Locale, loc),
	}
	return a, nil
}

// Init opens the banner store, starts background jobs and registers
// middleware and routes. Start calls it; tests call it to drive a.Echo
// without listening.
func (a *App) Init() error {
	if a.initialized {
		return nil
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("spacetraveling: SessionSecret is required")
	}

	store, err := NewBannerStore(a.Config.BannerDatabasePath)
	if err != nil {
		return fmt.Errorf("spacetraveling: init banner store: %w", err)
	}
	a.Banners = store

	a.limiter = NewRateLimiter(10, time.Minute)

	sched, err := newScheduler(a.log)
	if err != nil {
		return fmt.Errorf("spacetraveling: init scheduler: %w", err)
	}
	if err := sched.every(24*time.Hour, "prune-banners", func() {
		n, err := a.Banners.Prune(bannerRetention)
		if err != nil {
			a.log.Error("Banner prune failed", "error", err)
			return
		}
		a.log.Info("Pruned banners", "removed", n)
	}); err != nil {
		return fmt.Errorf("spacetraveling: schedule banner prune: %w", err)
	}
	if err := sched.every(a.limiter.window, "sweep-limiter", a.limiter.Sweep); err != nil {
		return fmt.Errorf("spacetraveling: schedule limiter sweep: %w", err)
	}
	if err := sched.every(a.Config.RevalidateAfter, "sweep-cache", a.Cache.Sweep); err != nil {
		return fmt.Errorf("spacetraveling: schedule cache sweep: %w", err)
	}
	sched.start()
	a.scheduler = sched

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.initialized = true
	return nil
}

// Start initializes the app and serves HTTP until the server is shut down.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	a.log.Info("Starting server", "addr", a.Config.Addr, "prismic", a.Client.Endpoint())
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/public/*", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(publicFS())))))
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/metrics", echo.WrapHandler(a.Metrics.Handler()))

	e.GET("/", a.timed("home", a.handleHome))
	e.GET("/page/:n/", a.timed("page", a.handlePage))
	e.GET("/more/", a.timed("more", a.handleMore))
	e.GET("/post/:slug/", a.timed("post", a.handlePost))
	e.GET("/banner/:file", a.handleBanner)

	e.GET("/api/preview/", a.handlePreview)
	e.GET("/api/exit-preview/", handleExitPreview)
	e.POST("/api/webhook/", a.handleWebhook)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.scheduler != nil {
		if err := a.scheduler.stop(); err != nil {
			a.log.Warn("Scheduler shutdown failed", "error", err)
		}
	}
	if a.Banners != nil {
		return a.Banners.Close()
	}
	return nil
}

// timed records how long h takes under the given page label.
func (a *App) timed(page string, h echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := h(c)
		a.Metrics.ObserveRender(page, time.Since(start))
		return err
	}
}
