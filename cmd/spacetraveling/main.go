package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/eringen/spacetraveling"
)

// version is set at build time via ldflags.
var version = "dev"

// SiteFlags are the settings shared by every command.
type SiteFlags struct {
	Name        string `name:"site-name" env:"SITE_NAME" default:"spacetraveling" help:"Site name."`
	URL         string `name:"site-url" env:"SITE_URL" default:"http://localhost:3000" help:"Canonical site URL."`
	Description string `name:"site-description" env:"SITE_DESCRIPTION" help:"Site description for meta tags and the feed."`
	Author      string `name:"site-author" env:"SITE_AUTHOR" help:"Publisher name for structured data."`

	PrismicEndpoint    string `name:"prismic-endpoint" env:"PRISMIC_API_ENDPOINT" required:"" help:"Prismic API endpoint, e.g. https://repo.cdn.prismic.io/api/v2."`
	PrismicAccessToken string `name:"prismic-access-token" env:"PRISMIC_ACCESS_TOKEN" help:"Prismic API access token."`

	PageSize int    `name:"page-size" env:"PAGE_SIZE" default:"4" help:"Posts per listing page."`
	MaxPages int    `name:"max-pages" env:"MAX_PAGES" default:"50" help:"Highest listing page served or built."`
	Locale   string `name:"locale" env:"SITE_LOCALE" default:"pt-BR" help:"Language of labels and dates."`
	TimeZone string `name:"time-zone" env:"SITE_TIME_ZONE" default:"America/Sao_Paulo" help:"Time zone of displayed dates."`

	UtterancesRepo string `name:"utterances-repo" env:"UTTERANCES_REPO" help:"GitHub owner/repo backing utterances comments."`
}

func (f SiteFlags) config() spacetraveling.SiteConfig {
	return spacetraveling.SiteConfig{
		Name:               f.Name,
		URL:                f.URL,
		Description:        f.Description,
		Author:             f.Author,
		PrismicEndpoint:    f.PrismicEndpoint,
		PrismicAccessToken: f.PrismicAccessToken,
		PageSize:           f.PageSize,
		MaxPages:           f.MaxPages,
		Locale:             f.Locale,
		TimeZone:           f.TimeZone,
		UtterancesRepo:     f.UtterancesRepo,
	}
}

// CLI is the command line of the spacetraveling binary.
type CLI struct {
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Site SiteFlags `embed:""`

	Serve ServeCmd `cmd:"" default:"1" help:"Serve the blog over HTTP"`
	Build BuildCmd `cmd:"" help:"Write the published blog to a directory as static files"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// ServeCmd runs the HTTP server.
type ServeCmd struct {
	Addr            string        `name:"addr" env:"ADDR" default:":3000" help:"Listen address."`
	BannerDatabase  string        `name:"banner-db" env:"BANNER_DATABASE_PATH" default:"data/banners.db" help:"SQLite file caching resized banners."`
	RevalidateAfter time.Duration `name:"revalidate-after" env:"REVALIDATE_AFTER" default:"30m" help:"How long published content is cached."`
	SessionSecret   string        `name:"session-secret" env:"SESSION_SECRET" required:"" help:"Secret signing the preview session cookie."`
	CookieSecure    bool          `name:"cookie-secure" env:"COOKIE_SECURE" help:"Mark cookies Secure (serve over HTTPS)."`
	WebhookSecret   string        `name:"webhook-secret" env:"PRISMIC_WEBHOOK_SECRET" help:"Secret of the Prismic publish webhook."`
}

func (s *ServeCmd) Run(cli *CLI) error {
	cfg := cli.Site.config()
	cfg.Addr = s.Addr
	cfg.BannerDatabasePath = s.BannerDatabase
	cfg.RevalidateAfter = s.RevalidateAfter
	cfg.SessionSecret = s.SessionSecret
	cfg.CookieSecure = s.CookieSecure
	cfg.WebhookSecret = s.WebhookSecret

	app, err := spacetraveling.New(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}

// BuildCmd renders the site to disk.
type BuildCmd struct {
	Out string `short:"o" name:"out" default:"dist" help:"Output directory."`
}

func (b *BuildCmd) Run(cli *CLI) error {
	app, err := spacetraveling.New(cli.Site.config())
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	stats, err := app.Build(ctx, b.Out)
	if err != nil {
		return err
	}
	slog.Info("Site written", "out", b.Out, "pages", stats.Pages, "posts", stats.Posts, "banners", stats.Banners, "took", time.Since(start))
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env", "error", err)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("spacetraveling"),
		kong.Description("A blog backed by a Prismic repository."),
		kong.Vars{"version": version},
	)
	if err := ctx.Run(&cli); err != nil {
		slog.Error("Command failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}
