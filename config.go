package spacetraveling

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	prom "github.com/prometheus/client_golang/prometheus"
)

// SiteConfig holds all configuration for a spacetraveling site.
type SiteConfig struct {
	Name        string `validate:"required"`     // Site name (default "spacetraveling")
	URL         string `validate:"required,url"` // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Publisher name for JSON-LD

	Addr               string // Listen address (default ":3000")
	BannerDatabasePath string // SQLite path for resized banners (default "data/banners.db")

	PrismicEndpoint    string `validate:"required,url"` // e.g. https://repo.cdn.prismic.io/api/v2
	PrismicAccessToken string // Optional API access token

	PageSize        int           `validate:"gte=1,lte=100"` // Posts per listing page (default 4)
	MaxPages        int           `validate:"gte=1"`         // Highest /page/:n/ served and built (default 50)
	RevalidateAfter time.Duration `validate:"gte=0"`         // Post cache TTL (default 30min)

	Locale   string // BCP 47 tag for labels and dates (default "pt-BR")
	TimeZone string // IANA zone for displayed dates (default "America/Sao_Paulo")

	UtterancesRepo string `validate:"omitempty,contains=/"` // owner/repo, empty disables comments
	WebhookSecret  string // Shared secret of the CMS publish webhook, empty disables it
	SessionSecret  string // Required to serve: key signing the preview session cookie
	CookieSecure   bool   // Set true for HTTPS
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "spacetraveling"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.BannerDatabasePath == "" {
		c.BannerDatabasePath = "data/banners.db"
	}
	if c.PageSize == 0 {
		c.PageSize = 4
	}
	if c.MaxPages == 0 {
		c.MaxPages = 50
	}
	if c.RevalidateAfter == 0 {
		c.RevalidateAfter = 30 * time.Minute
	}
	if c.Locale == "" {
		c.Locale = "pt-BR"
	}
	if c.TimeZone == "" {
		c.TimeZone = "America/Sao_Paulo"
	}
}

var validate = validator.New()

func (c *SiteConfig) validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("spacetraveling: invalid config: %w", err)
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("spacetraveling: invalid config: time zone %q: %w", c.TimeZone, err)
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithLogger sets the logger used for request and background job logs
// (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.log = l
	}
}

// WithRegistry registers the site metrics on reg instead of a private
// registry with Go and process collectors.
func WithRegistry(reg *prom.Registry) Option {
	return func(a *App) {
		a.registry = reg
	}
}
