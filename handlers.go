package spacetraveling

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/views"
)

func (a *App) handleHome(c echo.Context) error {
	ref := previewRef(c)
	listing, err := a.Cache.Pages(c.Request().Context(), ref, 1)
	if err != nil {
		return err
	}
	return Render(c, views.Home(a.site, a.capListing(listing), ref != ""))
}

// handlePage renders the first n listing pages; it is where the load-more
// control leads when scripts are off.
func (a *App) handlePage(c echo.Context) error {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 1 || n > a.Config.MaxPages {
		return echo.ErrNotFound
	}
	if n == 1 {
		return c.Redirect(http.StatusMovedPermanently, "/")
	}
	ref := previewRef(c)
	listing, err := a.Cache.Pages(c.Request().Context(), ref, n)
	if err != nil {
		return err
	}
	if listing.Pages < n {
		return echo.ErrNotFound
	}
	return Render(c, views.Home(a.site, a.capListing(listing), ref != ""))
}

// handleMore returns the posts of the page at cursor followed by a new
// load-more control. n is the number of that page.
func (a *App) handleMore(c echo.Context) error {
	cursor := c.QueryParam("cursor")
	n, err := strconv.Atoi(c.QueryParam("n"))
	if cursor == "" || err != nil || n < 2 || n > a.Config.MaxPages {
		return echo.NewHTTPError(http.StatusBadRequest, "cursor and n are required")
	}
	if c.Request().Header.Get("HX-Request") != "true" {
		return c.Redirect(http.StatusSeeOther, "/page/"+strconv.Itoa(n)+"/")
	}
	if err := a.Client.CheckPageURL(cursor); err != nil {
		return err
	}
	listing, err := a.Cache.Page(c.Request().Context(), previewRef(c), cursor, n)
	if err != nil {
		return err
	}
	if n >= a.Config.MaxPages {
		listing.NextPage = ""
	}
	return Render(c, views.MorePosts(a.site, listing, n))
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	uid := c.Param("slug")
	ref := previewRef(c)
	post, err := a.Cache.Post(ctx, uid, ref)
	if err != nil {
		return err
	}
	neighbors, err := a.Cache.Neighbors(ctx, uid, ref)
	if err != nil {
		return err
	}
	return Render(c, views.Post(a.site, views.PostPage{
		Post:        post,
		ReadingTime: posts.ReadingTime(post.Content),
		Neighbors:   neighbors,
		BannerURL:   bannerFor(post),
		Preview:     ref != "",
	}))
}

// handlePreview starts a preview session for the ref in token and sends the
// editor to the previewed document.
func (a *App) handlePreview(c echo.Context) error {
	if !a.limiter.Allow(c.RealIP()) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many preview requests")
	}
	token := c.QueryParam("token")
	if token == "" || len(token) > 2048 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid preview token")
	}
	target := "/"
	if id := c.QueryParam("documentId"); id != "" {
		doc, err := a.Client.GetByID(c.Request().Context(), id, prismic.QueryOptions{Ref: token})
		if err != nil {
			return err
		}
		if doc.Type == posts.DocumentType && doc.UID != "" {
			target = views.PostPath(doc.UID)
		}
	}
	if err := setPreviewSession(c, token); err != nil {
		return err
	}
	a.log.Info("Preview started", "target", target, "ip", c.RealIP())
	return c.Redirect(http.StatusTemporaryRedirect, target)
}

func handleExitPreview(c echo.Context) error {
	if err := clearPreviewSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, "/")
}

// webhookPayload is the part of a Prismic webhook body that is checked.
type webhookPayload struct {
	Type   string `json:"type"`
	Secret string `json:"secret"`
}

// handleWebhook drops cached content when the CMS reports a publish.
func (a *App) handleWebhook(c echo.Context) error {
	if a.Config.WebhookSecret == "" {
		return echo.ErrNotFound
	}
	ip := c.RealIP()
	if !a.limiter.Check(ip) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many attempts")
	}
	var p webhookPayload
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if subtle.ConstantTimeCompare([]byte(p.Secret), []byte(a.Config.WebhookSecret)) != 1 {
		a.limiter.Record(ip)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid secret")
	}
	a.Cache.Invalidate()
	a.log.Info("Cache invalidated by webhook", "type", p.Type)
	return c.JSON(http.StatusOK, map[string]bool{"revalidated": true})
}

func (a *App) handleSitemap(c echo.Context) error {
	all, err := a.Cache.All(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return writeSitemap(c.Response(), a.Config.URL, all)
}

func (a *App) handleFeed(c echo.Context) error {
	all, err := a.Cache.All(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.writeRSS(c.Response(), all)
}

func (a *App) handleRobots(c echo.Context) error {
	return c.String(http.StatusOK, robotsTxt(a.Config.URL))
}

func robotsTxt(base string) string {
	return "User-agent: *\nAllow: /\nDisallow: /api/\n\nSitemap: " +
		strings.TrimSuffix(base, "/") + "/sitemap.xml\n"
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var apiErr *prismic.APIError
	switch {
	case errors.Is(err, prismic.ErrNotFound):
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(a.site))
		return
	case errors.Is(err, prismic.ErrForeignURL), errors.Is(err, posts.ErrNoMorePages):
		err = echo.NewHTTPError(http.StatusBadRequest, "invalid cursor")
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest && previewRef(c) != "":
		// An expired preview ref; leave preview instead of failing every page.
		_ = clearPreviewSession(c)
		_ = c.Redirect(http.StatusTemporaryRedirect, c.Request().URL.RequestURI())
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(a.site))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.log.Error("Server error", "uri", c.Request().RequestURI, "error", err)
		_ = RenderStatus(c, code, views.ServerError(a.site))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
