package spacetraveling

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/eringen/spacetraveling/posts"
)

const (
	maxBannerWidth = 800
	jpegQuality    = 80
	maxBannerSize  = 10 << 20 // 10MB
)

// processBanner decodes an image from src, resizes it to maxBannerWidth
// when wider, and encodes it as JPEG.
func processBanner(src io.Reader, source string) (Banner, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return Banner{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxBannerWidth {
		newH := h * maxBannerWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxBannerWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxBannerWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Banner{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return Banner{Source: source, Data: buf.Bytes(), Width: w, Height: h}, nil
}

// downloadBanner fetches and processes the image at source.
func (a *App) downloadBanner(ctx context.Context, source string) (Banner, error) {
	u, err := url.Parse(source)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return Banner{}, fmt.Errorf("banner source %q: unsupported url", source)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return Banner{}, err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return Banner{}, fmt.Errorf("download banner: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Banner{}, fmt.Errorf("download banner: status %d", resp.StatusCode)
	}
	return processBanner(io.LimitReader(resp.Body, maxBannerSize), source)
}

// banner returns the resized banner for source, from the store when
// present. The store is skipped when it is not open (static builds).
func (a *App) banner(ctx context.Context, source string) (Banner, error) {
	if a.Banners != nil {
		b, err := a.Banners.Get(source)
		if err == nil {
			a.Metrics.IncBannerResult("stored")
			return b, nil
		}
		if !errors.Is(err, ErrBannerNotFound) {
			a.log.Warn("Banner store read failed", "source", source, "error", err)
		}
	}
	b, err := a.downloadBanner(ctx, source)
	if err != nil {
		a.Metrics.IncBannerResult("failed")
		return Banner{}, err
	}
	a.Metrics.IncBannerResult("resized")
	if a.Banners != nil {
		if err := a.Banners.Save(b); err != nil {
			a.log.Warn("Banner store write failed", "source", source, "error", err)
		}
	}
	return b, nil
}

// bannerPath is the site path of a post's resized banner.
func bannerPath(uid string) string {
	return "/banner/" + url.PathEscape(uid) + ".jpg"
}

func bannerFor(p *posts.Detail) string {
	if p.Banner.URL == "" {
		return ""
	}
	return bannerPath(p.UID)
}

func (a *App) handleBanner(c echo.Context) error {
	file := c.Param("file")
	uid, ok := strings.CutSuffix(file, ".jpg")
	if !ok || uid == "" {
		return echo.ErrNotFound
	}
	ctx := c.Request().Context()
	post, err := a.Cache.Post(ctx, uid, previewRef(c))
	if err != nil {
		return err
	}
	if post.Banner.URL == "" {
		return echo.ErrNotFound
	}
	b, err := a.banner(ctx, post.Banner.URL)
	if err != nil {
		return fmt.Errorf("banner for %q: %w", uid, err)
	}
	return c.Blob(http.StatusOK, "image/jpeg", b.Data)
}
