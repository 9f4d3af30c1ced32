package spacetraveling

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/views"
)

// BuildStats summarizes a static build.
type BuildStats struct {
	Pages   int
	Posts   int
	Banners int
}

// Build renders the published site into dir: the listing pages, every post
// with its banner, the sitemap, the feed and the public assets. The output
// can be served by any static file server.
func (a *App) Build(ctx context.Context, dir string) (BuildStats, error) {
	var stats BuildStats
	site := a.site
	site.Static = true

	l, err := a.Posts.FirstPage(ctx, "")
	if err != nil {
		return stats, err
	}
	for {
		page := a.capListing(cloneListing(l))
		path := filepath.Join(dir, "index.html")
		if l.Pages > 1 {
			path = filepath.Join(dir, "page", strconv.Itoa(l.Pages), "index.html")
		}
		if err := writeComponent(ctx, path, views.Home(site, page, false)); err != nil {
			return stats, err
		}
		stats.Pages++
		if !page.HasMore() {
			break
		}
		if err := a.Posts.LoadMore(ctx, l); err != nil {
			return stats, err
		}
	}

	all, err := a.Posts.All(ctx, "")
	if err != nil {
		return stats, err
	}
	for _, s := range all {
		if !filepath.IsLocal(s.UID) || filepath.Base(s.UID) != s.UID {
			a.log.Warn("Skipping post with unsafe uid", "uid", s.UID)
			continue
		}
		wroteBanner, err := a.buildPost(ctx, dir, site, all, s.UID)
		if err != nil {
			return stats, err
		}
		stats.Posts++
		if wroteBanner {
			stats.Banners++
		}
	}

	if err := writeFile(filepath.Join(dir, "404.html"), func(w io.Writer) error {
		return views.NotFound(site).Render(ctx, w)
	}); err != nil {
		return stats, err
	}
	if err := writeFile(filepath.Join(dir, "sitemap.xml"), func(w io.Writer) error {
		return encodeXML(w, buildSitemap(a.Config.URL, all))
	}); err != nil {
		return stats, err
	}
	if err := writeFile(filepath.Join(dir, "feed.xml"), func(w io.Writer) error {
		return encodeXML(w, a.buildRSS(all))
	}); err != nil {
		return stats, err
	}
	if err := writeFile(filepath.Join(dir, "robots.txt"), func(w io.Writer) error {
		_, err := io.WriteString(w, robotsTxt(a.Config.URL))
		return err
	}); err != nil {
		return stats, err
	}
	if err := copyFS(filepath.Join(dir, "public"), publicFS()); err != nil {
		return stats, err
	}

	a.log.Info("Build complete", "dir", dir, "pages", stats.Pages, "posts", stats.Posts, "banners", stats.Banners)
	return stats, nil
}

// buildPost writes one post page and, when the post has one, its banner.
// A banner that cannot be fetched is left out rather than failing the build.
func (a *App) buildPost(ctx context.Context, dir string, site views.SiteConfig, all []posts.Summary, uid string) (bool, error) {
	post, err := a.Posts.Post(ctx, uid, "")
	if err != nil {
		return false, err
	}
	page := views.PostPage{
		Post:        post,
		ReadingTime: posts.ReadingTime(post.Content),
		Neighbors:   posts.Adjacent(all, uid),
	}

	wroteBanner := false
	if post.Banner.URL != "" {
		b, err := a.banner(ctx, post.Banner.URL)
		if err != nil {
			a.log.Warn("Banner skipped", "uid", uid, "error", err)
		} else {
			path := filepath.Join(dir, "banner", uid+".jpg")
			if err := writeFile(path, func(w io.Writer) error {
				_, err := w.Write(b.Data)
				return err
			}); err != nil {
				return false, err
			}
			page.BannerURL = bannerPath(uid)
			wroteBanner = true
		}
	}

	path := filepath.Join(dir, "post", uid, "index.html")
	return wroteBanner, writeComponent(ctx, path, views.Post(site, page))
}

// capListing hides the load-more control on the last page that is served.
func (a *App) capListing(l *posts.Listing) *posts.Listing {
	if l.Pages >= a.Config.MaxPages {
		l.NextPage = ""
	}
	return l
}

func writeComponent(ctx context.Context, path string, cmp templ.Component) error {
	return writeFile(path, func(w io.Writer) error {
		return cmp.Render(ctx, w)
	})
}

// writeFile renders into memory first so a failed render leaves no
// partial file behind.
func writeFile(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func copyFS(dst string, src fs.FS) error {
	return fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(src, path)
		if err != nil {
			return err
		}
		return writeFile(filepath.Join(dst, filepath.FromSlash(path)), func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		})
	})
}
