// Package views renders the site's pages as templ components.
//
// Page bodies are html/template files embedded in the binary; each exported
// function wraps one of them in a templ.Component so handlers render views
// the same way regardless of how the markup is produced.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/spacetraveling/posts"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"richtext": renderRichText,
	"postPath": PostPath,
}

var pages = func() map[string]*template.Template {
	base := template.Must(template.New("layout.html").Funcs(funcs).
		ParseFS(templateFS, "templates/layout.html", "templates/partials.html"))
	out := make(map[string]*template.Template)
	for _, name := range []string{"home.html", "post.html", "error.html"} {
		out[name] = template.Must(template.Must(base.Clone()).ParseFS(templateFS, "templates/"+name))
	}
	return out
}()

func component(page, name string, data interface{}) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pages[page].ExecuteTemplate(w, name, data)
	})
}

// Home renders the listing page.
func Home(cfg SiteConfig, listing *posts.Listing, preview bool) templ.Component {
	return component("home.html", "layout", homeData{
		frame: frame{
			Site: cfg,
			Meta: PageMeta{
				Title:       "Home",
				Description: cfg.Description,
				URL:         BuildURL(cfg.URL),
				OGType:      "website",
			},
			JSONLD:  WebsiteJsonLD(cfg),
			Preview: preview,
		},
		Listing:        listing,
		NextPageNumber: listing.Pages + 1,
	})
}

// MorePosts renders the items of a freshly loaded listing page followed by
// the control that loads the page after it. page is the number of the page
// being rendered.
func MorePosts(cfg SiteConfig, listing *posts.Listing, page int) templ.Component {
	return component("home.html", "more", homeData{
		frame:          frame{Site: cfg},
		Listing:        listing,
		NextPageNumber: page + 1,
	})
}

// Post renders a post page.
func Post(cfg SiteConfig, p PostPage) templ.Component {
	return component("post.html", "layout", postData{
		frame: frame{
			Site: cfg,
			Meta: PageMeta{
				Title:       p.Post.Title,
				Description: p.Post.Subtitle,
				URL:         BuildURL(cfg.URL, "post", p.Post.UID),
				OGType:      "article",
			},
			JSONLD:  BlogPostingJsonLD(cfg, p.Post),
			Preview: p.Preview,
		},
		Post:        p.Post,
		ReadingTime: p.ReadingTime,
		Neighbors:   p.Neighbors,
		BannerURL:   p.BannerURL,
	})
}

// NotFound renders the 404 page.
func NotFound(cfg SiteConfig) templ.Component {
	return errorPage(cfg, cfg.Locale.Labels.NotFound, cfg.Locale.Labels.NotFoundText)
}

// ServerError renders the 500 page.
func ServerError(cfg SiteConfig) templ.Component {
	return errorPage(cfg, cfg.Locale.Labels.ServerError, cfg.Locale.Labels.ServerText)
}

func errorPage(cfg SiteConfig, title, message string) templ.Component {
	return component("error.html", "layout", errorData{
		frame: frame{
			Site: cfg,
			Meta: PageMeta{Title: title, URL: BuildURL(cfg.URL), OGType: "website"},
		},
		Title:   title,
		Message: message,
	})
}
