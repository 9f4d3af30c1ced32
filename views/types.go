package views

import (
	"html/template"

	"github.com/eringen/spacetraveling/posts"
)

// SiteConfig holds site-wide settings. Every handler passes this to
// templates so nothing is hardcoded.
type SiteConfig struct {
	Name           string // SITE_NAME  (default "spacetraveling")
	URL            string // SITE_URL   (default "http://localhost:3000")
	Description    string // SITE_DESCRIPTION
	Author         string // SITE_AUTHOR
	UtterancesRepo string // owner/repo for utterances comments; empty disables them
	Locale         Locale
	Static         bool // pages are written to disk; no live partial endpoints
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}

// PostPage is everything the post template renders.
type PostPage struct {
	Post        *posts.Detail
	ReadingTime int
	Neighbors   posts.Neighbors
	BannerURL   string
	Preview     bool
}

type frame struct {
	Site    SiteConfig
	Meta    PageMeta
	JSONLD  template.JS
	Preview bool
}

type homeData struct {
	frame
	Listing        *posts.Listing
	NextPageNumber int
}

type postData struct {
	frame
	Post        *posts.Detail
	ReadingTime int
	Neighbors   posts.Neighbors
	BannerURL   string
}

type errorData struct {
	frame
	Title   string
	Message string
}
