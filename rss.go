package spacetraveling

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/views"
)

// feedSize is the number of most recent posts in the RSS feed.
const feedSize = 20

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language,omitempty"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate,omitempty"`
	GUID        string `xml:"guid"`
}

// buildRSS lists the newest posts first; all is oldest first.
func (a *App) buildRSS(all []posts.Summary) rssXML {
	base := a.Config.URL
	items := make([]rssItem, 0, feedSize)
	for i := len(all) - 1; i >= 0 && len(items) < feedSize; i-- {
		p := all[i]
		postURL := views.BuildURL(base, "post", p.UID)
		item := rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: p.Subtitle,
			GUID:        postURL,
		}
		if p.FirstPublicationDate != nil {
			item.PubDate = p.FirstPublicationDate.Format(time.RFC1123Z)
		}
		items = append(items, item)
	}
	return rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        views.BuildURL(base),
			Description: a.Config.Description,
			Language:    a.site.Locale.Lang,
			Items:       items,
		},
	}
}

func (a *App) writeRSS(w http.ResponseWriter, all []posts.Summary) error {
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	return encodeXML(w, a.buildRSS(all))
}
