// Package posts shapes CMS documents into the records the site renders and
// holds the small amount of logic that sits on top of them: listing
// accumulation, reading time, and previous/next navigation.
package posts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/richtext"
)

// DocumentType is the Prismic custom type holding blog posts.
const DocumentType = "posts"

// WordsPerMinute is the reading speed used by ReadingTime.
const WordsPerMinute = 200

// ErrNoMorePages is returned by LoadMore when the listing has no cursor.
var ErrNoMorePages = errors.New("posts: no more pages")

// Summary is the listing projection of a post.
type Summary struct {
	UID                  string     `json:"uid"`
	FirstPublicationDate *time.Time `json:"first_publication_date"`
	Title                string     `json:"title"`
	Subtitle             string     `json:"subtitle"`
	Author               string     `json:"author"`
}

// Detail is the full projection of a post.
type Detail struct {
	UID                  string
	FirstPublicationDate *time.Time
	LastPublicationDate  *time.Time
	Title                string
	Subtitle             string
	Author               string
	Banner               Banner
	Content              []Section
}

// Edited reports whether the post changed after it was first published.
func (d *Detail) Edited() bool {
	if d.FirstPublicationDate == nil || d.LastPublicationDate == nil {
		return false
	}
	return d.LastPublicationDate.After(*d.FirstPublicationDate)
}

// Summary returns the listing projection of d.
func (d *Detail) Summary() Summary {
	return Summary{
		UID:                  d.UID,
		FirstPublicationDate: d.FirstPublicationDate,
		Title:                d.Title,
		Subtitle:             d.Subtitle,
		Author:               d.Author,
	}
}

// Banner is the post's header image.
type Banner struct {
	URL    string
	Alt    string
	Width  int
	Height int
}

// Section is one headed block of post content.
type Section struct {
	Heading string
	Body    richtext.RichText
}

// Neighbors are the posts immediately before and after a post in listing order.
type Neighbors struct {
	Before *Summary
	After  *Summary
}

// summaryData is the subset of post fields used by listings.
type summaryData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
}

type detailData struct {
	summaryData
	Banner struct {
		URL        string `json:"url"`
		Alt        string `json:"alt"`
		Dimensions struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"dimensions"`
	} `json:"banner"`
	Content []struct {
		Heading string            `json:"heading"`
		Body    richtext.RichText `json:"body"`
	} `json:"content"`
}

// SummaryFromDocument picks the listing fields out of doc.
func SummaryFromDocument(doc prismic.Document) (Summary, error) {
	var data summaryData
	if len(doc.Data) > 0 {
		if err := json.Unmarshal(doc.Data, &data); err != nil {
			return Summary{}, fmt.Errorf("decode post %q: %w", doc.UID, err)
		}
	}
	return Summary{
		UID:                  doc.UID,
		FirstPublicationDate: prismic.TimePtr(doc.FirstPublicationDate),
		Title:                data.Title,
		Subtitle:             data.Subtitle,
		Author:               data.Author,
	}, nil
}

// SummariesFromDocuments maps every document in order.
func SummariesFromDocuments(docs []prismic.Document) ([]Summary, error) {
	out := make([]Summary, 0, len(docs))
	for _, doc := range docs {
		s, err := SummaryFromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// DetailFromDocument shapes doc into a Detail.
func DetailFromDocument(doc prismic.Document) (*Detail, error) {
	var data detailData
	if len(doc.Data) > 0 {
		if err := json.Unmarshal(doc.Data, &data); err != nil {
			return nil, fmt.Errorf("decode post %q: %w", doc.UID, err)
		}
	}
	d := &Detail{
		UID:                  doc.UID,
		FirstPublicationDate: prismic.TimePtr(doc.FirstPublicationDate),
		LastPublicationDate:  prismic.TimePtr(doc.LastPublicationDate),
		Title:                data.Title,
		Subtitle:             data.Subtitle,
		Author:               data.Author,
		Banner: Banner{
			URL:    data.Banner.URL,
			Alt:    data.Banner.Alt,
			Width:  data.Banner.Dimensions.Width,
			Height: data.Banner.Dimensions.Height,
		},
		Content: make([]Section, 0, len(data.Content)),
	}
	for _, c := range data.Content {
		d.Content = append(d.Content, Section{Heading: c.Heading, Body: c.Body})
	}
	return d, nil
}

// ReadingTime estimates minutes to read sections: every heading and body
// block is split on whitespace, the words summed and divided by
// WordsPerMinute, rounding up.
func ReadingTime(sections []Section) int {
	words := 0
	for _, s := range sections {
		words += len(strings.Fields(s.Heading))
		for _, b := range s.Body {
			words += len(strings.Fields(b.Text))
		}
	}
	return int(math.Ceil(float64(words) / WordsPerMinute))
}

// Adjacent returns the neighbours of the first post in list whose UID is
// uid. Both are nil when uid is not in list.
func Adjacent(list []Summary, uid string) Neighbors {
	idx := -1
	for i, s := range list {
		if s.UID == uid {
			idx = i
			break
		}
	}
	var n Neighbors
	if idx < 0 {
		return n
	}
	if idx > 0 {
		before := list[idx-1]
		n.Before = &before
	}
	if idx+1 < len(list) {
		after := list[idx+1]
		n.After = &after
	}
	return n
}

// PageFetcher follows a pagination cursor.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (*prismic.Response, error)
}

// Listing is an accumulated run of listing pages.
type Listing struct {
	Posts    []Summary
	NextPage string // "" when there are no further pages
	Pages    int    // number of pages accumulated
}

// HasMore reports whether another page can be loaded.
func (l *Listing) HasMore() bool {
	return l.NextPage != ""
}

// LoadMore fetches the page at l.NextPage, appends its posts and replaces
// the cursor. Posts are not deduplicated. On error l is unchanged.
func (l *Listing) LoadMore(ctx context.Context, f PageFetcher) error {
	if l.NextPage == "" {
		return ErrNoMorePages
	}
	resp, err := f.FetchPage(ctx, l.NextPage)
	if err != nil {
		return err
	}
	summaries, err := SummariesFromDocuments(resp.Results)
	if err != nil {
		return err
	}
	l.Posts = append(l.Posts, summaries...)
	l.NextPage = resp.Next()
	l.Pages++
	return nil
}
