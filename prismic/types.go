package prismic

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Ref is a content release pointer. The master ref resolves published
// content; preview tokens are refs that resolve drafts.
type Ref struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}

// API is the repository descriptor returned by the endpoint root.
type API struct {
	Refs []Ref `json:"refs"`
}

// Master returns the master ref, or "" if the descriptor has none.
func (a *API) Master() string {
	for _, r := range a.Refs {
		if r.IsMasterRef {
			return r.Ref
		}
	}
	return ""
}

// Document is a single CMS record. Data holds the custom-type fields and is
// decoded by the caller into its own shape.
type Document struct {
	ID                   string          `json:"id"`
	UID                  string          `json:"uid"`
	Type                 string          `json:"type"`
	Href                 string          `json:"href"`
	Tags                 []string        `json:"tags"`
	Lang                 string          `json:"lang"`
	FirstPublicationDate *Timestamp      `json:"first_publication_date"`
	LastPublicationDate  *Timestamp      `json:"last_publication_date"`
	Data                 json.RawMessage `json:"data"`
}

// Response is one page of query results.
type Response struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         *string    `json:"next_page"`
	PrevPage         *string    `json:"prev_page"`
	Results          []Document `json:"results"`
}

// Next returns the next page URL, or "" on the last page.
func (r *Response) Next() string {
	if r.NextPage == nil {
		return ""
	}
	return *r.NextPage
}

// timestampLayout is the offset form Prismic uses ("+0000", no colon).
const timestampLayout = "2006-01-02T15:04:05-0700"

// Timestamp decodes Prismic publication dates.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(timestampLayout, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("parse timestamp %q: %w", s, err)
		}
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(timestampLayout) + `"`), nil
}

// TimePtr converts a nullable Timestamp into a nullable time.Time.
func TimePtr(t *Timestamp) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}
