package posts

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/richtext"
)

func doc(t *testing.T, uid, data string) prismic.Document {
	t.Helper()
	var d prismic.Document
	raw := `{"uid":"` + uid + `","first_publication_date":"2021-03-25T19:25:28+0000","data":` + data + `}`
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	return d
}

func TestSummaryFieldSet(t *testing.T) {
	d := doc(t, "a", `{"title":"T","subtitle":"S","author":"A","banner":{"url":"x"},"content":[]}`)
	s, err := SummaryFromDocument(d)
	require.NoError(t, err)

	b, err := json.Marshal(s)
	require.NoError(t, err)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &fields))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"author", "first_publication_date", "subtitle", "title", "uid"}, keys)
	assert.Equal(t, "T", s.Title)
	assert.Equal(t, "S", s.Subtitle)
	assert.Equal(t, "A", s.Author)
	require.NotNil(t, s.FirstPublicationDate)
}

func TestDetailFromDocument(t *testing.T) {
	d := doc(t, "post", `{
		"title":"Como utilizar Hooks","subtitle":"Pensando em sincronização","author":"Joseph Oliveira",
		"banner":{"url":"https://images.prismic.io/banner.png","alt":"b","dimensions":{"width":1600,"height":900}},
		"content":[{"heading":"Proin et varius","body":[{"type":"paragraph","text":"Lorem ipsum","spans":[]}]}]}`)
	got, err := DetailFromDocument(d)
	require.NoError(t, err)

	assert.Equal(t, "post", got.UID)
	assert.Equal(t, "Joseph Oliveira", got.Author)
	assert.Equal(t, "https://images.prismic.io/banner.png", got.Banner.URL)
	assert.Equal(t, 1600, got.Banner.Width)
	require.Len(t, got.Content, 1)
	assert.Equal(t, "Proin et varius", got.Content[0].Heading)
	assert.Equal(t, "Lorem ipsum", got.Content[0].Body[0].Text)
	assert.Nil(t, got.LastPublicationDate)
	assert.False(t, got.Edited())
}

func TestDetailFromDocumentBadData(t *testing.T) {
	_, err := DetailFromDocument(prismic.Document{UID: "x", Data: json.RawMessage(`{"content":"nope"}`)})
	require.Error(t, err)
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestReadingTime(t *testing.T) {
	tests := []struct {
		name     string
		sections []Section
		want     int
	}{
		{"empty", nil, 0},
		{"one word", []Section{{Heading: "Hi"}}, 1},
		{"exactly 400", []Section{
			{Heading: words(10), Body: richtext.RichText{{Text: words(190)}}},
			{Heading: words(100), Body: richtext.RichText{{Text: words(50)}, {Text: words(50)}}},
		}, 2},
		{"401 rounds up", []Section{
			{Heading: words(1), Body: richtext.RichText{{Text: words(400)}}},
		}, 3},
		{"whitespace runs count once", []Section{
			{Heading: "  a \n\t b  ", Body: richtext.RichText{{Text: "c   d"}}},
		}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadingTime(tt.sections))
		})
	}
}

func list(uids ...string) []Summary {
	out := make([]Summary, len(uids))
	for i, u := range uids {
		out[i] = Summary{UID: u}
	}
	return out
}

func TestAdjacent(t *testing.T) {
	l := list("A", "B", "C")

	n := Adjacent(l, "B")
	require.NotNil(t, n.Before)
	require.NotNil(t, n.After)
	assert.Equal(t, "A", n.Before.UID)
	assert.Equal(t, "C", n.After.UID)

	n = Adjacent(l, "A")
	assert.Nil(t, n.Before)
	require.NotNil(t, n.After)
	assert.Equal(t, "B", n.After.UID)

	n = Adjacent(l, "C")
	require.NotNil(t, n.Before)
	assert.Equal(t, "B", n.Before.UID)
	assert.Nil(t, n.After)

	n = Adjacent(l, "missing")
	assert.Nil(t, n.Before)
	assert.Nil(t, n.After)

	n = Adjacent(nil, "A")
	assert.Nil(t, n.Before)
	assert.Nil(t, n.After)
}

func TestAdjacentFirstMatchWins(t *testing.T) {
	n := Adjacent(list("X", "A", "Y", "A", "Z"), "A")
	assert.Equal(t, "X", n.Before.UID)
	assert.Equal(t, "Y", n.After.UID)
}

type fetcherFunc func(ctx context.Context, pageURL string) (*prismic.Response, error)

func (f fetcherFunc) FetchPage(ctx context.Context, pageURL string) (*prismic.Response, error) {
	return f(ctx, pageURL)
}

func strPtr(s string) *string { return &s }

func TestListingLoadMoreAppends(t *testing.T) {
	l := &Listing{Posts: list("a", "b", "c"), NextPage: "https://repo/page2", Pages: 1}
	original := append([]Summary(nil), l.Posts...)

	var requested string
	f := fetcherFunc(func(ctx context.Context, pageURL string) (*prismic.Response, error) {
		requested = pageURL
		return &prismic.Response{
			Results: []prismic.Document{
				doc(t, "d", `{"title":"D"}`),
				doc(t, "a", `{"title":"A again"}`),
			},
			NextPage: strPtr("https://repo/page3"),
		}, nil
	})

	require.NoError(t, l.LoadMore(context.Background(), f))
	assert.Equal(t, "https://repo/page2", requested)
	require.Len(t, l.Posts, 5)
	assert.Equal(t, original, l.Posts[:3])
	assert.Equal(t, "d", l.Posts[3].UID)
	assert.Equal(t, "a", l.Posts[4].UID, "no deduplication")
	assert.Equal(t, "https://repo/page3", l.NextPage)
	assert.Equal(t, 2, l.Pages)
}

func TestListingLoadMoreTerminates(t *testing.T) {
	l := &Listing{Posts: list("a"), NextPage: "https://repo/page2"}
	f := fetcherFunc(func(ctx context.Context, pageURL string) (*prismic.Response, error) {
		return &prismic.Response{Results: []prismic.Document{doc(t, "b", `{}`)}}, nil
	})

	require.NoError(t, l.LoadMore(context.Background(), f))
	assert.False(t, l.HasMore())

	err := l.LoadMore(context.Background(), f)
	assert.ErrorIs(t, err, ErrNoMorePages)
	assert.Len(t, l.Posts, 2)
}

func TestListingLoadMoreErrorLeavesListing(t *testing.T) {
	l := &Listing{Posts: list("a"), NextPage: "https://repo/page2"}
	boom := errors.New("boom")
	err := l.LoadMore(context.Background(), fetcherFunc(func(context.Context, string) (*prismic.Response, error) {
		return nil, boom
	}))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, l.Posts, 1)
	assert.Equal(t, "https://repo/page2", l.NextPage)
}
