package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(API{Refs: []Ref{
			{ID: "release", Ref: "release-ref"},
			{ID: "master", Ref: "master-ref", IsMasterRef: true},
		}})
	})
	mux.HandleFunc("/api/v2/documents/search", handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL + "/api/v2")
	require.NoError(t, err)
	return srv, c
}

func TestNewClientRejectsBadScheme(t *testing.T) {
	_, err := NewClient("ftp://example.com/api/v2")
	require.Error(t, err)
}

func TestMasterRef(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	ref, err := c.MasterRef(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "master-ref", ref)
}

func TestQueryEncodesParameters(t *testing.T) {
	var got map[string]string
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = map[string]string{
			"ref":       q.Get("ref"),
			"q":         q.Get("q"),
			"pageSize":  q.Get("pageSize"),
			"orderings": q.Get("orderings"),
		}
		_, _ = w.Write([]byte(`{"page":1,"results":[],"next_page":null}`))
	})

	resp, err := c.Query(context.Background(),
		[]Predicate{At("document.type", "posts")},
		QueryOptions{PageSize: 4, Orderings: []string{"document.first_publication_date"}})
	require.NoError(t, err)

	assert.Equal(t, "master-ref", got["ref"])
	assert.Equal(t, `[[at(document.type, "posts")]]`, got["q"])
	assert.Equal(t, "4", got["pageSize"])
	assert.Equal(t, "[document.first_publication_date]", got["orderings"])
	assert.Equal(t, "", resp.Next())
}

func TestQueryUsesExplicitRef(t *testing.T) {
	var ref string
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		ref = r.URL.Query().Get("ref")
		_, _ = w.Write([]byte(`{"results":[]}`))
	})
	_, err := c.Query(context.Background(), nil, QueryOptions{Ref: "preview-ref"})
	require.NoError(t, err)
	assert.Equal(t, "preview-ref", ref)
}

func TestGetByUIDNotFound(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	})
	_, err := c.GetByUID(context.Background(), "posts", "missing", QueryOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByUIDDecodesDocument(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `[[at(my.posts.uid, "hello")]]`, r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"results":[{
			"id":"X1","uid":"hello","type":"posts",
			"first_publication_date":"2021-03-25T19:25:28+0000",
			"last_publication_date":null,
			"data":{"title":"Hello"}}]}`))
	})
	doc, err := c.GetByUID(context.Background(), "posts", "hello", QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, "hello", doc.UID)
	require.NotNil(t, doc.FirstPublicationDate)
	assert.Equal(t, time.Date(2021, 3, 25, 19, 25, 28, 0, time.UTC), doc.FirstPublicationDate.UTC())
	assert.Nil(t, TimePtr(doc.LastPublicationDate))
}

func TestAPIErrorStatus(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad predicate"}`))
	})
	_, err := c.Query(context.Background(), nil, QueryOptions{Ref: "r"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "bad predicate", apiErr.Message)
}

func TestFetchPageFollowsCursor(t *testing.T) {
	srv, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"page":2,"results":[{"uid":"c"}],"next_page":null}`))
	})
	resp, err := c.FetchPage(context.Background(), srv.URL+"/api/v2/documents/search?ref=master-ref&page=2")
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "c", resp.Results[0].UID)
}

func TestFetchPageRejectsForeignHost(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not reach the server")
	})
	_, err := c.FetchPage(context.Background(), "http://169.254.169.254/latest/meta-data")
	assert.ErrorIs(t, err, ErrForeignURL)
}

func TestCheckPageURL(t *testing.T) {
	srv, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	assert.NoError(t, c.CheckPageURL(srv.URL+"/api/v2/documents/search?page=2"))
	assert.ErrorIs(t, c.CheckPageURL("https://evil.example/api/v2/documents/search"), ErrForeignURL)
	assert.ErrorIs(t, c.CheckPageURL(srv.URL+"/other/path"), ErrForeignURL)
	assert.ErrorIs(t, c.CheckPageURL("%zz"), ErrForeignURL)
}

func TestObserverSeesEveryRoundTrip(t *testing.T) {
	var ops []string
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	})
	c, err := NewClient(srv.URL+"/api/v2", WithObserver(func(op string, d time.Duration, err error) {
		ops = append(ops, op)
	}))
	require.NoError(t, err)

	_, err = c.Query(context.Background(), nil, QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "query"}, ops)
}

func TestAnyPredicate(t *testing.T) {
	p := Any("document.tags", "go", "web")
	assert.True(t, strings.HasPrefix(string(p), "[any(document.tags, ["))
	assert.Contains(t, string(p), `"go", "web"`)
}

func TestTimestampNull(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(`{"first_publication_date":null}`), &doc))
	assert.Nil(t, TimePtr(doc.FirstPublicationDate))
}
