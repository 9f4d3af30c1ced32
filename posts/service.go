package posts

import (
	"context"
	"fmt"

	"github.com/eringen/spacetraveling/prismic"
)

const (
	// newestFirst orders the listing page.
	newestFirst = "document.first_publication_date desc"
	// oldestFirst orders the navigation index so Before is the older post.
	oldestFirst = "document.first_publication_date"

	// allPageSize is the page size used when walking the whole listing.
	allPageSize = 100
)

// CMS is the part of the Prismic client the service needs.
type CMS interface {
	PageFetcher
	Query(ctx context.Context, preds []prismic.Predicate, opts prismic.QueryOptions) (*prismic.Response, error)
	GetByUID(ctx context.Context, docType, uid string, opts prismic.QueryOptions) (*prismic.Document, error)
}

// Service retrieves and shapes posts. A ref of "" means published content;
// any other ref (a preview token) resolves drafts.
type Service struct {
	cms      CMS
	pageSize int
}

// NewService creates a Service that lists pageSize posts per page.
func NewService(cms CMS, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = 4
	}
	return &Service{cms: cms, pageSize: pageSize}
}

// PageSize is the number of posts on a full listing page.
func (s *Service) PageSize() int {
	return s.pageSize
}

func (s *Service) query(ctx context.Context, ref string, pageSize int, ordering string) (*Listing, error) {
	resp, err := s.cms.Query(ctx,
		[]prismic.Predicate{prismic.At("document.type", DocumentType)},
		prismic.QueryOptions{Ref: ref, PageSize: pageSize, Orderings: []string{ordering}})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	summaries, err := SummariesFromDocuments(resp.Results)
	if err != nil {
		return nil, err
	}
	return &Listing{Posts: summaries, NextPage: resp.Next(), Pages: 1}, nil
}

// FirstPage returns the first listing page, newest posts first.
func (s *Service) FirstPage(ctx context.Context, ref string) (*Listing, error) {
	return s.query(ctx, ref, s.pageSize, newestFirst)
}

// Pages returns up to n listing pages accumulated in order.
func (s *Service) Pages(ctx context.Context, ref string, n int) (*Listing, error) {
	l, err := s.FirstPage(ctx, ref)
	if err != nil {
		return nil, err
	}
	for l.Pages < n && l.HasMore() {
		if err := s.LoadMore(ctx, l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// LoadMore appends the next page to l.
func (s *Service) LoadMore(ctx context.Context, l *Listing) error {
	if err := l.LoadMore(ctx, s.cms); err != nil {
		return fmt.Errorf("load more posts: %w", err)
	}
	return nil
}

// Page returns a listing holding only the page at cursor.
func (s *Service) Page(ctx context.Context, cursor string) (*Listing, error) {
	l := &Listing{NextPage: cursor}
	if err := s.LoadMore(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Post returns the post with the given UID.
func (s *Service) Post(ctx context.Context, uid, ref string) (*Detail, error) {
	doc, err := s.cms.GetByUID(ctx, DocumentType, uid, prismic.QueryOptions{Ref: ref})
	if err != nil {
		return nil, fmt.Errorf("get post %q: %w", uid, err)
	}
	return DetailFromDocument(*doc)
}

// All returns every post, oldest first, following the cursor to the end.
func (s *Service) All(ctx context.Context, ref string) ([]Summary, error) {
	l, err := s.query(ctx, ref, allPageSize, oldestFirst)
	if err != nil {
		return nil, err
	}
	for l.HasMore() {
		if err := s.LoadMore(ctx, l); err != nil {
			return nil, err
		}
	}
	return l.Posts, nil
}

// Neighbors resolves the posts before and after uid in publication order.
func (s *Service) Neighbors(ctx context.Context, uid, ref string) (Neighbors, error) {
	all, err := s.All(ctx, ref)
	if err != nil {
		return Neighbors{}, err
	}
	return Adjacent(all, uid), nil
}
