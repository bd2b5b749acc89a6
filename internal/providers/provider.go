// Package providers declares how the downloader talks to a remote site.
package providers

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// ListingFetcher returns a page's static HTML. Implementations pace
// consecutive requests.
type ListingFetcher interface {
	FetchListingPage(ctx context.Context, url string) (*goquery.Document, error)
}

// Renderer opens sessions that execute a page's scripts before returning
// its DOM.
type Renderer interface {
	Open(ctx context.Context) (Session, error)
}

// Session is one rendering context. It is reused for every page of a run
// and must be closed exactly once.
type Session interface {
	// FetchRenderedPage loads url and waits until an element matching the
	// XPath waitFor is present.
	FetchRenderedPage(ctx context.Context, url, waitFor string) (*goquery.Document, error)
	Close() error
}
