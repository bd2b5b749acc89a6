// Package web implements the providers interfaces over HTTP and a headless
// Chrome.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/mangadex-dl/internal/util"
	"golang.org/x/time/rate"
)

const (
	fetchAttempts = 3
	fetchBackoff  = 500 * time.Millisecond
)

type debugLogger interface {
	Debugf(string, ...any)
}

// Fetcher downloads static pages. Listing fetches are paced so that at
// most one starts per delay.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	log     debugLogger
}

func NewFetcher(c *http.Client, delay time.Duration, log debugLogger) *Fetcher {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}

	return &Fetcher{
		client:  c,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}
}

func (f *Fetcher) FetchListingPage(ctx context.Context, url string) (*goquery.Document, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	return f.fetchDOM(ctx, url)
}

func (f *Fetcher) fetchDOM(ctx context.Context, target string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := util.DoWithRetry(ctx, f.client, req, fetchAttempts, fetchBackoff)
	if err != nil {
		return nil, util.ClassifyStatus(err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && f.log != nil {
			f.log.Debugf("Warning: failed to close response body for %s: %v\n", target, cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, util.ClassifyStatus(&util.StatusError{Code: resp.StatusCode, URL: target})
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", target, err)
	}

	return doc, nil
}
