package web

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brogergvhs/mangadex-dl/internal/util"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, delay time.Duration) (*Fetcher, *httpmock.MockTransport) {
	t.Helper()

	transport := httpmock.NewMockTransport()
	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:   time.Second,
		Transport: transport,
	})
	require.NoError(t, err)

	return NewFetcher(client, delay, nil), transport
}

func TestFetchListingPage(t *testing.T) {
	f, transport := newTestFetcher(t, 0)
	transport.RegisterResponder("GET", "https://mangadex.org/title/1/x/chapters/1",
		httpmock.NewStringResponder(200, `<html><body><a class="text-truncate" href="/chapter/5">Ch. 1</a></body></html>`))

	doc, err := f.FetchListingPage(context.Background(), "https://mangadex.org/title/1/x/chapters/1")
	require.NoError(t, err)
	assert.Equal(t, "Ch. 1", doc.Find("a.text-truncate").Text())
}

func TestFetchListingPageNotFound(t *testing.T) {
	f, transport := newTestFetcher(t, 0)
	transport.RegisterResponder("GET", "https://mangadex.org/title/bleh/", httpmock.NewStringResponder(404, "nope"))

	_, err := f.FetchListingPage(context.Background(), "https://mangadex.org/title/bleh/")
	require.Error(t, err)

	var nf util.ErrNotFound
	assert.True(t, errors.As(err, &nf))
}

func TestFetchListingPageTransportError(t *testing.T) {
	f, _ := newTestFetcher(t, 0)

	_, err := f.FetchListingPage(context.Background(), "https://mangadex.org/unregistered")
	assert.Error(t, err)
}

func TestFetchListingPagePacesRequests(t *testing.T) {
	f, transport := newTestFetcher(t, 80*time.Millisecond)
	transport.RegisterResponder("GET", "https://example.test/p", httpmock.NewStringResponder(200, "<p>x</p>"))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := f.FetchListingPage(context.Background(), "https://example.test/p")
		require.NoError(t, err)
	}

	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestFetchListingPageHonoursCancel(t *testing.T) {
	f, transport := newTestFetcher(t, time.Hour)
	transport.RegisterResponder("GET", "https://example.test/p", httpmock.NewStringResponder(200, "<p>x</p>"))

	_, err := f.FetchListingPage(context.Background(), "https://example.test/p")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.FetchListingPage(ctx, "https://example.test/p")
	assert.Error(t, err)
}

func TestHTTPRendererSession(t *testing.T) {
	f, transport := newTestFetcher(t, time.Hour)
	transport.RegisterResponder("GET", "https://mangadex.org/chapter/5/1",
		httpmock.NewStringResponder(200, `<span class="chapter-title" data-chapter-id="5"></span>`))

	s, err := HTTPRenderer{Fetcher: f}.Open(context.Background())
	require.NoError(t, err)
	defer s.Close()

	// not paced by the listing limiter
	for i := 0; i < 2; i++ {
		doc, err := s.FetchRenderedPage(context.Background(), "https://mangadex.org/chapter/5/1", "//img")
		require.NoError(t, err)
		id, _ := doc.Find("span.chapter-title").Attr("data-chapter-id")
		assert.Equal(t, "5", id)
	}
}
