package web

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/mangadex-dl/internal/providers"
	"github.com/chromedp/chromedp"
)

// HTTPRenderer serves "rendered" pages with plain GET requests. It suits
// sites that render server side and is what the tests use. waitFor is not
// evaluated.
type HTTPRenderer struct {
	Fetcher *Fetcher
}

func (r HTTPRenderer) Open(context.Context) (providers.Session, error) {
	return &httpSession{f: r.Fetcher}, nil
}

type httpSession struct {
	f *Fetcher
}

func (s *httpSession) FetchRenderedPage(ctx context.Context, url, _ string) (*goquery.Document, error) {
	return s.f.fetchDOM(ctx, url)
}

func (s *httpSession) Close() error { return nil }

// ChromeRenderer drives a local Chrome/Chromium through the DevTools
// protocol.
type ChromeRenderer struct {
	UserAgent string
	// Timeout bounds a single page load including the wait for the
	// element.
	Timeout  time.Duration
	Headless bool
	ExecPath string
}

func (r ChromeRenderer) Open(ctx context.Context) (providers.Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.Headless),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	)
	if r.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.UserAgent))
	}
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}

	// The browser outlives individual calls; it is bound to Close, not ctx.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &chromeSession{
		ctx:     browserCtx,
		timeout: timeout,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
	}, nil
}

type chromeSession struct {
	ctx     context.Context
	timeout time.Duration

	once   sync.Once
	cancel func()
}

func (s *chromeSession) FetchRenderedPage(ctx context.Context, url, waitFor string) (*goquery.Document, error) {
	tctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	actions := []chromedp.Action{chromedp.Navigate(url)}
	if waitFor != "" {
		actions = append(actions, chromedp.WaitReady(waitFor, chromedp.BySearch))
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(tctx, actions...); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("render %s: %w", url, err)
	}

	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (s *chromeSession) Close() error {
	s.once.Do(s.cancel)
	return nil
}
