package mangadex

import (
	"github.com/brogergvhs/mangadex-dl/internal/providers"
)

// maxListingPages stops pagination if the site keeps returning links.
const maxListingPages = 500

type Logger interface {
	Debugf(string, ...any)
	Infof(string, ...any)
	Errorf(string, ...any)
}

// Progress observes the page loop. Calls happen on the caller's goroutine.
type Progress interface {
	Begin(chapters int)
	ChapterStarted(title string)
	PageResolved(id string)
	ChapterFinished(title string, pages int)
}

type Client struct {
	listing  providers.ListingFetcher
	renderer providers.Renderer
	log      Logger
	progress Progress
	maxPages int
}

type Option func(*Client)

func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func WithProgress(p Progress) Option {
	return func(c *Client) {
		if p != nil {
			c.progress = p
		}
	}
}

// WithMaxListingPages caps how many listing pages ListChapters visits.
func WithMaxListingPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

func NewClient(listing providers.ListingFetcher, renderer providers.Renderer, opts ...Option) *Client {
	c := &Client{
		listing:  listing,
		renderer: renderer,
		log:      nopLogger{},
		progress: nopProgress{},
		maxPages: maxListingPages,
	}

	for _, o := range opts {
		o(c)
	}

	return c
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

type nopProgress struct{}

func (nopProgress) Begin(int)                   {}
func (nopProgress) ChapterStarted(string)       {}
func (nopProgress) PageResolved(string)         {}
func (nopProgress) ChapterFinished(string, int) {}
