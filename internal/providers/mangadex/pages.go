package mangadex

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageSaver persists a resolved page: its record and its image.
type PageSaver interface {
	SavePage(ctx context.Context, page PageDescriptor) error
}

// ChapterFinisher is implemented by savers that act once a chapter's page
// loop ends, such as packing the chapter into an archive. saved counts
// pages saved for the chapter during this run.
type ChapterFinisher interface {
	FinishChapter(ctx context.Context, ch ChapterDescriptor, saved int) error
}

type FetchOptions struct {
	// Save hands every resolved page to Saver.
	Save  bool
	Saver PageSaver
	// CheckAll ignores the start index and walks from the oldest chapter.
	CheckAll bool
}

var ErrNoSaver = errors.New("save requested without a page saver")

// FetchPages walks chapters from index start down to 0, oldest to newest,
// and pages from 1 until the chapter runs out. Pages whose URL is already
// recorded are skipped without a request; the walk carries on past them so
// pages published since the last run are found.
//
// A chapter ends when the page cannot be rendered, when the rendered page
// belongs to another chapter, when it has no page image, or when saving
// fails. One render session serves the whole walk and is closed before
// returning. On cancellation the pages resolved so far are returned with
// the context error.
func (c *Client) FetchPages(ctx context.Context, records Records, chs []ChapterDescriptor, start int, opts FetchOptions) ([]PageDescriptor, error) {
	if opts.Save && opts.Saver == nil {
		return nil, ErrNoSaver
	}
	if len(chs) == 0 {
		return nil, nil
	}

	if opts.CheckAll || start >= len(chs) {
		start = len(chs) - 1
	}
	if start < 0 {
		return nil, nil
	}

	session, err := c.renderer.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open render session: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			c.log.Debugf("closing render session: %v\n", cerr)
		}
	}()

	c.progress.Begin(start + 1)

	var pages []PageDescriptor
	for i := start; i >= 0; i-- {
		ch := chs[i]
		c.progress.ChapterStarted(ch.Title)

		found, err := c.walkChapter(ctx, session, records, ch, opts)
		pages = append(pages, found...)
		c.progress.ChapterFinished(ch.Title, len(found))

		if f, ok := opts.Saver.(ChapterFinisher); ok && opts.Save {
			if ferr := f.FinishChapter(ctx, ch, len(found)); ferr != nil {
				c.log.Errorf("Finishing %s: %v\n", ch.Title, ferr)
			}
		}

		if err != nil {
			return pages, err
		}
	}

	return pages, nil
}

type renderSession interface {
	FetchRenderedPage(ctx context.Context, url, waitFor string) (*goquery.Document, error)
}

// walkChapter only returns an error when ctx is done.
func (c *Client) walkChapter(ctx context.Context, session renderSession, records Records, ch ChapterDescriptor, opts FetchOptions) ([]PageDescriptor, error) {
	var out []PageDescriptor

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		page := newPage(ch, n)
		if records != nil && records.ContainsLocator(page.URL) {
			continue
		}

		doc, err := session.FetchRenderedPage(ctx, page.URL, pageImageXPath)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			c.log.Debugf("%s: %v\n", page.URL, err)
			return out, nil
		}

		direct, ok := pageImage(doc, ch.ID, n)
		if !ok {
			return out, nil
		}

		page.DirectURL = direct
		page.MediaFile = page.FileName() + extension(direct)

		if opts.Save {
			if err := opts.Saver.SavePage(ctx, page); err != nil {
				if ctx.Err() != nil {
					return out, ctx.Err()
				}
				c.log.Errorf("Saving %s: %v\n", page.ID, err)
				return out, nil
			}
		}

		out = append(out, page)
		c.progress.PageResolved(page.ID)
	}
}

// pageImage returns the direct image URL of page n, or false when the
// document is for another chapter or has no page image.
func pageImage(doc *goquery.Document, chapterID string, n int) (string, bool) {
	current, _ := doc.Find("span.chapter-title").First().Attr("data-chapter-id")
	if current != chapterID {
		return "", false
	}

	var src string
	doc.Find(`div[data-page="` + strconv.Itoa(n) + `"]`).EachWithBreak(func(_ int, div *goquery.Selection) bool {
		img := div.Find("img").FilterFunction(func(_ int, s *goquery.Selection) bool {
			class, _ := s.Attr("class")
			return class == pageImageClass
		}).First()

		src, _ = img.Attr("src")
		src = strings.TrimSpace(src)
		return src == ""
	})

	return src, src != ""
}
