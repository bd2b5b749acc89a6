package mangadex

import (
	"context"
)

type SyncOptions struct {
	FetchOptions
	Language string
}

type SyncResult struct {
	Chapters []ChapterDescriptor
	Start    int
	Pages    []PageDescriptor
}

// Sync lists the chapters of a resolved title, plans where to resume from
// records and walks the remaining pages.
func (c *Client) Sync(ctx context.Context, title TitleDescriptor, records Records, opts SyncOptions) (SyncResult, error) {
	var res SyncResult

	c.log.Infof("Finding chapters for %s (%s)...\n", title.Name, opts.Language)
	res.Chapters = c.ListChapters(ctx, title, opts.Language)
	if len(res.Chapters) == 0 {
		c.log.Infof("No %s chapters found.\n", opts.Language)
		return res, ctx.Err()
	}

	res.Start = StartChapterIndex(records, res.Chapters, opts.CheckAll)
	c.log.Infof("%d chapters, resuming at %s\n", len(res.Chapters), res.Chapters[res.Start].Title)

	pages, err := c.FetchPages(ctx, records, res.Chapters, res.Start, opts.FetchOptions)
	res.Pages = pages

	return res, err
}
