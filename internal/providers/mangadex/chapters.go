package mangadex

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var errMalformedEntry = errors.New("malformed chapter entry")

// ListChapters walks the title's chapter listing, one page at a time, and
// returns the chapters in the given language, newest first.
//
// Pagination continues while a page holds any chapter link, whatever its
// language. A page that fails to load ends pagination; chapters from
// earlier pages are kept. A page with a malformed entry is dropped as a
// whole and also ends pagination.
func (c *Client) ListChapters(ctx context.Context, title TitleDescriptor, language string) []ChapterDescriptor {
	if !title.Resolved() {
		return nil
	}

	var out []ChapterDescriptor
	for page := 1; page <= c.maxPages; page++ {
		c.log.Debugf("Listing page %d...\n", page)

		doc, err := c.listing.FetchListingPage(ctx, listingURL(title, page))
		if err != nil {
			c.log.Debugf("listing page %d: %v\n", page, err)
			break
		}

		found, err := extractChapters(doc, title, language)
		if err != nil {
			c.log.Errorf("Listing page %d of %s: %v\n", page, title.Name, err)
			break
		}
		out = append(out, found...)

		if doc.Find("a.text-truncate").Length() == 0 {
			break
		}
	}

	return out
}

func listingURL(title TitleDescriptor, page int) string {
	return title.URL + "chapters/" + strconv.Itoa(page)
}

func extractChapters(doc *goquery.Document, title TitleDescriptor, language string) ([]ChapterDescriptor, error) {
	var out []ChapterDescriptor
	var err error

	doc.Find("span[title]").EachWithBreak(func(_ int, flag *goquery.Selection) bool {
		if lang, _ := flag.Attr("title"); lang != language {
			return true
		}

		ch, ok := extractChapter(flag, title)
		if !ok {
			err = errMalformedEntry
			return false
		}

		out = append(out, ch)
		return true
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// extractChapter reads one listing row. The language flag sits in a div
// after the link column; the timestamp and group columns follow the link
// column.
func extractChapter(flag *goquery.Selection, title TitleDescriptor) (ChapterDescriptor, bool) {
	linkCol := flag.Parent().PrevAllFiltered(`div[class*="pr-1"]`).First()
	link := linkCol.Find("a.text-truncate").First()

	href, ok := link.Attr("href")
	if !ok {
		return ChapterDescriptor{}, false
	}

	url := chapterURL(href)
	id := chapterID(url)
	if id == "" {
		return ChapterDescriptor{}, false
	}

	timeCol := linkCol.NextAllFiltered(`div[class*="order-lg-8"]`).First()
	published, ok := timeCol.Attr("title")
	if !ok {
		return ChapterDescriptor{}, false
	}

	groupCol := timeCol.NextAllFiltered(`div[class*="chapter-list-group"]`).First()
	if groupCol.Length() == 0 {
		return ChapterDescriptor{}, false
	}

	artists := append([]string(nil), title.Artists...)
	groupCol.Find("a").Each(func(_ int, a *goquery.Selection) {
		artists = append(artists, strings.TrimSpace(a.Text()))
	})

	return ChapterDescriptor{
		ID:          id,
		Title:       title.Name + " | " + strings.TrimSpace(link.Text()),
		Artists:     artists,
		Tags:        title.Tags,
		Description: title.Description,
		Time:        normalizeTime(published),
		URL:         url,
	}, true
}

// chapterURL makes href absolute with exactly one trailing slash.
func chapterURL(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "/") {
		href = BaseURL + href
	}

	return strings.TrimRight(href, "/") + "/"
}

func chapterID(url string) string {
	const marker = "/chapter/"

	i := strings.Index(url, marker)
	if i < 0 {
		return ""
	}

	rest := url[i+len(marker):]
	j := strings.IndexByte(rest, '/')
	if j <= 0 {
		return ""
	}

	return rest[:j]
}
