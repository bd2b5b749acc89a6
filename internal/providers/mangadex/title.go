package mangadex

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FetchTitleInfo reads the title page for id. When the page cannot be
// fetched or lacks the name, author or artist anchors, the returned
// descriptor is unresolved: Name and URL are empty. It never fails
// otherwise.
func (c *Client) FetchTitleInfo(ctx context.Context, id string) TitleDescriptor {
	failed := TitleDescriptor{ID: id}

	doc, err := c.listing.FetchListingPage(ctx, TitleURL(id))
	if err != nil {
		c.log.Debugf("title %s: %v\n", id, err)
		return failed
	}

	t, ok := extractTitle(doc, id)
	if !ok {
		c.log.Debugf("title %s: expected markup missing\n", id)
		return failed
	}

	return t
}

func extractTitle(doc *goquery.Document, id string) (TitleDescriptor, bool) {
	t := TitleDescriptor{ID: id, URL: TitleURL(id)}

	name := doc.Find("span.mx-1").First()
	author := doc.Find(`a[href*="/search?author="]`).First()
	artist := doc.Find(`a[href*="/search?artist="]`).First()
	if name.Length() == 0 || author.Length() == 0 || artist.Length() == 0 {
		return TitleDescriptor{ID: id}, false
	}

	t.Name = strings.TrimSpace(name.Text())
	t.Artists = dedupe([]string{
		strings.TrimSpace(author.Text()),
		strings.TrimSpace(artist.Text()),
	})

	tags := []string{TagPrefix + id}
	for _, sel := range []string{"a.genre", "a.badge.badge-secondary"} {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			tags = append(tags, strings.TrimSpace(s.Text()))
		})
	}
	t.Tags = dedupe(tags)

	doc.Find("div.col-lg-3.col-xl-2.strong").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) != "Description:" {
			return true
		}
		t.Description = strings.TrimSpace(s.NextAllFiltered("div").First().Text())
		return false
	})

	if href, ok := doc.Find(`a[href*="/title/` + id + `/"]`).First().Attr("href"); ok {
		if slug := titleSlug(href, id); slug != "" {
			t.URL = TitleURL(id) + slug + "/"
		}
	}

	if t.Name == "" {
		return TitleDescriptor{ID: id}, false
	}

	return t, true
}

// titleSlug returns the path segment after /title/<id>/ in href.
func titleSlug(href, id string) string {
	marker := "/title/" + id + "/"

	i := strings.Index(href, marker)
	if i < 0 {
		return ""
	}

	slug := href[i+len(marker):]
	if j := strings.IndexAny(slug, "/?#"); j >= 0 {
		slug = slug[:j]
	}

	return slug
}
