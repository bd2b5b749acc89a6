// Package mangadex resolves MangaDex titles, lists their chapters and walks
// chapter pages to find image URLs, resuming from what is already on disk.
//
// Chapters are kept in the order the site lists them: newest first. Index 0
// is the most recent chapter.
package mangadex

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/brogergvhs/mangadex-dl/internal/chapters"
	"github.com/brogergvhs/mangadex-dl/internal/record"
)

const (
	BaseURL = "https://mangadex.org"

	// PagePrefix starts every page ID: MDX<chapterID>-<page>.
	PagePrefix = "MDX"

	// TagPrefix tags every descriptor with the title it belongs to.
	TagPrefix = record.TagPrefix

	pageImageClass = "noselect nodrag cursor-pointer"
	pageImageXPath = "//img[@class='" + pageImageClass + "']"
)

type TitleDescriptor struct {
	ID          string
	Name        string
	Artists     []string
	Tags        []string
	Description string
	URL         string
}

// Resolved reports whether the title page could be read. Unresolved titles
// have neither a name nor a URL.
func (t TitleDescriptor) Resolved() bool {
	return t.Name != "" && t.URL != ""
}

type ChapterDescriptor struct {
	ID          string
	Title       string
	Artists     []string
	Tags        []string
	Description string
	// Time is the publish time at minute precision, YYYY/MM/DD|hh:mm.
	Time string
	URL  string
}

type PageDescriptor struct {
	ID          string
	ChapterID   string
	Number      int
	Title       string
	Artists     []string
	Tags        []string
	Description string
	Time        string
	URL         string

	// Filled once the page has been resolved.
	DirectURL string
	MediaFile string
}

func newPage(ch ChapterDescriptor, n int) PageDescriptor {
	num := strconv.Itoa(n)
	return PageDescriptor{
		ID:          PagePrefix + ch.ID + "-" + num,
		ChapterID:   ch.ID,
		Number:      n,
		Title:       ch.Title + " | Pg. " + num,
		Artists:     ch.Artists,
		Tags:        ch.Tags,
		Description: ch.Description,
		Time:        ch.Time,
		URL:         ch.URL + num,
	}
}

// FileName is the base name of the page's record and media file.
func (p PageDescriptor) FileName() string {
	return chapters.FileName(p.Title, p.ID)
}

// Record converts the page to its on-disk form.
func (p PageDescriptor) Record() record.Record {
	return record.Record{
		ID:          p.ID,
		Title:       p.Title,
		Artists:     p.Artists,
		Time:        p.Time,
		Tags:        p.Tags,
		Description: p.Description,
		PageURL:     p.URL,
		DirectURL:   p.DirectURL,
		MediaFile:   p.MediaFile,
	}
}

// ResolveTitleID extracts the numeric title ID from a title URL such as
// https://mangadex.org/title/27153/jojo-s-bizarre-adventure. The scheme
// may be omitted. It returns "" for any other host or path.
func ResolveTitleID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	switch strings.ToLower(u.Hostname()) {
	case "mangadex.org", "www.mangadex.org":
	default:
		return ""
	}

	rest, ok := strings.CutPrefix(u.Path, "/title/")
	if !ok {
		return ""
	}
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}

	id, err := strconv.ParseUint(rest, 10, 63)
	if err != nil {
		return ""
	}

	return strconv.FormatUint(id, 10)
}

// TitleURL is the page fetched to resolve a title.
func TitleURL(id string) string {
	return BaseURL + "/title/" + id + "/"
}

// extension returns the file extension of a direct image URL, ".jpg" when
// it has none.
func extension(direct string) string {
	u := direct
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	if i := strings.LastIndexByte(u, '/'); i >= 0 {
		u = u[i+1:]
	}

	i := strings.LastIndexByte(u, '.')
	if i < 0 || i == len(u)-1 {
		return ".jpg"
	}

	return strings.ToLower(u[i:])
}

// normalizeTime truncates a listing timestamp to the minute and rewrites
// it as YYYY/MM/DD|hh:mm. Unparseable input is only truncated.
func normalizeTime(raw string) string {
	raw = strings.TrimSpace(raw)
	if r := []rune(raw); len(r) > 16 {
		raw = string(r[:16])
	}

	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006/01/02|15:04")
		}
	}

	return raw
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))

	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}

	return out
}
