package mangadex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/mangadex-dl/internal/providers"
	"github.com/brogergvhs/mangadex-dl/internal/record"
)

var errMissing = errors.New("no such page")

// fakeSite serves canned HTML for both listing and rendered fetches.
type fakeSite struct {
	pages   map[string]string
	fetched []string

	opens  int
	closes int
	// openErr fails Open when set.
	openErr error
}

func newFakeSite() *fakeSite {
	return &fakeSite{pages: map[string]string{}}
}

func (s *fakeSite) get(url string) (*goquery.Document, error) {
	s.fetched = append(s.fetched, url)

	html, ok := s.pages[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errMissing, url)
	}

	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (s *fakeSite) FetchListingPage(_ context.Context, url string) (*goquery.Document, error) {
	return s.get(url)
}

func (s *fakeSite) Open(context.Context) (providers.Session, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.opens++
	return fakeSession{s}, nil
}

type fakeSession struct {
	site *fakeSite
}

func (f fakeSession) FetchRenderedPage(_ context.Context, url, waitFor string) (*goquery.Document, error) {
	if waitFor != pageImageXPath {
		return nil, fmt.Errorf("unexpected wait selector %q", waitFor)
	}
	return f.site.get(url)
}

func (f fakeSession) Close() error {
	f.site.closes++
	return nil
}

func (s *fakeSite) client() *Client {
	return NewClient(s, s)
}

// recordingSaver adds every saved page to a store, like the real archive.
type recordingSaver struct {
	store    *record.Store
	saved    []string
	finished []string
	failOn   string
	onSave   func()
}

func (r *recordingSaver) SavePage(_ context.Context, p PageDescriptor) error {
	if p.ID == r.failOn {
		return errors.New("disk full")
	}
	r.saved = append(r.saved, p.ID)
	if r.store != nil {
		r.store.Add(p.Record())
	}
	if r.onSave != nil {
		r.onSave()
	}
	return nil
}

func (r *recordingSaver) FinishChapter(_ context.Context, ch ChapterDescriptor, saved int) error {
	r.finished = append(r.finished, fmt.Sprintf("%s:%d", ch.ID, saved))
	return nil
}

type countingProgress struct {
	total    int
	started  []string
	resolved int
	finished int
}

func (p *countingProgress) Begin(n int)                 { p.total = n }
func (p *countingProgress) ChapterStarted(title string) { p.started = append(p.started, title) }
func (p *countingProgress) PageResolved(string)         { p.resolved++ }
func (p *countingProgress) ChapterFinished(string, int) { p.finished++ }

const titlePage = `<html><body>
<h6 class="card-header"><span class="mx-1">Randomphilia</span></h6>
<div class="row"><div class="col-lg-3 col-xl-2 strong">Author:</div><div><a href="/search?author=Devin Bosco Le">Devin Bosco Le</a></div></div>
<div class="row"><div class="col-lg-3 col-xl-2 strong">Artist:</div><div><a href="/search?artist=Devin Bosco Le">Devin Bosco Le</a></div></div>
<div class="row"><div class="col-lg-3 col-xl-2 strong">Demographic:</div><div><a class="genre" href="/genre/1">Shounen</a></div></div>
<div class="row"><div class="col-lg-3 col-xl-2 strong">Format:</div><div><a class="badge badge-secondary" href="/genre/2">4-Koma</a><a class="badge badge-secondary" href="/genre/3">Full Color</a></div></div>
<div class="row"><div class="col-lg-3 col-xl-2 strong">Genre:</div><div><a class="badge badge-secondary" href="/genre/4">Comedy</a><a class="badge badge-secondary" href="/genre/1">Shounen</a></div></div>
<div class="row"><div class="col-lg-3 col-xl-2 strong">Description:</div><div class="col-lg-9 col-xl-10">A world where logic does not exist.</div></div>
<ul><li><a href="/title/34326/randomphilia/chapters/2/">Chapters</a></li></ul>
</body></html>`

func row(id, text, lang, published string, groups ...string) string {
	var g strings.Builder
	for i, name := range groups {
		fmt.Fprintf(&g, `<a href="/group/%d">%s</a>`, i+1, name)
	}

	return `<div class="chapter-row d-flex row no-gutters p-2 align-items-center border-bottom odd-row">` +
		`<div class="col col-lg-5 row no-gutters align-items-center flex-nowrap text-truncate pr-1 order-lg-2">` +
		`<a href="/chapter/` + id + `" class="text-truncate">` + text + `</a></div>` +
		`<div class="col-auto text-center order-lg-4"><span class="rounded flag flag-fr" title="` + lang + `"></span></div>` +
		`<div class="col-2 col-lg-1 ml-1 text-right text-truncate order-lg-8" title="` + published + `">1 year ago</div>` +
		`<div class="chapter-list-group col order-lg-5 text-truncate">` + g.String() + `</div>` +
		`</div>`
}

func listing(rows ...string) string {
	return "<html><body><div class=\"chapter-container\">" + strings.Join(rows, "\n") + "</div></body></html>"
}

const emptyListing = `<html><body><div class="chapter-container"><p>No chapters.</p></div></body></html>`

func rendered(chapterID string, n int, src string) string {
	img := ""
	if src != "" {
		img = `<img class="noselect nodrag cursor-pointer" src="` + src + `">`
	}
	return fmt.Sprintf(`<html><body><span class="chapter-title" data-chapter-id="%s">Ch</span>`+
		`<div data-page="%d"><img class="other" src="https://cdn.test/ad.png">%s</div></body></html>`, chapterID, n, img)
}

func resolvedTitle() TitleDescriptor {
	return TitleDescriptor{
		ID:      "34326",
		Name:    "Randomphilia",
		Artists: []string{"Devin Bosco Le"},
		Tags:    []string{"Mangadex:34326", "Comedy"},
		URL:     "https://mangadex.org/title/34326/randomphilia/",
	}
}

func chapterDesc(id string) ChapterDescriptor {
	return ChapterDescriptor{
		ID:    id,
		Title: "Randomphilia | Ch. " + id,
		URL:   "https://mangadex.org/chapter/" + id + "/",
		Tags:  []string{"Mangadex:34326"},
	}
}

// addChapter serves n pages for chapter id. end decides what page n+1 is:
// "wrap" renders another chapter, "blank" has no image, "" is a fetch error.
func (s *fakeSite) addChapter(id string, n int, end string) {
	for p := 1; p <= n; p++ {
		s.pages[fmt.Sprintf("https://mangadex.org/chapter/%s/%d", id, p)] =
			rendered(id, p, fmt.Sprintf("https://cdn.test/%s/%d.png?x=1", id, p))
	}

	next := fmt.Sprintf("https://mangadex.org/chapter/%s/%d", id, n+1)
	switch end {
	case "wrap":
		s.pages[next] = rendered("999", 1, "https://cdn.test/999/1.png")
	case "blank":
		s.pages[next] = rendered(id, n+1, "")
	}
}
