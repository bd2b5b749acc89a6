package mangadex

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTitleID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"", ""},
		{"www.differentsite.com", ""},
		{"mangadex.com/title/27153/", ""},
		{"www.mangadex.org/nope/27153/", ""},
		{"www.mangadex.org/title/invalid/", ""},
		{"https://mangadex.org/title/-5/", ""},
		{"https://mangadex.org/title//slug", ""},
		{"https://notmangadex.org/title/5/x", ""},
		{"https://evil.test/?u=mangadex.org/title/7", ""},
		{"https://evil.test/mangadex.org/title/7", ""},
		{"https://mangadex.org/chapter/5/title/6", ""},
		{"https://MangaDex.org/title/8/", "8"},
		{"http://www.mangadex.org:443/title/9", "9"},
		{"mangadex.org/title/27152", "27152"},
		{"www.mangadex.org/title/27153/jojo-s-bizarre-adventure", "27153"},
		{"https://mangadex.org/title/34326/randomphilia/chapters/2/", "34326"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveTitleID(tt.url), "url %q", tt.url)
	}
}

func TestFetchTitleInfo(t *testing.T) {
	site := newFakeSite()
	site.pages[TitleURL("34326")] = titlePage

	title := site.client().FetchTitleInfo(context.Background(), "34326")

	require.True(t, title.Resolved())
	assert.Equal(t, "34326", title.ID)
	assert.Equal(t, "Randomphilia", title.Name)
	assert.Equal(t, []string{"Devin Bosco Le"}, title.Artists)
	assert.Equal(t, []string{"Mangadex:34326", "Shounen", "4-Koma", "Full Color", "Comedy"}, title.Tags)
	assert.Equal(t, "A world where logic does not exist.", title.Description)
	assert.Equal(t, "https://mangadex.org/title/34326/randomphilia/", title.URL)
	assert.Equal(t, []string{"https://mangadex.org/title/34326/"}, site.fetched)
}

func TestFetchTitleInfoFetchFailure(t *testing.T) {
	site := newFakeSite()

	for _, id := range []string{"bleh", "90000000000"} {
		title := site.client().FetchTitleInfo(context.Background(), id)
		assert.False(t, title.Resolved())
		assert.Empty(t, title.Name)
		assert.Empty(t, title.URL)
		assert.Equal(t, id, title.ID)
	}
}

func TestFetchTitleInfoMissingAnchors(t *testing.T) {
	site := newFakeSite()
	site.pages[TitleURL("1")] = strings.Replace(titlePage, "/search?artist=", "/elsewhere?x=", 1)

	title := site.client().FetchTitleInfo(context.Background(), "1")
	assert.False(t, title.Resolved())
	assert.Empty(t, title.Tags)
}

func TestFetchTitleInfoKeepsDefaultURLWithoutSlug(t *testing.T) {
	site := newFakeSite()
	site.pages[TitleURL("34326")] = strings.Replace(titlePage, "/title/34326/randomphilia/chapters/2/", "/other", 1)

	title := site.client().FetchTitleInfo(context.Background(), "34326")
	require.True(t, title.Resolved())
	assert.Equal(t, "https://mangadex.org/title/34326/", title.URL)
}

func TestArtistsDedupedButOrdered(t *testing.T) {
	site := newFakeSite()
	page := strings.Replace(titlePage, `>Devin Bosco Le</a></div></div>
<div class="row"><div class="col-lg-3 col-xl-2 strong">Demographic`, `>Someone Else</a></div></div>
<div class="row"><div class="col-lg-3 col-xl-2 strong">Demographic`, 1)
	site.pages[TitleURL("34326")] = page

	title := site.client().FetchTitleInfo(context.Background(), "34326")
	assert.Equal(t, []string{"Devin Bosco Le", "Someone Else"}, title.Artists)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".png", extension("https://cdn.test/data/abc/x1.png"))
	assert.Equal(t, ".jpg", extension("https://cdn.test/data/abc/x1.JPG?token=1"))
	assert.Equal(t, ".jpg", extension("https://cdn.test/data/abc/x1"))
	assert.Equal(t, ".jpg", extension("https://cdn.test/data.v2/abc/"))
	assert.Equal(t, ".webp", extension("x.webp#frag"))
}

func TestNormalizeTime(t *testing.T) {
	assert.Equal(t, "2018/01/18|19:08", normalizeTime("2018-01-18 19:08:47 UTC"))
	assert.Equal(t, "2019/12/05|16:45", normalizeTime("2019-12-05T16:45:00Z"))
	assert.Equal(t, "yesterday", normalizeTime("yesterday"))
	assert.Equal(t, "abcdefghijklmnop", normalizeTime("abcdefghijklmnopqrstuvwxyz"))
}

func TestNewPage(t *testing.T) {
	ch := chapterDesc("774455")
	ch.Artists = []string{"A", "Group"}

	p := newPage(ch, 3)
	assert.Equal(t, "MDX774455-3", p.ID)
	assert.Equal(t, "Randomphilia | Ch. 774455 | Pg. 3", p.Title)
	assert.Equal(t, "https://mangadex.org/chapter/774455/3", p.URL)
	assert.Equal(t, []string{"A", "Group"}, p.Artists)
	assert.Equal(t, "randomphilia_ch_774455_pg_3_MDX774455-3", p.FileName())

	rec := p.Record()
	assert.Equal(t, p.URL, rec.PageURL)
	assert.Equal(t, "34326", rec.TitleID())
}
