package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/brogergvhs/mangadex-dl/internal/providers/mangadex"
	"github.com/brogergvhs/mangadex-dl/internal/record"
	"github.com/brogergvhs/mangadex-dl/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDownloader struct {
	fail map[string]bool
	urls []string
	// running totals handed to the progress callback
	totals []int64
}

func (f *fakeDownloader) Download(_ context.Context, url, output, _ string, progress func(int64)) (int64, error) {
	f.urls = append(f.urls, url)
	if progress != nil {
		for _, n := range f.totals {
			progress(n)
		}
	}
	if f.fail[url] {
		return 0, errors.New("HTTP 500")
	}
	return 4, os.WriteFile(output, []byte("IMG!"), 0644)
}

func page(chapterID string, n int) mangadex.PageDescriptor {
	num := strconv.Itoa(n)
	id := chapterID + "-" + num
	return mangadex.PageDescriptor{
		ID:        mangadex.PagePrefix + id,
		ChapterID: chapterID,
		Number:    n,
		Title:     "Randomphilia | Ch. " + chapterID + " | Pg. " + num,
		Tags:      []string{"Mangadex:34326"},
		URL:       "https://mangadex.org/chapter/" + chapterID + "/" + num,
		DirectURL: "https://cdn.test/" + id + ".png",
		MediaFile: "p" + id + ".png",
	}
}

func newArchive(t *testing.T, cbz bool) (*Archive, *record.Store, *fakeDownloader, *ui.Stats) {
	t.Helper()

	store := record.NewStore()
	dl := &fakeDownloader{fail: map[string]bool{}}
	stats := ui.NewStats()
	log := ui.NewLoggerTo(&bytes.Buffer{}, true)

	a := New(store, dl, filepath.Join(t.TempDir(), "randomphilia_34326"), Options{CBZ: cbz, Stats: stats, Log: log})
	return a, store, dl, stats
}

func TestSavePage(t *testing.T) {
	a, store, dl, stats := newArchive(t, false)
	p := page("7", 1)

	require.NoError(t, a.SavePage(context.Background(), p))

	assert.Equal(t, []string{p.DirectURL}, dl.urls)
	assert.True(t, store.ContainsLocator(p.URL))
	assert.FileExists(t, filepath.Join(a.Dir(), p.MediaFile))

	rec, err := record.ReadFile(filepath.Join(a.Dir(), p.FileName()+record.Ext))
	require.NoError(t, err)
	assert.Equal(t, p.URL, rec.PageURL)
	assert.Equal(t, p.MediaFile, rec.MediaFile)
	assert.Equal(t, "34326", rec.TitleID())

	assert.Equal(t, int64(1), stats.Pages())
	assert.Equal(t, int64(4), stats.Bytes())
}

type byteCounter struct {
	adds []int64
}

func (b *byteCounter) AddBytes(n int64) {
	b.adds = append(b.adds, n)
}

func TestSavePageReportsBytes(t *testing.T) {
	tests := []struct {
		name   string
		totals []int64
		want   []int64
	}{
		{"single attempt", []int64{1, 3, 4}, []int64{1, 2, 1}},
		{"retried attempt", []int64{3, 1, 4}, []int64{3, 1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := &byteCounter{}
			dl := &fakeDownloader{totals: tt.totals}
			a := New(record.NewStore(), dl, t.TempDir(), Options{Bytes: counter, Log: ui.NewLoggerTo(&bytes.Buffer{}, false)})

			require.NoError(t, a.SavePage(context.Background(), page("7", 1)))
			assert.Equal(t, tt.want, counter.adds)
		})
	}
}

func TestSavePageWithoutByteCounter(t *testing.T) {
	a, _, dl, _ := newArchive(t, false)
	dl.totals = []int64{4}

	require.NoError(t, a.SavePage(context.Background(), page("7", 1)))
}

func TestSavePageRemovesRecordOnFailedDownload(t *testing.T) {
	a, store, dl, stats := newArchive(t, false)
	p := page("7", 1)
	dl.fail[p.DirectURL] = true

	err := a.SavePage(context.Background(), p)
	require.Error(t, err)

	assert.False(t, store.ContainsLocator(p.URL))
	assert.NoFileExists(t, filepath.Join(a.Dir(), p.FileName()+record.Ext))
	assert.Zero(t, stats.Pages())

	// The next run sees nothing on disk for this page.
	reloaded := record.NewStore()
	require.NoError(t, reloaded.Load(a.Dir()))
	assert.Zero(t, reloaded.Size())
}

func TestSavePageNeedsImage(t *testing.T) {
	a, _, dl, _ := newArchive(t, false)
	p := page("7", 1)
	p.DirectURL = ""

	assert.Error(t, a.SavePage(context.Background(), p))
	assert.Empty(t, dl.urls)
}

func TestFinishChapterPacksCBZ(t *testing.T) {
	a, _, _, stats := newArchive(t, true)
	ctx := context.Background()

	for _, p := range []mangadex.PageDescriptor{page("7", 2), page("7", 1), page("8", 1)} {
		require.NoError(t, a.SavePage(ctx, p))
	}

	ch := mangadex.ChapterDescriptor{ID: "7", Title: "Randomphilia | Ch. 7"}
	require.NoError(t, a.FinishChapter(ctx, ch, 2))
	assert.Equal(t, int64(1), stats.Chapters())

	r, err := zip.OpenReader(filepath.Join(a.Dir(), "randomphilia_ch_7_7.cbz"))
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.File, 2)
	assert.Equal(t, "001.png", r.File[0].Name)
	assert.Equal(t, "002.png", r.File[1].Name)
}

func TestFinishChapterWithoutNewPages(t *testing.T) {
	a, _, _, stats := newArchive(t, true)

	ch := mangadex.ChapterDescriptor{ID: "7", Title: "Randomphilia | Ch. 7"}
	require.NoError(t, a.FinishChapter(context.Background(), ch, 0))

	assert.Zero(t, stats.Chapters())
	assert.NoFileExists(t, filepath.Join(a.Dir(), "randomphilia_ch_7_7.cbz"))
}

func TestFinishChapterWithoutCBZ(t *testing.T) {
	a, _, _, stats := newArchive(t, false)
	require.NoError(t, a.SavePage(context.Background(), page("7", 1)))

	ch := mangadex.ChapterDescriptor{ID: "7", Title: "Randomphilia | Ch. 7"}
	require.NoError(t, a.FinishChapter(context.Background(), ch, 1))

	assert.Equal(t, int64(1), stats.Chapters())
	matches, err := filepath.Glob(filepath.Join(a.Dir(), "*.cbz"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
