// Package archive saves resolved pages into a title directory: a YAML
// record next to each downloaded image, and optionally one CBZ per chapter.
package archive

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/brogergvhs/mangadex-dl/internal/chapters"
	"github.com/brogergvhs/mangadex-dl/internal/providers/mangadex"
	"github.com/brogergvhs/mangadex-dl/internal/record"
	"github.com/brogergvhs/mangadex-dl/internal/ui"
	"github.com/brogergvhs/mangadex-dl/internal/util"
)

// Downloader fetches one image to output and returns the bytes written.
type Downloader interface {
	Download(ctx context.Context, url, output, referer string, progress func(done int64)) (int64, error)
}

// ByteCounter receives image bytes as they are written.
type ByteCounter interface {
	AddBytes(n int64)
}

type Options struct {
	// CBZ packs every chapter that gained pages into <chapter>.cbz.
	CBZ   bool
	Stats *ui.Stats
	Log   *ui.Logger
	Bytes ByteCounter
}

// Archive implements mangadex.PageSaver and mangadex.ChapterFinisher for a
// single title directory.
type Archive struct {
	store *record.Store
	dl    Downloader
	dir   string
	opts  Options
}

func New(store *record.Store, dl Downloader, dir string, opts Options) *Archive {
	if opts.Stats == nil {
		opts.Stats = ui.NewStats()
	}
	if opts.Log == nil {
		opts.Log = ui.NewLogger(false)
	}

	return &Archive{store: store, dl: dl, dir: filepath.Clean(dir), opts: opts}
}

func (a *Archive) Dir() string {
	return a.dir
}

// SavePage writes the page record, then its image. When the image cannot
// be downloaded the record is removed again so the next run retries it.
func (a *Archive) SavePage(ctx context.Context, page mangadex.PageDescriptor) error {
	if page.DirectURL == "" || page.MediaFile == "" {
		return fmt.Errorf("page %s has no image", page.ID)
	}

	rec, err := a.store.Write(a.dir, page.FileName(), page.Record())
	if err != nil {
		return err
	}

	n, err := a.dl.Download(ctx, page.DirectURL, filepath.Join(a.dir, page.MediaFile), page.URL, a.byteProgress())
	if err != nil {
		if rerr := a.store.Remove(rec.PageURL); rerr != nil {
			a.opts.Log.Errorf("Removing record %s: %v\n", rec.Path, rerr)
		}
		return fmt.Errorf("download %s: %w", page.ID, err)
	}

	a.opts.Stats.AddPage(n)
	a.opts.Log.Debugf("Saved %s (%s)\n", page.MediaFile, util.Human(n))
	return nil
}

// byteProgress turns the downloader's running total into increments for
// Options.Bytes. A total lower than the last one starts a new attempt.
func (a *Archive) byteProgress() func(done int64) {
	if a.opts.Bytes == nil {
		return nil
	}

	var last int64
	return func(done int64) {
		if done < last {
			last = 0
		}
		a.opts.Bytes.AddBytes(done - last)
		last = done
	}
}

// FinishChapter counts the chapter when it gained pages and, with CBZ
// enabled, repacks every saved page of the chapter.
func (a *Archive) FinishChapter(_ context.Context, ch mangadex.ChapterDescriptor, saved int) error {
	if saved == 0 {
		return nil
	}
	a.opts.Stats.AddChapter()

	if !a.opts.CBZ {
		return nil
	}

	files := a.chapterFiles(ch.ID)
	if len(files) == 0 {
		return nil
	}

	out := filepath.Join(a.dir, chapters.CBZName(ch.Title, ch.ID))
	if err := util.CreateCBZ(files, out); err != nil {
		return err
	}

	a.opts.Log.Infof("Packed %d pages into %s\n", len(files), filepath.Base(out))
	return nil
}

// chapterFiles lists the media files recorded for chapterID in this
// directory, by page number.
func (a *Archive) chapterFiles(chapterID string) []string {
	prefix := mangadex.PagePrefix + chapterID + "-"

	type entry struct {
		page int
		path string
	}
	var found []entry

	for i := 0; i < a.store.Size(); i++ {
		rec := a.store.RecordAt(i)
		if rec.Dir() != a.dir || rec.MediaFile == "" || !strings.HasPrefix(rec.ID, prefix) {
			continue
		}

		n, err := strconv.Atoi(strings.TrimPrefix(rec.ID, prefix))
		if err != nil {
			continue
		}
		found = append(found, entry{page: n, path: filepath.Join(a.dir, rec.MediaFile)})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].page < found[j].page })

	files := make([]string, len(found))
	for i, e := range found {
		files[i] = e.path
	}
	return files
}
