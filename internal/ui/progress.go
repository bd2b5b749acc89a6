package ui

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// ChapterProgress renders one bar per title: chapters walked so far, the
// chapter being scanned, how many pages it resolved and the image bytes
// downloaded.
type ChapterProgress struct {
	p *mpb.Progress

	mu      sync.Mutex
	bar     *mpb.Bar
	current atomic.Value
	pages   atomic.Int64
	bytes   atomic.Int64
	start   time.Time
}

func NewChapterProgress(out io.Writer) *ChapterProgress {
	p := mpb.New(
		mpb.WithWidth(40),
		mpb.WithOutput(out),
		mpb.WithRefreshRate(120*time.Millisecond),
	)

	cp := &ChapterProgress{p: p}
	cp.current.Store("")
	return cp
}

func (cp *ChapterProgress) Begin(total int) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if cp.bar != nil && !cp.bar.Completed() {
		cp.bar.Abort(false)
	}

	cp.pages.Store(0)
	cp.bytes.Store(0)
	cp.current.Store("")
	cp.start = time.Now()
	start := cp.start

	cp.bar = cp.p.New(
		int64(total),
		mpb.BarStyle().Rbound("]"),
		mpb.PrependDecorators(
			decor.Name("Chapters  "),
			decor.CountersNoUnit("%d/%d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Any(func(_ decor.Statistics) string {
				return fmt.Sprintf(" | %d pages | % .1f | %ds", cp.pages.Load(), decor.SizeB1024(cp.bytes.Load()), int(time.Since(start).Seconds()))
			}),
			decor.Any(func(_ decor.Statistics) string {
				if name, _ := cp.current.Load().(string); name != "" {
					return " | " + name
				}
				return ""
			}),
		),
	)
}

func (cp *ChapterProgress) ChapterStarted(title string) {
	cp.current.Store(title)
}

func (cp *ChapterProgress) PageResolved(string) {
	cp.pages.Add(1)
}

func (cp *ChapterProgress) AddBytes(n int64) {
	cp.bytes.Add(n)
}

// Bytes is the image data counted since the last Begin.
func (cp *ChapterProgress) Bytes() int64 {
	return cp.bytes.Load()
}

func (cp *ChapterProgress) ChapterFinished(string, int) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if cp.bar != nil {
		cp.bar.Increment()
	}
}

// Close stops an unfinished bar and waits for the last render.
func (cp *ChapterProgress) Close() {
	cp.mu.Lock()
	if cp.bar != nil && !cp.bar.Completed() {
		cp.bar.Abort(false)
	}
	cp.mu.Unlock()

	cp.p.Wait()
}
