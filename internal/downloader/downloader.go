package downloader

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brogergvhs/mangadex-dl/internal/util"
)

const (
	defaultAttempts = 3
	defaultBackoff  = time.Second
	defaultTimeout  = 30 * time.Second
)

// Downloader fetches single images to disk. Files are written under a
// .part name and renamed once complete, so an interrupted run never leaves
// a truncated image behind.
type Downloader struct {
	client *http.Client
	log    interface{ Debugf(string, ...any) }

	attempts int
	backoff  time.Duration
	timeout  time.Duration
}

func New(c *http.Client, log interface{ Debugf(string, ...any) }) *Downloader {
	return &Downloader{
		client:   c,
		log:      log,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
		timeout:  defaultTimeout,
	}
}

// Download saves url to output and returns the number of bytes written.
// Attempts back off linearly; a 404 or 403 is not retried.
func (d *Downloader) Download(ctx context.Context, url, output, referer string, progress func(done int64)) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return 0, err
	}

	var err error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		var n int64
		n, err = d.download(ctx, url, output, referer, progress)
		if err == nil {
			return n, nil
		}

		if d.log != nil {
			d.log.Debugf("download %s (attempt %d/%d): %v\n", url, attempt, d.attempts, err)
		}
		if !retryable(err) || attempt == d.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Duration(attempt) * d.backoff):
		}
	}

	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	return 0, err
}

func retryable(err error) bool {
	var notFound util.ErrNotFound
	var forbidden util.ErrForbidden
	return !errors.As(err, &notFound) && !errors.As(err, &forbidden)
}

func (d *Downloader) download(ctx context.Context, u, output, referer string, progress func(done int64)) (written int64, err error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return 0, err
	}

	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, util.ClassifyStatus(&util.StatusError{Code: resp.StatusCode, URL: u})
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, _ := mime.ParseMediaType(ct); !strings.HasPrefix(mt, "image/") {
			return 0, fmt.Errorf("unexpected MIME: %s", ct)
		}
	}

	tmp := output + util.PartialSuffix
	f, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}

	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	written, err = copyWithProgress(f, resp.Body, progress)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return written, err
	}

	if resp.ContentLength > 0 && written < resp.ContentLength {
		err = fmt.Errorf("short body: %d of %d bytes", written, resp.ContentLength)
		return written, err
	}

	if err = os.Rename(tmp, output); err != nil {
		return written, err
	}

	return written, nil
}
