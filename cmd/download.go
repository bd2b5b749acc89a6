package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/brogergvhs/mangadex-dl/internal/archive"
	"github.com/brogergvhs/mangadex-dl/internal/chapters"
	"github.com/brogergvhs/mangadex-dl/internal/config"
	"github.com/brogergvhs/mangadex-dl/internal/downloader"
	"github.com/brogergvhs/mangadex-dl/internal/providers"
	"github.com/brogergvhs/mangadex-dl/internal/providers/mangadex"
	"github.com/brogergvhs/mangadex-dl/internal/providers/web"
	"github.com/brogergvhs/mangadex-dl/internal/record"
	"github.com/brogergvhs/mangadex-dl/internal/ui"
	"github.com/brogergvhs/mangadex-dl/internal/util"

	"github.com/spf13/cobra"
)

var (
	// selection
	flagLanguage string
	flagCheckAll bool

	// runtime
	flagOutput      string
	flagDryRun      bool
	flagCBZ         bool
	flagRenderer    string
	flagMetricsFile string

	// headers/auth
	flagCookie     string
	flagCookieFile string
	flagUserAgent  string
)

func init() {
	downloadCmd := &cobra.Command{
		Use:   "download [title-url...]",
		Short: "Download new pages of MangaDex titles. Without a URL every title already under the output folder is rescanned",
		RunE:  runDownload,
	}

	// selection
	downloadCmd.Flags().StringVarP(&flagLanguage, "language", "l", "", "chapter language as shown on the site (default English)")
	downloadCmd.Flags().BoolVar(&flagCheckAll, "check-all", false, "walk every chapter instead of resuming from the newest saved one")

	// runtime
	downloadCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output folder; one subfolder per title")
	downloadCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "resolve pages without saving anything")
	downloadCmd.Flags().BoolVar(&flagCBZ, "cbz", false, "pack every updated chapter into a CBZ file")
	downloadCmd.Flags().StringVar(&flagRenderer, "renderer", "", "page renderer: chrome or http")
	downloadCmd.Flags().StringVar(&flagMetricsFile, "metrics-file", "", "write run counters in Prometheus text format to this file")

	// headers/auth
	downloadCmd.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	downloadCmd.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	downloadCmd.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, usedPath, err := config.LoadMerged(config.Options{
		IgnoreConfig: flagIgnoreConfig,
		Debug:        flagDebug,
		Output:       flagOutput,
		Language:     flagLanguage,
		CheckAll:     flagCheckAll,
		CBZ:          flagCBZ,
		Renderer:     flagRenderer,
		MetricsFile:  flagMetricsFile,
		Cookie:       flagCookie,
		CookieFile:   flagCookieFile,
		UserAgent:    flagUserAgent,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	logSvc := ui.NewLoggerTo(out, cfg.Debug)
	if usedPath != "" {
		fmt.Fprintf(out, "Config file: %s\n", usedPath)
	}

	if err := os.MkdirAll(cfg.Output, 0755); err != nil {
		return fmt.Errorf("cannot create output folder: %w", err)
	}

	fmt.Fprintln(out, "Full config:")
	cfg.Print(out)
	fmt.Fprintln(out)

	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:          30 * time.Second,
		UserAgent:        cfg.UserAgent,
		Cookie:           cfg.Cookie,
		CookieFile:       cfg.CookieFile,
		CloudflareBypass: cfg.CloudflareBypass,
		DebugLogger:      logSvc,
	})
	if err != nil {
		return err
	}

	ctx, cancel := util.WithInterrupt(cmd.Context(), cfg.Output, logSvc)
	defer cancel()

	progress := ui.NewChapterProgress(out)
	r, err := newRunner(cfg, client, logSvc, progress, flagDryRun)
	if err != nil {
		progress.Close()
		return err
	}

	start := time.Now()
	err = r.run(ctx, args)
	progress.Close()

	r.summary(out, time.Since(start))
	if cfg.MetricsFile != "" {
		if werr := r.stats.WriteTextfile(cfg.MetricsFile); werr != nil {
			logSvc.Errorf("Writing metrics to %s: %v\n", cfg.MetricsFile, werr)
		}
	}

	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(out, "Interrupted.")
		return nil
	}
	return err
}

// target is one title to sync. Dir is set for titles found on disk.
type target struct {
	url string
	id  string
	dir string
}

// runProgress follows chapter scanning and image bytes.
type runProgress interface {
	mangadex.Progress
	archive.ByteCounter
}

type runner struct {
	cfg    *config.Config
	log    *ui.Logger
	store  *record.Store
	client *mangadex.Client
	dl     archive.Downloader
	bytes  archive.ByteCounter
	stats  *ui.Stats
	dryRun bool
}

func newRunner(cfg *config.Config, c *http.Client, log *ui.Logger, progress runProgress, dryRun bool) (*runner, error) {
	store := record.NewStore()
	if err := store.Load(cfg.Output); err != nil {
		return nil, err
	}
	log.Debugf("Loaded %d page records from %s\n", store.Size(), cfg.Output)

	fetcher := web.NewFetcher(c, cfg.ListingDelay, log)

	var renderer providers.Renderer = web.HTTPRenderer{Fetcher: fetcher}
	if cfg.Renderer == config.RendererChrome {
		renderer = web.ChromeRenderer{
			UserAgent: util.PickUserAgent(cfg.UserAgent),
			Timeout:   cfg.RenderTimeout,
			Headless:  true,
		}
	}

	return &runner{
		cfg:    cfg,
		log:    log,
		store:  store,
		client: mangadex.NewClient(fetcher, renderer, mangadex.WithLogger(log), mangadex.WithProgress(progress)),
		dl:     downloader.New(c, log),
		bytes:  progress,
		stats:  ui.NewStats(),
		dryRun: dryRun,
	}, nil
}

// targets turns the command arguments into titles. No arguments means
// every title recorded under the output folder.
func (r *runner) targets(urls []string) []target {
	if len(urls) > 0 {
		out := make([]target, 0, len(urls))
		for _, u := range urls {
			out = append(out, target{url: u, id: mangadex.ResolveTitleID(u)})
		}
		return out
	}

	var out []target
	for _, t := range r.store.Titles() {
		out = append(out, target{url: mangadex.TitleURL(t.ID), id: t.ID, dir: t.Dir})
	}
	return out
}

func (r *runner) run(ctx context.Context, urls []string) error {
	targets := r.targets(urls)
	if len(targets) == 0 {
		r.log.Infof("No titles found under %s. Pass a title URL to start one.\n", r.cfg.Output)
		return nil
	}

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}

		if t.id == "" {
			r.log.Errorf("Invalid MangaDex.org URL: %s\n", t.url)
			r.stats.AddTitle("invalid")
			continue
		}

		if err := r.syncTitle(ctx, t); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.log.Errorf("%s: %v\n", t.url, err)
			r.stats.AddTitle("failed")
			continue
		}
	}

	return nil
}

func (r *runner) syncTitle(ctx context.Context, t target) error {
	title := r.client.FetchTitleInfo(ctx, t.id)
	if !title.Resolved() {
		r.log.Errorf("Could not read title %s. Check the URL or try again later.\n", t.id)
		r.stats.AddTitle("unresolved")
		return nil
	}

	dir := r.titleDir(t, title)
	r.log.Infof("%s -> %s\n", title.Name, dir)

	saver := archive.New(r.store, r.dl, dir, archive.Options{CBZ: r.cfg.CBZ, Stats: r.stats, Log: r.log, Bytes: r.bytes})
	res, err := r.client.Sync(ctx, title, r.store, mangadex.SyncOptions{
		FetchOptions: mangadex.FetchOptions{
			Save:     !r.dryRun,
			Saver:    saver,
			CheckAll: r.cfg.CheckAll,
		},
		Language: r.cfg.Language,
	})
	if util.RemoveIfEmpty(dir) {
		r.log.Debugf("Removed empty folder %s\n", dir)
	}
	if err != nil {
		return err
	}

	if r.dryRun {
		for _, p := range res.Pages {
			r.log.Infof("would save %s  %s\n", p.ID, p.DirectURL)
		}
	} else if len(res.Pages) == 0 {
		r.log.Infof("%s is up to date.\n", title.Name)
	}

	r.stats.AddTitle("ok")
	return nil
}

// titleDir reuses the folder a title was saved to before, so renamed
// titles keep their pages together.
func (r *runner) titleDir(t target, title mangadex.TitleDescriptor) string {
	if t.dir != "" {
		return t.dir
	}

	for _, known := range r.store.Titles() {
		if known.ID == title.ID {
			return known.Dir
		}
	}

	return filepath.Join(r.cfg.Output, chapters.TitleDir(title.Name, title.ID))
}

func (r *runner) summary(w io.Writer, took time.Duration) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Download Summary:")
	fmt.Fprintf(w, "Titles:   %d\n", r.stats.Titles("ok"))
	fmt.Fprintf(w, "Chapters: %d\n", r.stats.Chapters())
	fmt.Fprintf(w, "Pages:    %d\n", r.stats.Pages())
	fmt.Fprintf(w, "Data:     %s\n", util.Human(r.stats.Bytes()))
	fmt.Fprintf(w, "Time:     %s\n", took.Round(time.Second))

	for _, result := range []string{"invalid", "unresolved", "failed"} {
		if n := r.stats.Titles(result); n > 0 {
			fmt.Fprintf(w, "Skipped (%s): %d\n", result, n)
		}
	}
}
