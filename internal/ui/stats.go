package ui

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Stats counts what a run produced. The counters live on a dedicated
// registry so they can be exported for node_exporter's textfile collector.
type Stats struct {
	Registry *prometheus.Registry

	pages    prometheus.Counter
	chapters prometheus.Counter
	bytes    prometheus.Counter
	titles   *prometheus.CounterVec
}

func NewStats() *Stats {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mangadex_pages_total",
		Help: "Pages resolved and saved during the run.",
	})
	chapters := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mangadex_chapters_total",
		Help: "Chapters that produced at least one new page.",
	})
	bytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mangadex_bytes_total",
		Help: "Image bytes written to disk.",
	})
	titles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mangadex_titles_total",
		Help: "Titles processed, by result.",
	}, []string{"result"})

	registry.MustRegister(pages, chapters, bytes, titles)

	return &Stats{
		Registry: registry,
		pages:    pages,
		chapters: chapters,
		bytes:    bytes,
		titles:   titles,
	}
}

func (s *Stats) AddPage(n int64) {
	s.pages.Inc()
	if n > 0 {
		s.bytes.Add(float64(n))
	}
}

func (s *Stats) AddChapter() {
	s.chapters.Inc()
}

// AddTitle records one processed title; result is "ok", "invalid",
// "unresolved" or "failed".
func (s *Stats) AddTitle(result string) {
	s.titles.WithLabelValues(result).Inc()
}

func (s *Stats) Pages() int64    { return counterValue(s.pages) }
func (s *Stats) Chapters() int64 { return counterValue(s.chapters) }
func (s *Stats) Bytes() int64    { return counterValue(s.bytes) }

func (s *Stats) Titles(result string) int64 {
	return counterValue(s.titles.WithLabelValues(result))
}

// WriteTextfile dumps the registry in the Prometheus text format.
func (s *Stats) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, s.Registry)
}

func counterValue(c prometheus.Counter) int64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}

	return int64(m.GetCounter().GetValue())
}
