// Package record keeps track of pages already saved to disk. Every saved
// page has a YAML sidecar next to its image; the Store indexes those
// sidecars by page URL.
package record

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Ext is the suffix of record sidecar files.
const Ext = ".page.yaml"

// TagPrefix marks the tag that carries the site's title ID.
const TagPrefix = "Mangadex:"

type Record struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Artists     []string `yaml:"artists,omitempty"`
	Time        string   `yaml:"time,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
	Description string   `yaml:"description,omitempty"`
	PageURL     string   `yaml:"page_url"`
	DirectURL   string   `yaml:"direct_url,omitempty"`
	MediaFile   string   `yaml:"media_file,omitempty"`

	// Path is the sidecar location; empty for records not yet written.
	Path string `yaml:"-"`
}

// Dir is the directory holding the record, or "" when unsaved.
func (r Record) Dir() string {
	if r.Path == "" {
		return ""
	}
	return filepath.Dir(r.Path)
}

// TitleID returns the ID from the record's Mangadex tag.
func (r Record) TitleID() string {
	for _, t := range r.Tags {
		if len(t) > len(TagPrefix) && strings.EqualFold(t[:len(TagPrefix)], TagPrefix) {
			return t[len(TagPrefix):]
		}
	}
	return ""
}

// Store is not safe for concurrent use.
type Store struct {
	records []Record
	byURL   map[string]int
}

func NewStore() *Store {
	return &Store{byURL: map[string]int{}}
}

// Load walks every path and indexes the sidecars found. Unreadable or
// foreign YAML files are skipped; a missing root is an error.
func (s *Store) Load(paths ...string) error {
	for _, root := range paths {
		if _, err := os.Stat(root); err != nil {
			return fmt.Errorf("records: %w", err)
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), Ext) {
				return nil
			}

			rec, err := ReadFile(path)
			if err != nil || rec.PageURL == "" {
				return nil
			}

			s.Add(rec)
			return nil
		})
		if err != nil {
			return fmt.Errorf("records: walk %s: %w", root, err)
		}
	}

	return nil
}

// Size and ContainsLocator treat a nil *Store as empty.
func (s *Store) Size() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

func (s *Store) RecordAt(i int) Record {
	return s.records[i]
}

func (s *Store) ContainsLocator(pageURL string) bool {
	if s == nil {
		return false
	}
	_, ok := s.byURL[pageURL]
	return ok
}

// Add indexes rec, replacing any record with the same page URL.
func (s *Store) Add(rec Record) {
	if i, ok := s.byURL[rec.PageURL]; ok {
		s.records[i] = rec
		return
	}

	s.byURL[rec.PageURL] = len(s.records)
	s.records = append(s.records, rec)
}

// Remove drops the record for pageURL from the index and deletes its
// sidecar if one was written.
func (s *Store) Remove(pageURL string) error {
	i, ok := s.byURL[pageURL]
	if !ok {
		return nil
	}

	rec := s.records[i]
	s.records = append(s.records[:i], s.records[i+1:]...)
	delete(s.byURL, pageURL)
	for j := i; j < len(s.records); j++ {
		s.byURL[s.records[j].PageURL] = j
	}

	if rec.Path == "" {
		return nil
	}
	if err := os.Remove(rec.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Write saves rec as <dir>/<name>.page.yaml and indexes it.
func (s *Store) Write(dir, name string, rec Record) (Record, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return rec, fmt.Errorf("records: %w", err)
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return rec, fmt.Errorf("records: encode %s: %w", rec.ID, err)
	}

	rec.Path = filepath.Join(dir, name+Ext)
	if err := os.WriteFile(rec.Path, data, 0644); err != nil {
		return rec, fmt.Errorf("records: %w", err)
	}

	s.Add(rec)
	return rec, nil
}

// KnownPaths lists the directories holding at least one saved record.
func (s *Store) KnownPaths() []string {
	seen := map[string]bool{}
	var out []string

	for _, r := range s.records {
		dir := r.Dir()
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true
		out = append(out, dir)
	}

	sort.Strings(out)
	return out
}

// Title is a previously downloaded title found in the store.
type Title struct {
	ID  string
	Dir string
}

// Titles returns one entry per (directory, title ID) pair, in KnownPaths
// order. Records without a title tag are ignored.
func (s *Store) Titles() []Title {
	byDir := map[string][]string{}
	for _, r := range s.records {
		dir, id := r.Dir(), r.TitleID()
		if dir == "" || id == "" {
			continue
		}
		if !slices.Contains(byDir[dir], id) {
			byDir[dir] = append(byDir[dir], id)
		}
	}

	var out []Title
	for _, dir := range s.KnownPaths() {
		for _, id := range byDir[dir] {
			out = append(out, Title{ID: id, Dir: dir})
		}
	}

	return out
}

func ReadFile(path string) (Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}

	var rec Record
	if err := yaml.Unmarshal(b, &rec); err != nil {
		return Record{}, fmt.Errorf("records: decode %s: %w", path, err)
	}

	rec.Path = path
	return rec, nil
}
