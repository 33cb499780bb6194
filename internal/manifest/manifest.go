// Package manifest records what a build produced so the next build can
// report which pages changed.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
)

// FileName is the manifest file written into the output directory.
const FileName = ".guidebuilder-manifest.json"

// BuildManifest is a complete record of a build's inputs and pages.
type BuildManifest struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Version     string          `json:"version"`
	Status      string          `json:"status"`
	Duration    int64           `json:"duration_ms"`
	Inputs      Inputs          `json:"inputs"`
	Pages       map[string]Page `json:"pages"`
	PageCount   int             `json:"page_count"`
	Collections []string        `json:"collections"`
}

// Inputs captures what the build read.
type Inputs struct {
	ContentDir string `json:"content_dir"`
	ConfigHash string `json:"config_hash,omitempty"`
}

// Page is one generated page keyed by slug.
type Page struct {
	Collection  string `json:"collection"`
	Order       int    `json:"order"`
	Fingerprint string `json:"fingerprint"`
}

// New returns an empty manifest with a fresh build ID.
func New(version string, started time.Time) *BuildManifest {
	return &BuildManifest{
		ID:        uuid.NewString(),
		Timestamp: started.UTC(),
		Version:   version,
		Pages:     map[string]Page{},
	}
}

// AddPage records a generated page. Collections are kept in first-seen order.
func (m *BuildManifest) AddPage(slug string, p Page) {
	if _, ok := m.Pages[slug]; !ok {
		m.PageCount++
	}
	m.Pages[slug] = p
	if !slices.Contains(m.Collections, p.Collection) {
		m.Collections = append(m.Collections, p.Collection)
	}
}

// ToJSON serializes the manifest to JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if m.Pages == nil {
		m.Pages = map[string]Page{}
	}
	return &m, nil
}

// Write stores the manifest as FileName inside dir.
func (m *BuildManifest) Write(dir string) error {
	data, err := m.ToJSON()
	if err != nil {
		return err
	}
	// #nosec G306 -- manifest is published with the site
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Load reads the manifest from dir. A missing manifest returns nil and no
// error.
func Load(dir string) (*BuildManifest, error) {
	data, err := os.ReadFile(filepath.Join(filepath.Clean(dir), FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return FromJSON(data)
}

// Hash computes a deterministic hash of the inputs and page fingerprints.
// Two builds with equal hashes produced the same pages.
func (m *BuildManifest) Hash() (string, error) {
	// json.Marshal sorts map keys.
	data, err := json.Marshal(struct {
		Inputs Inputs          `json:"inputs"`
		Pages  map[string]Page `json:"pages"`
	}{m.Inputs, m.Pages})
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

// Changes lists slugs that differ between two builds, each sorted.
type Changes struct {
	Added   []string `json:"added,omitempty"`
	Changed []string `json:"changed,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// Empty reports whether nothing changed.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Changed) == 0 && len(c.Removed) == 0
}

// All returns every touched slug, sorted.
func (c Changes) All() []string {
	all := make([]string, 0, len(c.Added)+len(c.Changed)+len(c.Removed))
	all = append(all, c.Added...)
	all = append(all, c.Changed...)
	all = append(all, c.Removed...)
	sort.Strings(all)
	return all
}

// Diff compares cur against prev. A nil prev reports every page as added.
// A page counts as changed when its fingerprint, order or collection
// differs, since neighbour links depend on all three.
func Diff(prev, cur *BuildManifest) Changes {
	var c Changes
	var before map[string]Page
	if prev != nil {
		before = prev.Pages
	}
	var after map[string]Page
	if cur != nil {
		after = cur.Pages
	}
	for slug, p := range after {
		old, ok := before[slug]
		switch {
		case !ok:
			c.Added = append(c.Added, slug)
		case old != p:
			c.Changed = append(c.Changed, slug)
		}
	}
	for slug := range before {
		if _, ok := after[slug]; !ok {
			c.Removed = append(c.Removed, slug)
		}
	}
	sort.Strings(c.Added)
	sort.Strings(c.Changed)
	sort.Strings(c.Removed)
	return c
}
