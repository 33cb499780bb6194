package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/guidebuilder/internal/config"
	"git.home.luguber.info/inful/guidebuilder/internal/content"
	"git.home.luguber.info/inful/guidebuilder/internal/pagelink"
)

type memorySink struct {
	mu    sync.Mutex
	pages map[string]string
}

func newMemorySink() *memorySink { return &memorySink{pages: map[string]string{}} }

func (m *memorySink) Write(_ context.Context, slug string, page []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[slug] = string(page)
	return nil
}

func source(slug, coll, title string, order int, body string) content.Source {
	return content.Source{
		Document:     pagelink.Document{Slug: slug, Collection: coll, Title: title, Order: order},
		RelativePath: strings.Trim(slug, "/") + ".md",
		Body:         []byte(body),
	}
}

func renderFixture(t *testing.T, sink Sink) []content.Source {
	t.Helper()
	sources := []content.Source{
		source("/finance/intro/", "finance", "Intro", 1, "## Setup\n\nHello *world*.\n"),
		source("/finance/data/", "finance", "Data", 2, "Data body\n"),
		source("/finance/report/", "finance", "Report", 3, "Report body\n"),
		source("/recruiting/only/", "recruiting", "Only", 1, "Solo\n"),
	}
	docs := content.Documents(sources)
	requests, err := pagelink.Generate(docs)
	require.NoError(t, err)
	collections, err := pagelink.Collections(docs)
	require.NoError(t, err)

	r, err := New(config.SiteConfig{Title: "Guides"}, config.RenderConfig{
		Workers: 2, PreviousLabel: "← Previous", NextLabel: "Next →",
	}, sink)
	require.NoError(t, err)

	n, err := r.RenderPages(context.Background(), requests, sources, collections)
	require.NoError(t, err)
	require.Equal(t, len(sources), n)
	require.NoError(t, r.RenderIndex(context.Background(), collections))
	return sources
}

func TestRenderPages_NavigationMatchesNeighbours(t *testing.T) {
	sink := newMemorySink()
	renderFixture(t, sink)
	require.Len(t, sink.pages, 5)

	first := sink.pages["/finance/intro/"]
	require.NotContains(t, first, `rel="prev"`)
	require.Contains(t, first, `<a class="next" rel="next" href="/finance/data/">Next →</a>`)

	middle := sink.pages["/finance/data/"]
	require.Contains(t, middle, `<a class="previous" rel="prev" href="/finance/intro/">← Previous</a>`)
	require.Contains(t, middle, `<a class="next" rel="next" href="/finance/report/">Next →</a>`)

	last := sink.pages["/finance/report/"]
	require.Contains(t, last, `rel="prev" href="/finance/data/"`)
	require.NotContains(t, last, `rel="next"`)

	solo := sink.pages["/recruiting/only/"]
	require.NotContains(t, solo, `class="navigation"`)
}

func TestRenderPages_PageContent(t *testing.T) {
	sink := newMemorySink()
	renderFixture(t, sink)

	page := sink.pages["/finance/intro/"]
	require.Contains(t, page, "<title>Intro | Guides</title>")
	require.Contains(t, page, "<h1>Intro</h1>")
	require.Contains(t, page, `<p class="order">Order 1</p>`)
	require.Contains(t, page, "<em>world</em>")
	require.Contains(t, page, `<h2 id="setup">Setup</h2>`)
	require.Contains(t, page, `<a href="#setup">Setup</a>`)
	require.Contains(t, page, `<a class="toc-item active" href="/finance/intro/">Intro</a>`)
	require.Contains(t, page, `<a class="toc-item" href="/finance/data/">Data</a>`)
	require.NotContains(t, page, "/recruiting/only/")
}

func TestRender_CanonicalLinkFromBaseURL(t *testing.T) {
	sources := []content.Source{source("/finance/intro/", "finance", "Intro", 1, "Hi\n")}
	docs := content.Documents(sources)
	requests, err := pagelink.Generate(docs)
	require.NoError(t, err)
	collections, err := pagelink.Collections(docs)
	require.NoError(t, err)

	sink := newMemorySink()
	r, err := New(config.SiteConfig{Title: "Guides", BaseURL: "https://guides.example.com/"}, config.RenderConfig{Workers: 1}, sink)
	require.NoError(t, err)
	_, err = r.RenderPages(context.Background(), requests, sources, collections)
	require.NoError(t, err)
	require.NoError(t, r.RenderIndex(context.Background(), collections))

	require.Contains(t, sink.pages["/finance/intro/"], `<link rel="canonical" href="https://guides.example.com/finance/intro/">`)
	require.Contains(t, sink.pages["/"], `<link rel="canonical" href="https://guides.example.com/">`)
}

func TestRender_NoCanonicalWithoutBaseURL(t *testing.T) {
	sink := newMemorySink()
	renderFixture(t, sink)
	require.NotContains(t, sink.pages["/finance/intro/"], `rel="canonical"`)
}

func TestRenderIndex_ListsCollectionsInOrder(t *testing.T) {
	sink := newMemorySink()
	renderFixture(t, sink)

	index := sink.pages["/"]
	require.Contains(t, index, `<h2><a href="/finance/intro/">finance</a></h2>`)
	require.Contains(t, index, `<h2><a href="/recruiting/only/">recruiting</a></h2>`)
	require.Less(t, strings.Index(index, "finance"), strings.Index(index, "recruiting"))
}

func TestRenderPages_MissingSource(t *testing.T) {
	r, err := New(config.SiteConfig{}, config.RenderConfig{Workers: 1}, newMemorySink())
	require.NoError(t, err)

	_, err = r.RenderPages(context.Background(), []pagelink.PageRequest{{Path: "/x/"}}, nil, nil)
	require.ErrorContains(t, err, "no source for page /x/")
}

func TestFileSink_WritesIndexFiles(t *testing.T) {
	root := t.TempDir()
	renderFixture(t, FileSink{Root: root})

	for _, rel := range []string{"index.html", "finance/intro/index.html", "recruiting/only/index.html"} {
		_, err := os.Stat(filepath.Join(root, rel))
		require.NoError(t, err, rel)
	}
}

func TestFileSink_RejectsEscapingSlug(t *testing.T) {
	err := FileSink{Root: t.TempDir()}.Write(context.Background(), "/../etc/", []byte("x"))
	require.ErrorContains(t, err, "escapes output directory")
}

func TestLoadLayouts_Override(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.html"),
		[]byte(`{{define "page"}}custom {{.Title}}{{end}}`), 0o600))

	sink := newMemorySink()
	r, err := New(config.SiteConfig{}, config.RenderConfig{LayoutsDirectory: dir, Workers: 1}, sink)
	require.NoError(t, err)

	src := []content.Source{source("/a/b/", "a", "B", 1, "x")}
	reqs, err := pagelink.Generate(content.Documents(src))
	require.NoError(t, err)
	_, err = r.RenderPages(context.Background(), reqs, src, nil)
	require.NoError(t, err)
	require.Equal(t, "custom B", sink.pages["/a/b/"])
}

func TestLoadLayouts_MissingDirectory(t *testing.T) {
	_, err := LoadLayouts(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestConvert_Headings(t *testing.T) {
	html, headings, err := NewConverter().Convert([]byte("# Top\n\n## First *part*\n\n### Sub\n\n#### Deep\n"))
	require.NoError(t, err)
	require.Contains(t, string(html), `<h1 id="top">Top</h1>`)
	require.Equal(t, []Heading{
		{Level: 2, ID: "first-part", Text: "First part"},
		{Level: 3, ID: "sub", Text: "Sub"},
	}, headings)
}
