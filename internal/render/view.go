package render

import (
	"html/template"
	"strings"
	"time"

	"git.home.luguber.info/inful/guidebuilder/internal/config"
	"git.home.luguber.info/inful/guidebuilder/internal/pagelink"
)

// TOCEntry is one line in a collection's table of contents.
type TOCEntry struct {
	Slug   string
	Title  string
	Active bool
}

// TOC lists the guides of one collection in order.
type TOC struct {
	Collection string
	Entries    []TOCEntry
}

// PageView is the data passed to the "page" layout.
type PageView struct {
	Site          config.SiteConfig
	Slug          string
	Canonical     string // absolute page URL; empty without site.base_url
	Title         string
	Order         int
	Content       template.HTML
	Headings      []Heading
	TOC           TOC
	Previous      *pagelink.Document
	Next          *pagelink.Document
	PreviousLabel string
	NextLabel     string
	LastModified  time.Time
}

// CollectionView is one collection on the home page.
type CollectionView struct {
	Name    string
	First   string
	Entries []TOCEntry
}

// IndexView is the data passed to the "index" layout.
type IndexView struct {
	Site        config.SiteConfig
	Canonical   string
	Title       string
	Collections []CollectionView
}

func tocFor(c pagelink.Collection, activeSlug string) TOC {
	toc := TOC{Collection: c.Name, Entries: make([]TOCEntry, len(c.Documents))}
	for i, d := range c.Documents {
		toc.Entries[i] = TOCEntry{Slug: d.Slug, Title: d.Title, Active: d.Slug == activeSlug}
	}
	return toc
}

func indexView(site config.SiteConfig, collections []pagelink.Collection) IndexView {
	v := IndexView{Site: site, Canonical: canonicalURL(site.BaseURL, "/"), Collections: make([]CollectionView, 0, len(collections))}
	for _, c := range collections {
		if len(c.Documents) == 0 {
			continue
		}
		toc := tocFor(c, "")
		v.Collections = append(v.Collections, CollectionView{
			Name:    c.Name,
			First:   c.Documents[0].Slug,
			Entries: toc.Entries,
		})
	}
	return v
}

func canonicalURL(baseURL, slug string) string {
	if baseURL == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + slug
}
