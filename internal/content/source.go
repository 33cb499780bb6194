// Package content loads Markdown guides from disk and turns them into
// documents ready for page linking.
package content

import (
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/guidebuilder/internal/pagelink"
)

// Source is one loaded guide.
type Source struct {
	pagelink.Document

	Path         string         // Absolute path to the file
	RelativePath string         // Path relative to the content directory, slash separated
	Fields       map[string]any // All frontmatter fields
	Body         []byte         // Markdown body without frontmatter
	Fingerprint  string         // Content fingerprint over frontmatter and body
	LastModified time.Time      // Zero unless git lastmod is enabled and the file is tracked
}

// Documents returns the link-pass view of sources, in the same order.
func Documents(sources []Source) []pagelink.Document {
	docs := make([]pagelink.Document, len(sources))
	for i, s := range sources {
		docs[i] = s.Document
	}
	return docs
}

// SlugFor derives the page slug of a content-relative path: the path
// without extension, wrapped in slashes. An index file takes its
// directory's slug.
//
//	finance/intro.mdx  -> /finance/intro/
//	finance/index.md   -> /finance/
func SlugFor(relPath string) string {
	p := path.Clean(strings.ReplaceAll(relPath, "\\", "/"))
	p = strings.TrimSuffix(p, path.Ext(p))
	if path.Base(p) == "index" {
		p = path.Dir(p)
	}
	if p == "." || p == "" {
		return "/"
	}
	return "/" + strings.Trim(p, "/") + "/"
}

// CollectionFor returns the collection of a content-relative path: its
// directory, or "" for files at the content root.
func CollectionFor(relPath string) string {
	dir := path.Dir(path.Clean(strings.ReplaceAll(relPath, "\\", "/")))
	if dir == "." {
		return ""
	}
	return dir
}
