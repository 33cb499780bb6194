// Package linkcheck verifies that internal links in a generated site
// resolve to files in the output directory.
package linkcheck

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	ferrors "git.home.luguber.info/inful/guidebuilder/internal/foundation/errors"
)

// BrokenLink is an anchor whose target does not exist in the output.
type BrokenLink struct {
	Page string // Page path relative to the output root, slash separated
	Href string // href as written
}

func (b BrokenLink) String() string {
	return fmt.Sprintf("%s -> %s", b.Page, b.Href)
}

// Result summarises one verification run.
type Result struct {
	Pages  int
	Links  int
	Broken []BrokenLink
}

// Check parses every HTML file below root and resolves each internal
// a[href]. External links, fragments on the same page and special schemes
// are skipped. Broken links are returned sorted by page then href.
func Check(ctx context.Context, root string) (Result, error) {
	var res Result
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		return checkPage(root, p, filepath.ToSlash(rel), &res)
	})
	if err != nil {
		return Result{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "link verification failed").
			WithContext("root", root).
			Build()
	}
	sort.Slice(res.Broken, func(i, j int) bool {
		if res.Broken[i].Page != res.Broken[j].Page {
			return res.Broken[i].Page < res.Broken[j].Page
		}
		return res.Broken[i].Href < res.Broken[j].Href
	})
	return res, nil
}

func checkPage(root, file, rel string, res *Result) error {
	f, err := os.Open(filepath.Clean(file))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", rel, err)
	}
	res.Pages++

	base := &url.URL{Path: "/" + path.Dir(rel) + "/"}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		target, ok := internalTarget(base, href)
		if !ok {
			return
		}
		res.Links++
		if !exists(root, target) {
			res.Broken = append(res.Broken, BrokenLink{Page: rel, Href: href})
		}
	})
	return nil
}

// internalTarget resolves href against the page's URL and reports whether
// it points into the site.
func internalTarget(base *url.URL, href string) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil {
		return href, true
	}
	if u.Scheme != "" || u.Host != "" {
		return "", false
	}
	return base.ResolveReference(u).Path, true
}

// exists reports whether an URL path maps to a file below root. Directory
// paths map to their index.html.
func exists(root, urlPath string) bool {
	clean := path.Clean("/" + urlPath)
	local := filepath.Join(root, filepath.FromSlash(clean))
	info, err := os.Stat(local)
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return !strings.HasSuffix(urlPath, "/")
	}
	_, err = os.Stat(filepath.Join(local, "index.html"))
	return err == nil
}
