// Package render turns linked guides into HTML pages and writes them to a
// sink.
package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/guidebuilder/internal/config"
	"git.home.luguber.info/inful/guidebuilder/internal/content"
	"git.home.luguber.info/inful/guidebuilder/internal/logfields"
	"git.home.luguber.info/inful/guidebuilder/internal/pagelink"
)

// Renderer renders pages with a fixed layout set.
type Renderer struct {
	site    config.SiteConfig
	cfg     config.RenderConfig
	layouts *Layouts
	conv    *Converter
	sink    Sink
}

// New loads the configured layouts and returns a renderer writing to sink.
func New(site config.SiteConfig, cfg config.RenderConfig, sink Sink) (*Renderer, error) {
	layouts, err := LoadLayouts(cfg.LayoutsDirectory)
	if err != nil {
		return nil, err
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Renderer{site: site, cfg: cfg, layouts: layouts, conv: NewConverter(), sink: sink}, nil
}

// RenderPages renders one page per request. sources supply the body and
// metadata of each slug; collections supply the tables of contents. Pages
// are rendered concurrently, bounded by render.workers. The first failure
// cancels the remaining work.
func (r *Renderer) RenderPages(ctx context.Context, requests []pagelink.PageRequest, sources []content.Source, collections []pagelink.Collection) (int, error) {
	bySlug := make(map[string]*content.Source, len(sources))
	for i := range sources {
		bySlug[sources[i].Slug] = &sources[i]
	}
	tocs := make(map[string]pagelink.Collection, len(collections))
	for _, c := range collections {
		tocs[c.Name] = c
	}

	for _, req := range requests {
		if _, ok := bySlug[req.Path]; !ok {
			return 0, fmt.Errorf("no source for page %s", req.Path)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for _, req := range requests {
		src := bySlug[req.Path]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			page, err := r.renderPage(req, src, tocs[src.Collection])
			if err != nil {
				return fmt.Errorf("render %s: %w", src.RelativePath, err)
			}
			if err := r.sink.Write(gctx, req.Path, page); err != nil {
				return err
			}
			slog.Debug("Rendered page", logfields.Slug(req.Path), logfields.Collection(src.Collection))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(requests), nil
}

func (r *Renderer) renderPage(req pagelink.PageRequest, src *content.Source, coll pagelink.Collection) ([]byte, error) {
	html, headings, err := r.conv.Convert(src.Body)
	if err != nil {
		return nil, err
	}
	view := PageView{
		Site:          r.site,
		Slug:          req.Path,
		Canonical:     canonicalURL(r.site.BaseURL, req.Path),
		Title:         src.Title,
		Order:         src.Order,
		Content:       html,
		Headings:      headings,
		TOC:           tocFor(coll, req.Path),
		Previous:      req.Context.Previous,
		Next:          req.Context.Next,
		PreviousLabel: r.cfg.PreviousLabel,
		NextLabel:     r.cfg.NextLabel,
		LastModified:  src.LastModified,
	}
	var buf bytes.Buffer
	if err := r.layouts.executePage(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderIndex writes the home page listing every collection with its
// guides.
func (r *Renderer) RenderIndex(ctx context.Context, collections []pagelink.Collection) error {
	var buf bytes.Buffer
	if err := r.layouts.executeIndex(&buf, indexView(r.site, collections)); err != nil {
		return fmt.Errorf("render index: %w", err)
	}
	return r.sink.Write(ctx, "/", buf.Bytes())
}
