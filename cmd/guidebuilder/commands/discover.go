package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"git.home.luguber.info/inful/guidebuilder/internal/build"
	"git.home.luguber.info/inful/guidebuilder/internal/config"
	ferrors "git.home.luguber.info/inful/guidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/guidebuilder/internal/pagelink"
)

// DiscoverCmd implements the 'discover' command.
type DiscoverCmd struct {
	Collection string `help:"Only show this collection"`
}

func (d *DiscoverCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	return RunDiscover(context.Background(), g.out(), cfg, d.Collection)
}

// RunDiscover loads and links the guides and prints every collection in
// order with each guide's neighbours.
func RunDiscover(ctx context.Context, w io.Writer, cfg *config.Config, collection string) error {
	d, err := build.NewGenerator(cfg).Discover(ctx)
	if err != nil {
		return err
	}

	byPath := make(map[string]pagelink.PageRequest, len(d.Requests))
	for _, r := range d.Requests {
		byPath[r.Path] = r
	}

	shown := 0
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range d.Collections {
		if collection != "" && c.Name != collection {
			continue
		}
		shown++
		_, _ = fmt.Fprintf(tw, "%s (%d guides)\n", c.Name, len(c.Documents))
		for _, doc := range c.Documents {
			pc := byPath[doc.Slug].Context
			_, _ = fmt.Fprintf(tw, "  %d\t%s\t%s\tprev=%s\tnext=%s\n",
				doc.Order, doc.Slug, doc.Title, slugOf(pc.Previous), slugOf(pc.Next))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if collection != "" && shown == 0 {
		return ferrors.NewError(ferrors.CategoryNotFound, "collection not found").
			WithContext("collection", collection).
			Build()
	}
	return nil
}

func slugOf(d *pagelink.Document) string {
	if d == nil {
		return "-"
	}
	return d.Slug
}
