// Package pagelink computes the page requests for a set of documents: one
// page per document, linked to its previous and next sibling inside its
// collection.
//
// The pass is pure. It never touches the filesystem and returns the same
// output for the same input.
package pagelink

import (
	"cmp"
	"slices"
)

// Document is one piece of content as seen by the link pass.
type Document struct {
	Slug       string
	Collection string
	Title      string
	Order      int
}

// PageContext is the data handed to the renderer for a single page.
// Previous and Next are nil at the ends of a collection.
type PageContext struct {
	Slug     string
	Previous *Document
	Next     *Document
}

// PageRequest asks the renderer to materialize one page at Path.
type PageRequest struct {
	Path    string
	Context PageContext
}

// Collection is a named group of documents in ascending order.
type Collection struct {
	Name      string
	Documents []Document
}

// Generate validates docs and returns one PageRequest per document.
//
// Requests are grouped by collection, in the order each collection first
// appears in docs, and ordered by Order within a collection. Documents with
// equal Order keep their input order.
func Generate(docs []Document) ([]PageRequest, error) {
	requests, _, err := Link(docs)
	return requests, err
}

// Collections validates docs and returns them grouped and sorted the same
// way Generate does.
func Collections(docs []Document) ([]Collection, error) {
	_, groups, err := Link(docs)
	return groups, err
}

// Link validates docs once and returns both the page requests and the
// collections they were linked within.
func Link(docs []Document) ([]PageRequest, []Collection, error) {
	if err := Validate(docs); err != nil {
		return nil, nil, err
	}

	groups := partition(docs)
	requests := make([]PageRequest, 0, len(docs))
	for _, g := range groups {
		requests = appendLinked(requests, g.Documents)
	}
	return requests, groups, nil
}

// partition groups docs by collection and stable-sorts every group.
func partition(docs []Document) []Collection {
	index := make(map[string]int)
	var groups []Collection
	for _, d := range docs {
		i, ok := index[d.Collection]
		if !ok {
			i = len(groups)
			index[d.Collection] = i
			groups = append(groups, Collection{Name: d.Collection})
		}
		groups[i].Documents = append(groups[i].Documents, d)
	}

	for i := range groups {
		slices.SortStableFunc(groups[i].Documents, func(a, b Document) int {
			return cmp.Compare(a.Order, b.Order)
		})
	}
	return groups
}

func appendLinked(out []PageRequest, group []Document) []PageRequest {
	for i, d := range group {
		ctx := PageContext{Slug: d.Slug}
		if i > 0 {
			prev := group[i-1]
			ctx.Previous = &prev
		}
		if i < len(group)-1 {
			next := group[i+1]
			ctx.Next = &next
		}
		out = append(out, PageRequest{Path: d.Slug, Context: ctx})
	}
	return out
}
