package build

import (
	"context"
	"errors"
	"log/slog"

	"git.home.luguber.info/inful/guidebuilder/internal/content"
	"git.home.luguber.info/inful/guidebuilder/internal/logfields"
	"git.home.luguber.info/inful/guidebuilder/internal/pagelink"
)

var errNoContent = errors.New("no guides found")

// stageLoadContent walks the content directory. It is the node-creation
// step: every guide gets its slug and collection here.
func stageLoadContent(ctx context.Context, st *State) error {
	cfg := st.Generator.Config().Content
	sources, err := content.NewLoader(cfg).Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return NewCanceledStageError(StageLoadContent, ctx.Err())
		}
		return NewFatalStageError(StageLoadContent, err)
	}
	st.Sources = sources
	st.Report.Documents = len(sources)
	if len(sources) == 0 {
		return NewWarnStageError(StageLoadContent, errNoContent)
	}
	return nil
}

// stageLinkPages is the page-creation step: one page request per guide
// with its previous and next neighbours.
func stageLinkPages(_ context.Context, st *State) error {
	docs := content.Documents(st.Sources)
	requests, collections, err := pagelink.Link(docs)
	if err != nil {
		return NewFatalStageError(StageLinkPages, err)
	}
	st.Requests = requests
	st.Collections = collections
	st.Report.Collections = len(collections)

	rec := st.recorder()
	for _, c := range collections {
		rec.SetCollectionPages(c.Name, len(c.Documents))
		slog.Debug("Linked collection", logfields.Collection(c.Name), logfields.Count(len(c.Documents)))
	}
	return nil
}
