package build

import (
	"git.home.luguber.info/inful/guidebuilder/internal/content"
	"git.home.luguber.info/inful/guidebuilder/internal/manifest"
	"git.home.luguber.info/inful/guidebuilder/internal/metrics"
	"git.home.luguber.info/inful/guidebuilder/internal/pagelink"
	"git.home.luguber.info/inful/guidebuilder/internal/render"
)

// State carries data between stages of one build.
type State struct {
	Generator *Generator
	Report    *BuildReport

	Sources     []content.Source
	Requests    []pagelink.PageRequest
	Collections []pagelink.Collection

	// Previous is the manifest of the last build found in the output
	// directory, read before the directory is cleaned. Nil on first build.
	Previous *manifest.BuildManifest
	Manifest *manifest.BuildManifest

	renderer *render.Renderer
}

func (st *State) recorder() metrics.Recorder {
	if st.Generator == nil {
		return metrics.NoopRecorder{}
	}
	return st.Generator.Recorder()
}
