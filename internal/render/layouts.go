package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
)

//go:embed layouts/*.html
var embeddedLayouts embed.FS

// Template names every layout set must define.
const (
	pageTemplate  = "page"
	indexTemplate = "index"
)

// Layouts is a parsed set of page templates.
type Layouts struct {
	tpl *template.Template
}

// LoadLayouts parses the embedded layouts and then, when dir is non-empty,
// every *.html file in dir. Definitions in dir replace embedded ones with
// the same name.
func LoadLayouts(dir string) (*Layouts, error) {
	tpl, err := template.New("layouts").ParseFS(embeddedLayouts, "layouts/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse embedded layouts: %w", err)
	}

	if dir != "" {
		matches, err := filepath.Glob(filepath.Join(dir, "*.html"))
		if err != nil {
			return nil, fmt.Errorf("list layouts in %s: %w", dir, err)
		}
		if len(matches) == 0 {
			if _, statErr := os.Stat(dir); statErr != nil {
				return nil, fmt.Errorf("layouts directory %s: %w", dir, statErr)
			}
		}
		if len(matches) > 0 {
			if tpl, err = tpl.ParseFiles(matches...); err != nil {
				return nil, fmt.Errorf("parse layouts in %s: %w", dir, err)
			}
		}
	}

	for _, name := range []string{pageTemplate, indexTemplate} {
		if tpl.Lookup(name) == nil {
			return nil, fmt.Errorf("layout %q is not defined", name)
		}
	}
	return &Layouts{tpl: tpl}, nil
}

func (l *Layouts) executePage(w io.Writer, v PageView) error {
	return l.tpl.ExecuteTemplate(w, pageTemplate, v)
}

func (l *Layouts) executeIndex(w io.Writer, v IndexView) error {
	return l.tpl.ExecuteTemplate(w, indexTemplate, v)
}
