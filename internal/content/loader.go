package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/inful/mdfp"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/guidebuilder/internal/config"
	ferrors "git.home.luguber.info/inful/guidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/guidebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/guidebuilder/internal/gitinfo"
	"git.home.luguber.info/inful/guidebuilder/internal/logfields"
	"git.home.luguber.info/inful/guidebuilder/internal/pagelink"
)

// ErrNoContentDir is returned when the configured content directory is missing.
var ErrNoContentDir = errors.New("content directory not found")

var markdownExtensions = []string{".md", ".mdx", ".markdown"}

// meta is the typed part of a guide's frontmatter.
type meta struct {
	Title string `yaml:"title"`
	Order *int   `yaml:"order"`
	Draft bool   `yaml:"draft"`
}

// Loader walks a content directory and produces Sources.
type Loader struct {
	cfg    config.ContentConfig
	allow  map[string]struct{}
	titler cases.Caser
}

// NewLoader creates a loader for the given content configuration.
func NewLoader(cfg config.ContentConfig) *Loader {
	var allow map[string]struct{}
	if len(cfg.Collections) > 0 {
		allow = make(map[string]struct{}, len(cfg.Collections))
		for _, c := range cfg.Collections {
			allow[strings.Trim(c, "/ ")] = struct{}{}
		}
	}
	return &Loader{cfg: cfg, allow: allow, titler: cases.Title(language.English)}
}

// Load reads every guide under the content directory in lexical path order.
//
// Files that cannot become a page (no collection, no order, unreadable
// frontmatter) are collected and reported together as one validation
// error; nothing is returned in that case.
func (l *Loader) Load(ctx context.Context) ([]Source, error) {
	root, err := filepath.Abs(l.cfg.Directory)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryContent, "resolve content directory").Build()
	}
	if st, statErr := os.Stat(root); statErr != nil || !st.IsDir() {
		return nil, ferrors.WrapError(ErrNoContentDir, ferrors.CategoryContent, "load content").
			Fatal().
			WithContext("path", root).
			Build()
	}

	var repo *gitinfo.Repo
	if l.cfg.GitLastmod {
		if repo, err = gitinfo.Open(root); err != nil {
			slog.Warn("git lastmod disabled: content is not in a git repository", logfields.Path(root), logfields.Error(err))
		}
	}

	var (
		sources  []Source
		problems []string
	)
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		name := d.Name()
		if d.IsDir() {
			if p != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !isMarkdown(name) {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		collection := CollectionFor(rel)
		if l.allow != nil {
			if _, ok := l.allow[collection]; !ok {
				slog.Debug("Skipping file outside configured collections", logfields.File(rel), logfields.Collection(collection))
				return nil
			}
		}

		src, skip, problem := l.loadFile(p, rel, collection)
		switch {
		case problem != "":
			problems = append(problems, problem)
		case skip:
			slog.Debug("Skipping draft", logfields.File(rel))
		default:
			if repo != nil {
				if when, lmErr := repo.LastModified(p); lmErr == nil {
					src.LastModified = when
				} else {
					slog.Debug("No git history for file", logfields.File(rel), logfields.Error(lmErr))
				}
			}
			sources = append(sources, src)
		}
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return nil, walkErr
		}
		return nil, ferrors.WrapError(walkErr, ferrors.CategoryContent, "walk content directory").
			Fatal().
			WithContext("path", root).
			Build()
	}

	if len(problems) > 0 {
		return nil, ferrors.ValidationError(fmt.Sprintf("%d content file(s) cannot be built", len(problems))).
			WithCause(errors.New(strings.Join(problems, "; "))).
			WithContext("problems", problems).
			Build()
	}

	slog.Info("Content loaded", logfields.Path(root), logfields.Count(len(sources)))
	return sources, nil
}

// loadFile reads and validates a single guide. A non-empty problem means the
// file is invalid; skip means it is a draft that should be left out.
func (l *Loader) loadFile(absPath, rel, collection string) (src Source, skip bool, problem string) {
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return Source{}, false, fmt.Sprintf("%s: read: %v", rel, err)
	}
	doc, err := frontmatter.Split(raw)
	if err != nil {
		return Source{}, false, fmt.Sprintf("%s: %v", rel, err)
	}

	var m meta
	if err := doc.Decode(&m); err != nil {
		return Source{}, false, fmt.Sprintf("%s: %v", rel, err)
	}
	if m.Draft && !l.cfg.IncludeDrafts {
		return Source{}, true, ""
	}
	if collection == "" {
		return Source{}, false, fmt.Sprintf("%s: file is not inside a collection directory", rel)
	}
	if m.Order == nil {
		return Source{}, false, fmt.Sprintf("%s: frontmatter has no order", rel)
	}

	fields, err := doc.Fields()
	if err != nil {
		return Source{}, false, fmt.Sprintf("%s: %v", rel, err)
	}

	title := strings.TrimSpace(m.Title)
	if title == "" {
		title = l.titleFromName(rel)
	}

	return Source{
		Document: pagelink.Document{
			Slug:       SlugFor(rel),
			Collection: collection,
			Title:      title,
			Order:      *m.Order,
		},
		Path:         absPath,
		RelativePath: rel,
		Fields:       fields,
		Body:         doc.Body,
		Fingerprint:  mdfp.CalculateFingerprintFromParts(strings.TrimSpace(string(doc.Raw)), string(doc.Body)),
	}, false, ""
}

func (l *Loader) titleFromName(rel string) string {
	base := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	if base == "index" {
		base = filepath.Base(filepath.Dir(rel))
	}
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return l.titler.String(base)
}

func isMarkdown(name string) bool {
	return slices.Contains(markdownExtensions, strings.ToLower(filepath.Ext(name)))
}
