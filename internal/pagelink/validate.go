package pagelink

import (
	"errors"
	"fmt"
	"strings"

	ferrors "git.home.luguber.info/inful/guidebuilder/internal/foundation/errors"
)

// Validate checks that every document can take part in linking: slug and
// collection are set and no slug appears twice. All problems are reported
// in a single validation error.
func Validate(docs []Document) error {
	var problems []string
	seen := make(map[string]int, len(docs))

	for i, d := range docs {
		switch {
		case strings.TrimSpace(d.Slug) == "":
			problems = append(problems, fmt.Sprintf("document %d (%q): empty slug", i, d.Title))
			continue
		case strings.TrimSpace(d.Collection) == "":
			problems = append(problems, fmt.Sprintf("document %s: empty collection", d.Slug))
		}
		if first, dup := seen[d.Slug]; dup {
			problems = append(problems, fmt.Sprintf("document %s: duplicate slug (also document %d)", d.Slug, first))
			continue
		}
		seen[d.Slug] = i
	}

	if len(problems) == 0 {
		return nil
	}
	return ferrors.ValidationError("invalid documents for page linking").
		WithCause(errors.New(strings.Join(problems, "; "))).
		WithContext("problems", problems).
		Build()
}
