// Package frontmatter separates a YAML frontmatter block from a Markdown body.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document opened a frontmatter
// block but never closed it.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a Markdown file split into its frontmatter and body.
type Document struct {
	// Raw is the YAML between the delimiters, without the delimiters.
	Raw []byte
	// Body is everything after the closing delimiter.
	Body []byte
	// Present is false when the file has no frontmatter block at all.
	Present bool
}

// Split separates `---` delimited YAML frontmatter from the body.
// Both LF and CRLF line endings are accepted.
func Split(content []byte) (Document, error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return Document{Body: content}, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return Document{Raw: []byte{}, Body: rest[len(open):], Present: true}, nil
	}

	closing := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closing)
	if idx < 0 {
		// A closing delimiter on the last line without trailing newline.
		tail := []byte(nl + "---")
		if bytes.HasSuffix(rest, tail) {
			return Document{Raw: rest[:len(rest)-len(tail)+len(nl)], Body: []byte{}, Present: true}, nil
		}
		return Document{}, ErrMissingClosingDelimiter
	}

	return Document{
		Raw:     rest[:idx+len(nl)],
		Body:    rest[idx+len(closing):],
		Present: true,
	}, nil
}

// Fields parses the frontmatter into a generic map. A missing or empty
// block yields an empty, non-nil map.
func (d Document) Fields() (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(d.Raw)) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(d.Raw, &fields); err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Decode unmarshals the frontmatter into v.
func (d Document) Decode(v any) error {
	if len(bytes.TrimSpace(d.Raw)) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(d.Raw, v); err != nil {
		return fmt.Errorf("decode frontmatter: %w", err)
	}
	return nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
