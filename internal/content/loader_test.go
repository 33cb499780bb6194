package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/guidebuilder/internal/config"
	ferrors "git.home.luguber.info/inful/guidebuilder/internal/foundation/errors"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o600))
	}
	return root
}

func TestLoad_DerivesSlugCollectionAndOrder(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"finance/intro.mdx":     "---\ntitle: Introduction\norder: 1\n---\n# Intro\n",
		"finance/data.md":       "---\ntitle: The data\norder: 2\n---\nBody\n",
		"recruiting/intro.mdx":  "---\norder: 1\n---\nBody\n",
		"finance/notes.txt":     "ignored",
		"finance/.draft-tmp.md": "---\norder: 9\n---\n",
	})

	sources, err := NewLoader(config.ContentConfig{Directory: root}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 3)

	// Lexical walk order.
	require.Equal(t, "/finance/data/", sources[0].Slug)
	require.Equal(t, "/finance/intro/", sources[1].Slug)
	require.Equal(t, "/recruiting/intro/", sources[2].Slug)

	intro := sources[1]
	require.Equal(t, "finance", intro.Collection)
	require.Equal(t, "Introduction", intro.Title)
	require.Equal(t, 1, intro.Order)
	require.Equal(t, "finance/intro.mdx", intro.RelativePath)
	require.Equal(t, []byte("# Intro\n"), intro.Body)
	require.NotEmpty(t, intro.Fingerprint)
	require.Equal(t, "Introduction", intro.Fields["title"])

	// Missing title falls back to the file name.
	require.Equal(t, "Intro", sources[2].Title)
}

func TestLoad_FingerprintChangesWithContent(t *testing.T) {
	a := writeFiles(t, map[string]string{"finance/a.md": "---\norder: 1\n---\nOne\n"})
	b := writeFiles(t, map[string]string{"finance/a.md": "---\norder: 1\n---\nTwo\n"})

	sa, err := NewLoader(config.ContentConfig{Directory: a}).Load(context.Background())
	require.NoError(t, err)
	sb, err := NewLoader(config.ContentConfig{Directory: b}).Load(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, sa[0].Fingerprint, sb[0].Fingerprint)
}

func TestLoad_ReportsAllInvalidFiles(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"finance/no-order.md":  "---\ntitle: x\n---\n",
		"finance/bad-order.md": "---\norder: first\n---\n",
		"finance/unclosed.md":  "---\norder: 1\n",
		"root.md":              "---\norder: 1\n---\n",
		"finance/ok.md":        "---\norder: 1\n---\n",
	})

	sources, err := NewLoader(config.ContentConfig{Directory: root}).Load(context.Background())
	require.Error(t, err)
	require.Nil(t, sources)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	problems, _ := ce.Context().Get("problems")
	require.Len(t, problems, 4)
	require.Contains(t, err.Error(), "finance/no-order.md: frontmatter has no order")
	require.Contains(t, err.Error(), "root.md: file is not inside a collection directory")
}

func TestLoad_CollectionFilter(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"finance/a.md":    "---\norder: 1\n---\n",
		"recruiting/a.md": "---\norder: 1\n---\n",
		"scratch/a.md":    "no frontmatter at all",
		"index.md":        "# home",
	})

	sources, err := NewLoader(config.ContentConfig{
		Directory:   root,
		Collections: []string{"finance", "recruiting"},
	}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 2)
	require.Equal(t, "finance", sources[0].Collection)
	require.Equal(t, "recruiting", sources[1].Collection)
}

func TestLoad_Drafts(t *testing.T) {
	files := map[string]string{
		"finance/a.md":     "---\norder: 1\n---\n",
		"finance/draft.md": "---\norder: 2\ndraft: true\n---\n",
	}

	sources, err := NewLoader(config.ContentConfig{Directory: writeFiles(t, files)}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 1)

	sources, err = NewLoader(config.ContentConfig{Directory: writeFiles(t, files), IncludeDrafts: true}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 2)
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := NewLoader(config.ContentConfig{Directory: filepath.Join(t.TempDir(), "missing")}).Load(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNoContentDir))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryContent))
}

func TestLoad_Canceled(t *testing.T) {
	root := writeFiles(t, map[string]string{"finance/a.md": "---\norder: 1\n---\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(config.ContentConfig{Directory: root}).Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoad_GitLastmodWithoutRepository(t *testing.T) {
	root := writeFiles(t, map[string]string{"finance/a.md": "---\norder: 1\n---\n"})

	sources, err := NewLoader(config.ContentConfig{Directory: root, GitLastmod: true}).Load(context.Background())
	require.NoError(t, err)
	require.True(t, sources[0].LastModified.IsZero())
}
