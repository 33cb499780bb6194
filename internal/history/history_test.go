package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/guidebuilder/internal/build"
	ferrors "git.home.luguber.info/inful/guidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/guidebuilder/internal/manifest"
)

func TestSQLiteStore_RecordAndRecent(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Record(ctx, Entry{
			BuildID:  id,
			Started:  base.Add(time.Duration(i) * time.Minute),
			Duration: 1500 * time.Millisecond,
			Outcome:  "success",
			Pages:    i + 1,
		}))
	}

	got, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "c", got[0].BuildID)
	require.Equal(t, "b", got[1].BuildID)
	require.Equal(t, 3, got[0].Pages)
	require.Equal(t, 1500*time.Millisecond, got[0].Duration)
	require.True(t, base.Add(2*time.Minute).Equal(got[0].Started))
	require.Nil(t, got[0].Changed)
}

func TestSQLiteStore_ReplacesSameBuild(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	e := Entry{BuildID: "x", Started: time.Now(), Outcome: "failed", Error: "boom"}
	require.NoError(t, store.Record(ctx, e))
	e.Outcome = "success"
	e.Error = ""
	e.Changed = []string{"/finance/intro/"}
	require.NoError(t, store.Record(ctx, e))

	got, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "success", got[0].Outcome)
	require.Empty(t, got[0].Error)
	require.Equal(t, []string{"/finance/intro/"}, got[0].Changed)
}

func TestSQLiteStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(t.Context(), Entry{BuildID: "p", Started: time.Now(), Outcome: "warning"}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	got, err := reopened.Recent(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "warning", got[0].Outcome)
}

func TestSQLiteStore_ClassifiesOpenFailure(t *testing.T) {
	dir := t.TempDir()
	_, err := NewSQLiteStore(dir) // a directory is not a database
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryHistory))
}

func TestEntryFromReport(t *testing.T) {
	r := build.NewBuildReport("id-1")
	r.RenderedPages = 4
	r.Collections = 2
	r.Changes = manifest.Changes{Added: []string{"/b/"}, Removed: []string{"/a/"}}
	r.Finish()
	r.DeriveOutcome()

	e := EntryFromReport(r, errors.New("late failure"))
	require.Equal(t, "id-1", e.BuildID)
	require.Equal(t, "success", e.Outcome)
	require.Equal(t, 4, e.Pages)
	require.Equal(t, []string{"/a/", "/b/"}, e.Changed)
	require.Equal(t, "late failure", e.Error)
	require.Equal(t, time.UTC, e.Started.Location())
}
