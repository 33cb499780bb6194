package pagelink

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/guidebuilder/internal/foundation/errors"
)

func doc(slug, collection string, order int) Document {
	return Document{Slug: slug, Collection: collection, Title: slug, Order: order}
}

func bySlug(reqs []PageRequest) map[string]PageRequest {
	out := make(map[string]PageRequest, len(reqs))
	for _, r := range reqs {
		out[r.Path] = r
	}
	return out
}

func slugOf(d *Document) string {
	if d == nil {
		return ""
	}
	return d.Slug
}

func TestGenerate_FinanceRecruitingExample(t *testing.T) {
	docs := []Document{
		doc("/a", "finance", 1),
		doc("/b", "finance", 2),
		doc("/c", "recruiting", 1),
	}

	reqs, err := Generate(docs)
	require.NoError(t, err)
	require.Len(t, reqs, 3)

	got := bySlug(reqs)
	require.Nil(t, got["/a"].Context.Previous)
	require.Equal(t, "/b", slugOf(got["/a"].Context.Next))
	require.Equal(t, "/a", slugOf(got["/b"].Context.Previous))
	require.Nil(t, got["/b"].Context.Next)
	require.Nil(t, got["/c"].Context.Previous)
	require.Nil(t, got["/c"].Context.Next)
}

func TestGenerate_DuplicateOrderKeepsInputOrder(t *testing.T) {
	docs := []Document{
		doc("/x", "finance", 1),
		doc("/y", "finance", 1),
	}

	reqs, err := Generate(docs)
	require.NoError(t, err)
	require.Equal(t, "/x", reqs[0].Path)
	require.Equal(t, "/y", reqs[1].Path)
	require.Equal(t, "/y", slugOf(reqs[0].Context.Next))
	require.Equal(t, "/x", slugOf(reqs[1].Context.Previous))
}

func TestGenerate_SortsByOrderWithinCollection(t *testing.T) {
	docs := []Document{
		doc("/finance/3", "finance", 30),
		doc("/recruiting/1", "recruiting", 1),
		doc("/finance/1", "finance", -5),
		doc("/finance/2", "finance", 10),
		doc("/finance/4", "finance", 31),
	}

	reqs, err := Generate(docs)
	require.NoError(t, err)

	paths := make([]string, len(reqs))
	for i, r := range reqs {
		paths[i] = r.Path
	}
	want := []string{"/finance/1", "/finance/2", "/finance/3", "/finance/4", "/recruiting/1"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("page order mismatch (-want +got):\n%s", diff)
	}

	// Interior documents point at their sort neighbours.
	got := bySlug(reqs)
	for i := 1; i < 3; i++ {
		r := got[want[i]]
		require.Equal(t, want[i-1], slugOf(r.Context.Previous), "previous of %s", want[i])
		require.Equal(t, want[i+1], slugOf(r.Context.Next), "next of %s", want[i])
	}
	require.Nil(t, got["/finance/1"].Context.Previous)
	require.Nil(t, got["/finance/4"].Context.Next)
}

func TestGenerate_NeighbourIsFullDocument(t *testing.T) {
	docs := []Document{
		{Slug: "/finance/intro/", Collection: "finance", Title: "Introduction", Order: 1},
		{Slug: "/finance/data/", Collection: "finance", Title: "The data", Order: 2},
	}

	reqs, err := Generate(docs)
	require.NoError(t, err)
	require.Equal(t, &docs[1], reqs[0].Context.Next)
	require.Equal(t, &docs[0], reqs[1].Context.Previous)
	require.Equal(t, "/finance/intro/", reqs[0].Context.Slug)
}

func TestGenerate_Idempotent(t *testing.T) {
	docs := []Document{
		doc("/r2", "recruiting", 2),
		doc("/f1", "finance", 1),
		doc("/r1", "recruiting", 1),
		doc("/f2", "finance", 1),
	}

	first, err := Generate(docs)
	require.NoError(t, err)
	second, err := Generate(docs)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("Generate is not idempotent (-first +second):\n%s", diff)
	}
}

func TestGenerate_DoesNotMutateInput(t *testing.T) {
	docs := []Document{
		doc("/b", "finance", 2),
		doc("/a", "finance", 1),
	}
	before := append([]Document(nil), docs...)

	_, err := Generate(docs)
	require.NoError(t, err)
	require.Equal(t, before, docs)
}

func TestGenerate_OnePagePerDocument(t *testing.T) {
	var docs []Document
	for i := range 25 {
		coll := []string{"finance", "recruiting", "lending"}[i%3]
		docs = append(docs, doc("/"+coll+"/"+string(rune('a'+i)), coll, 25-i))
	}

	reqs, err := Generate(docs)
	require.NoError(t, err)
	require.Len(t, reqs, len(docs))

	got := bySlug(reqs)
	require.Len(t, got, len(docs))
	for _, d := range docs {
		r, ok := got[d.Slug]
		require.True(t, ok, "missing page for %s", d.Slug)
		require.Equal(t, d.Slug, r.Context.Slug)
		if r.Context.Previous != nil {
			require.Equal(t, d.Collection, r.Context.Previous.Collection)
		}
		if r.Context.Next != nil {
			require.Equal(t, d.Collection, r.Context.Next.Collection)
		}
	}
}

func TestGenerate_Empty(t *testing.T) {
	reqs, err := Generate(nil)
	require.NoError(t, err)
	require.Empty(t, reqs)
}

func TestGenerate_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		docs []Document
		want string
	}{
		{"missing collection", []Document{doc("/a", "", 1)}, "empty collection"},
		{"missing slug", []Document{doc("", "finance", 1)}, "empty slug"},
		{"duplicate slug", []Document{doc("/a", "finance", 1), doc("/a", "recruiting", 1)}, "duplicate slug"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reqs, err := Generate(tc.docs)
			require.Error(t, err)
			require.Nil(t, reqs)
			require.Contains(t, err.Error(), tc.want)
			require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
			require.Equal(t, ferrors.SeverityFatal, ferrors.GetSeverity(err))
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	err := Validate([]Document{
		doc("/a", "", 1),
		doc("/b", "", 2),
		doc("/c", "finance", 1),
	})
	require.Error(t, err)

	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	problems, _ := ce.Context().Get("problems")
	require.Len(t, problems, 2)
}

func TestCollections_GroupOrderFollowsFirstAppearance(t *testing.T) {
	docs := []Document{
		doc("/r1", "recruiting", 5),
		doc("/f2", "finance", 2),
		doc("/f1", "finance", 1),
	}

	cols, err := Collections(docs)
	require.NoError(t, err)
	require.Len(t, cols, 2)
	require.Equal(t, "recruiting", cols[0].Name)
	require.Equal(t, "finance", cols[1].Name)
	require.Equal(t, "/f1", cols[1].Documents[0].Slug)
	require.Equal(t, "/f2", cols[1].Documents[1].Slug)
}

func TestLink_MatchesGenerateAndCollections(t *testing.T) {
	docs := []Document{
		doc("/finance/b", "finance", 2),
		doc("/recruiting/a", "recruiting", 1),
		doc("/finance/a", "finance", 1),
	}

	requests, groups, err := Link(docs)
	require.NoError(t, err)

	want, err := Generate(docs)
	require.NoError(t, err)
	if diff := cmp.Diff(want, requests); diff != "" {
		t.Errorf("requests mismatch (-Generate +Link):\n%s", diff)
	}
	wantGroups, err := Collections(docs)
	require.NoError(t, err)
	if diff := cmp.Diff(wantGroups, groups); diff != "" {
		t.Errorf("collections mismatch (-Collections +Link):\n%s", diff)
	}
}

func TestLink_InvalidReturnsNothing(t *testing.T) {
	requests, groups, err := Link([]Document{doc("/a", "", 1)})
	require.Error(t, err)
	require.Nil(t, requests)
	require.Nil(t, groups)
}
