package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tessera/database"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	return New(db)
}

func createTestPage(t *testing.T, s *Store, tenant, slug, status string) Doc {
	t.Helper()
	doc, err := s.Create(context.Background(), Pages, Doc{
		"tenant":   tenant,
		"title":    "Page " + slug,
		"slug":     slug,
		"status":   status,
		"sections": []any{map[string]any{"blockType": "acme.hero", "title": "Hi"}},
	}, WriteOptions{})
	require.NoError(t, err)
	return doc
}

func TestCreateAndFindByID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	created := createTestPage(t, s, "t1", "about", "published")

	assert.NotEmpty(t, created.ID())
	found, err := s.FindByID(ctx, Pages, created.ID(), FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, "about", found["slug"])
	sections := found["sections"].([]any)
	assert.Equal(t, "acme.hero", sections[0].(map[string]any)["blockType"])

	_, err = s.FindByID(ctx, Pages, "missing", FindOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.FindByID(ctx, Posts, created.ID(), FindOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFind_FiltersAndPaging(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		createTestPage(t, s, "t1", fmt.Sprintf("p%d", i), "published")
	}
	createTestPage(t, s, "t1", "draft", "draft")
	createTestPage(t, s, "t2", "p0", "published")

	res, err := s.Find(ctx, Pages, Filter{"tenant": "t1", "status": "published"}, FindOptions{Limit: 2, Page: 1})
	require.NoError(t, err)
	assert.Len(t, res.Docs, 2)
	assert.Equal(t, int64(5), res.TotalDocs)
	assert.True(t, res.HasNextPage)

	res, err = s.Find(ctx, Pages, Filter{"tenant": "t1", "status": "published"}, FindOptions{Limit: 2, Page: 3})
	require.NoError(t, err)
	assert.Len(t, res.Docs, 1)
	assert.False(t, res.HasNextPage)

	res, err = s.Find(ctx, Pages, Filter{"title": "Page draft"}, FindOptions{})
	require.NoError(t, err)
	require.Len(t, res.Docs, 1)
	assert.Equal(t, "draft", res.Docs[0]["status"])

	res, err = s.Find(ctx, Pages, nil, FindOptions{Limit: 100, Page: 2})
	require.NoError(t, err)
	assert.Empty(t, res.Docs)
}

func TestCreate_Uniqueness(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	createTestPage(t, s, "t1", "about", "published")

	_, err := s.Create(ctx, Pages, Doc{"tenant": "t1", "slug": "about"}, WriteOptions{})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.Create(ctx, Pages, Doc{"tenant": "t2", "slug": "about"}, WriteOptions{})
	assert.NoError(t, err)

	_, err = s.Create(ctx, Tenants, Doc{"code": "acme", "name": "Acme"}, WriteOptions{})
	require.NoError(t, err)
	_, err = s.Create(ctx, Tenants, Doc{"code": "acme", "name": "Other"}, WriteOptions{})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.Create(ctx, Homepages, Doc{"tenant": "t1"}, WriteOptions{})
	require.NoError(t, err)
	_, err = s.Create(ctx, Homepages, Doc{"tenant": "t1"}, WriteOptions{})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdate_MergesAndKeepsVersions(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	page := createTestPage(t, s, "t1", "about", "draft")

	updated, err := s.Update(ctx, Pages, page.ID(), Doc{"status": "published", "id": "ignored"}, WriteOptions{})

	require.NoError(t, err)
	assert.Equal(t, page.ID(), updated.ID())
	assert.Equal(t, "published", updated["status"])
	assert.Equal(t, "Page about", updated["title"])

	res, err := s.Find(ctx, Pages, Filter{"status": "published"}, FindOptions{})
	require.NoError(t, err)
	assert.Len(t, res.Docs, 1)

	versions, err := s.Versions(ctx, page.ID())
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "draft", versions[0]["status"])
}

func TestUpdate_VersionHistoryIsBounded(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	page := createTestPage(t, s, "t1", "about", "draft")

	for i := 0; i < MaxVersions+5; i++ {
		_, err := s.Update(ctx, Pages, page.ID(), Doc{"title": fmt.Sprintf("v%d", i)}, WriteOptions{})
		require.NoError(t, err)
	}

	versions, err := s.Versions(ctx, page.ID())
	require.NoError(t, err)
	assert.Len(t, versions, MaxVersions)
	assert.Equal(t, fmt.Sprintf("v%d", MaxVersions+3), versions[0]["title"])
}

func TestUpdate_TenantImmutableAndConflicts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	page := createTestPage(t, s, "t1", "about", "published")
	createTestPage(t, s, "t1", "contact", "published")

	_, err := s.Update(ctx, Pages, page.ID(), Doc{"tenant": "t2"}, WriteOptions{})
	assert.ErrorIs(t, err, ErrTenantImmutable)

	_, err = s.Update(ctx, Pages, page.ID(), Doc{"slug": "contact"}, WriteOptions{})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.Update(ctx, Pages, "missing", Doc{"title": "x"}, WriteOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	page := createTestPage(t, s, "t1", "about", "published")
	_, err := s.Update(ctx, Pages, page.ID(), Doc{"title": "x"}, WriteOptions{})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, Pages, page.ID(), WriteOptions{}))

	_, err = s.FindByID(ctx, Pages, page.ID(), FindOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
	versions, err := s.Versions(ctx, page.ID())
	require.NoError(t, err)
	assert.Empty(t, versions)
	assert.ErrorIs(t, s.Delete(ctx, Pages, page.ID(), WriteOptions{}), ErrNotFound)
}

type testGuard struct {
	allow  bool
	filter Filter
}

func (g testGuard) Check(context.Context, string, Op, Doc) (bool, Filter) {
	return g.allow, g.filter
}

func TestGuard(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	createTestPage(t, s, "t1", "live", "published")
	draft := createTestPage(t, s, "t1", "wip", "draft")

	public := s.WithGuard(testGuard{allow: true, filter: Filter{"status": "published"}})
	res, err := public.Find(ctx, Pages, Filter{"tenant": "t1"}, FindOptions{})
	require.NoError(t, err)
	require.Len(t, res.Docs, 1)
	assert.Equal(t, "live", res.Docs[0]["slug"])

	_, err = public.FindByID(ctx, Pages, draft.ID(), FindOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = public.FindByID(ctx, Pages, draft.ID(), FindOptions{OverrideAccess: true})
	assert.NoError(t, err)

	_, err = public.Update(ctx, Pages, draft.ID(), Doc{"title": "x"}, WriteOptions{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = public.Create(ctx, Pages, Doc{"tenant": "t1", "slug": "new", "status": "draft"}, WriteOptions{})
	assert.ErrorIs(t, err, ErrForbidden)

	denied := s.WithGuard(testGuard{allow: false})
	_, err = denied.Find(ctx, Pages, nil, FindOptions{})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, denied.Delete(ctx, Pages, draft.ID(), WriteOptions{}), ErrForbidden)
}

type stubPopulator struct{}

func (stubPopulator) Populate(_ context.Context, _ string, doc Doc) Doc {
	doc = doc.Clone()
	doc["populated"] = true
	return doc
}

func TestFind_DepthPopulates(t *testing.T) {
	s := setupTestStore(t)
	s.SetPopulator(stubPopulator{})
	ctx := context.Background()
	page := createTestPage(t, s, "t1", "about", "published")

	shallow, err := s.FindByID(ctx, Pages, page.ID(), FindOptions{})
	require.NoError(t, err)
	assert.NotContains(t, shallow, "populated")

	deep, err := s.FindByID(ctx, Pages, page.ID(), FindOptions{Depth: 1})
	require.NoError(t, err)
	assert.Equal(t, true, deep["populated"])
}

func TestDocMatches(t *testing.T) {
	d := Doc{"tenant": "t1", "count": float64(3)}

	assert.True(t, d.Matches(Filter{"tenant": "t1"}))
	assert.True(t, d.Matches(Filter{"count": 3}))
	assert.False(t, d.Matches(Filter{"tenant": "t2"}))
	assert.False(t, d.Matches(Filter{"missing": "x"}))
	assert.True(t, d.Matches(nil))
}
