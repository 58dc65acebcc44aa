package relationships

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/pricesync/internal/catalog"
	pkgerrors "github.com/angelmondragon/pricesync/pkg/errors"
	"github.com/angelmondragon/pricesync/pkg/migrate/migratetest"
)

type stubCatalog struct {
	known map[int64]bool
}

func (s stubCatalog) Resolve(_ context.Context, id int64) (*catalog.Product, error) {
	if !s.known[id] {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &catalog.Product{ID: id, Name: "p"}, nil
}

func newTestService(t *testing.T, productIDs ...int64) (Service, *gorm.DB) {
	t.Helper()
	conn := migratetest.NewSQLite(t)
	known := map[int64]bool{}
	for _, id := range productIDs {
		known[id] = true
	}
	svc, err := NewService(NewRepository(conn), stubCatalog{known: known})
	require.NoError(t, err)
	return svc, conn
}

func mustAdd(t *testing.T, svc Service, slave, source int64, active bool) *Relationship {
	t.Helper()
	rel, err := svc.Add(context.Background(), AddInput{SlaveProductID: slave, SourceProductID: source, Active: active})
	require.NoError(t, err)
	return rel
}

func TestAddPersistsRelationship(t *testing.T) {
	svc, _ := newTestService(t, 1, 2)
	rel := mustAdd(t, svc, 1, 2, true)

	assert.NotEqual(t, uuid.Nil, rel.ID)
	assert.Equal(t, int64(1), rel.SlaveProductID)
	assert.Equal(t, int64(2), rel.SourceProductID)
	assert.True(t, rel.Active)
}

func TestAddValidation(t *testing.T) {
	svc, _ := newTestService(t, 1, 2)
	ctx := context.Background()

	_, err := svc.Add(ctx, AddInput{SlaveProductID: 0, SourceProductID: 2})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Add(ctx, AddInput{SlaveProductID: 1, SourceProductID: 3})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "one or both products do not exist", pkgerrors.As(err).Message())
}

func TestAddRejectsSelfReference(t *testing.T) {
	svc, _ := newTestService(t, 1)
	_, err := svc.Add(context.Background(), AddInput{SlaveProductID: 1, SourceProductID: 1})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeCircular))
}

func TestAddRejectsDuplicate(t *testing.T) {
	svc, _ := newTestService(t, 1, 2)
	mustAdd(t, svc, 1, 2, false)

	_, err := svc.Add(context.Background(), AddInput{SlaveProductID: 1, SourceProductID: 2, Active: true})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDuplicate))
}

func TestAddRejectsCycle(t *testing.T) {
	svc, _ := newTestService(t, 1, 2, 3)
	mustAdd(t, svc, 1, 2, true)
	mustAdd(t, svc, 2, 3, true)

	_, err := svc.Add(context.Background(), AddInput{SlaveProductID: 3, SourceProductID: 1})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeCircular))

	all, err := svc.GetAll(context.Background(), OrderBySlave, Asc)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateActive(t *testing.T) {
	svc, _ := newTestService(t, 1, 2)
	ctx := context.Background()
	rel := mustAdd(t, svc, 1, 2, false)

	active, err := svc.HasActive(ctx, 1)
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, svc.UpdateActive(ctx, rel.ID, true))
	active, err = svc.HasActive(ctx, 1)
	require.NoError(t, err)
	assert.True(t, active)

	err = svc.UpdateActive(ctx, uuid.New(), true)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t, 1, 2)
	ctx := context.Background()
	rel := mustAdd(t, svc, 1, 2, true)

	require.NoError(t, svc.Delete(ctx, rel.ID))
	err := svc.Delete(ctx, rel.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestDeleteMultipleReportsPartialFailure(t *testing.T) {
	svc, _ := newTestService(t, 1, 2, 3)
	ctx := context.Background()
	a := mustAdd(t, svc, 1, 2, true)
	b := mustAdd(t, svc, 1, 3, true)
	missing := uuid.New()

	deleted, err := svc.DeleteMultiple(ctx, []uuid.UUID{a.ID, missing, b.ID})
	assert.Equal(t, 2, deleted)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodePartialFailure, typed.Code())
	failures, ok := typed.Details().([]ItemFailure)
	require.True(t, ok)
	require.Len(t, failures, 1)
	assert.Equal(t, missing, failures[0].ID)
	assert.Equal(t, string(pkgerrors.CodeNotFound), failures[0].Code)

	remaining, err := svc.GetAll(ctx, OrderBySlave, Asc)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	_, err = svc.DeleteMultiple(ctx, nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestDeleteByProductRemovesBothDirections(t *testing.T) {
	svc, _ := newTestService(t, 1, 2, 3, 4)
	ctx := context.Background()
	mustAdd(t, svc, 1, 2, true)
	mustAdd(t, svc, 2, 3, true)
	mustAdd(t, svc, 4, 3, true)

	removed, err := svc.DeleteByProduct(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	removed, err = svc.DeleteByProduct(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, removed)

	all, err := svc.GetAll(ctx, OrderBySlave, Asc)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(4), all[0].SlaveProductID)
}

func TestGetAllOrdering(t *testing.T) {
	svc, _ := newTestService(t, 1, 2, 3, 4)
	ctx := context.Background()
	mustAdd(t, svc, 3, 1, true)
	mustAdd(t, svc, 1, 4, false)
	mustAdd(t, svc, 1, 2, true)

	pairs := func(rels []Relationship) [][2]int64 {
		out := make([][2]int64, 0, len(rels))
		for _, r := range rels {
			out = append(out, [2]int64{r.SlaveProductID, r.SourceProductID})
		}
		return out
	}

	bySlave, err := svc.GetAll(ctx, OrderBySlave, Asc)
	require.NoError(t, err)
	assert.Equal(t, [][2]int64{{1, 2}, {1, 4}, {3, 1}}, pairs(bySlave))

	bySlaveDesc, err := svc.GetAll(ctx, OrderBySlave, Desc)
	require.NoError(t, err)
	assert.Equal(t, [][2]int64{{3, 1}, {1, 2}, {1, 4}}, pairs(bySlaveDesc))

	bySource, err := svc.GetAll(ctx, OrderBySource, Asc)
	require.NoError(t, err)
	assert.Equal(t, [][2]int64{{3, 1}, {1, 2}, {1, 4}}, pairs(bySource))

	byActive, err := svc.GetAll(ctx, OrderByActive, Asc)
	require.NoError(t, err)
	assert.Equal(t, [][2]int64{{1, 4}, {1, 2}, {3, 1}}, pairs(byActive))

	byActiveDesc, err := svc.GetAll(ctx, OrderByActive, Desc)
	require.NoError(t, err)
	assert.Equal(t, [][2]int64{{1, 2}, {3, 1}, {1, 4}}, pairs(byActiveDesc))
}

func TestQueries(t *testing.T) {
	svc, _ := newTestService(t, 1, 2, 3, 5)
	ctx := context.Background()
	mustAdd(t, svc, 5, 3, true)
	mustAdd(t, svc, 5, 2, true)
	mustAdd(t, svc, 1, 2, true)

	slaves, err := svc.GetAllSlaveIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 5}, slaves)

	used, err := svc.GetUsedSources(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, used)

	bySlave, err := svc.GetBySlave(ctx, 5)
	require.NoError(t, err)
	require.Len(t, bySlave, 2)
	assert.Equal(t, int64(2), bySlave[0].SourceProductID)

	bySource, err := svc.GetBySource(ctx, 2)
	require.NoError(t, err)
	require.Len(t, bySource, 2)
	assert.Equal(t, int64(1), bySource[0].SlaveProductID)
}

func TestFilterSources(t *testing.T) {
	svc, _ := newTestService(t, 1, 2, 3, 4)
	ctx := context.Background()
	mustAdd(t, svc, 1, 2, true)
	mustAdd(t, svc, 3, 1, true)

	candidates := []catalog.ProductSummary{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	got, err := svc.FilterSources(ctx, 1, candidates)
	require.NoError(t, err)
	assert.Equal(t, []catalog.ProductSummary{{ID: 4}}, got)
}

func TestParseOrderingHelpers(t *testing.T) {
	assert.Equal(t, OrderBySource, ParseOrderBy("source_product_id"))
	assert.Equal(t, OrderByActive, ParseOrderBy("ACTIVE"))
	assert.Equal(t, OrderBySlave, ParseOrderBy("name"))
	assert.Equal(t, Desc, ParseDirection("desc"))
	assert.Equal(t, Asc, ParseDirection("sideways"))
}
