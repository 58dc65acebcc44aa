package relationships

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/pricesync/internal/catalog"
	"github.com/angelmondragon/pricesync/pkg/db"
	"github.com/angelmondragon/pricesync/pkg/db/models"
	pkgerrors "github.com/angelmondragon/pricesync/pkg/errors"
)

// Service owns the relationship lifecycle and its validation rules.
type Service interface {
	Add(ctx context.Context, input AddInput) (*Relationship, error)
	UpdateActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteMultiple(ctx context.Context, ids []uuid.UUID) (int, error)
	DeleteByProduct(ctx context.Context, productID int64) (int64, error)
	GetAll(ctx context.Context, orderBy OrderBy, dir Direction) ([]Relationship, error)
	GetBySlave(ctx context.Context, slaveID int64) ([]Relationship, error)
	GetBySource(ctx context.Context, sourceID int64) ([]Relationship, error)
	GetAllSlaveIDs(ctx context.Context) ([]int64, error)
	GetUsedSources(ctx context.Context, slaveID int64) ([]int64, error)
	HasActive(ctx context.Context, slaveID int64) (bool, error)
	WouldCreateCycle(ctx context.Context, slaveID, sourceID int64) (bool, error)
	FilterSources(ctx context.Context, slaveID int64, candidates []catalog.ProductSummary) ([]catalog.ProductSummary, error)
}

type productResolver interface {
	Resolve(ctx context.Context, id int64) (*catalog.Product, error)
}

type service struct {
	repo     *Repository
	products productResolver
	cycles   *CycleDetector
}

// NewService constructs the relationship service.
func NewService(repo *Repository, products productResolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("relationship repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product resolver required")
	}
	return &service{
		repo:     repo,
		products: products,
		cycles:   NewCycleDetector(repo),
	}, nil
}

// Add validates and stores a new edge. Checks run in order: ids, product
// existence, duplicate pair, cycle.
func (s *service) Add(ctx context.Context, input AddInput) (*Relationship, error) {
	if input.SlaveProductID <= 0 || input.SourceProductID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slave_product_id and source_product_id must be positive")
	}

	if err := s.ensureProductsExist(ctx, input.SlaveProductID, input.SourceProductID); err != nil {
		return nil, err
	}

	exists, err := s.repo.PairExists(ctx, input.SlaveProductID, input.SourceProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "check existing relationship")
	}
	if exists {
		return nil, duplicateError(input)
	}

	circular, err := s.cycles.WouldCreateCycle(ctx, input.SlaveProductID, input.SourceProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "walk dependency graph")
	}
	if circular {
		return nil, pkgerrors.New(pkgerrors.CodeCircular, "this relationship would create a circular dependency").
			WithDetails(map[string]any{
				"slave_product_id":  input.SlaveProductID,
				"source_product_id": input.SourceProductID,
			})
	}

	rel := &models.Relationship{
		SlaveProductID:  input.SlaveProductID,
		SourceProductID: input.SourceProductID,
		Active:          input.Active,
	}
	if err := s.repo.Create(ctx, rel); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, duplicateError(input)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "failed to add relationship")
	}

	out := newRelationship(*rel)
	return &out, nil
}

func (s *service) ensureProductsExist(ctx context.Context, ids ...int64) error {
	for _, id := range ids {
		if _, err := s.products.Resolve(ctx, id); err != nil {
			if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "one or both products do not exist").
					WithDetails(map[string]any{"product_id": id})
			}
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "resolve product")
		}
	}
	return nil
}

func duplicateError(input AddInput) error {
	return pkgerrors.New(pkgerrors.CodeDuplicate, "this relationship already exists").
		WithDetails(map[string]any{
			"slave_product_id":  input.SlaveProductID,
			"source_product_id": input.SourceProductID,
		})
}

func (s *service) UpdateActive(ctx context.Context, id uuid.UUID, active bool) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "relationship id is required")
	}
	affected, err := s.repo.UpdateActive(ctx, id, active)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "failed to update relationship")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "relationship not found")
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "relationship id is required")
	}
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "failed to delete relationship")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "relationship not found")
	}
	return nil
}

// DeleteMultiple deletes each id on its own. Earlier deletions are kept when a
// later one fails; the returned error lists every failed id.
func (s *service) DeleteMultiple(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid ids provided")
	}

	deleted := 0
	var (
		failures []ItemFailure
		combined error
	)
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			code := string(pkgerrors.CodeInternal)
			msg := err.Error()
			if typed := pkgerrors.As(err); typed != nil {
				code = string(typed.Code())
				msg = typed.Message()
			}
			failures = append(failures, ItemFailure{ID: id, Code: code, Message: msg})
			combined = multierr.Append(combined, fmt.Errorf("%s: %w", id, err))
			continue
		}
		deleted++
	}

	if len(failures) > 0 {
		return deleted, pkgerrors.Wrap(
			pkgerrors.CodePartialFailure,
			combined,
			fmt.Sprintf("some relationships could not be deleted (%d of %d failed)", len(failures), len(ids)),
		).WithDetails(failures)
	}
	return deleted, nil
}

// DeleteByProduct removes edges touching the product. Absent products delete nothing.
func (s *service) DeleteByProduct(ctx context.Context, productID int64) (int64, error) {
	affected, err := s.repo.DeleteByProduct(ctx, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "delete relationships by product")
	}
	return affected, nil
}

func (s *service) GetAll(ctx context.Context, orderBy OrderBy, dir Direction) ([]Relationship, error) {
	if dir != Desc {
		dir = Asc
	}
	rows, err := s.repo.List(ctx, orderClauses(orderBy, dir)...)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list relationships")
	}
	return newRelationships(rows), nil
}

func (s *service) GetBySlave(ctx context.Context, slaveID int64) ([]Relationship, error) {
	rows, err := s.repo.ListBySlave(ctx, slaveID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list relationships by slave")
	}
	return newRelationships(rows), nil
}

func (s *service) GetBySource(ctx context.Context, sourceID int64) ([]Relationship, error) {
	rows, err := s.repo.ListBySource(ctx, sourceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list relationships by source")
	}
	return newRelationships(rows), nil
}

func (s *service) GetAllSlaveIDs(ctx context.Context) ([]int64, error) {
	ids, err := s.repo.SlaveIDs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list slave ids")
	}
	return ids, nil
}

func (s *service) GetUsedSources(ctx context.Context, slaveID int64) ([]int64, error) {
	ids, err := s.repo.SourceIDsBySlave(ctx, slaveID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list used sources")
	}
	return ids, nil
}

func (s *service) HasActive(ctx context.Context, slaveID int64) (bool, error) {
	count, err := s.repo.CountActiveBySlave(ctx, slaveID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "count active relationships")
	}
	return count > 0, nil
}

func (s *service) WouldCreateCycle(ctx context.Context, slaveID, sourceID int64) (bool, error) {
	circular, err := s.cycles.WouldCreateCycle(ctx, slaveID, sourceID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "walk dependency graph")
	}
	return circular, nil
}

// FilterSources drops candidates that cannot become sources of slaveID: the
// slave itself, sources it already has, and products that would close a cycle.
func (s *service) FilterSources(ctx context.Context, slaveID int64, candidates []catalog.ProductSummary) ([]catalog.ProductSummary, error) {
	used, err := s.GetUsedSources(ctx, slaveID)
	if err != nil {
		return nil, err
	}
	usedSet := make(map[int64]struct{}, len(used))
	for _, id := range used {
		usedSet[id] = struct{}{}
	}

	out := make([]catalog.ProductSummary, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.ID == slaveID {
			continue
		}
		if _, ok := usedSet[candidate.ID]; ok {
			continue
		}
		circular, err := s.WouldCreateCycle(ctx, slaveID, candidate.ID)
		if err != nil {
			return nil, err
		}
		if circular {
			continue
		}
		out = append(out, candidate)
	}
	return out, nil
}
