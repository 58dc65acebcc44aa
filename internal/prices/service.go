package prices

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pricesync/internal/catalog"
	"github.com/angelmondragon/pricesync/internal/relationships"
	"github.com/angelmondragon/pricesync/pkg/db/models"
	"github.com/angelmondragon/pricesync/pkg/enums"
	pkgerrors "github.com/angelmondragon/pricesync/pkg/errors"
	"github.com/angelmondragon/pricesync/pkg/logger"
)

// Service maintains the derived slave → summed price table.
type Service interface {
	RebuildFromRelationships(ctx context.Context) (RebuildResult, error)
	Recompute(ctx context.Context) (int, error)
	GetBySlave(ctx context.Context, slaveID int64) (*Entry, error)
	GetAll(ctx context.Context, orderBy OrderBy, desc bool) ([]Entry, error)
	DeleteBySlave(ctx context.Context, slaveID int64) (bool, error)
}

type relationshipReader interface {
	GetAllSlaveIDs(ctx context.Context) ([]int64, error)
	GetBySlave(ctx context.Context, slaveID int64) ([]relationships.Relationship, error)
}

type productResolver interface {
	Resolve(ctx context.Context, id int64) (*catalog.Product, error)
}

type service struct {
	repo     *Repository
	rels     relationshipReader
	products productResolver
	logg     *logger.Logger
}

// NewService constructs the price table service.
func NewService(repo *Repository, rels relationshipReader, products productResolver, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("price repository required")
	}
	if rels == nil {
		return nil, fmt.Errorf("relationship reader required")
	}
	if products == nil {
		return nil, fmt.Errorf("product resolver required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, rels: rels, products: products, logg: logg}, nil
}

// RebuildFromRelationships drops entries for slaves without relationships and
// upserts one entry per remaining slave. Every relationship counts toward the
// price, active or not.
func (s *service) RebuildFromRelationships(ctx context.Context) (RebuildResult, error) {
	var result RebuildResult

	slaveIDs, err := s.rels.GetAllSlaveIDs(ctx)
	if err != nil {
		return result, err
	}
	wanted := make(map[int64]struct{}, len(slaveIDs))
	for _, id := range slaveIDs {
		wanted[id] = struct{}{}
	}

	existing, err := s.repo.List(ctx)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list price entries")
	}
	present := make(map[int64]struct{}, len(existing))
	for _, entry := range existing {
		present[entry.SlaveProductID] = struct{}{}
		if _, ok := wanted[entry.SlaveProductID]; ok {
			continue
		}
		if _, err := s.repo.DeleteBySlave(ctx, entry.SlaveProductID); err != nil {
			return result, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "remove orphaned price entry")
		}
		result.Removed++
		s.logg.Debug(s.logg.WithField(ctx, "slave_product_id", entry.SlaveProductID), "removed price entry without relationships")
	}

	for _, slaveID := range slaveIDs {
		rels, err := s.rels.GetBySlave(ctx, slaveID)
		if err != nil {
			return result, err
		}
		if len(rels) == 0 {
			continue
		}

		price, err := s.sumSources(ctx, rels)
		if err != nil {
			return result, err
		}
		relType := enums.RelationshipTypeForCount(len(rels))

		if _, ok := present[slaveID]; ok {
			if err := s.repo.UpdateEntry(ctx, slaveID, relType, price); err != nil {
				return result, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "failed to update price")
			}
			result.Updated++
			continue
		}

		entry := &models.PriceEntry{
			SlaveProductID:   slaveID,
			RelationshipType: relType,
			CalculatedPrice:  price,
		}
		if err := s.repo.Upsert(ctx, entry); err != nil {
			return result, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "failed to insert price")
		}
		result.Added++
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"added":   result.Added,
		"updated": result.Updated,
		"removed": result.Removed,
	}), "prices table rebuilt")
	return result, nil
}

// Recompute re-derives every stored price and persists those that moved by
// more than Epsilon.
func (s *service) Recompute(ctx context.Context) (int, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list price entries")
	}

	updated := 0
	for _, entry := range entries {
		rels, err := s.rels.GetBySlave(ctx, entry.SlaveProductID)
		if err != nil {
			return updated, err
		}
		if len(rels) == 0 {
			continue
		}

		price, err := s.sumSources(ctx, rels)
		if err != nil {
			return updated, err
		}
		if price.Sub(entry.CalculatedPrice).Abs().LessThanOrEqual(Epsilon) {
			continue
		}

		if err := s.repo.UpdatePrice(ctx, entry.SlaveProductID, price); err != nil {
			return updated, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "failed to update price")
		}
		updated++
	}

	s.logg.Info(s.logg.WithField(ctx, "updated", updated), "prices recalculated")
	return updated, nil
}

// sumSources adds the regular price of every source; unknown products and
// unreadable prices contribute zero.
func (s *service) sumSources(ctx context.Context, rels []relationships.Relationship) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, rel := range rels {
		product, err := s.products.Resolve(ctx, rel.SourceProductID)
		if err != nil {
			if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
				continue
			}
			return decimal.Zero, err
		}
		total = total.Add(product.Price())
	}
	return total, nil
}

func (s *service) GetBySlave(ctx context.Context, slaveID int64) (*Entry, error) {
	row, err := s.repo.FindBySlave(ctx, slaveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "price entry not found").
				WithDetails(map[string]any{"slave_product_id": slaveID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load price entry")
	}
	out := newEntry(*row)
	return &out, nil
}

func (s *service) GetAll(ctx context.Context, orderBy OrderBy, desc bool) ([]Entry, error) {
	rows, err := s.repo.List(ctx, orderClauses(orderBy, desc)...)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list price entries")
	}
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, newEntry(row))
	}
	return out, nil
}

// DeleteBySlave removes the slave's entry and reports whether one existed.
func (s *service) DeleteBySlave(ctx context.Context, slaveID int64) (bool, error) {
	affected, err := s.repo.DeleteBySlave(ctx, slaveID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "delete price entry")
	}
	return affected > 0, nil
}
