package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pricesync/pkg/db/models"
	"github.com/angelmondragon/pricesync/pkg/enums"
	pkgerrors "github.com/angelmondragon/pricesync/pkg/errors"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// DeletionHook runs before a product is removed from the catalog.
type DeletionHook func(ctx context.Context, productID int64) error

// Service is the catalog collaborator used by the sync engine and the API.
type Service interface {
	Resolve(ctx context.Context, id int64) (*Product, error)
	SetRegularPrice(ctx context.Context, id int64, price decimal.Decimal, reason enums.PriceChangeReason) error
	ListPublished(ctx context.Context, excludeIDs []int64) ([]ProductSummary, error)
	ListByCategory(ctx context.Context, categoryID int64, excludeIDs []int64) ([]ProductSummary, error)
	CategoriesWithPaths(ctx context.Context) ([]CategoryPath, error)
	OnProductDeleted(hook DeletionHook)
	DeleteProduct(ctx context.Context, id int64) error
	PriceHistory(ctx context.Context, id int64, limit int) ([]PriceChangeDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner

	mu    sync.RWMutex
	hooks []DeletionHook
}

// NewService constructs the catalog service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Resolve(ctx context.Context, id int64) (*Product, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load product")
	}
	return newProduct(row), nil
}

// SetRegularPrice writes the two-decimal price and its audit row atomically.
func (s *service) SetRegularPrice(ctx context.Context, id int64, price decimal.Decimal, reason enums.PriceChangeReason) error {
	if !reason.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown price change reason")
	}
	formatted := FormatPrice(price)

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]any{"product_id": id})
			}
			return pkgerrors.Wrap(pkgerrors.CodeCatalog, err, "load product for price update")
		}

		if _, err := repo.UpdateRegularPrice(ctx, id, formatted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeCatalog, err, "update regular price").
				WithDetails(map[string]any{"product_id": id})
		}

		change := &models.PriceChange{
			ProductID:     id,
			PreviousPrice: current.RegularPrice,
			NewPrice:      price.Round(2),
			Reason:        reason,
		}
		if err := repo.InsertPriceChange(ctx, change); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeCatalog, err, "record price change").
				WithDetails(map[string]any{"product_id": id})
		}
		return nil
	})
}

func (s *service) ListPublished(ctx context.Context, excludeIDs []int64) ([]ProductSummary, error) {
	rows, err := s.repo.ListPublished(ctx, excludeIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list products")
	}
	return newSummaries(rows), nil
}

func (s *service) ListByCategory(ctx context.Context, categoryID int64, excludeIDs []int64) ([]ProductSummary, error) {
	if categoryID <= 0 {
		return s.ListPublished(ctx, excludeIDs)
	}
	rows, err := s.repo.ListPublishedInCategory(ctx, categoryID, excludeIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list products by category")
	}
	return newSummaries(rows), nil
}

// CategoriesWithPaths returns every category with its "Parent/Child" path,
// sorted case-insensitively.
func (s *service) CategoriesWithPaths(ctx context.Context) ([]CategoryPath, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list categories")
	}

	byID := make(map[int64]models.CatalogCategory, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	out := make([]CategoryPath, 0, len(rows))
	for _, row := range rows {
		out = append(out, CategoryPath{ID: row.ID, Path: categoryPath(byID, row.ID)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Path), strings.ToLower(out[j].Path)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func categoryPath(byID map[int64]models.CatalogCategory, id int64) string {
	var parts []string
	seen := map[int64]struct{}{}
	current, ok := byID[id]
	for ok {
		if _, loop := seen[current.ID]; loop {
			break
		}
		seen[current.ID] = struct{}{}
		parts = append([]string{current.Name}, parts...)
		if current.ParentID == nil || *current.ParentID == 0 {
			break
		}
		current, ok = byID[*current.ParentID]
	}
	return strings.Join(parts, "/")
}

func (s *service) OnProductDeleted(hook DeletionHook) {
	if hook == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// DeleteProduct fires the deletion hooks, then removes the product. A hook
// failure aborts the deletion. Absent products are not an error.
func (s *service) DeleteProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}

	s.mu.RLock()
	hooks := append([]DeletionHook(nil), s.hooks...)
	s.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, id); err != nil {
			return err
		}
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.repo.WithTx(tx).DeleteProduct(ctx, id)
		return err
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeCatalog, err, "delete product")
	}
	return nil
}

func (s *service) PriceHistory(ctx context.Context, id int64, limit int) ([]PriceChangeDTO, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	rows, err := s.repo.ListPriceChanges(ctx, id, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list price history")
	}
	out := make([]PriceChangeDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, newPriceChangeDTO(row))
	}
	return out, nil
}
