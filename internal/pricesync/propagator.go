package pricesync

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pricesync/internal/catalog"
	"github.com/angelmondragon/pricesync/internal/prices"
	"github.com/angelmondragon/pricesync/pkg/enums"
	pkgerrors "github.com/angelmondragon/pricesync/pkg/errors"
	"github.com/angelmondragon/pricesync/pkg/logger"
	"github.com/angelmondragon/pricesync/pkg/metrics"
)

type priceLister interface {
	GetAll(ctx context.Context, orderBy prices.OrderBy, desc bool) ([]prices.Entry, error)
}

type activeChecker interface {
	HasActive(ctx context.Context, slaveID int64) (bool, error)
}

type catalogWriter interface {
	Resolve(ctx context.Context, id int64) (*catalog.Product, error)
	SetRegularPrice(ctx context.Context, id int64, price decimal.Decimal, reason enums.PriceChangeReason) error
}

// Propagator writes computed prices back to the catalog.
type Propagator struct {
	prices  priceLister
	rels    activeChecker
	catalog catalogWriter
	logg    *logger.Logger
	metrics *metrics.SyncMetrics
}

// NewPropagator builds a catalog propagator. Metrics are optional.
func NewPropagator(priceTable priceLister, rels activeChecker, cat catalogWriter, logg *logger.Logger, m *metrics.SyncMetrics) (*Propagator, error) {
	if priceTable == nil {
		return nil, fmt.Errorf("price table required")
	}
	if rels == nil {
		return nil, fmt.Errorf("relationship checker required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog writer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Propagator{prices: priceTable, rels: rels, catalog: cat, logg: logg, metrics: m}, nil
}

// SyncToCatalog pushes every price entry whose slave has an active
// relationship. Only a failure to list the price table is returned; per
// product failures are collected in the result.
func (p *Propagator) SyncToCatalog(ctx context.Context) (PropagationResult, error) {
	result := PropagationResult{Errors: []string{}}

	entries, err := p.prices.GetAll(ctx, prices.OrderBySlave, false)
	if err != nil {
		return result, err
	}

	for _, entry := range entries {
		productCtx := p.logg.WithProductID(ctx, entry.SlaveProductID)

		active, err := p.rels.HasActive(productCtx, entry.SlaveProductID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Product %d: %s", entry.SlaveProductID, errorMessage(err)))
			continue
		}
		if !active {
			result.Skipped++
			continue
		}

		product, err := p.catalog.Resolve(productCtx, entry.SlaveProductID)
		if err != nil {
			if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
				result.Errors = append(result.Errors, fmt.Sprintf("Product %d not found", entry.SlaveProductID))
			} else {
				result.Errors = append(result.Errors, fmt.Sprintf("Product %d: %s", entry.SlaveProductID, errorMessage(err)))
			}
			continue
		}

		target := entry.CalculatedPrice.Round(2)
		if live, ok := catalog.ParsePrice(product.RegularPrice); ok && live.Equal(target) {
			result.Skipped++
			continue
		}

		if err := p.catalog.SetRegularPrice(productCtx, entry.SlaveProductID, target, enums.PriceChangeReasonSync); err != nil {
			p.logg.Error(productCtx, "failed to write catalog price", err)
			result.Errors = append(result.Errors, fmt.Sprintf("Product %d: %s", entry.SlaveProductID, errorMessage(err)))
			continue
		}
		p.logg.Debug(p.logg.WithField(productCtx, "price", catalog.FormatPrice(target)), "catalog price updated")
		result.Synced++
	}

	p.metrics.AddCatalogWrites(enums.PriceChangeReasonSync.String(), result.Synced)
	p.metrics.AddPropagationErrors(len(result.Errors))
	return result, nil
}

func errorMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}
