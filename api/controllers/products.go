package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/pricesync/api/responses"
	"github.com/angelmondragon/pricesync/api/validators"
	"github.com/angelmondragon/pricesync/internal/catalog"
	"github.com/angelmondragon/pricesync/pkg/logger"
)

const maxHistoryLimit = 200

type ProductDeleter interface {
	DeleteProduct(ctx context.Context, id int64) error
}

type PriceHistoryReader interface {
	PriceHistory(ctx context.Context, id int64, limit int) ([]catalog.PriceChangeDTO, error)
}

type CategoryLister interface {
	CategoriesWithPaths(ctx context.Context) ([]catalog.CategoryPath, error)
}

// ProductsFilter lists published products. When slave_product_id is given the
// slave is excluded and the result is narrowed to valid sources for it.
func ProductsFilter(products ProductLister, sources SourceFilter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		categoryID, err := validators.ParseQueryID(r, "category_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		excludeIDs, err := validators.ParseQueryIDList(r, "exclude_ids")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		slaveID, err := validators.ParseQueryID(r, "slave_product_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if slaveID > 0 {
			excludeIDs = append(excludeIDs, slaveID)
		}

		list, err := products.ListByCategory(ctx, categoryID, excludeIDs)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if slaveID > 0 {
			list, err = sources.FilterSources(ctx, slaveID, list)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}
		responses.WriteSuccess(w, list)
	}
}

// ProductsDelete removes a catalog product. Registered deletion hooks clean up
// its relationships and price entry first.
func ProductsDelete(svc ProductDeleter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := pathProductID(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.DeleteProduct(logg.WithProductID(ctx, id), id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ProductsPriceHistory(svc PriceHistoryReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := pathProductID(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, maxHistoryLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		history, err := svc.PriceHistory(ctx, id, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}

func CategoriesList(svc CategoryLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		categories, err := svc.CategoriesWithPaths(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}
