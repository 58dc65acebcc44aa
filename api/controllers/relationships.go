package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/pricesync/api/responses"
	"github.com/angelmondragon/pricesync/api/validators"
	"github.com/angelmondragon/pricesync/internal/catalog"
	"github.com/angelmondragon/pricesync/internal/pricesync"
	"github.com/angelmondragon/pricesync/internal/relationships"
	pkgerrors "github.com/angelmondragon/pricesync/pkg/errors"
	"github.com/angelmondragon/pricesync/pkg/logger"
)

// PriceRefresher refreshes the price table after relationship mutations.
type PriceRefresher interface {
	RefreshAfterAdd(ctx context.Context) (*pricesync.RefreshResult, error)
	RefreshAfterBulkDelete(ctx context.Context) (*pricesync.RefreshResult, error)
}

// ProductLister lists published catalog products, optionally within one category.
type ProductLister interface {
	ListByCategory(ctx context.Context, categoryID int64, excludeIDs []int64) ([]catalog.ProductSummary, error)
}

// SourceFilter drops candidates that cannot become sources of a slave.
type SourceFilter interface {
	FilterSources(ctx context.Context, slaveID int64, candidates []catalog.ProductSummary) ([]catalog.ProductSummary, error)
}

type addRelationshipRequest struct {
	SlaveProductID  int64 `json:"slave_product_id" validate:"required,gt=0"`
	SourceProductID int64 `json:"source_product_id" validate:"required,gt=0"`
	Active          *bool `json:"active"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

type toggleActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func RelationshipsList(svc relationships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orderBy := relationships.ParseOrderBy(validators.SanitizeString(r.URL.Query().Get("order_by"), 32))
		dir := relationships.Asc
		if validators.IsDescending(r, "order") {
			dir = relationships.Desc
		}

		rels, err := svc.GetAll(ctx, orderBy, dir)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rels)
	}
}

// RelationshipsAdd creates an edge and rebuilds the price table.
func RelationshipsAdd(svc relationships.Service, refresher PriceRefresher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var body addRelationshipRequest
		if err := validators.DecodeJSONBodyLimited(w, r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		active := false
		if body.Active != nil {
			active = *body.Active
		}

		rel, err := svc.Add(ctx, relationships.AddInput{
			SlaveProductID:  body.SlaveProductID,
			SourceProductID: body.SourceProductID,
			Active:          active,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		refresh, err := refresher.RefreshAfterAdd(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"message":      "Relationship added successfully",
			"relationship": rel,
			"rebuild":      refresh.Rebuild,
		})
	}
}

// RelationshipsBulkDelete removes the listed edges one by one, then rebuilds
// and recomputes prices when anything was deleted.
func RelationshipsBulkDelete(svc relationships.Service, refresher PriceRefresher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var body bulkDeleteRequest
		if err := validators.DecodeJSONBodyLimited(w, r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		ids := make([]uuid.UUID, 0, len(body.IDs))
		for _, raw := range body.IDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid IDs provided").
					WithDetails(map[string]any{"id": raw}))
				return
			}
			ids = append(ids, id)
		}

		deleted, deleteErr := svc.DeleteMultiple(ctx, ids)

		var refresh *pricesync.RefreshResult
		if deleted > 0 {
			var err error
			refresh, err = refresher.RefreshAfterBulkDelete(ctx)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}
		if deleteErr != nil {
			responses.WriteError(ctx, logg, w, deleteErr)
			return
		}

		payload := map[string]any{
			"message": fmt.Sprintf("%d relationship(s) deleted", deleted),
			"deleted": deleted,
		}
		if refresh != nil {
			payload["rebuild"] = refresh.Rebuild
			payload["prices_updated"] = refresh.PricesUpdated
		}
		responses.WriteSuccess(w, payload)
	}
}

func RelationshipsToggleActive(svc relationships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := pathUUID(r, "relationshipId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body toggleActiveRequest
		if err := validators.DecodeJSONBodyLimited(w, r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ctx = logg.WithRelationshipID(ctx, id.String())
		if err := svc.UpdateActive(ctx, id, *body.Active); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		logg.Info(logg.WithField(ctx, "active", *body.Active), "relationship active flag updated")
		responses.WriteSuccess(w, map[string]any{
			"id":      id,
			"active":  *body.Active,
			"message": "Relationship updated",
		})
	}
}

// RelationshipsAvailableSources lists published products that may become
// sources of the slave, optionally limited to one category.
func RelationshipsAvailableSources(products ProductLister, sources SourceFilter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		slaveID, err := validators.ParseQueryID(r, "slave_product_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if slaveID == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "slave_product_id is required"))
			return
		}
		categoryID, err := validators.ParseQueryID(r, "category_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		candidates, err := products.ListByCategory(ctx, categoryID, []int64{slaveID})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		available, err := sources.FilterSources(ctx, slaveID, candidates)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, available)
	}
}
