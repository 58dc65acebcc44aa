package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/pricesync/api/responses"
	"github.com/angelmondragon/pricesync/internal/pricesync"
	"github.com/angelmondragon/pricesync/pkg/logger"
)

// SyncEngine runs full and single-product syncs.
type SyncEngine interface {
	ExecuteSync(ctx context.Context) (*pricesync.Report, error)
	SyncSingleProduct(ctx context.Context, productID int64) (*pricesync.SingleResult, error)
	LastReport(ctx context.Context) (*pricesync.Report, error)
}

// SyncRun executes a full sync. A run already in progress yields 409.
func SyncRun(engine SyncEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		report, err := engine.ExecuteSync(ctx)
		if err != nil {
			if report != nil {
				responses.WriteErrorDetails(ctx, logg, w, err, map[string]any{"report": report})
				return
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func SyncLast(engine SyncEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		report, err := engine.LastReport(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func SyncProduct(engine SyncEngine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := pathProductID(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := engine.SyncSingleProduct(logg.WithProductID(ctx, id), id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
