package controllers

import (
	"net/http"

	"github.com/angelmondragon/pricesync/api/responses"
	"github.com/angelmondragon/pricesync/api/validators"
	"github.com/angelmondragon/pricesync/internal/prices"
	"github.com/angelmondragon/pricesync/pkg/logger"
)

func PricesList(svc prices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orderBy := prices.ParseOrderBy(validators.SanitizeString(r.URL.Query().Get("order_by"), 32))

		entries, err := svc.GetAll(ctx, orderBy, validators.IsDescending(r, "order"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

func PricesGet(svc prices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		slaveID, err := pathProductID(r, "slaveProductId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		entry, err := svc.GetBySlave(ctx, slaveID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}
