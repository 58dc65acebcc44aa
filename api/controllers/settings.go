package controllers

import (
	"net/http"

	"github.com/angelmondragon/pricesync/api/responses"
	"github.com/angelmondragon/pricesync/api/validators"
	"github.com/angelmondragon/pricesync/internal/settings"
	"github.com/angelmondragon/pricesync/pkg/logger"
)

func ScheduleGet(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		current, err := svc.Get(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, current)
	}
}

func ScheduleSave(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var body settings.SaveInput
		if err := validators.DecodeJSONBodyLimited(w, r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Save(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
