package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/RogerEliel/evento-clique-digital-sub000/api/responses"
	"github.com/RogerEliel/evento-clique-digital-sub000/api/validators"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/checkout"
	pkgerrors "github.com/RogerEliel/evento-clique-digital-sub000/pkg/errors"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/logger"
)

type checkoutRequest struct {
	PhotoIDs []string `json:"photo_ids" validate:"required,min=1,dive,uuid"`
}

// CheckoutStart opens a hosted payment session for the guest's selection and
// answers with the redirect URL.
func CheckoutStart(svc *checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ids := make([]uuid.UUID, 0, len(body.PhotoIDs))
		for _, raw := range body.PhotoIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid photo id").
					WithDetails(map[string]any{"photo_id": raw}))
				return
			}
			ids = append(ids, id)
		}

		result, err := svc.Start(r.Context(), chi.URLParam(r, "token"), checkout.StartInput{PhotoIDs: ids})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
