package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RogerEliel/evento-clique-digital-sub000/api/responses"
	"github.com/RogerEliel/evento-clique-digital-sub000/api/validators"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/gallery"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/orders"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/logger"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/pagination"
)

// GalleryOrders lists the orders placed under the token's guest.
func GalleryOrders(gallerySvc *gallery.Service, ordersSvc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		access, err := gallerySvc.ResolveToken(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := ordersSvc.ListForGuest(r.Context(), access.Guest.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GalleryOrderDownload discloses signed download URLs for a paid order owned
// by the token's guest.
func GalleryOrderDownload(gallerySvc *gallery.Service, ordersSvc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		access, err := gallerySvc.ResolveToken(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bundle, err := ordersSvc.Downloads(r.Context(), access.Guest.ID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bundle)
	}
}

// OrdersList returns one cursor page of the photographer's orders.
func OrdersList(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photographerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListForPhotographer(r.Context(), photographerID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
