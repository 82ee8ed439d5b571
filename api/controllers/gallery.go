package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RogerEliel/evento-clique-digital-sub000/api/responses"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/gallery"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/logger"
)

// GalleryView resolves the opaque token from the path and returns the event
// header the guest is scoped to.
func GalleryView(svc *gallery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.View(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func GalleryPhotos(svc *gallery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photos, err := svc.Photos(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, photos)
	}
}
