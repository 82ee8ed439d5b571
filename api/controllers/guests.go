package controllers

import (
	"net/http"

	"github.com/RogerEliel/evento-clique-digital-sub000/api/responses"
	"github.com/RogerEliel/evento-clique-digital-sub000/api/validators"
	"github.com/RogerEliel/evento-clique-digital-sub000/internal/guests"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/db/models"
	"github.com/RogerEliel/evento-clique-digital-sub000/pkg/logger"
)

type inviteGuestRequest struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"required,email"`
}

// guestResponse intentionally omits the access token: it is delivered to the
// guest by mail only and never echoed back to the photographer.
type guestResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	InvitedAt *string `json:"invited_at,omitempty"`
	ExpiresAt *string `json:"invite_expires_at,omitempty"`
	RevokedAt *string `json:"revoked_at,omitempty"`
}

func GuestInvite(svc *guests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photographerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eventID, err := pathUUID(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body inviteGuestRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Invite(r.Context(), photographerID, eventID, guests.InviteInput{
			Name:  body.Name,
			Email: body.Email,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toGuestResponse(result.Guest))
	}
}

func GuestList(svc *guests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photographerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eventID, err := pathUUID(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), photographerID, eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]guestResponse, 0, len(list))
		for i := range list {
			out = append(out, toGuestResponse(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func GuestRevoke(svc *guests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photographerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eventID, err := pathUUID(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		guestID, err := pathUUID(r, "guestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		guest, err := svc.Revoke(r.Context(), photographerID, eventID, guestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toGuestResponse(guest))
	}
}

func GuestReinvite(svc *guests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		photographerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eventID, err := pathUUID(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		guestID, err := pathUUID(r, "guestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Reinvite(r.Context(), photographerID, eventID, guestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toGuestResponse(result.Guest))
	}
}

func toGuestResponse(guest *models.Guest) guestResponse {
	resp := guestResponse{
		ID:    guest.ID.String(),
		Name:  guest.Name,
		Email: guest.Email,
	}
	if guest.InvitedAt != nil {
		v := guest.InvitedAt.UTC().Format(timeLayout)
		resp.InvitedAt = &v
	}
	if guest.InviteExpiresAt != nil {
		v := guest.InviteExpiresAt.UTC().Format(timeLayout)
		resp.ExpiresAt = &v
	}
	if guest.RevokedAt != nil {
		v := guest.RevokedAt.UTC().Format(timeLayout)
		resp.RevokedAt = &v
	}
	return resp
}
