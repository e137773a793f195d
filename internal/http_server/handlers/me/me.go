package me

import (
	"net/http"

	mwSession "bookshelf/internal/http_server/middleware/session"
	resp "bookshelf/internal/lib/api/response"
	"bookshelf/internal/models"

	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	models.UserPrivate
}

// New returns the user of the current session.
func New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := mwSession.FromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Unauthorized"))

			return
		}

		render.JSON(w, r, Response{
			Response:    resp.OK(),
			UserPrivate: id.User,
		})
	}
}
