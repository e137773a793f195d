package verificationemail

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"bookshelf/internal/auth"
	mwSession "bookshelf/internal/http_server/middleware/session"
	resp "bookshelf/internal/lib/api/response"
	sl "bookshelf/internal/lib/logger/sl"
	"bookshelf/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type EmailSender interface {
	SendVerificationEmail(ctx context.Context, user models.UserPrivate) error
}

// New sends a fresh verification link to the user of the current session.
func New(log *slog.Logger, sender EmailSender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verificationemail.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, ok := mwSession.FromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Unauthorized"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := sender.SendVerificationEmail(ctx, id.User); err != nil {
			if errors.Is(err, auth.ErrAlreadyVerified) {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.Error("Account already verified"))

				return
			}

			log.Error("failed to send verification email", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, resp.OK())
	}
}
