package logout

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	mwSession "bookshelf/internal/http_server/middleware/session"
	resp "bookshelf/internal/lib/api/response"
	sl "bookshelf/internal/lib/logger/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type SessionCloser interface {
	Logout(ctx context.Context, token string) error
}

type CookieClearer interface {
	ClearCookie(w http.ResponseWriter)
}

func New(
	log *slog.Logger,
	closer SessionCloser,
	cookies CookieClearer,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.logout.New"

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

		if err := closer.Logout(ctx, id.Token); err != nil {
			log.Error("failed to logout", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		cookies.ClearCookie(w)

		log.Info("user logged out", slog.Int64("uid", id.User.ID))

		render.JSON(w, r, resp.OK())
	}
}
