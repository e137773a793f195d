package signup

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	resp "bookshelf/internal/lib/api/response"
	sl "bookshelf/internal/lib/logger/sl"
	"bookshelf/internal/models"
	"bookshelf/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// Password is capped at 72 bytes, bcrypt rejects longer input.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=7,bcryptlen"`
}

type Response struct {
	resp.Response
	models.UserPrivate
}

type Registrar interface {
	SignUp(ctx context.Context, email, username, password string) (models.UserPrivate, string, error)
}

type CookieSetter interface {
	SetCookie(w http.ResponseWriter, token string, persistent bool) error
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	registrar Registrar,
	cookies CookieSetter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.signup.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		req.Username = strings.TrimSpace(req.Username)

		if err := validate.Struct(req); err != nil {
			log.Info("invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.FromValidateErr(err))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, token, err := registrar.SignUp(ctx, req.Email, req.Username, req.Password)
		if err != nil {
			var dupErr *storage.DuplicateFieldError
			if errors.As(err, &dupErr) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.Error(dupErr.Error()))

				return
			}

			log.Error("failed to register user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if err := cookies.SetCookie(w, token, true); err != nil {
			log.Error("failed to set session cookie", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("user registered", slog.Int64("uid", user.ID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response:    resp.OK(),
			UserPrivate: user,
		})
	}
}
