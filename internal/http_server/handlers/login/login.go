package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"bookshelf/internal/auth"
	resp "bookshelf/internal/lib/api/response"
	sl "bookshelf/internal/lib/logger/sl"
	"bookshelf/internal/models"
	"bookshelf/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

type Response struct {
	resp.Response
	models.UserPrivate
}

type Authenticator interface {
	Login(ctx context.Context, username, password string, rememberMe bool) (models.UserPrivate, string, error)
}

type CookieSetter interface {
	SetCookie(w http.ResponseWriter, token string, persistent bool) error
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	authenticator Authenticator,
	cookies CookieSetter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

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

		if err := validate.Struct(req); err != nil {
			log.Info("invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.FromValidateErr(err))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, token, err := authenticator.Login(ctx, req.Username, req.Password, req.RememberMe)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrUserNotFound):
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("User not found"))
			case errors.Is(err, auth.ErrInvalidCredentials):
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Wrong credentials"))
			default:
				log.Error("failed to login user", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		if err := cookies.SetCookie(w, token, req.RememberMe); err != nil {
			log.Error("failed to set session cookie", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("user logged in", slog.Int64("uid", user.ID))

		ResponseOK(w, r, user)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, user models.UserPrivate) {
	render.JSON(w, r, Response{
		Response:    resp.OK(),
		UserPrivate: user,
	})
}
