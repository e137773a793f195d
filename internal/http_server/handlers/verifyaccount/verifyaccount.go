package verifyaccount

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
	"github.com/go-playground/validator/v10"
)

type Request struct {
	OTP string `json:"otp" validate:"required,otp"`
}

type Verifier interface {
	VerifyAccount(ctx context.Context, current models.UserPrivate, token, signedOTP string) (models.UserPrivate, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	verifier Verifier,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verifyaccount.New"

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

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
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

		if _, err := verifier.VerifyAccount(ctx, id.User, id.Token, req.OTP); err != nil {
			if errors.Is(err, auth.ErrOTPInvalidOrExpired) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Invalid or expired OTP"))

				return
			}

			log.Error("failed to verify account", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("account verified", slog.Int64("uid", id.User.ID))

		render.JSON(w, r, resp.OK())
	}
}
