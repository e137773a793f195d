// Package session resolves the session cookie of a request into the user it belongs to.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	resp "bookshelf/internal/lib/api/response"
	sl "bookshelf/internal/lib/logger/sl"
	"bookshelf/internal/lib/token"
	"bookshelf/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Getter interface {
	Get(ctx context.Context, token string) (*models.UserPrivate, error)
}

// Identity is the authenticated side of a request.
type Identity struct {
	User  models.UserPrivate
	Token string
}

type ctxKey struct{}

// Cookies writes and reads the signed session cookie.
type Cookies struct {
	Name   string
	Secret string
	Secure bool
	// MaxAge of persistent cookies.
	MaxAge time.Duration
}

// New returns a middleware that puts the Identity of a valid session into the request context.
// Requests without one pass through as anonymous. A store failure ends the request with 500.
func New(log *slog.Logger, store Getter, cookies Cookies) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		log := log.With(
			slog.String("component", "middleware/session"),
		)

		log.Info("session middleware enabled", slog.String("cookie", cookies.Name))

		fn := func(w http.ResponseWriter, r *http.Request) {
			tok, ok := cookies.token(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := store.Get(r.Context(), tok)
			if err != nil {
				log.Error("failed to load session",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					sl.Err(err),
				)

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))

				return
			}

			if user == nil {
				cookies.ClearCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithIdentity(r.Context(), Identity{User: *user, Token: tok})
			next.ServeHTTP(w, r.WithContext(ctx))
		}

		return http.HandlerFunc(fn)
	}
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the Identity stored by the middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// RequireAuthenticated rejects anonymous requests with 401.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Unauthorized"))

			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAnonymous rejects authenticated requests with 403.
func RequireAnonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); ok {
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, resp.Error("Forbidden"))

			return
		}

		next.ServeHTTP(w, r)
	})
}

// SetCookie writes the signed token. A non-persistent cookie lives as long as the browser session.
func (c Cookies) SetCookie(w http.ResponseWriter, tok string, persistent bool) error {
	signed, err := token.Sign(tok, c.Secret)
	if err != nil {
		return err
	}

	cookie := c.base()
	cookie.Value = signed

	if persistent {
		cookie.MaxAge = int(c.MaxAge.Seconds())
		cookie.Expires = time.Now().Add(c.MaxAge)
	}

	http.SetCookie(w, cookie)

	return nil
}

func (c Cookies) ClearCookie(w http.ResponseWriter) {
	cookie := c.base()
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)

	http.SetCookie(w, cookie)
}

func (c Cookies) token(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(c.Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	if !token.Verify(cookie.Value, c.Secret) {
		return "", false
	}

	return token.Content(cookie.Value), true
}

func (c Cookies) base() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
