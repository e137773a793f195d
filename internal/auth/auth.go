package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sl "bookshelf/internal/lib/logger/sl"
	"bookshelf/internal/models"
	"bookshelf/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrOTPInvalidOrExpired = errors.New("one-time password is invalid or expired")
	ErrAlreadyVerified     = errors.New("account already verified")
)

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	sessions    SessionStore
	verifier    Verifier
	bcryptCost  int
}

type UserSaver interface {
	SaveUser(ctx context.Context, email string, username string, passHash []byte) (models.User, error)
	SetVerified(ctx context.Context, userID int64) error
}

type UserProvider interface {
	UserByUsername(ctx context.Context, username string) (models.User, error)
}

type SessionStore interface {
	Create(ctx context.Context, user models.UserPrivate, rememberMe bool) (string, error)
	Update(ctx context.Context, token string, user models.UserPrivate) error
	Destroy(ctx context.Context, token string) error
}

type Verifier interface {
	SendVerificationEmail(ctx context.Context, user models.UserPrivate) error
	ResolveOneTimePassword(ctx context.Context, signedOTP string) (int64, bool, error)
}

// New creates the auth service. Production code passes bcrypt.DefaultCost.
func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	sessions SessionStore,
	verifier Verifier,
	bcryptCost int,
) *Auth {
	return &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		sessions:    sessions,
		verifier:    verifier,
		bcryptCost:  bcryptCost,
	}
}

// * Login проверяет учетные данные и открывает сессию
func (a *Auth) Login(
	ctx context.Context,
	username, password string,
	rememberMe bool,
) (models.UserPrivate, string, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return models.UserPrivate{}, "", storage.ErrUserNotFound
		}

		log.Error("failed to get user", sl.Err(err))
		return models.UserPrivate{}, "", fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		log.Info("invalid credentials", slog.Int64("uid", user.ID))
		return models.UserPrivate{}, "", ErrInvalidCredentials
	}

	private := user.Private()

	token, err := a.sessions.Create(ctx, private, rememberMe)
	if err != nil {
		log.Error("failed to create session", sl.Err(err))
		return models.UserPrivate{}, "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.Int64("uid", user.ID))

	return private, token, nil
}

// * SignUp создает неподтвержденного пользователя, отправляет письмо и открывает долгую сессию
func (a *Auth) SignUp(
	ctx context.Context,
	email string,
	username string,
	pass string,
) (models.UserPrivate, string, error) {
	const op = "auth.SignUp"

	log := a.log.With(
		slog.String("op", op),
	)

	log.Info("registering new user")

	passHash, err := bcrypt.GenerateFromPassword([]byte(pass), a.bcryptCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return models.UserPrivate{}, "", fmt.Errorf("%s: %w", op, err)
	}

	user, err := a.usrSaver.SaveUser(ctx, email, username, passHash)
	if err != nil {
		var dupErr *storage.DuplicateFieldError
		if errors.As(err, &dupErr) {
			log.Warn("user already exists", slog.String("field", dupErr.Field))

			return models.UserPrivate{}, "", dupErr
		}

		log.Error("failed to save user", sl.Err(err))

		return models.UserPrivate{}, "", fmt.Errorf("%s: %w", op, err)
	}

	private := user.Private()

	if err := a.verifier.SendVerificationEmail(ctx, private); err != nil {
		log.Error("failed to send verification email", sl.Err(err))

		return models.UserPrivate{}, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := a.sessions.Create(ctx, private, true)
	if err != nil {
		log.Error("failed to create session", sl.Err(err))

		return models.UserPrivate{}, "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.Int64("uid", user.ID))

	return private, token, nil
}

// VerifyAccount consumes signedOTP and marks the current user verified.
// The session under token is rewritten with the verified snapshot.
func (a *Auth) VerifyAccount(
	ctx context.Context,
	current models.UserPrivate,
	token string,
	signedOTP string,
) (models.UserPrivate, error) {
	const op = "auth.VerifyAccount"

	log := a.log.With(
		slog.String("op", op),
		slog.Int64("uid", current.ID),
	)

	userID, ok, err := a.verifier.ResolveOneTimePassword(ctx, signedOTP)
	if err != nil {
		log.Error("failed to resolve one-time password", sl.Err(err))

		return models.UserPrivate{}, fmt.Errorf("%s: %w", op, err)
	}

	if !ok || userID != current.ID {
		log.Warn("one-time password rejected")

		return models.UserPrivate{}, ErrOTPInvalidOrExpired
	}

	if err := a.usrSaver.SetVerified(ctx, current.ID); err != nil {
		log.Error("failed to update verification status", sl.Err(err))

		return models.UserPrivate{}, fmt.Errorf("%s: %w", op, err)
	}

	verified := current
	verified.Verified = true

	if err := a.sessions.Update(ctx, token, verified); err != nil {
		log.Error("failed to update session", sl.Err(err))

		return models.UserPrivate{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("account verified")

	return verified, nil
}

func (a *Auth) Logout(ctx context.Context, token string) error {
	const op = "auth.Logout"

	log := a.log.With(
		slog.String("op", op),
	)

	if err := a.sessions.Destroy(ctx, token); err != nil {
		log.Error("failed to destroy session", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("logout successful")

	return nil
}

func (a *Auth) SendVerificationEmail(ctx context.Context, user models.UserPrivate) error {
	const op = "auth.SendVerificationEmail"

	if user.Verified {
		return ErrAlreadyVerified
	}

	if err := a.verifier.SendVerificationEmail(ctx, user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
