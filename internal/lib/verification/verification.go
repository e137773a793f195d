// Package verification issues and resolves the one-time passwords
// that prove a user owns the email address they signed up with.
package verification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"
	"time"

	sl "bookshelf/internal/lib/logger/sl"
	"bookshelf/internal/lib/token"
	"bookshelf/internal/models"
	"bookshelf/internal/storage"
)

const (
	KeyPrefix = "email:verification"
	Purpose   = "email_verification"
	Subject   = "Verify your account"
)

type Sender interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

type Repository interface {
	SetOneTimePassword(ctx context.Context, key string, userID int64, ttl time.Duration) error
	ConsumeOneTimePassword(ctx context.Context, key string) (int64, error)
}

type Service struct {
	log         *slog.Logger
	repo        Repository
	sender      Sender
	secret      string
	frontendURL string
	ttl         time.Duration
}

func New(
	log *slog.Logger,
	repo Repository,
	sender Sender,
	secret string,
	frontendURL string,
	ttl time.Duration,
) *Service {
	return &Service{
		log:         log,
		repo:        repo,
		sender:      sender,
		secret:      secret,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		ttl:         ttl,
	}
}

var htmlBody = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Hello {{.Username}},</p>
<p>Thanks for signing up. Please confirm your email address by following the link below.</p>
<p><a href="{{.Link}}">Verify my account</a></p>
<p>The link expires in {{.TTL}}. If you did not create an account, ignore this email.</p>
</body>
</html>`))

const textBody = `Hello %s,

Thanks for signing up. Please confirm your email address by opening the link below:

%s

The link expires in %s. If you did not create an account, ignore this email.
`

type bodyData struct {
	Username string
	Link     string
	TTL      string
}

// SendVerificationEmail stores a fresh one-time password for the user and emails a link carrying it.
func (s *Service) SendVerificationEmail(ctx context.Context, user models.UserPrivate) error {
	const op = "verification.SendVerificationEmail"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("uid", user.ID),
	)

	otpID := token.GenerateSecureID()

	if err := s.repo.SetOneTimePassword(ctx, key(otpID), user.ID, s.ttl); err != nil {
		log.Error("failed to store one-time password", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	signed, err := token.Sign(otpID, s.secret)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	link := s.frontendURL + "/verify-account?" + url.Values{"otp": {signed}}.Encode()

	msg, err := s.message(user, link)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.sender.SendMessage(ctx, msg); err != nil {
		log.Error("failed to send verification email", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("verification email sent")

	return nil
}

// ResolveOneTimePassword checks the signature of signedOTP and consumes the password it carries.
// ok is false when the signature is wrong or the password is unknown, expired or already used.
func (s *Service) ResolveOneTimePassword(ctx context.Context, signedOTP string) (int64, bool, error) {
	const op = "verification.ResolveOneTimePassword"

	if !token.Verify(signedOTP, s.secret) {
		return 0, false, nil
	}

	userID, err := s.repo.ConsumeOneTimePassword(ctx, key(token.Content(signedOTP)))
	if err != nil {
		if errors.Is(err, storage.ErrOTPNotFound) {
			return 0, false, nil
		}

		return 0, false, fmt.Errorf("%s: %w", op, err)
	}

	return userID, true, nil
}

func (s *Service) message(user models.UserPrivate, link string) (models.Message, error) {
	data := bodyData{
		Username: user.Username,
		Link:     link,
		TTL:      s.ttl.String(),
	}

	var html bytes.Buffer
	if err := htmlBody.Execute(&html, data); err != nil {
		return models.Message{}, err
	}

	return models.Message{
		Email:   user.Email,
		Subject: Subject,
		Link:    link,
		HTML:    html.String(),
		Text:    fmt.Sprintf(textBody, data.Username, data.Link, data.TTL),
		Purpose: Purpose,
	}, nil
}

func key(otpID string) string {
	return KeyPrefix + ":" + otpID
}
