package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookshelf/internal/auth"
	"bookshelf/internal/config"
	"bookshelf/internal/http_server/handlers/books"
	"bookshelf/internal/http_server/handlers/health"
	"bookshelf/internal/http_server/handlers/login"
	"bookshelf/internal/http_server/handlers/logout"
	"bookshelf/internal/http_server/handlers/me"
	"bookshelf/internal/http_server/handlers/signup"
	"bookshelf/internal/http_server/handlers/users"
	"bookshelf/internal/http_server/handlers/verificationemail"
	"bookshelf/internal/http_server/handlers/verifyaccount"
	mwLogger "bookshelf/internal/http_server/middleware/logger"
	mwSession "bookshelf/internal/http_server/middleware/session"
	"bookshelf/internal/lib/api/validate"
	sl "bookshelf/internal/lib/logger/sl"
	"bookshelf/internal/lib/verification"
	"bookshelf/internal/mailer"
	rateLimit "bookshelf/internal/middleware/ratelimit"
	"bookshelf/internal/rabbitmq"
	"bookshelf/internal/session"
	"bookshelf/internal/storage/postgres"
	"bookshelf/internal/storage/redis"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"golang.org/x/crypto/bcrypt"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

type emailSender interface {
	verification.Sender
	Close()
}

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting bookshelf", slog.String("env", cfg.Env))
	log.Debug("debug messages are enabled")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := postgres.Migrate(cfg.Postgres.URL()); err != nil {
		log.Error("failed to apply migrations", sl.Err(err))
		os.Exit(1)
	}

	pg, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer pg.Close()

	rdb, err := redis.New(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Error("failed to connect redis", sl.Err(err))
		os.Exit(1)
	}
	defer rdb.Close()

	sender, err := setupEmailSender(cfg)
	if err != nil {
		log.Error("failed to init email transport", sl.Err(err))
		os.Exit(1)
	}
	defer sender.Close()

	sessions := session.New(log, rdb, cfg.Session.Prefix, cfg.Session.Expiration, cfg.Session.TempExpiration)

	verifier := verification.New(
		log,
		rdb,
		sender,
		cfg.Application.HS256Secret,
		cfg.Frontend.URL,
		cfg.Application.OTPTTL,
	)

	authService := auth.New(log, pg, pg, sessions, verifier, bcrypt.DefaultCost)

	cookies := mwSession.Cookies{
		Name:   cfg.Session.CookieName,
		Secret: cfg.Session.CookieSecret,
		Secure: cfg.Session.Secure,
		MaxAge: cfg.Session.Expiration,
	}

	router := setupRouter(log, authService, sessions, pg, cookies)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", sl.Err(err))
	} else {
		log.Info("server stopped gracefully")
	}
}

// * письма уходят либо в очередь для mail_sender, либо напрямую по SMTP
func setupEmailSender(cfg *config.Config) (emailSender, error) {
	switch cfg.Email.Transport {
	case config.EmailTransportSMTP:
		return &smtpSender{Mailer: &mailer.Mailer{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		}}, nil
	default:
		return rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	}
}

type smtpSender struct {
	*mailer.Mailer
}

func (smtpSender) Close() {}

func setupRouter(
	log *slog.Logger,
	authService *auth.Auth,
	sessions *session.Store,
	pg *postgres.PostgresRepo,
	cookies mwSession.Cookies,
) *chi.Mux {
	validator := validate.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mwLogger.New(log))
	r.Use(middleware.Recoverer)
	r.Use(mwSession.New(log, sessions, cookies))

	r.Get("/health", health.New())

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mwSession.RequireAnonymous)

			r.With(rateLimit.Login()).Post("/login", login.New(log, validator, authService, cookies))
			r.With(rateLimit.SignUp()).Post("/sign-up", signup.New(log, validator, authService, cookies))
		})

		r.Group(func(r chi.Router) {
			r.Use(mwSession.RequireAuthenticated)

			r.Get("/me", me.New())
			r.With(rateLimit.Logout()).Post("/logout", logout.New(log, authService, cookies))
			r.With(rateLimit.VerificationEmail()).Post("/verification-email", verificationemail.New(log, authService))
			r.With(rateLimit.VerifyAccount()).Post("/verify-account", verifyaccount.New(log, validator, authService))
		})
	})

	r.Get("/books", books.List(log, pg))
	r.Get("/books/{id}", books.Get(log, pg))
	r.Get("/users/{id}", users.Get(log, pg))

	return r
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
