package config

import (
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EmailTransportSMTP     = "smtp"
	EmailTransportRabbitMQ = "rabbitmq"
)

type Config struct {
	Env         string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer  `yaml:"http_server"`
	Postgres    `yaml:"postgres"`
	Redis       `yaml:"redis"`
	RabbitMQ    `yaml:"rabbitmq"`
	Session     `yaml:"session"`
	Application `yaml:"application"`
	Frontend    `yaml:"frontend"`
	Email       `yaml:"email"`
}

// MailSender is the configuration of the email worker, it shares the file with Config.
type MailSender struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	RabbitMQ `yaml:"rabbitmq"`
	Email    `yaml:"email"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"postgres"`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-required:"true"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-required:"true"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env:"POSTGRES_SSLMODE" env-default:"disable"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL"`
	QueueName string `yaml:"queue_name" env:"RABBITMQ_QUEUE" env-default:"verification_emails"`
}

type Session struct {
	Prefix       string `yaml:"prefix" env:"SESSION_PREFIX" env-default:"session"`
	CookieName   string `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" env-default:"session"`
	CookieSecret string `yaml:"cookie_secret" env:"COOKIE_SECRET" env-required:"true"`
	// Expiration applies to remembered sessions, TempExpiration to the others.
	Expiration     time.Duration `yaml:"expiration" env:"SESSION_EXPIRATION" env-default:"720h"`
	TempExpiration time.Duration `yaml:"temp_expiration" env:"SESSION_TEMP_EXPIRATION" env-default:"24h"`
	Secure         bool          `yaml:"secure" env:"SESSION_COOKIE_SECURE" env-default:"true"`
}

type Application struct {
	HS256Secret string        `yaml:"hs256_secret" env:"HS256_SECRET" env-required:"true"`
	OTPTTL      time.Duration `yaml:"otp_ttl" env:"OTP_TTL" env-default:"10m"`
}

type Frontend struct {
	URL string `yaml:"url" env:"FRONTEND_URL" env-default:"http://localhost:3000"`
}

type Email struct {
	Transport string `yaml:"transport" env:"EMAIL_TRANSPORT" env-default:"rabbitmq"`
	Host      string `yaml:"host" env:"SMTP_HOST"`
	Port      int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username  string `yaml:"username" env:"SMTP_USERNAME"`
	Password  string `yaml:"password" env:"SMTP_PASSWORD"`
	From      string `yaml:"from" env:"SMTP_FROM" env-default:"no-reply@hibooks.xyz"`
}

// MustLoad reads the config file named by the -config flag or CONFIG_PATH,
// falling back to ./config/config.yaml.
func MustLoad() *Config {
	return MustLoadPath(fetchConfigPath())
}

func MustLoadPath(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

func Load(configPath string) (*Config, error) {
	var cfg Config

	if err := read(configPath, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoadMailSender() *MailSender {
	cfg, err := LoadMailSender(fetchConfigPath())
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

func LoadMailSender(configPath string) (*MailSender, error) {
	var cfg MailSender

	if err := read(configPath, &cfg); err != nil {
		return nil, err
	}

	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("rabbitmq.url is required")
	}
	if cfg.Email.Host == "" {
		return nil, fmt.Errorf("email.host is required")
	}

	return &cfg, nil
}

func read(configPath string, cfg any) error {
	// .env is optional, values already present in the environment win.
	_ = godotenv.Load()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	return nil
}

func (c *Config) validate() error {
	switch c.Email.Transport {
	case EmailTransportSMTP:
		if c.Email.Host == "" {
			return fmt.Errorf("email.host is required for the %q transport", EmailTransportSMTP)
		}
	case EmailTransportRabbitMQ:
		if c.RabbitMQ.URL == "" {
			return fmt.Errorf("rabbitmq.url is required for the %q transport", EmailTransportRabbitMQ)
		}
	default:
		return fmt.Errorf("unknown email transport %q", c.Email.Transport)
	}

	if c.Session.TempExpiration <= 0 || c.Session.Expiration <= 0 {
		return fmt.Errorf("session expirations must be positive")
	}

	return nil
}

// DSN returns the keyword/value connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		p.Host,
		p.Port,
		p.User,
		p.Password,
		p.DBName,
		p.SSLMode,
	)
}

// URL returns the connection string in URL form, as golang-migrate expects it.
func (p Postgres) URL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     p.DBName,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}

	return u.String()
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "./config/config.yaml"
	}

	return res
}
