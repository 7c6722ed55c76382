package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/SeakMengs/certportal/internal/env"
)

type Config struct {
	Port        string
	ENV         string
	FrontendURL string
	DB          DatabaseConfig
	Minio       MinioConfig
	RabbitMQ    RabbitMQConfig
	Redis       RedisConfig
	RateLimiter RateLimiterConfig
	Mail        MailConfig
	Auth        AuthConfig
	Generate    GenerateConfig
}

type RateLimiterConfig struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
	// Stricter limit applied to the public search and email endpoints
	PublicRequestsPerTimeFrame int
}

type AuthConfig struct {
	JWT_SECRET          string
	ADMIN_EMAIL         string
	ADMIN_PASSWORD_HASH string
}

type DatabaseConfig struct {
	DB_HOST      string
	DB_PORT      string
	DB_DATABASE  string
	DB_USERNAME  string
	DB_PASSWORD  string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  string
}

type MinioConfig struct {
	ENDPOINT   string
	ACCESS_KEY string
	SECRET_KEY string
	BUCKET     string
	USE_SSL    bool
	// Base URL used to build public object links, e.g. a CDN in front of the bucket.
	// Defaults to the minio endpoint when empty.
	PUBLIC_URL string
}

type RabbitMQConfig struct {
	HOST     string
	PORT     string
	USERNAME string
	PASSWORD string
	VHOST    string
	// When disabled, async generation and queued mail fall back to running inline
	Enabled bool
}

func (r RabbitMQConfig) GetConnectionString() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/%s", r.USERNAME, r.PASSWORD, r.HOST, r.PORT, strings.TrimPrefix(r.VHOST, "/"))
}

type RedisConfig struct {
	ADDR     string
	PASSWORD string
	DB       int
	Enabled  bool
}

type MailConfig struct {
	// sendgrid or smtp
	PROVIDER   string
	FROM_EMAIL string
	SEND_GRID  SendGridConfig
	SMTP       SMTPConfig
}

type SendGridConfig struct {
	API_KEY string
}

type SMTPConfig struct {
	HOST     string
	PORT     int
	USERNAME string
	PASSWORD string
}

type GenerateConfig struct {
	Workers          int
	ItemTimeout      time.Duration
	JobTimeout       time.Duration
	Format           string
	ShrinkToFit      bool
	FontMetadataPath string
	// Empty disables the verification QR code on certificates
	QRURLPattern string
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.ENV, "production")
}

func GetConfig() Config {
	return Config{
		Port:        env.GetString("PORT", "8080"),
		ENV:         env.GetString("ENV", "development"),
		FrontendURL: env.GetString("FRONTEND_URL", "http://localhost:3000"),
		DB: DatabaseConfig{
			DB_HOST:      env.GetString("DB_HOST", "127.0.0.1"),
			DB_PORT:      env.GetString("DB_PORT", "5432"),
			DB_USERNAME:  env.GetString("DB_USERNAME", "root"),
			DB_PASSWORD:  env.GetString("DB_PASSWORD", ""),
			DB_DATABASE:  env.GetString("DB_DATABASE", "certportal"),
			MaxOpenConns: env.GetInt("DB_MAX_OPEN_CONNS", 30),
			MaxIdleConns: env.GetInt("DB_MAX_IDLE_CONNS", 30),
			MaxIdleTime:  env.GetString("DB_MAX_IDLE_TIME", "15m"),
		},
		Minio: MinioConfig{
			ENDPOINT:   env.GetString("MINIO_ENDPOINT", "127.0.0.1:9000"),
			ACCESS_KEY: env.GetString("MINIO_ACCESS_KEY", ""),
			SECRET_KEY: env.GetString("MINIO_SECRET_KEY", ""),
			BUCKET:     env.GetString("MINIO_BUCKET", "certificates"),
			USE_SSL:    env.GetBool("MINIO_USE_SSL", false),
			PUBLIC_URL: env.GetString("MINIO_PUBLIC_URL", ""),
		},
		RabbitMQ: RabbitMQConfig{
			HOST:     env.GetString("RABBITMQ_HOST", "127.0.0.1"),
			PORT:     env.GetString("RABBITMQ_PORT", "5672"),
			USERNAME: env.GetString("RABBITMQ_USERNAME", "guest"),
			PASSWORD: env.GetString("RABBITMQ_PASSWORD", "guest"),
			VHOST:    env.GetString("RABBITMQ_VHOST", ""),
			Enabled:  env.GetBool("RABBITMQ_ENABLED", false),
		},
		Redis: RedisConfig{
			ADDR:     env.GetString("REDIS_ADDR", "127.0.0.1:6379"),
			PASSWORD: env.GetString("REDIS_PASSWORD", ""),
			DB:       env.GetInt("REDIS_DB", 0),
			Enabled:  env.GetBool("REDIS_ENABLED", false),
		},
		// By default if not specified, we allow 5000 requests per minute on all routes
		RateLimiter: RateLimiterConfig{
			RequestsPerTimeFrame:       env.GetInt("RATE_LIMIT_REQUESTS_PER_TIME_FRAME", 5000),
			TimeFrame:                  env.GetDuration("RATE_LIMIT_TIME_FRAME", time.Minute),
			Enabled:                    env.GetBool("RATE_LIMIT_ENABLED", true),
			PublicRequestsPerTimeFrame: env.GetInt("RATE_LIMIT_PUBLIC_REQUESTS_PER_TIME_FRAME", 30),
		},
		Mail: MailConfig{
			PROVIDER:   env.GetString("MAIL_PROVIDER", "smtp"),
			FROM_EMAIL: env.GetString("MAIL_FROM_MAIL", ""),
			SEND_GRID: SendGridConfig{
				API_KEY: env.GetString("MAIL_SEND_GRID_API_KEY", ""),
			},
			SMTP: SMTPConfig{
				HOST:     env.GetString("MAIL_SMTP_HOST", "smtp.gmail.com"),
				PORT:     env.GetInt("MAIL_SMTP_PORT", 587),
				USERNAME: env.GetString("MAIL_SMTP_USERNAME", ""),
				PASSWORD: env.GetString("MAIL_SMTP_PASSWORD", ""),
			},
		},
		Auth: AuthConfig{
			JWT_SECRET:          env.GetString("AUTH_JWT_SECRET", ""),
			ADMIN_EMAIL:         env.GetString("AUTH_ADMIN_EMAIL", ""),
			ADMIN_PASSWORD_HASH: env.GetString("AUTH_ADMIN_PASSWORD_HASH", ""),
		},
		Generate: GenerateConfig{
			Workers:          env.GetInt("GENERATE_WORKERS", 1),
			ItemTimeout:      env.GetDuration("GENERATE_ITEM_TIMEOUT", 0),
			JobTimeout:       env.GetDuration("GENERATE_JOB_TIMEOUT", 30*time.Minute),
			Format:           env.GetString("GENERATE_FORMAT", "pdf"),
			ShrinkToFit:      env.GetBool("GENERATE_SHRINK_TO_FIT", false),
			FontMetadataPath: env.GetString("GENERATE_FONT_METADATA_PATH", "font_metadata.json"),
			QRURLPattern:     env.GetString("GENERATE_QR_URL_PATTERN", ""),
		},
	}
}
