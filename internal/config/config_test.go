package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetConfigDefaults(t *testing.T) {
	cfg := GetConfig()

	assert.Equal(t, time.Minute, cfg.RateLimiter.TimeFrame)
	assert.Equal(t, 1, cfg.Generate.Workers)
	assert.Equal(t, "pdf", cfg.Generate.Format)
	assert.False(t, cfg.IsProduction())
}

func TestGetConfigFromEnv(t *testing.T) {
	t.Setenv("ENV", "Production")
	t.Setenv("GENERATE_WORKERS", "4")
	t.Setenv("GENERATE_ITEM_TIMEOUT", "30s")
	t.Setenv("RATE_LIMIT_TIME_FRAME", "not-a-duration")

	cfg := GetConfig()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 4, cfg.Generate.Workers)
	assert.Equal(t, 30*time.Second, cfg.Generate.ItemTimeout)
	assert.Equal(t, time.Minute, cfg.RateLimiter.TimeFrame)
}

func TestRabbitMQConnectionString(t *testing.T) {
	r := RabbitMQConfig{HOST: "mq", PORT: "5672", USERNAME: "user", PASSWORD: "pass", VHOST: "/certs"}
	assert.Equal(t, "amqp://user:pass@mq:5672/certs", r.GetConnectionString())
}
