package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("SESSION_TTL", "")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "invitide.events.deleted", cfg.Kafka.Topics.EventDeleted)
	assert.Len(t, cfg.Kafka.Topics.All(), 4)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("PUBLIC_BASE_URL", "https://invitide.app/")

	cfg := Load()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 90*time.Minute, cfg.Auth.SessionTTL)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "https://invitide.app", cfg.Server.PublicBaseURL)
}

func TestServerLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, ServerConfig{TimeZone: "Nowhere/Atlantis"}.Location())
	assert.Equal(t, "UTC", ServerConfig{TimeZone: "UTC"}.Location().String())
}
