package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("ALGOD_WAIT_ROUNDS", "")
	t.Setenv("RATE_LIMIT_PER_MIN", "")

	cfg := Load()

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, uint64(4), cfg.AlgodWaitRounds)
	assert.Equal(t, 100, cfg.RateLimitPerMin)
	assert.Equal(t, 60*time.Second, cfg.UploadTimeout)
	assert.False(t, cfg.EvidenceEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ALGORAND_APP_ID", "1234")
	t.Setenv("ALGOD_WAIT_ROUNDS", "10")
	t.Setenv("RATE_LIMIT_PER_MIN", "not-a-number")
	t.Setenv("UPLOAD_TIMEOUT", "5s")
	t.Setenv("PINATA_API_KEY", "key")
	t.Setenv("PINATA_SECRET_KEY", "secret")

	cfg := Load()

	assert.Equal(t, uint64(1234), cfg.AppID)
	assert.Equal(t, uint64(10), cfg.AlgodWaitRounds)
	assert.Equal(t, 100, cfg.RateLimitPerMin)
	assert.Equal(t, 5*time.Second, cfg.UploadTimeout)
	assert.True(t, cfg.EvidenceEnabled())
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5433", DBSSLMode: "require"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5433 sslmode=require TimeZone=UTC", cfg.DSN())
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{AnalyticsTZ: "Not/AZone"}
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.AnalyticsTZ = "UTC"
	assert.Equal(t, "UTC", cfg.Location().String())
}

func TestAdminGuardEnabled(t *testing.T) {
	assert.False(t, (&Config{}).AdminGuardEnabled())
	assert.True(t, (&Config{JWTSecret: "s"}).AdminGuardEnabled())
	assert.True(t, (&Config{AdminTokenHash: "$2a$10$abc"}).AdminGuardEnabled())
}
