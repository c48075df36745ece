package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv_FallsBackWhenUnset(t *testing.T) {
	t.Setenv("NH_TEST_STR", "")
	assert.Equal(t, "fallback", GetEnv("NH_TEST_STR", "fallback"))

	t.Setenv("NH_TEST_STR", "present")
	assert.Equal(t, "present", GetEnv("NH_TEST_STR", "fallback"))
}

func TestGetIntEnv_FallsBackOnMissingOrUnparseable(t *testing.T) {
	t.Setenv("NH_TEST_INT", "")
	assert.Equal(t, 42, GetIntEnv("NH_TEST_INT", 42))

	t.Setenv("NH_TEST_INT", "not-a-number")
	assert.Equal(t, 42, GetIntEnv("NH_TEST_INT", 42))

	t.Setenv("NH_TEST_INT", "17")
	assert.Equal(t, 17, GetIntEnv("NH_TEST_INT", 42))
}

func TestGetBoolEnv_FallsBackOnMissingOrUnparseable(t *testing.T) {
	t.Setenv("NH_TEST_BOOL", "")
	assert.True(t, GetBoolEnv("NH_TEST_BOOL", true))

	t.Setenv("NH_TEST_BOOL", "nope")
	assert.True(t, GetBoolEnv("NH_TEST_BOOL", true))

	t.Setenv("NH_TEST_BOOL", "false")
	assert.False(t, GetBoolEnv("NH_TEST_BOOL", true))
}

func TestGetDurationEnv_FallsBackOnMissingOrUnparseable(t *testing.T) {
	t.Setenv("NH_TEST_DUR", "")
	assert.Equal(t, 5*time.Second, GetDurationEnv("NH_TEST_DUR", 5*time.Second))

	t.Setenv("NH_TEST_DUR", "not-a-duration")
	assert.Equal(t, 5*time.Second, GetDurationEnv("NH_TEST_DUR", 5*time.Second))

	t.Setenv("NH_TEST_DUR", "250ms")
	assert.Equal(t, 250*time.Millisecond, GetDurationEnv("NH_TEST_DUR", 5*time.Second))
}

func TestGetFloatEnv_FallsBackOnMissingOrUnparseable(t *testing.T) {
	t.Setenv("NH_TEST_FLOAT", "")
	assert.Equal(t, 2.5, getFloatEnv("NH_TEST_FLOAT", 2.5))

	t.Setenv("NH_TEST_FLOAT", "garbage")
	assert.Equal(t, 2.5, getFloatEnv("NH_TEST_FLOAT", 2.5))

	t.Setenv("NH_TEST_FLOAT", "3.75")
	assert.Equal(t, 3.75, getFloatEnv("NH_TEST_FLOAT", 2.5))
}

func TestValidate_AcceptsSaneDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 8085
	cfg.Retry.MaxRetries = 3
	cfg.Retry.Multiplier = 2.0
	cfg.RateLimit.MaxPerWindow = 100
	cfg.ConsumerPool.WorkersPerChannel = 4

	assert.NoError(t, cfg.validate())
}

func TestValidate_ReportsAllProblemsTogether(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 0
	cfg.Retry.MaxRetries = -1
	cfg.Retry.Multiplier = 1.0
	cfg.RateLimit.MaxPerWindow = 0
	cfg.ConsumerPool.WorkersPerChannel = 0

	err := cfg.validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "NOTIFICATION_SERVICE_PORT")
	assert.Contains(t, err.Error(), "RETRY_MAX_ATTEMPTS")
	assert.Contains(t, err.Error(), "RETRY_MULTIPLIER")
	assert.Contains(t, err.Error(), "RATE_LIMIT_MAX_PER_WINDOW")
	assert.Contains(t, err.Error(), "CONSUMER_WORKERS_PER_CHANNEL")
}

func TestDatabaseDSN_FormatsAllFields(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Host = "db.internal"
	cfg.Database.Port = 5432
	cfg.Database.Username = "notifyhub"
	cfg.Database.Password = "secret"
	cfg.Database.Database = "notifyhub"
	cfg.Database.SSLMode = "disable"

	assert.Equal(t,
		"host=db.internal port=5432 user=notifyhub password=secret dbname=notifyhub sslmode=disable",
		cfg.DatabaseDSN(),
	)
}

func TestRedisAddr_JoinsHostAndPort(t *testing.T) {
	cfg := &Config{}
	cfg.Redis.Host = "redis.internal"
	cfg.Redis.Port = 6380

	assert.Equal(t, "redis.internal:6380", cfg.RedisAddr())
}
