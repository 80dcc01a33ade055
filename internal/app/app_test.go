package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"motorent/internal/config"
	"motorent/internal/jobs"
	"motorent/internal/tests"
)

func redisConfig(addr string) config.RedisConfig {
	return config.RedisConfig{
		Addr:         addr,
		PoolSize:     4,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
}

func TestNewRedisClient_Connects(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), redisConfig(mr.Addr()), nil)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 4, client.Options().PoolSize)
	require.NoError(t, client.Set(context.Background(), "lock:booking:b1", "1", time.Second).Err())
	assert.True(t, mr.Exists("lock:booking:b1"))
}

func TestNewRedisClient_UnreachableServer(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client, err := NewRedisClient(context.Background(), redisConfig(addr), nil)
	assert.Nil(t, client)
	assert.ErrorContains(t, err, "failed to ping redis")
}

func TestKeyNamespace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cases := []struct {
		name string
		cmd  redis.Cmder
		want string
	}{
		{"booking lock", redis.NewBoolCmd(ctx, "setnx", "lock:booking:b1", "1"), "lock"},
		{"rate cache", redis.NewStringCmd(ctx, "get", "cache:motorcycle:m1"), "cache"},
		{"idempotency", redis.NewStringCmd(ctx, "get", "idempotency:c1:POST:/v1/bookings/orders:k"), "idempotency"},
		{"unprefixed key", redis.NewStringCmd(ctx, "get", "plain"), "redis"},
		{"no key", redis.NewStatusCmd(ctx, "ping"), "redis"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, keyNamespace(tt.cmd))
		})
	}
}

func TestNewLogger_JSONFormat(t *testing.T) {
	t.Parallel()

	logger := NewLogger(config.LogConfig{Level: "debug", Format: "json"})
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	logger.WithField("booking_id", "b1").Debug("booking confirmed")

	line := buf.String()
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.Equal(t, "booking confirmed", gjson.Get(line, "message").String())
	assert.Equal(t, "debug", gjson.Get(line, "level").String())
	assert.Equal(t, "b1", gjson.Get(line, "booking_id").String())
	assert.True(t, gjson.Get(line, "timestamp").Exists())
}

func TestNewLogger_TextFormatAndBadLevel(t *testing.T) {
	t.Parallel()

	logger := NewLogger(config.LogConfig{Level: "loud", Format: "text"})

	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestNewProducer_DisabledWithoutAddress(t *testing.T) {
	t.Parallel()

	producer, err := NewProducer(config.NSQConfig{}, logrus.New())
	assert.NoError(t, err)
	assert.Nil(t, producer)
}

func TestNewScheduler_RegistersMaintenanceJobs(t *testing.T) {
	t.Parallel()

	h := tests.NewHarness()
	runner := jobs.NewRunner(h.Carts, h.BookingSvc, nil, jobs.Config{
		CartPruneInterval:    time.Hour,
		CartItemStaleAfter:   24 * time.Hour,
		PendingSweepInterval: 15 * time.Minute,
		PendingStaleAfter:    2 * time.Hour,
	}, h.Logger)

	sched, err := NewScheduler(runner, h.Logger)
	require.NoError(t, err)
	defer func() { _ = sched.Shutdown() }()

	var names []string
	for _, job := range sched.Jobs() {
		names = append(names, job.Name())
	}
	assert.ElementsMatch(t, []string{"prune-stale-cart-items", "sweep-stale-pending-bookings"}, names)
}

func TestGocronLogger_FieldsFromArgs(t *testing.T) {
	t.Parallel()

	logger := logrus.New()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	gocronLogger{entry: logrus.NewEntry(logger)}.Error("job failed", "name", "prune-stale-cart-items", "dangling")

	line := buf.String()
	assert.Equal(t, "job failed", gjson.Get(line, "msg").String())
	assert.Equal(t, "prune-stale-cart-items", gjson.Get(line, "name").String())
	assert.False(t, gjson.Get(line, "dangling").Exists())
}
