package container

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/feedback-hub/config"
	"github.com/oksasatya/feedback-hub/internal/application"
	"github.com/oksasatya/feedback-hub/internal/infrastructure/redisstore"
	"github.com/oksasatya/feedback-hub/internal/infrastructure/treestore"
	"github.com/oksasatya/feedback-hub/internal/testutil"
)

func testConfig(driver string) *config.Config {
	return &config.Config{
		AppName:             "feedback-hub",
		StoreDriver:         driver,
		StoreKeyPrefix:      "tree:",
		StoreOpTimeout:      time.Second,
		StoreTxnMaxAttempts: 10,
		JWTAccessSecret:     "a",
		JWTRefreshSecret:    "r",
		AccessTTL:           time.Minute,
		RefreshTTL:          time.Hour,
	}
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()
	logger := testutil.QuietLogger()

	b, release, err := OpenBackend(ctx, testConfig(config.StoreMemory), nil, logger)
	require.NoError(t, err)
	release()
	assert.IsType(t, &treestore.MemoryBackend{}, b)

	_, _, err = OpenBackend(ctx, testConfig(config.StoreRedis), nil, logger)
	assert.Error(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	b, release, err = OpenBackend(ctx, testConfig(config.StoreRedis), rdb, logger)
	require.NoError(t, err)
	release()
	assert.IsType(t, &redisstore.TreeBackend{}, b)
}

func TestNew_OptionalFeatures(t *testing.T) {
	c := New(testConfig(config.StoreMemory), testutil.QuietLogger(), Infra{Backend: treestore.NewMemoryBackend()})
	defer func() { _ = c.Close() }()

	assert.NotNil(t, c.UserService)
	assert.NotNil(t, c.FeedbackService)
	assert.Nil(t, c.AuthService)
	assert.Nil(t, c.SnapshotService)

	u, err := c.UserService.CreateUser(context.Background(), application.CreateUserInput{
		Email: "a@b.com", Name: "A", PhoneNumber: "+15550100", Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.UserID)
}

func TestNew_WithRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	c := New(testConfig(config.StoreMemory), testutil.QuietLogger(), Infra{Backend: treestore.NewMemoryBackend(), Redis: rdb})
	assert.NotNil(t, c.AuthService)
}
