package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"dogwalk/internal/config"
	"dogwalk/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	r := NewRouter(RouterDeps{Logger: logging.Discard()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.Contains(w.Body.String(), "dogwalk_bookings_created_total"))
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: mr.Addr()}, nil)
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())

	_, err = NewRedisClient(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"}, nil)
	require.Error(t, err)
}

func TestCollectionOf(t *testing.T) {
	ctx := context.Background()
	require.Equal(t, "lock", collectionOf(redis.NewStatusCmd(ctx, "set", "lock:booking:b1", "1")))
	require.Equal(t, "plain", collectionOf(redis.NewStringCmd(ctx, "get", "plain")))
	require.Equal(t, "redis", collectionOf(redis.NewStatusCmd(ctx, "ping")))
}

func TestNewMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()
	require.NotNil(t, s.Transactor)
	require.NotNil(t, s.Bookings)
	require.NotNil(t, s.Locations)
	require.NotNil(t, s.Walkers)
	require.NotNil(t, s.Owners)
	require.NotNil(t, s.Transactions)
	require.NotNil(t, s.Conversations)
}
