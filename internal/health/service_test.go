package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tracker-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping() error { return s.err }

type stubFeed struct{ connected bool }

func (s stubFeed) IsConnected() bool { return s.connected }

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCollectHealth_NoDependencies(t *testing.T) {
	result := CollectHealth(context.Background(), nil, nil, nil, "")

	assert.Equal(t, "issue", result.Status)
	assert.Equal(t, "disconnected", result.Dependencies["database"].Status)
	assert.Equal(t, "disconnected", result.Dependencies["redis"].Status)
	assert.Equal(t, "unreachable", result.Dependencies["market_data"].Status)
	assert.Equal(t, "disconnected", result.Dependencies["feed"].Status)
}

func TestCollectHealth_AllConnected(t *testing.T) {
	_, rdb := setupRedis(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := CollectHealth(context.Background(), rdb, stubPinger{}, stubFeed{connected: true}, srv.URL)

	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "connected", result.Dependencies["database"].Status)
	assert.Equal(t, "connected", result.Dependencies["redis"].Status)
	assert.Equal(t, "reachable", result.Dependencies["market_data"].Status)
	assert.Equal(t, "connected", result.Dependencies["feed"].Status)
	assert.NotEmpty(t, result.Runtime.GoVersion)
}

func TestCollectHealth_DBError(t *testing.T) {
	_, rdb := setupRedis(t)

	result := CollectHealth(context.Background(), rdb, stubPinger{err: errors.New("down")}, nil, "")

	assert.Equal(t, "issue", result.Status)
	assert.Equal(t, "error", result.Dependencies["database"].Status)
}

func TestCollectHealth_DisconnectedFeedDoesNotFlipStatus(t *testing.T) {
	_, rdb := setupRedis(t)

	result := CollectHealth(context.Background(), rdb, stubPinger{}, stubFeed{connected: false}, "")

	assert.Equal(t, "ok", result.Status, "a reconnecting feed degrades freshness, not health")
	assert.Equal(t, "disconnected", result.Dependencies["feed"].Status)
}

func TestCollectHealth_TrafficStats(t *testing.T) {
	mr, rdb := setupRedis(t)
	mr.Set(middleware.KeyReqTotal, "10")
	mr.Set(middleware.KeyReqErrors, "2")
	mr.Set(middleware.KeyResTime, "500")
	mr.Set(middleware.KeyResCount, "10")

	result := CollectHealth(context.Background(), rdb, nil, nil, "")

	assert.Equal(t, 10, result.Traffic.TotalRequests)
	assert.Equal(t, 2, result.Traffic.FailedCount)
	assert.Equal(t, 8, result.Traffic.SuccessCount)
	assert.Equal(t, "80.0", result.Traffic.SuccessRate)
	assert.Equal(t, "50.00", result.Traffic.AvgResponseTime)
}

func TestCollectHealth_SeedsStartTime(t *testing.T) {
	mr, rdb := setupRedis(t)

	result := CollectHealth(context.Background(), rdb, nil, nil, "")
	require.True(t, mr.Exists(middleware.KeyStartTime), "first collection records the start time")
	assert.GreaterOrEqual(t, result.Runtime.UptimeSeconds, int64(0))
}
