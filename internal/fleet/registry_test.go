package fleet

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	return NewRegistryWithClient(client, time.Minute), mock
}

func TestClaimSetsKeyWithTTL(t *testing.T) {
	reg, mock := newTestRegistry(t)
	mock.ExpectSet("fleet:station:CS-1", "proc-a", time.Minute).SetVal("OK")

	err := reg.Claim(context.Background(), "CS-1", "proc-a")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOwnerHitsLocalCacheAfterClaim(t *testing.T) {
	reg, mock := newTestRegistry(t)
	mock.ExpectSet("fleet:station:CS-2", "proc-b", time.Minute).SetVal("OK")
	require.NoError(t, reg.Claim(context.Background(), "CS-2", "proc-b"))

	owner, err := reg.Owner(context.Background(), "CS-2")
	require.NoError(t, err)
	assert.Equal(t, "proc-b", owner)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOwnerFallsBackToRedisOnCacheMiss(t *testing.T) {
	reg, mock := newTestRegistry(t)
	mock.ExpectGet("fleet:station:CS-3").SetVal("proc-c")

	owner, err := reg.Owner(context.Background(), "CS-3")
	require.NoError(t, err)
	assert.Equal(t, "proc-c", owner)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOwnerPropagatesRedisNilForUnclaimedStation(t *testing.T) {
	reg, mock := newTestRegistry(t)
	mock.ExpectGet("fleet:station:CS-GHOST").RedisNil()

	_, err := reg.Owner(context.Background(), "CS-GHOST")
	assert.ErrorIs(t, err, redis.Nil)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseDeletesKeyAndLocalEntry(t *testing.T) {
	reg, mock := newTestRegistry(t)
	mock.ExpectSet("fleet:station:CS-4", "proc-d", time.Minute).SetVal("OK")
	require.NoError(t, reg.Claim(context.Background(), "CS-4", "proc-d"))

	mock.ExpectDel("fleet:station:CS-4").SetVal(1)
	require.NoError(t, reg.Release(context.Background(), "CS-4"))
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectGet("fleet:station:CS-4").RedisNil()
	_, err := reg.Owner(context.Background(), "CS-4")
	assert.ErrorIs(t, err, redis.Nil)
}
