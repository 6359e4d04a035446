package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedisGuard(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	g := NewRedisGuard(client, time.Minute, zap.NewNop().Sugar())
	ctx := context.Background()

	ok, err := g.Claim(ctx, "CREDIT:14769800001234601")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = g.Claim(ctx, "CREDIT:14769800001234601")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = g.Claim(ctx, "CREDIT:14769800001234602")
	require.NoError(t, err)
	require.True(t, ok)

	g.Release(ctx, "CREDIT:14769800001234601")
	ok, err = g.Claim(ctx, "CREDIT:14769800001234601")
	require.NoError(t, err)
	require.True(t, ok)

	require.True(t, mr.Exists("payport:delivery:CREDIT:14769800001234601"))
	mr.FastForward(2 * time.Minute)
	require.False(t, mr.Exists("payport:delivery:CREDIT:14769800001234601"))
}

func TestRedisGuard_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err = NewRedisGuard(client, 0, zap.NewNop().Sugar()).Claim(context.Background(), "k")
	require.Error(t, err)
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "://nope")
	require.Error(t, err)
}

func TestNoop(t *testing.T) {
	ok, err := Noop{}.Claim(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
}
