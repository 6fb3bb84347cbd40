package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestService_CopiesValues(t *testing.T) {
	svc := NewService(ServiceConfig{Name: "test", Capacity: 10})
	defer svc.Close()
	ctx := context.Background()

	buf := []byte("hello")
	require.NoError(t, svc.Set(ctx, "k", buf, 0))
	buf[0] = 'j'

	got, ok := svc.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "hello", string(got))

	got[0] = 'y'
	again, _ := svc.Get(ctx, "k")
	assert.Equal(t, "hello", string(again))
}

func TestService_DeleteAndInvalidate(t *testing.T) {
	svc := NewService(ServiceConfig{Capacity: 10})
	defer svc.Close()
	ctx := context.Background()

	var evicted []string
	svc.OnEvict(func(key string, _ EvictReason) { evicted = append(evicted, key) })

	_ = svc.Set(ctx, "session:1", []byte("a"), 0)
	_ = svc.Set(ctx, "session:2", []byte("b"), 0)
	_ = svc.Set(ctx, "other", []byte("c"), 0)

	require.NoError(t, svc.Delete(ctx, "other"))
	require.NoError(t, svc.Invalidate(ctx, "session:*"))
	assert.Equal(t, 0, svc.Size())
	assert.ElementsMatch(t, []string{"other", "session:1", "session:2"}, evicted)
}

func TestService_SweeperRemovesExpired(t *testing.T) {
	svc := NewService(ServiceConfig{
		Capacity:        10,
		DefaultTTL:      10 * time.Millisecond,
		CleanupInterval: 5 * time.Millisecond,
	})
	defer svc.Close()

	_ = svc.Set(context.Background(), "k", []byte("v"), 0)
	assert.Eventually(t, func() bool { return svc.Size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestService_CloseStopsSweeper(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := NewService(DefaultServiceConfig())
	svc.Close()
}
