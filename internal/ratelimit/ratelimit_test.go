package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAllow_PerKeyBurst(t *testing.T) {
	krl := New(1, 2, time.Minute)
	defer krl.Stop()

	assert.True(t, krl.Allow("a"))
	assert.True(t, krl.Allow("a"))
	assert.False(t, krl.Allow("a"), "burst exhausted")
	assert.True(t, krl.Allow("b"), "other keys have their own bucket")
	assert.Equal(t, 2, krl.Len())
}

func TestWait_HonorsContext(t *testing.T) {
	krl := New(0.001, 1, time.Minute)
	defer krl.Stop()

	require.NoError(t, krl.Wait(context.Background(), "k"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, krl.Wait(ctx, "k"))
}

func TestNew_NonPositiveRateIsUnlimited(t *testing.T) {
	krl := New(0, 0, time.Minute)
	defer krl.Stop()

	for range 100 {
		require.True(t, krl.Allow("k"))
	}
}

func TestEvictIdle(t *testing.T) {
	krl := New(1, 1, time.Minute)
	defer krl.Stop()

	krl.Allow("old")
	krl.evictIdle(time.Now().Add(2 * time.Minute))
	assert.Zero(t, krl.Len())
}

func TestStop_Idempotent(t *testing.T) {
	krl := New(1, 1, time.Minute)
	krl.Stop()
	krl.Stop()
}
