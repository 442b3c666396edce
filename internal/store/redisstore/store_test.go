package redisstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateKey(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC)

	k1 := RateKey(42, base, time.Minute)
	k2 := RateKey(42, base.Add(59*time.Second), time.Minute)
	k3 := RateKey(42, base.Add(61*time.Second), time.Minute)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Contains(t, k1, "chat_rate:42:")
	assert.NotEqual(t, k1, RateKey(43, base, time.Minute))
}
