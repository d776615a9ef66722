package jitter

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDurationWithinBounds(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 100; i++ {
		d := Duration(base, DefaultJitter)
		require.GreaterOrEqual(t, d, base)
		require.LessOrEqual(t, d, base+base/2)
	}
}

func TestDurationWithSeedDeterministic(t *testing.T) {
	base := time.Second

	a := DurationWithSeed(base, DefaultJitter, rand.New(rand.NewSource(42)))
	b := DurationWithSeed(base, DefaultJitter, rand.New(rand.NewSource(42)))

	require.Equal(t, a, b)
}

func TestExponentialBackoffCapped(t *testing.T) {
	base := time.Second
	max := 4 * time.Second

	// После достижения max рост прекращается, джиттер добавляется поверх.
	d := ExponentialBackoff(base, max, 10, DefaultJitter)
	require.GreaterOrEqual(t, d, max)
	require.LessOrEqual(t, d, max+max/2)
}

func TestExponentialBackoffZeroAttempt(t *testing.T) {
	d := ExponentialBackoff(time.Second, time.Minute, 0, 0)
	require.Equal(t, time.Second, d)
}
