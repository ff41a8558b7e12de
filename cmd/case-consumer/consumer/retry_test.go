package consumer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_Next(t *testing.T) {
	b := Backoff{Interval: 5 * time.Second}

	first := b.Next(Attempt{})
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, 5*time.Second, first.Delay)

	second := b.Next(first)
	assert.Equal(t, 2, second.Number)
	assert.Equal(t, 5*time.Second, second.Delay, "interval stays fixed across attempts")
}
