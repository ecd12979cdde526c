package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowq-io/flowq/queue"
)

func validValues() queue.Values {
	return queue.Values{
		Limit:       10,
		Concurrency: 2,
		Interval:    5 * time.Millisecond,
		Timeout:     5 * time.Second,
		Order:       queue.FIFO,
	}
}

func TestValues_Validate(t *testing.T) {
	t.Run("valid values pass", func(t *testing.T) {
		require.NoError(t, validValues().Validate())
	})

	t.Run("zero interval is allowed", func(t *testing.T) {
		v := validValues()
		v.Interval = 0
		require.NoError(t, v.Validate())
	})

	t.Run("limit must be positive", func(t *testing.T) {
		v := validValues()
		v.Limit = 0
		require.Error(t, v.Validate())
	})

	t.Run("concurrency must be positive", func(t *testing.T) {
		v := validValues()
		v.Concurrency = -1
		require.Error(t, v.Validate())
	})

	t.Run("interval must not be negative", func(t *testing.T) {
		v := validValues()
		v.Interval = -time.Millisecond
		require.Error(t, v.Validate())
	})

	t.Run("timeout must be positive", func(t *testing.T) {
		v := validValues()
		v.Timeout = 0
		require.Error(t, v.Validate())
	})

	t.Run("order must be known", func(t *testing.T) {
		v := validValues()
		v.Order = queue.Order(42)
		require.Error(t, v.Validate())
	})
}

func TestOrder_String(t *testing.T) {
	assert.Equal(t, "fifo", queue.FIFO.String())
	assert.Equal(t, "lifo", queue.LIFO.String())
	assert.Equal(t, "unknown", queue.Order(42).String())
}
