package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHealthCheckerRequiresBrokers(t *testing.T) {
	for _, brokers := range []string{"", " , "} {
		_, err := NewHealthChecker(brokers)
		assert.ErrorIs(t, err, errNoBrokers)
	}
}

func TestHealthCheckerUnreachableBroker(t *testing.T) {
	h, err := NewHealthChecker("127.0.0.1:1")
	require.NoError(t, err)
	defer func() { _ = h.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	assert.Error(t, h.Check(ctx))
}
