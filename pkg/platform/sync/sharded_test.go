package sync

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShardedMutex_SameKeySerializes(t *testing.T) {
	m := NewShardedMutex()
	key := Key("user-1", "wellness_guidance")
	counter := 0
	var wg sync.WaitGroup

	for range 100 {
		wg.Go(func() {
			_ = m.Do(key, func() error {
				counter++
				return nil
			})
		})
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestShardedMutex_DoReturnsCallbackError(t *testing.T) {
	m := NewShardedMutex()
	want := errors.New("store down")

	err := m.Do("k", func() error { return want })
	assert.ErrorIs(t, err, want)

	// lock must have been released
	m.Lock("k")
	m.Unlock("k")
}

func TestShardedMutex_ShardDistribution(t *testing.T) {
	m := NewShardedMutex()
	shards := make(map[int]bool)
	for _, user := range []string{"alice", "bob", "carol", "dave", "erin", "frank"} {
		shards[m.shardFor(Key(user, "wellness_guidance"))] = true
	}
	assert.GreaterOrEqual(t, len(shards), 3, "expected keys to distribute across multiple shards")
}

func TestKey(t *testing.T) {
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
	assert.Equal(t, 0, NewShardedMutex().shardFor(""))
}
