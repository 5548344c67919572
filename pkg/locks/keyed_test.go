package locks

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("booking:1")
			defer km.Unlock("booking:1")
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()
	km.Lock("queue:1")
	defer km.Unlock("queue:1")

	assert.True(t, km.TryLock("queue:2"), "a different key must not block")
	km.Unlock("queue:2")
}

func TestTryLockHeldKey(t *testing.T) {
	km := NewKeyedMutex()
	assert.True(t, km.TryLock("settlement:1"))
	assert.False(t, km.TryLock("settlement:1"))
	km.Unlock("settlement:1")
	assert.True(t, km.TryLock("settlement:1"))
	km.Unlock("settlement:1")
}
