package concurrent

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGoroutineFactory_NextName(t *testing.T) {
	factory := NewGoroutineFactory("ingest")

	assert.Equal(t, "ingest-1", factory.NextName())
	assert.Equal(t, "ingest-2", factory.NextName())
	assert.Equal(t, "ingest-3", factory.NextName())
}

func TestGoroutineFactory_Go(t *testing.T) {
	factory := NewGoroutineFactory("worker")

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := 0

	for i := 0; i < 5; i++ {
		wg.Add(1)
		factory.Go(func() {
			defer wg.Done()
			mu.Lock()
			seen++
			mu.Unlock()
		})
	}
	wg.Wait()

	assert.Equal(t, 5, seen)
	assert.Equal(t, "worker-6", factory.NextName())
}

func TestGoroutineFactory_UniqueNamesUnderConcurrency(t *testing.T) {
	factory := NewGoroutineFactory("n")

	var mu sync.Mutex
	names := make(map[string]struct{})
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := factory.NextName()
			mu.Lock()
			names[name] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, names, 100)
}
