package concurrent

import (
	"context"
	"fmt"
	"runtime/pprof"
	"sync/atomic"
)

// GoroutineFactory spawns goroutines with sequentially numbered names derived
// from a common prefix. The name is attached as a pprof label so pooled
// goroutines can be told apart in profiles and goroutine dumps.
type GoroutineFactory struct {
	namePrefix string
	counter    atomic.Int64
}

// NewGoroutineFactory creates a factory that names goroutines "<name>-N",
// with N starting at 1.
func NewGoroutineFactory(name string) *GoroutineFactory {
	return &GoroutineFactory{namePrefix: name + "-"}
}

// NextName reserves and returns the next goroutine name.
func (f *GoroutineFactory) NextName() string {
	return fmt.Sprintf("%s%d", f.namePrefix, f.counter.Add(1))
}

// Go runs fn on a new goroutine labeled with the next factory name.
func (f *GoroutineFactory) Go(fn func()) {
	name := f.NextName()
	go pprof.Do(context.Background(), pprof.Labels("goroutine", name), func(context.Context) {
		fn()
	})
}
