package barrier

import "sync"

// Barrier counts outstanding usage rights on some owned target and lets
// the owner wait for them to drain. The zero value is not usable, create
// instances with New.
type Barrier struct {
	mu     sync.Mutex
	zero   *sync.Cond
	count  uint32
	closed bool
}

// New creates an open Barrier with no outstanding usage rights.
func New() *Barrier {
	b := &Barrier{}
	b.zero = sync.NewCond(&b.mu)
	return b
}

// TryUse acquires a usage right. It returns false if the barrier has been
// closed, in which case the caller must not touch the owner. Every
// successful TryUse must be paired with exactly one Release.
func (b *Barrier) TryUse() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.count++
	return true
}

// Release returns a usage right acquired with TryUse. Releasing more
// rights than were acquired is a programmer error and panics.
func (b *Barrier) Release() {
	b.mu.Lock()
	if b.count == 0 {
		b.mu.Unlock()
		panic("barrier: Release without matching TryUse")
	}
	b.count--
	wake := b.count == 0 && b.closed
	b.mu.Unlock()
	if wake {
		b.zero.Signal()
	}
}

// Run executes fn while holding a usage right. If the barrier is closed
// the function is not invoked and Run returns false.
func (b *Barrier) Run(fn func()) bool {
	if !b.TryUse() {
		return false
	}
	defer b.Release()
	fn()
	return true
}

// Close marks the barrier closed and blocks the caller until every
// outstanding usage right has been released. After Close returns, TryUse
// always fails, so wrapped callbacks turn into no-ops. Closing twice is a
// programmer error and panics.
func (b *Barrier) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		panic("barrier: Close called twice")
	}
	b.closed = true
	for b.count > 0 {
		b.zero.Wait()
	}
}

// Closed reports whether Close has been called. Intended for assertions
// and logging only: by the time the caller inspects the result the state
// may already have changed.
func (b *Barrier) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Wrap binds a one-argument callback to the barrier: the returned function
// invokes fn under a usage right, or does nothing if the barrier has been
// closed.
func Wrap[T any](b *Barrier, fn func(T)) func(T) {
	return func(v T) {
		b.Run(func() { fn(v) })
	}
}

// Wrap2 is Wrap for two-argument callbacks.
func Wrap2[A, B any](b *Barrier, fn func(A, B)) func(A, B) {
	return func(a A, v B) {
		b.Run(func() { fn(a, v) })
	}
}
