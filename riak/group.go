package riak

import "sync"

// CompletionGroup runs a continuation exactly once, after the group has
// been sealed with Notify and every wrapped handler has fired. Use it to
// join parallel fan-outs of asynchronous operations.
type CompletionGroup struct {
	mu      sync.Mutex
	pending int
	sealed  bool
	fired   bool
	done    func()
}

// NewCompletionGroup creates an unsealed group with the given done
// continuation. A nil continuation is allowed and makes the group a pure
// join point.
func NewCompletionGroup(done func()) *CompletionGroup {
	if done == nil {
		done = func() {}
	}
	return &CompletionGroup{done: done}
}

// Notify seals the group: once the already-wrapped handlers have all
// fired, the done continuation runs. Wrapping more handlers after Notify
// is a programmer error.
func (g *CompletionGroup) Notify() {
	g.mu.Lock()
	if g.sealed {
		g.mu.Unlock()
		panic("riak: CompletionGroup notified twice")
	}
	g.sealed = true
	g.maybeFireLocked()
}

// Completed reports whether the group has been sealed and its done
// continuation has run.
func (g *CompletionGroup) Completed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fired
}

func (g *CompletionGroup) add() {
	g.mu.Lock()
	if g.sealed {
		g.mu.Unlock()
		panic("riak: handler wrapped after Notify")
	}
	g.pending++
	g.mu.Unlock()
}

func (g *CompletionGroup) finish() {
	g.mu.Lock()
	if g.pending == 0 {
		g.mu.Unlock()
		panic("riak: wrapped handler fired more than once")
	}
	g.pending--
	g.maybeFireLocked()
}

// maybeFireLocked runs the continuation outside the lock when the group
// is sealed and drained. Called with g.mu held; releases it.
func (g *CompletionGroup) maybeFireLocked() {
	if g.sealed && g.pending == 0 && !g.fired {
		g.fired = true
		done := g.done
		g.mu.Unlock()
		done()
		return
	}
	g.mu.Unlock()
}

// GroupHandler1 wraps a one-argument handler so that its completion
// counts towards the group.
func GroupHandler1[T any](g *CompletionGroup, handler func(T)) func(T) {
	g.add()
	return func(v T) {
		handler(v)
		g.finish()
	}
}

// GroupHandler2 is GroupHandler1 for two-argument handlers, matching the
// fetch handler signature.
func GroupHandler2[A, B any](g *CompletionGroup, handler func(A, B)) func(A, B) {
	g.add()
	return func(a A, b B) {
		handler(a, b)
		g.finish()
	}
}

// --------------------------------------------------------------------------
// Blocking group
// --------------------------------------------------------------------------

// BlockingGroup is a CompletionGroup bound to a latch so a caller thread
// can block until every wrapped handler has run. A group must be waited
// on before it is discarded or reused; handlers that fire after their
// group was discarded still write into the destinations they were given.
type BlockingGroup struct {
	group *CompletionGroup
	latch chan struct{}
}

// NewBlockingGroup creates an armed blocking group.
func NewBlockingGroup() *BlockingGroup {
	b := &BlockingGroup{}
	b.arm()
	return b
}

func (b *BlockingGroup) arm() {
	latch := make(chan struct{})
	b.latch = latch
	b.group = NewCompletionGroup(func() { close(latch) })
}

// Pending reports whether the group is still armed, waiting to be joined.
func (b *BlockingGroup) Pending() bool {
	return !b.group.Completed()
}

// Wait seals the group and blocks until every wrapped handler has fired.
func (b *BlockingGroup) Wait() {
	b.group.Notify()
	<-b.latch
}

// Reset re-arms a waited group for reuse. Resetting a group that has not
// completed is a programmer error.
func (b *BlockingGroup) Reset() {
	if b.Pending() {
		panic("riak: Reset on a blocking group that was not waited on")
	}
	b.arm()
}

// WaitAndReset joins the outstanding handlers and re-arms the group, the
// usual shape inside request loops.
func (b *BlockingGroup) WaitAndReset() {
	b.Wait()
	b.Reset()
}

// BlockingHandler1 wraps a one-argument handler into the group.
func BlockingHandler1[T any](b *BlockingGroup, handler func(T)) func(T) {
	return GroupHandler1(b.group, handler)
}

// BlockingHandler2 wraps a two-argument handler into the group.
func BlockingHandler2[A, B any](b *BlockingGroup, handler func(A, B)) func(A, B) {
	return GroupHandler2(b.group, handler)
}

// SaveHandler1 wraps a handler that just extracts its argument into out,
// the common shape for blocking callers.
func SaveHandler1[T any](b *BlockingGroup, out *T) func(T) {
	return BlockingHandler1(b, func(v T) { *out = v })
}

// SaveHandler2 extracts both arguments into the given destinations.
func SaveHandler2[A, B any](b *BlockingGroup, outA *A, outB *B) func(A, B) {
	return BlockingHandler2(b, func(a A, v B) {
		*outA = a
		*outB = v
	})
}
