package executor

import "sync"

// Strand serialises tasks on top of an Executor: tasks posted to the same
// strand never run concurrently and run in post order, regardless of
// which worker picks them up.
type Strand struct {
	executor *Executor

	mu      sync.Mutex
	pending []func()
	running bool
}

// NewStrand creates a serial sub-executor bound to e.
func (e *Executor) NewStrand() *Strand {
	return &Strand{executor: e}
}

// Post enqueues a task on the strand. If no drain pass is active, one is
// scheduled on the underlying executor.
func (s *Strand) Post(task func()) {
	s.mu.Lock()
	s.pending = append(s.pending, task)
	schedule := !s.running
	if schedule {
		s.running = true
	}
	s.mu.Unlock()

	if schedule {
		s.executor.Post(s.drain)
	}
}

// drain runs queued tasks one at a time until the strand empties. Only one
// drain pass exists at any moment, which is what makes the strand serial.
func (s *Strand) drain() {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.running = false
			s.mu.Unlock()
			return
		}
		task := s.pending[0]
		s.pending[0] = nil
		s.pending = s.pending[1:]
		s.mu.Unlock()

		task()
	}
}
