package executor

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestPostRunsAllTasks verifies every posted task executes
func TestPostRunsAllTasks(t *testing.T) {
	e := New(4)
	defer func() { e.Stop(); e.Join() }()

	const n = 1000
	var done sync.WaitGroup
	var count atomic.Int64

	done.Add(n)
	for i := 0; i < n; i++ {
		e.Post(func() {
			count.Add(1)
			done.Done()
		})
	}

	waitOrFatal(t, &done, "tasks did not complete")
	if got := count.Load(); got != n {
		t.Fatalf("expected %d tasks, ran %d", n, got)
	}
}

// TestPostAfterStopIsDropped verifies a stopped executor discards tasks
func TestPostAfterStopIsDropped(t *testing.T) {
	e := New(1)
	e.Stop()
	e.Join()

	e.Post(func() { t.Error("task ran after Stop") })
	time.Sleep(20 * time.Millisecond)
}

// TestManagedRun verifies Run drives tasks and returns on Stop
func TestManagedRun(t *testing.T) {
	e := New(0)

	returned := make(chan struct{})
	go func() {
		e.Run()
		close(returned)
	}()

	ran := make(chan struct{})
	e.Post(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("managed executor did not run the task")
	}

	e.Stop()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
	e.Join()
}

// TestStrandSerialisesTasks verifies no two strand tasks overlap and order
// is preserved even with many workers.
func TestStrandSerialisesTasks(t *testing.T) {
	e := New(8)
	defer func() { e.Stop(); e.Join() }()

	s := e.NewStrand()

	const n = 2000
	var active atomic.Int32
	var order []int
	var done sync.WaitGroup

	done.Add(n)
	for i := 0; i < n; i++ {
		i := i
		s.Post(func() {
			if active.Add(1) != 1 {
				t.Error("two strand tasks ran concurrently")
			}
			order = append(order, i)
			active.Add(-1)
			done.Done()
		})
	}

	waitOrFatal(t, &done, "strand tasks did not complete")
	for i, v := range order {
		if v != i {
			t.Fatalf("strand reordered tasks: position %d holds %d", i, v)
		}
	}
}

// TestIndependentStrandsInterleave verifies strands do not serialise each
// other: two strands posted from the same goroutine both make progress.
func TestIndependentStrandsInterleave(t *testing.T) {
	e := New(4)
	defer func() { e.Stop(); e.Join() }()

	s1 := e.NewStrand()
	s2 := e.NewStrand()

	var done sync.WaitGroup
	done.Add(2)

	gate := make(chan struct{})
	s1.Post(func() {
		// Blocks until s2 has run, proving s2 is not queued behind s1.
		<-gate
		done.Done()
	})
	s2.Post(func() {
		close(gate)
		done.Done()
	})

	waitOrFatal(t, &done, "independent strands starved each other")
}

func waitOrFatal(t *testing.T, wg *sync.WaitGroup, msg string) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal(msg)
	}
}
