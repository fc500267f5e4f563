// Package executor provides a fixed pool of worker goroutines draining a
// shared task queue, plus serial strands for ordering related tasks.
//
// The library posts user completions onto an Executor so that slow
// handlers never block connection goroutines. A Strand is a lightweight
// sub-executor: tasks posted to the same strand run one at a time and in
// order, though possibly on different workers. The connection pool runs
// the user completions of each connection through that connection's own
// strand.
//
// An Executor is either owned by the client (managed mode, sized by the
// WorkerThreads option) or supplied by the application, in which case the
// application controls its lifetime.
package executor
