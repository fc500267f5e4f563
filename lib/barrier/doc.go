// Package barrier provides a drain-on-close usage counter that lets
// asynchronous callbacks safely probe whether their owner is still alive.
//
// An owner (a connection, a pool) creates a Barrier and hands it to every
// callback it schedules. Before touching the owner, a callback acquires a
// usage right with TryUse (or the Run/Wrap helpers); once the owner calls
// Close, no new acquisition succeeds and Close blocks until every
// outstanding right has been released. This gives deterministic teardown
// without shared ownership of the owner itself: callbacks hold a probe,
// not a strong reference.
//
// The counter is deliberately a mutex plus condition variable rather than
// a bare atomic: Close must both forbid new acquisitions and wait for the
// count to drain, and those two steps have to be a single critical section.
package barrier
