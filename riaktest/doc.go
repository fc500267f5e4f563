// Package riaktest provides an in-process node speaking the framed
// protocol buffers API, for tests, examples and load generation against
// a predictable peer.
//
// The server keeps an in-memory bucket/key map with opaque causal clocks
// and supports the failure-injection hooks the client tests need:
// artificial reply delays, scripted error and put responses, forced
// sibling divergence and connection drops.
package riaktest
