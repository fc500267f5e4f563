package riak

import (
	"bytes"
	"testing"
	"time"

	"github.com/cristicbz/riakgo/riaktest"
	"github.com/cristicbz/riakgo/rpc/common"
	"github.com/cristicbz/riakgo/rpc/pbc"
)

// startClient spins up an in-process node and a managed client against it.
func startClient(t *testing.T, resolver SiblingResolver, deadlineMS int64) (*Client, *riaktest.Server) {
	t.Helper()
	server, err := riaktest.Start()
	if err != nil {
		t.Fatalf("server start failed: %v", err)
	}

	host, port := server.Host()
	config := common.DefaultClientConfig(host, port)
	config.MaxConnections = 2
	config.WorkerThreads = 2
	if deadlineMS != 0 {
		config.DeadlineMS = deadlineMS
	}

	client, err := NewClient(config, resolver)
	if err != nil {
		t.Fatalf("client construction failed: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client, server
}

// Blocking wrappers in the shape applications use.

func fetch(c *Client, bucket, key string) (Object, error) {
	group := NewBlockingGroup()
	var obj Object
	var err error
	c.AsyncFetch(bucket, key, SaveHandler2(group, &obj, &err))
	group.Wait()
	return obj, err
}

func store(c *Client, bucket, key string, value []byte) error {
	group := NewBlockingGroup()
	var err error
	c.AsyncStore(bucket, key, value, SaveHandler1(group, &err))
	group.Wait()
	return err
}

func storeObject(c *Client, obj Object) error {
	group := NewBlockingGroup()
	var err error
	c.AsyncStoreObject(obj, SaveHandler1(group, &err))
	group.Wait()
	return err
}

func remove(c *Client, bucket, key string) error {
	group := NewBlockingGroup()
	var err error
	c.AsyncRemove(bucket, key, SaveHandler1(group, &err))
	group.Wait()
	return err
}

// TestFetchAbsent covers a never-written key: a valid, absent object.
func TestFetchAbsent(t *testing.T) {
	client, _ := startClient(t, nil, 0)

	obj, err := fetch(client, "b", "k")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if !obj.Valid() || obj.Exists() || obj.InConflict() {
		t.Fatalf("unexpected absent object: valid=%v exists=%v conflict=%v",
			obj.Valid(), obj.Exists(), obj.InConflict())
	}
}

// TestStoreFetchRoundTrip covers store-new plus the subsequent fetch.
func TestStoreFetchRoundTrip(t *testing.T) {
	client, _ := startClient(t, nil, 0)

	if err := store(client, "b", "k", []byte("hello")); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	obj, err := fetch(client, "b", "k")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if !obj.Exists() {
		t.Fatal("stored object does not exist")
	}
	if string(obj.Value()) != "hello" {
		t.Fatalf("unexpected value %q", obj.Value())
	}
	if len(obj.VClock()) == 0 {
		t.Fatal("fetched object has no causal clock")
	}
}

// TestStoreObjectPreservesClock covers the fetch-modify-store cycle.
func TestStoreObjectPreservesClock(t *testing.T) {
	client, _ := startClient(t, nil, 0)

	if err := store(client, "b", "k", []byte("v1")); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	obj, err := fetch(client, "b", "k")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	obj.SetValue([]byte("v2"))
	obj.SetContentType("text/plain")
	if err := storeObject(client, obj); err != nil {
		t.Fatalf("store object failed: %v", err)
	}

	obj, err = fetch(client, "b", "k")
	if err != nil {
		t.Fatalf("refetch failed: %v", err)
	}
	if string(obj.Value()) != "v2" || obj.ContentType() != "text/plain" {
		t.Fatalf("update lost: %q %q", obj.Value(), obj.ContentType())
	}
}

// TestRemove covers delete plus the subsequent absent fetch.
func TestRemove(t *testing.T) {
	client, _ := startClient(t, nil, 0)

	if err := store(client, "b", "k", []byte("gone soon")); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := remove(client, "b", "k"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	obj, err := fetch(client, "b", "k")
	if err != nil {
		t.Fatalf("fetch after remove failed: %v", err)
	}
	if obj.Exists() {
		t.Fatal("object still exists after remove")
	}
}

// TestRemoveObjectEchoesClock verifies the object form of remove.
func TestRemoveObjectEchoesClock(t *testing.T) {
	client, _ := startClient(t, nil, 0)

	if err := store(client, "b", "k", []byte("x")); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	obj, err := fetch(client, "b", "k")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	group := NewBlockingGroup()
	var removeErr error
	client.AsyncRemoveObject(obj, SaveHandler1(group, &removeErr))
	group.Wait()
	if removeErr != nil {
		t.Fatalf("remove object failed: %v", removeErr)
	}

	obj, err = fetch(client, "b", "k")
	if err != nil || obj.Exists() {
		t.Fatalf("object survived removal: err=%v exists=%v", err, obj.Exists())
	}
}

// longestWins resolves conflicts in favour of the longest value.
func longestWins(conflicted *Object) StoreResolvedSibling {
	best, bestLen := 0, -1
	for i, sibling := range conflicted.Siblings() {
		if len(sibling.Value) > bestLen {
			best, bestLen = i, len(sibling.Value)
		}
	}
	conflicted.ResolveWithSibling(best)
	return StoreResolvedYes
}

// TestConflictResolutionWriteBack covers the resolver-driven follow-up
// put: the chosen sibling is persisted and the delivered object carries a
// fresh clock.
func TestConflictResolutionWriteBack(t *testing.T) {
	client, server := startClient(t, longestWins, 0)

	server.InjectSiblings("b", "k", []byte("a"), []byte("bb"))

	obj, err := fetch(client, "b", "k")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if obj.InConflict() {
		t.Fatal("delivered object still conflicted")
	}
	if string(obj.Value()) != "bb" {
		t.Fatalf("resolver choice lost: %q", obj.Value())
	}
	if !obj.Exists() || len(obj.VClock()) == 0 {
		t.Fatal("resolved object missing existence or clock")
	}

	// The write-back reached the server.
	if stored, ok := server.Value("b", "k"); !ok || string(stored) != "bb" {
		t.Fatalf("server state not resolved: %q %v", stored, ok)
	}
}

// TestConflictResolutionDegenerateReplies covers the non-converging
// write-back responses: empty clock and multiple contents.
func TestConflictResolutionDegenerateReplies(t *testing.T) {
	client, server := startClient(t, longestWins, 0)

	server.InjectSiblings("b", "k", []byte("a"), []byte("bb"))
	server.ScriptPutResp(pbc.PutResp{}) // empty clock
	obj, err := fetch(client, "b", "k")
	if common.CodeOf(err) != common.ErrCTryAgain {
		t.Fatalf("expected try_again for empty clock, got %v", err)
	}
	if obj.Valid() {
		t.Fatal("object valid despite failed resolution")
	}

	server.InjectSiblings("b", "k", []byte("a"), []byte("bb"))
	server.ScriptPutResp(pbc.PutResp{
		VClock:  []byte("clock-x"),
		Content: []pbc.Content{{Value: []byte("a")}, {Value: []byte("bb")}},
	})
	obj, err = fetch(client, "b", "k")
	if common.CodeOf(err) != common.ErrCTryAgain {
		t.Fatalf("expected try_again for multi-content reply, got %v", err)
	}
	if obj.Valid() {
		t.Fatal("object valid despite failed resolution")
	}
}

// TestConflictResolutionTombstone covers a resolver choosing a tombstone:
// the write-back keeps the content deleted.
func TestConflictResolutionTombstone(t *testing.T) {
	client, server := startClient(t, longestWins, 0)

	server.InjectContents("b", "k",
		pbc.Content{Value: []byte("live")},
		pbc.Content{Value: []byte("tombstone+"), Deleted: true})

	obj, err := fetch(client, "b", "k")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if obj.Exists() {
		t.Fatal("tombstone resolution claims existence")
	}
	if !obj.Valid() {
		t.Fatal("tombstone resolution delivered invalid object")
	}
}

// TestPassThroughResolverDeliversConflict covers the resolver declining:
// the conflicted object reaches the caller untouched.
func TestPassThroughResolverDeliversConflict(t *testing.T) {
	client, server := startClient(t, nil, 0)

	server.InjectSiblings("b", "k", []byte("a"), []byte("bb"))

	obj, err := fetch(client, "b", "k")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if !obj.InConflict() {
		t.Fatal("conflict swallowed without a storing resolver")
	}
	if len(obj.Siblings()) != 2 {
		t.Fatalf("expected 2 siblings, got %d", len(obj.Siblings()))
	}
}

// TestServerErrorMapsToProtocolError covers the error response path.
func TestServerErrorMapsToProtocolError(t *testing.T) {
	client, server := startClient(t, nil, 0)

	server.FailNextWith("overload", 1)
	obj, err := fetch(client, "b", "k")
	if common.CodeOf(err) != common.ErrCProtocolError {
		t.Fatalf("expected protocol_error, got %v", err)
	}
	if obj.Valid() {
		t.Fatal("object valid alongside an error")
	}
	if obj.Bucket() != "b" || obj.Key() != "k" {
		t.Fatal("invalid object lost its identity")
	}
}

// TestDeadlineTimesOut covers the local deadline: a delayed reply maps to
// timed_out promptly and the client recovers.
func TestDeadlineTimesOut(t *testing.T) {
	client, server := startClient(t, nil, 60)

	server.SetReplyDelay(120 * time.Millisecond)
	started := time.Now()
	_, err := fetch(client, "b", "k")
	elapsed := time.Since(started)

	if common.CodeOf(err) != common.ErrCTimedOut {
		t.Fatalf("expected timed_out, got %v", err)
	}
	if elapsed > 110*time.Millisecond {
		t.Fatalf("deadline fired after %v", elapsed)
	}

	server.SetReplyDelay(0)
	if err := store(client, "b", "k", []byte("back")); err != nil {
		t.Fatalf("client unusable after timeout: %v", err)
	}
}

// TestParallelOperations exercises a fan-out joined by one group.
func TestParallelOperations(t *testing.T) {
	client, _ := startClient(t, nil, 0)

	group := NewBlockingGroup()
	errs := make([]error, 8)
	for i := range errs {
		key := string(rune('a' + i))
		client.AsyncStore("b", key, bytes.Repeat([]byte{byte(i)}, 4),
			SaveHandler1(group, &errs[i]))
	}
	group.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("store %d failed: %v", i, err)
		}
	}
}

// TestExternalExecutorValidation covers the worker-threads constraint and
// the managed-mode checks.
func TestExternalExecutorValidation(t *testing.T) {
	server, err := riaktest.Start()
	if err != nil {
		t.Fatalf("server start failed: %v", err)
	}
	defer server.Close()

	host, port := server.Host()
	config := common.DefaultClientConfig(host, port)
	config.WorkerThreads = 4

	if _, err := NewClientWithExecutor(config, nil, nil); err == nil {
		t.Fatal("worker threads accepted with an external executor")
	}
}
