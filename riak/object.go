package riak

import (
	"fmt"

	"github.com/cristicbz/riakgo/rpc/pbc"
)

// Object is a bucket/key pair together with the opaque causal clock the
// server returned for it and a non-empty ordered list of sibling
// contents. Objects are value types: they are moved into handlers and
// copied freely, never shared.
//
// An Object produced alongside an error is invalid: every accessor
// except Valid, Bucket, Key, InConflict and Exists panics on it. An
// Object with more than one sibling is in conflict: its primary content
// accessors panic until the conflict is resolved.
type Object struct {
	siblings []pbc.Content
	bucket   string
	key      string
	vclock   []byte
	valid    bool
	exists   bool
}

// NewObject creates a valid "new/absent" object: a single empty sibling,
// no causal clock, Exists reporting false. Use it to populate a value
// before a store.
func NewObject(bucket, key string) Object {
	o := Object{bucket: bucket, key: key, valid: true}
	o.ensureOneValidSibling()
	return o
}

// newObjectFromResponse builds an object from a successful fetch. The
// clock is non-empty here; an empty clock produces an absent object via
// NewObject instead.
func newObjectFromResponse(bucket, key string, vclock []byte, siblings []pbc.Content) Object {
	o := Object{
		siblings: siblings,
		bucket:   bucket,
		key:      key,
		vclock:   vclock,
		valid:    true,
		exists:   len(vclock) > 0,
	}
	o.ensureOneValidSibling()
	return o
}

// newInvalidObject is what error paths deliver: the bucket and key remain
// readable, everything else traps.
func newInvalidObject(bucket, key string) Object {
	return Object{bucket: bucket, key: key}
}

// --------------------------------------------------------------------------
// Non-trapping predicates and accessors
// --------------------------------------------------------------------------

// Valid reports whether the object was produced by a successful response
// or a constructor. Operations that fail deliver invalid objects.
func (o *Object) Valid() bool { return o.valid }

// Bucket returns the bucket name. Readable even on invalid objects.
func (o *Object) Bucket() string { return o.bucket }

// Key returns the key. Readable even on invalid objects.
func (o *Object) Key() string { return o.key }

// InConflict reports whether the object carries divergent siblings.
func (o *Object) InConflict() bool { return len(o.siblings) > 1 }

// Exists reports whether the object holds exactly one live (untombstoned)
// content. A freshly constructed or never-written object does not exist.
func (o *Object) Exists() bool {
	return o.valid && !o.InConflict() && o.exists
}

// --------------------------------------------------------------------------
// Trapping accessors
// --------------------------------------------------------------------------

// VClock returns the opaque causal clock. It is never inspected by the
// client, only echoed on the store or remove that follows a fetch.
func (o *Object) VClock() []byte {
	o.checkValid()
	return o.vclock
}

// Value returns the primary content's value. Panics on invalid or
// conflicted objects.
func (o *Object) Value() []byte {
	return o.RawContent().Value
}

// SetValue replaces the primary content's value.
func (o *Object) SetValue(value []byte) {
	o.RawContent().Value = value
}

// ContentType returns the primary content's media type.
func (o *Object) ContentType() string {
	return o.RawContent().ContentType
}

// SetContentType sets the primary content's media type.
func (o *Object) SetContentType(contentType string) {
	o.RawContent().ContentType = contentType
}

// RawContent returns the primary content record. Panics on invalid or
// conflicted objects.
func (o *Object) RawContent() *pbc.Content {
	o.checkNoConflict()
	return &o.siblings[0]
}

// Sibling returns the i-th divergent content of a conflicted object.
func (o *Object) Sibling(i int) *pbc.Content {
	o.checkValid()
	if i < 0 || i >= len(o.siblings) {
		panic(fmt.Sprintf("riak: sibling index %d out of range (%d siblings)", i, len(o.siblings)))
	}
	return &o.siblings[i]
}

// Siblings returns every divergent content. Resolvers iterate this to
// choose a survivor.
func (o *Object) Siblings() []pbc.Content {
	o.checkValid()
	return o.siblings
}

// --------------------------------------------------------------------------
// Conflict resolution
// --------------------------------------------------------------------------

// ResolveWithSibling collapses the sibling list to the i-th entry. If the
// chosen sibling is a tombstone its deletion flag is cleared and the
// object reports Exists false.
func (o *Object) ResolveWithSibling(i int) {
	o.checkValid()
	if i < 0 || i >= len(o.siblings) {
		panic(fmt.Sprintf("riak: sibling index %d out of range (%d siblings)", i, len(o.siblings)))
	}
	chosen := o.siblings[i]
	o.siblings = []pbc.Content{chosen}
	o.ensureValidContent()
}

// ResolveWith collapses the sibling list to the given content, typically
// a merge synthesised from several siblings.
func (o *Object) ResolveWith(content pbc.Content) {
	o.checkValid()
	o.siblings = []pbc.Content{content}
	o.ensureValidContent()
}

// --------------------------------------------------------------------------
// Internal
// --------------------------------------------------------------------------

func (o *Object) markInvalid() { o.valid = false }

func (o *Object) setVClock(vclock []byte) { o.vclock = vclock }

func (o *Object) checkValid() {
	if !o.valid {
		panic("riak: invalid/uninitialised object used. " +
			"Maybe you forgot to check an error in a handler?")
	}
}

func (o *Object) checkNoConflict() {
	o.checkValid()
	if o.InConflict() {
		panic(fmt.Sprintf(
			"riak: cannot access conflicted object with bucket = %q and key = %q: there are %d siblings",
			o.bucket, o.key, len(o.siblings)))
	}
}

// ensureOneValidSibling makes a freshly constructed object well-formed:
// no siblings means one empty, non-existent content.
func (o *Object) ensureOneValidSibling() {
	if len(o.siblings) == 0 {
		o.siblings = []pbc.Content{{Value: []byte{}}}
		o.exists = false
	} else if len(o.siblings) == 1 {
		o.ensureValidContent()
	}
}

// ensureValidContent normalises a single-sibling object: the value is
// never nil, and a tombstoned content clears its flag while the object
// reports Exists false.
func (o *Object) ensureValidContent() {
	content := o.RawContent()
	if content.Value == nil {
		content.Value = []byte{}
	}
	if content.Deleted {
		o.exists = false
		content.Deleted = false
	}
}
