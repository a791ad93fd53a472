package ots

import (
	"fmt"
	"sort"
)

// MaxRecursionDepth bounds Timestamp tree depth, defeating adversarial
// inputs.
const MaxRecursionDepth = 128

// Timestamp is a recursive tree rooted at a specific input digest: a node
// carries the set of attestations asserted about it, and a set of outgoing
// operation edges, each producing a successor Timestamp.
type Timestamp struct {
	Msg          []byte
	attestations map[string]Attestation
	ops          map[string]*opEdge
}

type opEdge struct {
	op    Op
	child *Timestamp
}

// New creates an empty Timestamp node rooted at msg.
func New(msg []byte) *Timestamp {
	return &Timestamp{
		Msg:          append([]byte(nil), msg...),
		attestations: make(map[string]Attestation),
		ops:          make(map[string]*opEdge),
	}
}

// AddAttestation inserts a into the node's attestation set (structural set
// equality; re-adding an equal attestation is a no-op).
func (t *Timestamp) AddAttestation(a Attestation) {
	t.attestations[a.key()] = a
}

// AddOp returns the child Timestamp reached via op, creating it (and
// applying op to t.Msg) if it does not already exist.
func (t *Timestamp) AddOp(op Op) (*Timestamp, error) {
	k := op.key()
	if edge, ok := t.ops[k]; ok {
		return edge.child, nil
	}
	next, err := op.Apply(t.Msg)
	if err != nil {
		return nil, err
	}
	child := New(next)
	t.ops[k] = &opEdge{op: op, child: child}
	return child, nil
}

// Attestations returns the attestations directly on this node, in
// deterministic order (see AllAttestations for the tree-wide order).
func (t *Timestamp) Attestations() []Attestation {
	out := make([]Attestation, 0, len(t.attestations))
	for _, a := range t.attestations {
		out = append(out, a)
	}
	sortAttestations(out)
	return out
}

// Ops returns the outgoing op edges of this node, in canonical order
// (ascending tag, then ascending immediate byte-lex).
func (t *Timestamp) Ops() []Op {
	edges := t.sortedEdges()
	out := make([]Op, len(edges))
	for i, e := range edges {
		out[i] = e.op
	}
	return out
}

// Child returns the successor Timestamp for op, if present.
func (t *Timestamp) Child(op Op) (*Timestamp, bool) {
	edge, ok := t.ops[op.key()]
	if !ok {
		return nil, false
	}
	return edge.child, true
}

func (t *Timestamp) sortedEdges() []*opEdge {
	edges := make([]*opEdge, 0, len(t.ops))
	for _, e := range t.ops {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].op.Less(edges[j].op) })
	return edges
}

func sortAttestations(a []Attestation) {
	sort.Slice(a, func(i, j int) bool {
		mi, mj := a[i].magicFor(), a[j].magicFor()
		for k := range mi {
			if mi[k] != mj[k] {
				return mi[k] < mj[k]
			}
		}
		return a[i].key() < a[j].key()
	})
}

// Merge unions other into t. Precondition: t.Msg equals other.Msg.
// Merge is associative, commutative, and idempotent: merging an
// already-present fragment changes nothing.
func (t *Timestamp) Merge(other *Timestamp) error {
	return t.mergeDepth(other, 0)
}

func (t *Timestamp) mergeDepth(other *Timestamp, depth int) error {
	if depth > MaxRecursionDepth {
		return fmt.Errorf("ots: %w: merge exceeds depth %d", ErrDeepRecursion, MaxRecursionDepth)
	}
	if !bytesEqual(t.Msg, other.Msg) {
		return fmt.Errorf("ots: merge precondition violated: msg mismatch")
	}
	for _, a := range other.attestations {
		t.attestations[a.key()] = a
	}
	for k, otherEdge := range other.ops {
		edge, ok := t.ops[k]
		if !ok {
			child := New(otherEdge.child.Msg)
			edge = &opEdge{op: otherEdge.op, child: child}
			t.ops[k] = edge
		}
		if err := edge.child.mergeDepth(otherEdge.child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// IsComplete reports whether at least one leaf of the tree is a
// block-header attestation.
func (t *Timestamp) IsComplete() bool {
	complete := false
	t.Walk(func(_ *Timestamp, a Attestation) bool {
		if a.IsBlockHeader() {
			complete = true
			return false
		}
		return true
	})
	return complete
}

// AllAttestations performs a deterministic pre-order traversal, yielding
// (path_msg, attestation) pairs: attestations before op-children at each
// node, op-children visited in ascending (tag, arg) order.
func (t *Timestamp) AllAttestations() []PathAttestation {
	var out []PathAttestation
	t.Walk(func(node *Timestamp, a Attestation) bool {
		out = append(out, PathAttestation{Msg: node.Msg, Attestation: a})
		return true
	})
	return out
}

// PathAttestation pairs an attestation with the digest at its tree
// position.
type PathAttestation struct {
	Msg         []byte
	Attestation Attestation
}

// Walk performs a deterministic pre-order traversal, invoking visit for
// every attestation encountered. Returning false from visit stops the
// walk early.
func (t *Timestamp) Walk(visit func(node *Timestamp, a Attestation) bool) {
	t.walkDepth(visit, 0)
}

func (t *Timestamp) walkDepth(visit func(node *Timestamp, a Attestation) bool, depth int) bool {
	if depth > MaxRecursionDepth {
		return true
	}
	for _, a := range t.Attestations() {
		if !visit(t, a) {
			return false
		}
	}
	for _, edge := range t.sortedEdges() {
		if !edge.child.walkDepth(visit, depth+1) {
			return false
		}
	}
	return true
}

// IsValidNode reports whether t satisfies the non-root node invariant: it
// must have at least one attestation or at least one op-edge.
func (t *Timestamp) IsValidNode() bool {
	return len(t.attestations) > 0 || len(t.ops) > 0
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
