package ots

import (
	"bytes"
	"testing"

	"github.com/opentimestamps/opentimestamps-client/internal/digest"
)

func sha256Op(t *testing.T) Op {
	t.Helper()
	op, err := NewHashOp(TagSHA256)
	if err != nil {
		t.Fatal(err)
	}
	return op
}

func TestStructuralInvariant(t *testing.T) {
	root := New([]byte("hello"))
	op := sha256Op(t)
	child, err := root.AddOp(op)
	if err != nil {
		t.Fatal(err)
	}
	want := digest.SHA256([]byte("hello"))
	if !bytes.Equal(child.Msg, want) {
		t.Errorf("child msg mismatch")
	}
}

func TestRoundTripDetachedFile(t *testing.T) {
	fileHash := digest.SHA256([]byte("Hello World!\n"))
	dtf, err := NewDetachedTimestampFile(sha256Op(t), fileHash)
	if err != nil {
		t.Fatal(err)
	}

	nonce := bytes.Repeat([]byte{0xaa}, 16)
	appendOp, err := NewAppend(nonce)
	if err != nil {
		t.Fatal(err)
	}
	nonced, err := dtf.Timestamp.AddOp(appendOp)
	if err != nil {
		t.Fatal(err)
	}
	leaf, err := nonced.AddOp(sha256Op(t))
	if err != nil {
		t.Fatal(err)
	}
	leaf.AddAttestation(NewPendingAttestation("https://cal.example"))

	encoded, err := Encode(dtf)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatal(err)
	}

	reencoded, err := Encode(decoded)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(encoded, reencoded) {
		t.Error("encode(decode(bytes)) != bytes")
	}

	atts, err := Walk(decoded.Timestamp)
	if err != nil {
		t.Fatal(err)
	}
	if len(atts) != 1 || atts[0].Attestation.URI != "https://cal.example" {
		t.Errorf("unexpected attestations: %+v", atts)
	}
}

// TestRoundTripMultipleSiblingEdges covers merging two calendar fragments
// onto the same node (the default multi-calendar stamping shape, see
// stamper.Stamper.Submit): one sibling's subtree is an attestation-only
// leaf with no op-edges of its own, which previously confused the
// decoder into consuming the other sibling's bytes as bogus descendants.
func TestRoundTripMultipleSiblingEdges(t *testing.T) {
	msg := []byte("multi-calendar commitment")
	root := New(msg)

	sha256Edge, err := root.AddOp(sha256Op(t))
	if err != nil {
		t.Fatal(err)
	}
	sha256Edge.AddAttestation(NewPendingAttestation("https://a.example"))

	keccakEdge, err := root.AddOp(Op{Tag: TagKeccak256, Kind: KindHash})
	if err != nil {
		t.Fatal(err)
	}
	keccakEdge.AddAttestation(NewBitcoinAttestation(500))

	encoded, err := EncodeTimestamp(root)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeTimestamp(msg, encoded)
	if err != nil {
		t.Fatal(err)
	}

	reencoded, err := EncodeTimestamp(decoded)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(encoded, reencoded) {
		t.Error("encode(decode(bytes)) != bytes")
	}

	if len(decoded.Ops()) != 2 {
		t.Fatalf("expected 2 top-level op edges, got %d", len(decoded.Ops()))
	}

	atts, err := Walk(decoded)
	if err != nil {
		t.Fatal(err)
	}
	if len(atts) != 2 {
		t.Fatalf("expected 2 attestations across both sibling branches, got %+v", atts)
	}
}

func TestMergeAlgebra(t *testing.T) {
	base := func() *Timestamp { return New([]byte("msg")) }

	a := base()
	a.AddAttestation(NewPendingAttestation("https://a.example"))

	b := base()
	b.AddAttestation(NewPendingAttestation("https://b.example"))

	ab := base()
	ab.Merge(a)
	ab.Merge(b)

	ba := base()
	ba.Merge(b)
	ba.Merge(a)

	encAB, _ := EncodeTimestamp(ab)
	encBA, _ := EncodeTimestamp(ba)
	if !bytes.Equal(encAB, encBA) {
		t.Error("merge(a,b) != merge(b,a)")
	}

	// idempotent
	aa := base()
	aa.Merge(a)
	aa.Merge(a)
	encA, _ := EncodeTimestamp(a)
	encAA, _ := EncodeTimestamp(aa)
	if !bytes.Equal(encA, encAA) {
		t.Error("merge(a,a) != a")
	}
}

func TestMergeRequiresEqualMsg(t *testing.T) {
	a := New([]byte("one"))
	b := New([]byte("two"))
	if err := a.Merge(b); err == nil {
		t.Error("expected error merging different roots")
	}
}

func TestForwardCompatibleUnknownAttestation(t *testing.T) {
	root := New([]byte("msg"))
	root.AddAttestation(NewUnknownAttestation([8]byte{1, 2, 3, 4, 5, 6, 7, 8}, []byte("future")))

	encoded, err := EncodeTimestamp(root)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeTimestamp([]byte("msg"), encoded)
	if err != nil {
		t.Fatal(err)
	}
	reencoded, err := EncodeTimestamp(decoded)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(encoded, reencoded) {
		t.Error("unknown attestation did not round-trip bit-identically")
	}

	atts, err := Walk(decoded)
	if err != nil {
		t.Fatal(err)
	}
	if len(atts) != 1 || atts[0].Attestation.Kind != AttestationUnknown {
		t.Fatalf("expected one unknown attestation, got %+v", atts)
	}
}

func TestMaxImmediateLength(t *testing.T) {
	ok := bytes.Repeat([]byte{1}, 4096)
	if _, err := NewAppend(ok); err != nil {
		t.Errorf("4096-byte append should be accepted: %v", err)
	}
	tooBig := bytes.Repeat([]byte{1}, 4097)
	if _, err := NewAppend(tooBig); err == nil {
		t.Error("4097-byte append should be rejected")
	}
}

func TestDeepRecursionRejected(t *testing.T) {
	root := New([]byte("msg"))
	cur := root
	for i := 0; i < MaxRecursionDepth+1; i++ {
		arg := []byte{byte(i % 256)}
		op, err := NewAppend(arg)
		if err != nil {
			t.Fatal(err)
		}
		next, err := cur.AddOp(op)
		if err != nil {
			t.Fatal(err)
		}
		cur = next
	}
	cur.AddAttestation(NewPendingAttestation("https://deep.example"))

	encoded, err := EncodeTimestamp(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeTimestamp([]byte("msg"), encoded); err == nil {
		t.Error("expected DeepRecursion rejection")
	}
}

func TestUnknownOpTagRejected(t *testing.T) {
	var buf []byte
	buf = append(buf, 0x7e) // tag outside the operation vocabulary
	if _, err := DecodeTimestamp([]byte("msg"), buf); err == nil {
		t.Error("expected UnknownOp rejection")
	}
}

func TestCorruptProofDetectedOnWalk(t *testing.T) {
	root := New([]byte("msg"))
	child, err := root.AddOp(sha256Op(t))
	if err != nil {
		t.Fatal(err)
	}
	// Tamper with the child's stored msg so it disagrees with apply(op, root.Msg).
	child.Msg = []byte("tampered")
	child.AddAttestation(NewBitcoinAttestation(100))

	if _, err := Walk(root); err == nil {
		t.Error("expected CorruptProof from tampered child digest")
	}
}

func TestIsComplete(t *testing.T) {
	root := New([]byte("msg"))
	root.AddAttestation(NewPendingAttestation("https://cal.example"))
	if root.IsComplete() {
		t.Error("pending-only timestamp should not be complete")
	}
	root.AddAttestation(NewBitcoinAttestation(123))
	if !root.IsComplete() {
		t.Error("timestamp with a bitcoin attestation should be complete")
	}
}

func TestEmptyFileRootHash(t *testing.T) {
	fileHash := digest.SHA256(nil)
	dtf, err := NewDetachedTimestampFile(sha256Op(t), fileHash)
	if err != nil {
		t.Fatal(err)
	}
	encoded, err := Encode(dtf)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decoded.Timestamp.Msg, fileHash) {
		t.Error("empty-file timestamp did not round-trip its root digest")
	}
}
