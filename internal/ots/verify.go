package ots

import "fmt"

// VerifiedAttestation pairs an attestation leaf with the digest the walk
// arrived at when it reached that leaf.
type VerifiedAttestation struct {
	Attestation Attestation
	Digest      []byte
}

// Walk replays every op edge from root, checking that each child's stored
// Msg agrees with apply(op, parent.Msg), and collects every attestation
// leaf together with the digest at its position. The walk never consults
// the network.
func Walk(root *Timestamp) ([]VerifiedAttestation, error) {
	var out []VerifiedAttestation
	err := walkDepth(root, 0, &out)
	return out, err
}

func walkDepth(node *Timestamp, depth int, out *[]VerifiedAttestation) error {
	if depth > MaxRecursionDepth {
		return fmt.Errorf("ots: %w", ErrDeepRecursion)
	}
	for _, a := range node.Attestations() {
		*out = append(*out, VerifiedAttestation{Attestation: a, Digest: node.Msg})
	}
	for _, edge := range node.sortedEdges() {
		expected, err := edge.op.Apply(node.Msg)
		if err != nil {
			return fmt.Errorf("ots: %w: %v", ErrCorruptProof, err)
		}
		if !bytesEqual(expected, edge.child.Msg) {
			return fmt.Errorf("ots: %w: op 0x%02x", ErrCorruptProof, edge.op.Tag)
		}
		if err := walkDepth(edge.child, depth+1, out); err != nil {
			return err
		}
	}
	return nil
}
