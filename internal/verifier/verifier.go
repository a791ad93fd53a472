// Package verifier composes the pure ots.Walk replay with the
// block-header oracle capability to produce a final, network-backed
// verification outcome.
package verifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/opentimestamps/opentimestamps-client/internal/oracle"
	"github.com/opentimestamps/opentimestamps-client/internal/ots"
)

// ErrAttestationMismatch is returned for a block-header attestation whose
// walked digest disagrees with the oracle's reported Merkle root.
var ErrAttestationMismatch = errors.New("verifier: attestation mismatch")

// ErrNoVerifiableAttestation is returned when a proof parses and walks
// fine but no attestation leaf resolves to a confirmed block.
var ErrNoVerifiableAttestation = errors.New("verifier: no verifiable attestation")

// Outcome is the user-visible result of verifying a Timestamp.
type Outcome struct {
	Success     bool
	BlockHeight uint64
	Chain       string
	BlockTime   uint32 // earliest ntime among matching attestations
	Pending     []string // calendar URLs still owed
	Mismatches  []error
}

// Verify walks ts and checks every block-header attestation leaf against
// o. At least one match yields Success with the minimum ntime among
// matches; without a match ErrNoVerifiableAttestation is returned, and
// pending-only proofs still report their outstanding calendars in the
// returned Outcome.
func Verify(ctx context.Context, ts *ots.Timestamp, o oracle.Oracle) (*Outcome, error) {
	attestations, err := ots.Walk(ts)
	if err != nil {
		return nil, err
	}

	out := &Outcome{}
	matched := false

	for _, va := range attestations {
		a := va.Attestation
		switch {
		case a.Kind == ots.AttestationPending:
			out.Pending = append(out.Pending, a.URI)
		case a.IsBlockHeader():
			header, err := o.GetBlockHeader(ctx, a.Chain(), a.Height)
			if err != nil {
				out.Mismatches = append(out.Mismatches, fmt.Errorf("%s height %d: %w", a.Chain(), a.Height, err))
				continue
			}
			if !bytes.Equal(header.MerkleRoot[:], va.Digest) {
				out.Mismatches = append(out.Mismatches, fmt.Errorf("%s height %d: %w", a.Chain(), a.Height, ErrAttestationMismatch))
				continue
			}
			if !matched || header.Time < out.BlockTime {
				out.BlockTime = header.Time
				out.BlockHeight = a.Height
				out.Chain = a.Chain()
			}
			matched = true
		}
	}

	out.Success = matched
	if !matched {
		return out, ErrNoVerifiableAttestation
	}
	return out, nil
}
