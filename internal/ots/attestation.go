package ots

import "bytes"

// Attestation magics, 8 bytes each, per spec section 4.4.
var (
	MagicPending           = [8]byte{0x83, 0xdf, 0xe3, 0x0d, 0x2e, 0xf9, 0x0c, 0x8e}
	MagicBitcoinBlockHeader = [8]byte{0x05, 0x88, 0x96, 0x0d, 0x73, 0xd7, 0x19, 0x01}
	MagicLitecoinBlockHeader = [8]byte{0x06, 0x86, 0x9a, 0x0d, 0x73, 0xd7, 0x1b, 0x45}
	MagicEthereumBlockHeader = [8]byte{0x30, 0xfe, 0x80, 0x87, 0xb5, 0xc7, 0xea, 0xd7}
)

// AttestationKind classifies an Attestation's variant.
type AttestationKind int

const (
	AttestationPending AttestationKind = iota
	AttestationBitcoinBlockHeader
	AttestationLitecoinBlockHeader
	AttestationEthereumBlockHeader
	AttestationUnknown
)

const (
	maxURILen      = 1024
	maxPayloadSize = 8192
)

// Attestation is a tagged leaf asserting a fact about the digest at its
// tree position.
type Attestation struct {
	Kind AttestationKind

	// Pending
	URI string

	// block-header variants
	Height uint64

	// Unknown
	Magic   [8]byte
	Payload []byte
}

// NewPendingAttestation constructs a pending-calendar attestation.
func NewPendingAttestation(uri string) Attestation {
	return Attestation{Kind: AttestationPending, URI: uri}
}

// NewBitcoinAttestation constructs a Bitcoin block-header attestation.
func NewBitcoinAttestation(height uint64) Attestation {
	return Attestation{Kind: AttestationBitcoinBlockHeader, Height: height}
}

// NewLitecoinAttestation constructs a Litecoin block-header attestation.
func NewLitecoinAttestation(height uint64) Attestation {
	return Attestation{Kind: AttestationLitecoinBlockHeader, Height: height}
}

// NewEthereumAttestation constructs an Ethereum block-header attestation.
func NewEthereumAttestation(height uint64) Attestation {
	return Attestation{Kind: AttestationEthereumBlockHeader, Height: height}
}

// NewUnknownAttestation preserves an unrecognised 8-byte-magic attestation
// verbatim for forward compatibility.
func NewUnknownAttestation(magic [8]byte, payload []byte) Attestation {
	return Attestation{Kind: AttestationUnknown, Magic: magic, Payload: append([]byte(nil), payload...)}
}

// magicFor returns the 8-byte wire magic for a (known) attestation.
func (a Attestation) magicFor() [8]byte {
	switch a.Kind {
	case AttestationPending:
		return MagicPending
	case AttestationBitcoinBlockHeader:
		return MagicBitcoinBlockHeader
	case AttestationLitecoinBlockHeader:
		return MagicLitecoinBlockHeader
	case AttestationEthereumBlockHeader:
		return MagicEthereumBlockHeader
	case AttestationUnknown:
		return a.Magic
	}
	return [8]byte{}
}

// Equal reports full structural equality, matching the set-equality
// semantics required for attestation sets (duplicate-tag
// attestations with different heights are distinct).
func (a Attestation) Equal(b Attestation) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case AttestationPending:
		return a.URI == b.URI
	case AttestationBitcoinBlockHeader, AttestationLitecoinBlockHeader, AttestationEthereumBlockHeader:
		return a.Height == b.Height
	case AttestationUnknown:
		return a.Magic == b.Magic && bytes.Equal(a.Payload, b.Payload)
	}
	return false
}

// key returns a comparable, unique string for use as a set key.
func (a Attestation) key() string {
	m := a.magicFor()
	switch a.Kind {
	case AttestationPending:
		return string(m[:]) + a.URI
	case AttestationBitcoinBlockHeader, AttestationLitecoinBlockHeader, AttestationEthereumBlockHeader:
		var buf [8]byte
		n := a.Height
		for i := 7; i >= 0; i-- {
			buf[i] = byte(n)
			n >>= 8
		}
		return string(m[:]) + string(buf[:])
	default:
		return string(m[:]) + string(a.Payload)
	}
}

// Chain names the blockchain a block-header attestation refers to.
func (a Attestation) Chain() string {
	switch a.Kind {
	case AttestationBitcoinBlockHeader:
		return "bitcoin"
	case AttestationLitecoinBlockHeader:
		return "litecoin"
	case AttestationEthereumBlockHeader:
		return "ethereum"
	}
	return ""
}

// IsBlockHeader reports whether this is any block-header attestation
// variant.
func (a Attestation) IsBlockHeader() bool {
	switch a.Kind {
	case AttestationBitcoinBlockHeader, AttestationLitecoinBlockHeader, AttestationEthereumBlockHeader:
		return true
	}
	return false
}

func attestationKindFromMagic(magic [8]byte) AttestationKind {
	switch magic {
	case MagicPending:
		return AttestationPending
	case MagicBitcoinBlockHeader:
		return AttestationBitcoinBlockHeader
	case MagicLitecoinBlockHeader:
		return AttestationLitecoinBlockHeader
	case MagicEthereumBlockHeader:
		return AttestationEthereumBlockHeader
	default:
		return AttestationUnknown
	}
}
