package ots

import (
	"bytes"
	"fmt"

	"github.com/opentimestamps/opentimestamps-client/internal/varint"
)

// HeaderMagic is the 31-byte literal that identifies a DetachedTimestampFile.
var HeaderMagic = [31]byte{
	0x00, 0x4f, 0x70, 0x65, 0x6e, 0x54, 0x69, 0x6d,
	0x65, 0x73, 0x74, 0x61, 0x6d, 0x70, 0x73, 0x00,
	0x00, 0x50, 0x72, 0x6f, 0x6f, 0x66, 0x00, 0xbf,
	0x89, 0xe2, 0xe8, 0x84, 0xe8, 0x92, 0x94,
}

// CurrentVersion is the only DetachedTimestampFile version this codec
// accepts.
const CurrentVersion = 1

const maxTotalAttestations = 10000

// DetachedTimestampFile is the on-disk .ots entity: a file-hash operation
// plus the proof rooted at the digest it produces.
type DetachedTimestampFile struct {
	Version    uint64
	FileHashOp Op
	Timestamp  *Timestamp
}

// NewDetachedTimestampFile wraps a file digest (already hashed with
// fileHashOp) into a fresh, attestation-free proof.
func NewDetachedTimestampFile(fileHashOp Op, fileDigest []byte) (*DetachedTimestampFile, error) {
	if !fileHashOp.IsHash() {
		return nil, fmt.Errorf("ots: file_hash_op must be a unary hash op")
	}
	if want := digestLenForTag(fileHashOp.Tag); want != len(fileDigest) {
		return nil, fmt.Errorf("ots: file digest length %d does not match op output length %d", len(fileDigest), want)
	}
	return &DetachedTimestampFile{
		Version:    CurrentVersion,
		FileHashOp: fileHashOp,
		Timestamp:  New(fileDigest),
	}, nil
}

func digestLenForTag(tag byte) int {
	switch tag {
	case TagSHA256, TagKeccak256:
		return 32
	case TagSHA1, TagRIPEMD160:
		return 20
	default:
		return 0
	}
}

// Encode serializes a DetachedTimestampFile.
func Encode(f *DetachedTimestampFile) ([]byte, error) {
	var buf bytes.Buffer
	w := varint.NewWriter(&buf)

	if err := w.WriteBytes(HeaderMagic[:]); err != nil {
		return nil, err
	}
	if err := w.WriteVaruint(f.Version); err != nil {
		return nil, err
	}
	if err := w.WriteByte(f.FileHashOp.Tag); err != nil {
		return nil, err
	}
	if err := w.WriteBytes(f.Timestamp.Msg); err != nil {
		return nil, err
	}
	if err := encodeTimestampBody(w, f.Timestamp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeTimestampBody writes a Timestamp's attestations and op-edges as a
// single interleaved item list, in canonical deterministic order
// (attestations before op-edges). Every item but the last is prefixed
// with a 0xff continuation marker; the last item has no prefix, which is
// how decodeTimestampBody knows where this node's body ends without a
// separate length or count field. A node with zero items (root loaded
// fresh with no attestations yet) writes nothing.
func encodeTimestampBody(w *varint.Writer, t *Timestamp) error {
	attestations := t.Attestations()
	edges := t.sortedEdges()
	total := len(attestations) + len(edges)
	written := 0

	for _, a := range attestations {
		written++
		if written < total {
			if err := w.WriteByte(0xff); err != nil {
				return err
			}
		}
		if err := w.WriteByte(0x00); err != nil {
			return err
		}
		magic := a.magicFor()
		if err := w.WriteBytes(magic[:]); err != nil {
			return err
		}
		payload, err := encodeAttestationPayload(a)
		if err != nil {
			return err
		}
		if err := w.WriteVarBytes(payload); err != nil {
			return err
		}
	}

	for _, edge := range edges {
		written++
		if written < total {
			if err := w.WriteByte(0xff); err != nil {
				return err
			}
		}
		if err := w.WriteByte(edge.op.Tag); err != nil {
			return err
		}
		if edge.op.Kind == KindBinaryByte {
			if err := w.WriteVarBytes(edge.op.Arg); err != nil {
				return err
			}
		}
		if err := encodeTimestampBody(w, edge.child); err != nil {
			return err
		}
	}
	return nil
}

func encodeAttestationPayload(a Attestation) ([]byte, error) {
	switch a.Kind {
	case AttestationPending:
		var payload bytes.Buffer
		pw := varint.NewWriter(&payload)
		if err := pw.WriteVarBytes([]byte(a.URI)); err != nil {
			return nil, err
		}
		return payload.Bytes(), nil
	case AttestationBitcoinBlockHeader, AttestationLitecoinBlockHeader, AttestationEthereumBlockHeader:
		var payload bytes.Buffer
		pw := varint.NewWriter(&payload)
		if err := pw.WriteVaruint(a.Height); err != nil {
			return nil, err
		}
		return payload.Bytes(), nil
	case AttestationUnknown:
		return a.Payload, nil
	default:
		return nil, fmt.Errorf("ots: unknown attestation kind %d", a.Kind)
	}
}

// Decode parses a DetachedTimestampFile.
func Decode(data []byte) (*DetachedTimestampFile, error) {
	r := varint.NewReader(data)

	magic, err := r.ReadBytes(len(HeaderMagic))
	if err != nil {
		return nil, fmt.Errorf("ots: %w: reading header magic", ErrTruncated)
	}
	for i := range HeaderMagic {
		if magic[i] != HeaderMagic[i] {
			return nil, fmt.Errorf("ots: %w", ErrBadMagic)
		}
	}

	version, err := r.ReadVaruint()
	if err != nil {
		return nil, fmt.Errorf("ots: %w: reading version", ErrTruncated)
	}
	if version != CurrentVersion {
		return nil, fmt.Errorf("ots: %w: %d", ErrUnsupportedVersion, version)
	}

	hashTag, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("ots: %w: reading file_hash_op", ErrTruncated)
	}
	fileHashOp, err := NewHashOp(hashTag)
	if err != nil {
		return nil, fmt.Errorf("ots: %w: file_hash_op tag 0x%02x", ErrUnknownOp, hashTag)
	}

	hashLen := digestLenForTag(hashTag)
	rootMsg, err := r.ReadBytes(hashLen)
	if err != nil {
		return nil, fmt.Errorf("ots: %w: reading root digest", ErrTruncated)
	}

	root := New(rootMsg)
	dc := &decodeCtx{}
	if err := decodeTimestampBody(r, root, dc, 0); err != nil {
		return nil, err
	}

	return &DetachedTimestampFile{
		Version:    version,
		FileHashOp: fileHashOp,
		Timestamp:  root,
	}, nil
}

// DecodeTimestamp parses a bare Timestamp (no DetachedTimestampFile framing)
// rooted at msg, as used by the Git-armor form.
func DecodeTimestamp(msg, data []byte) (*Timestamp, error) {
	root := New(msg)
	dc := &decodeCtx{}
	r := varint.NewReader(data)
	if err := decodeTimestampBody(r, root, dc, 0); err != nil {
		return nil, err
	}
	return root, nil
}

// EncodeTimestamp serializes a bare Timestamp (no DetachedTimestampFile
// framing).
func EncodeTimestamp(t *Timestamp) ([]byte, error) {
	var buf bytes.Buffer
	w := varint.NewWriter(&buf)
	if err := encodeTimestampBody(w, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type decodeCtx struct {
	attestationCount int
}

// decodeTimestampBody parses a node's interleaved item list: each item is
// either an attestation (tag 0x00) or an op-edge (any other valid tag),
// and every item but the last is prefixed with a 0xff continuation
// marker. This mirrors encodeTimestampBody exactly: attestations and
// op-edges share one terminated list per node rather than two
// independently-terminated phases, so a node with no op-edges of its own
// (an attestation-only leaf) correctly hands control back to its parent
// instead of consuming the parent's next sibling edge.
func decodeTimestampBody(r *varint.Reader, node *Timestamp, dc *decodeCtx, depth int) error {
	if depth > MaxRecursionDepth {
		return fmt.Errorf("ots: %w", ErrDeepRecursion)
	}

	for {
		tag, err := r.ReadByte()
		if err != nil {
			return nil // end of stream; this node's body has no (more) items.
		}

		more := false
		if tag == 0xff {
			more = true
			tag, err = r.ReadByte()
			if err != nil {
				return fmt.Errorf("ots: %w: reading item tag after continuation", ErrTruncated)
			}
		}

		if tag == 0x00 {
			if err := decodeAttestation(r, node, dc); err != nil {
				return err
			}
		} else {
			kind, ok := classifyTag(tag)
			if !ok {
				return fmt.Errorf("ots: %w: tag 0x%02x", ErrUnknownOp, tag)
			}

			op := Op{Tag: tag, Kind: kind}
			if kind == KindBinaryByte {
				arg, err := r.ReadVarBytes(maxImmediateLen)
				if err != nil {
					return fmt.Errorf("ots: %w: reading op immediate", ErrTruncated)
				}
				op.Arg = arg
			}

			child, err := node.AddOp(op)
			if err != nil {
				return fmt.Errorf("ots: %w: %v", ErrCorruptProof, err)
			}
			if err := decodeTimestampBody(r, child, dc, depth+1); err != nil {
				return err
			}
		}

		if !more {
			return nil
		}
	}
}

func decodeAttestation(r *varint.Reader, node *Timestamp, dc *decodeCtx) error {
	dc.attestationCount++
	if dc.attestationCount > maxTotalAttestations {
		return fmt.Errorf("ots: %w: too many attestations", ErrSizeLimit)
	}

	magicBytes, err := r.ReadBytes(8)
	if err != nil {
		return fmt.Errorf("ots: %w: reading attestation magic", ErrTruncated)
	}
	var magic [8]byte
	copy(magic[:], magicBytes)

	payload, err := r.ReadVarBytes(maxPayloadSize)
	if err != nil {
		return fmt.Errorf("ots: %w: reading attestation payload", ErrTruncated)
	}

	kind := attestationKindFromMagic(magic)
	switch kind {
	case AttestationPending:
		pr := varint.NewReader(payload)
		uri, err := pr.ReadVarBytes(maxURILen)
		if err != nil {
			return fmt.Errorf("ots: %w: reading pending URI", ErrTruncated)
		}
		node.AddAttestation(NewPendingAttestation(string(uri)))
	case AttestationBitcoinBlockHeader, AttestationLitecoinBlockHeader, AttestationEthereumBlockHeader:
		pr := varint.NewReader(payload)
		height, err := pr.ReadVaruint()
		if err != nil {
			return fmt.Errorf("ots: %w: reading block height", ErrTruncated)
		}
		switch kind {
		case AttestationBitcoinBlockHeader:
			node.AddAttestation(NewBitcoinAttestation(height))
		case AttestationLitecoinBlockHeader:
			node.AddAttestation(NewLitecoinAttestation(height))
		case AttestationEthereumBlockHeader:
			node.AddAttestation(NewEthereumAttestation(height))
		}
	default:
		node.AddAttestation(NewUnknownAttestation(magic, payload))
	}
	return nil
}
