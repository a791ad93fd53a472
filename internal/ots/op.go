// Package ots implements the OpenTimestamps proof data structure: its
// operation and attestation vocabularies, the Timestamp tree and its merge
// algebra, the binary codec, and the verifier that replays a proof's
// operation chain.
package ots

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/opentimestamps/opentimestamps-client/internal/digest"
)

// Op tags, per spec section 4.2.
const (
	TagAppend     byte = 0xf0
	TagPrepend    byte = 0xf1
	TagReverse    byte = 0xf2
	TagHexlify    byte = 0xf3
	TagSHA1       byte = 0x02
	TagRIPEMD160  byte = 0x03
	TagSHA256     byte = 0x08
	TagKeccak256  byte = 0x67
)

// maxImmediateLen bounds an APPEND/PREPEND immediate argument.
const maxImmediateLen = 4096

// OpKind classifies an Op for validation and evaluation.
type OpKind int

const (
	KindBinaryByte OpKind = iota
	KindUnary
	KindHash
)

// Op is a single commitment operation: a pure function from one digest (the
// "message") to another.
type Op struct {
	Tag  byte
	Arg  []byte // only set for binary-byte ops (APPEND/PREPEND)
	Kind OpKind
}

var hashFuncs = map[byte]digest.Func{
	TagSHA1:      digest.SHA1,
	TagRIPEMD160: digest.RIPEMD160,
	TagSHA256:    digest.SHA256,
	TagKeccak256: digest.Keccak256,
}

var hashNames = map[byte]string{
	TagSHA1:      "sha1",
	TagRIPEMD160: "ripemd160",
	TagSHA256:    "sha256",
	TagKeccak256: "keccak256",
}

// NewHashOp constructs a unary hash op from its tag.
func NewHashOp(tag byte) (Op, error) {
	if _, ok := hashFuncs[tag]; !ok {
		return Op{}, fmt.Errorf("ots: not a hash op tag 0x%02x", tag)
	}
	return Op{Tag: tag, Kind: KindHash}, nil
}

// NewAppend constructs an APPEND(arg) op.
func NewAppend(arg []byte) (Op, error) {
	return newBinaryOp(TagAppend, arg)
}

// NewPrepend constructs a PREPEND(arg) op.
func NewPrepend(arg []byte) (Op, error) {
	return newBinaryOp(TagPrepend, arg)
}

func newBinaryOp(tag byte, arg []byte) (Op, error) {
	if len(arg) < 1 || len(arg) > maxImmediateLen {
		return Op{}, fmt.Errorf("ots: binary op immediate length %d out of range [1,%d]", len(arg), maxImmediateLen)
	}
	return Op{Tag: tag, Arg: append([]byte(nil), arg...), Kind: KindBinaryByte}, nil
}

// NewUnary constructs a REVERSE or HEXLIFY op.
func NewUnary(tag byte) (Op, error) {
	if tag != TagReverse && tag != TagHexlify {
		return Op{}, fmt.Errorf("ots: not a unary op tag 0x%02x", tag)
	}
	return Op{Tag: tag, Kind: KindUnary}, nil
}

// IsHash reports whether op is a unary hash op.
func (op Op) IsHash() bool { return op.Kind == KindHash }

// HashName returns the hash function name for a hash op.
func (op Op) HashName() string { return hashNames[op.Tag] }

// Apply evaluates the operation against msg, producing the successor
// digest.
func (op Op) Apply(msg []byte) ([]byte, error) {
	switch op.Kind {
	case KindHash:
		fn, ok := hashFuncs[op.Tag]
		if !ok {
			return nil, fmt.Errorf("ots: unknown hash tag 0x%02x", op.Tag)
		}
		return fn(msg), nil
	case KindBinaryByte:
		switch op.Tag {
		case TagAppend:
			out := make([]byte, 0, len(msg)+len(op.Arg))
			out = append(out, msg...)
			out = append(out, op.Arg...)
			return out, nil
		case TagPrepend:
			out := make([]byte, 0, len(msg)+len(op.Arg))
			out = append(out, op.Arg...)
			out = append(out, msg...)
			return out, nil
		}
	case KindUnary:
		switch op.Tag {
		case TagReverse:
			return digest.Reverse(msg), nil
		case TagHexlify:
			return []byte(hex.EncodeToString(msg)), nil
		}
	}
	return nil, fmt.Errorf("ots: unevaluable op tag 0x%02x", op.Tag)
}

// key returns a canonical, comparable representation of the op suitable
// for use as a map key (tag, then immediate bytes).
func (op Op) key() string {
	buf := make([]byte, 1+len(op.Arg))
	buf[0] = op.Tag
	copy(buf[1:], op.Arg)
	return string(buf)
}

// Equal reports structural equality.
func (op Op) Equal(other Op) bool {
	return op.Tag == other.Tag && bytes.Equal(op.Arg, other.Arg)
}

// Less defines the canonical total order over sibling op edges: ascending
// tag, then ascending immediate-argument byte-lex order.
func (op Op) Less(other Op) bool {
	if op.Tag != other.Tag {
		return op.Tag < other.Tag
	}
	return bytes.Compare(op.Arg, other.Arg) < 0
}

// classifyTag returns the OpKind and validity for a bare tag byte as seen
// during decode (before any immediate argument is known).
func classifyTag(tag byte) (OpKind, bool) {
	switch tag {
	case TagAppend, TagPrepend:
		return KindBinaryByte, true
	case TagReverse, TagHexlify:
		return KindUnary, true
	case TagSHA1, TagRIPEMD160, TagSHA256, TagKeccak256:
		return KindHash, true
	default:
		return 0, false
	}
}
