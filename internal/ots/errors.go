package ots

import "errors"

// Error kinds returned by the codec and verifier. Each is a distinct sentinel so
// callers can classify a failure with errors.Is, while the wrapping error
// carries the contextual detail (the field being read, the offending tag).
// Byte offsets into the input are not included.
var (
	ErrTruncated       = errors.New("truncated proof")
	ErrVarintOverflow  = errors.New("varint overflow")
	ErrDeepRecursion   = errors.New("recursion depth exceeded")
	ErrSizeLimit       = errors.New("size limit exceeded")
	ErrUnknownOp       = errors.New("unknown operation tag")
	ErrCorruptProof    = errors.New("corrupt proof: op edge disagrees with parent digest")
	ErrBadMagic        = errors.New("bad magic header")
	ErrUnsupportedVersion = errors.New("unsupported version")
)
