package calendar

import (
	"context"

	"github.com/opentimestamps/opentimestamps-client/internal/ots"
)

// Fake is an in-memory Client used by tests and by callers stubbing a
// calendar server.
type Fake struct {
	Base      string
	Fragments map[[32]byte]*ots.Timestamp
}

// NewFake constructs a Fake calendar at the given base URL.
func NewFake(base string) *Fake {
	return &Fake{Base: base, Fragments: make(map[[32]byte]*ots.Timestamp)}
}

// URL implements Client.
func (f *Fake) URL() string { return f.Base }

// Submit implements Client: it records the digest and returns a
// Pending-only fragment naming this calendar.
func (f *Fake) Submit(_ context.Context, digest [32]byte) (*ots.Timestamp, error) {
	ts := ots.New(digest[:])
	ts.AddAttestation(ots.NewPendingAttestation(f.Base))
	f.Fragments[digest] = ts
	return ts, nil
}

// GetTimestamp implements Client: it returns whatever fragment is
// currently registered for commitment once it is complete, ErrPending
// while it is not, or ErrNotFound when none is registered.
func (f *Fake) GetTimestamp(_ context.Context, commitment [32]byte) (*ots.Timestamp, error) {
	ts, ok := f.Fragments[commitment]
	if !ok {
		return nil, ErrNotFound
	}
	if !ts.IsComplete() {
		return nil, ErrPending
	}
	return ts, nil
}

// Complete replaces the fragment for digest with a completed Timestamp
// (simulating the calendar server observing a block confirmation).
func (f *Fake) Complete(digest [32]byte, completed *ots.Timestamp) {
	f.Fragments[digest] = completed
}
