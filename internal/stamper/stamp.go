// Package stamper submits a digest to multiple calendars concurrently
// under an m-of-n policy, and later walks a Timestamp's pending leaves to
// pull completed attestations.
//
// The fan-out/collect shape is one goroutine per remote endpoint, a
// buffered result channel, and a single collecting loop.
package stamper

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/opentimestamps/opentimestamps-client/internal/calendar"
	"github.com/opentimestamps/opentimestamps-client/internal/ots"
)

// ErrQuorumNotMet is returned when fewer than the required number of
// calendars accepted the submission before ctx was done.
var ErrQuorumNotMet = errors.New("stamper: quorum not met")

// nonceLen is the size of the random privacy nonce inserted between the
// submitted file digest and the commitment calendars actually see (spec
// section 4.6 step 3). Without it, two stampings of the same bytes would
// submit the same digest to every calendar and be trivially linkable.
const nonceLen = 16

// addNonce inserts APPEND(16 random bytes) -> SHA256 beneath root and
// returns the resulting leaf along with its digest, which is the
// commitment submitted to calendars instead of root.Msg itself.
func addNonce(root *ots.Timestamp) (*ots.Timestamp, [32]byte, error) {
	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, [32]byte{}, fmt.Errorf("stamper: generating nonce: %w", err)
	}
	appendOp, err := ots.NewAppend(nonce)
	if err != nil {
		return nil, [32]byte{}, err
	}
	nonced, err := root.AddOp(appendOp)
	if err != nil {
		return nil, [32]byte{}, err
	}
	hashOp, err := ots.NewHashOp(ots.TagSHA256)
	if err != nil {
		return nil, [32]byte{}, err
	}
	leaf, err := nonced.AddOp(hashOp)
	if err != nil {
		return nil, [32]byte{}, err
	}
	var commitment [32]byte
	copy(commitment[:], leaf.Msg)
	return leaf, commitment, nil
}

// GracePeriod bounds how long Submit waits for stragglers after quorum is
// reached or ctx is canceled, before giving up on the remaining calendars.
const GracePeriod = 2 * time.Second

// Policy configures how many of a calendar set must accept a submission.
type Policy struct {
	// Required is the minimum number of successful submissions needed.
	// Zero means require all calendars (m == n).
	Required int
}

func (p Policy) required(n int) int {
	if p.Required <= 0 || p.Required > n {
		return n
	}
	return p.Required
}

// Stamper submits digests to a fixed set of calendars.
type Stamper struct {
	Calendars []calendar.Client
	Policy    Policy
}

// New constructs a Stamper over calendars with the given quorum policy.
func New(calendars []calendar.Client, policy Policy) *Stamper {
	return &Stamper{Calendars: calendars, Policy: policy}
}

type submitResult struct {
	cal calendar.Client
	ts  *ots.Timestamp
	err error
}

// Submit posts a nonce-derived commitment of digest to every configured
// calendar concurrently, merging the successful fragments into the
// resulting Timestamp. The returned tree is still rooted at digest, but
// every calendar attestation hangs off an APPEND(nonce) -> SHA256 leaf
// beneath it rather than off digest directly, so the value calendars
// observe differs between stampings of the same bytes. Submit returns
// once at least Policy.required calendars have responded successfully, or
// ctx is done and no more stragglers arrive within GracePeriod. The
// returned error is ErrQuorumNotMet if quorum was not reached; merged
// partial results are still returned alongside it so callers can persist
// whatever was obtained.
func (s *Stamper) Submit(ctx context.Context, digest [32]byte) (*ots.Timestamp, error) {
	if len(s.Calendars) == 0 {
		return nil, fmt.Errorf("stamper: no calendars configured")
	}
	need := s.Policy.required(len(s.Calendars))

	root := ots.New(digest[:])
	leaf, commitment, err := addNonce(root)
	if err != nil {
		return nil, err
	}

	results := make(chan submitResult, len(s.Calendars))
	for _, c := range s.Calendars {
		go func(c calendar.Client) {
			ts, err := c.Submit(ctx, commitment)
			results <- submitResult{cal: c, ts: ts, err: err}
		}(c)
	}

	succeeded := 0
	var lastErr error
	var graceDeadline <-chan time.Time
	ctxDone := ctx.Done()

collect:
	for i := 0; i < len(s.Calendars); i++ {
		select {
		case res := <-results:
			if res.err != nil {
				lastErr = res.err
				continue
			}
			if err := leaf.Merge(res.ts); err != nil {
				lastErr = err
				continue
			}
			succeeded++
			if succeeded >= need && graceDeadline == nil {
				graceDeadline = time.After(GracePeriod)
			}
		case <-ctxDone:
			ctxDone = nil
			if graceDeadline == nil {
				graceDeadline = time.After(GracePeriod)
			}
			i-- // no result was consumed
		case <-graceDeadline:
			break collect
		}
	}

	if succeeded < need {
		if lastErr != nil {
			return root, fmt.Errorf("%w: %v", ErrQuorumNotMet, lastErr)
		}
		return root, ErrQuorumNotMet
	}
	return root, nil
}
