package stamper

import (
	"context"
	"errors"

	"github.com/opentimestamps/opentimestamps-client/internal/calendar"
	"github.com/opentimestamps/opentimestamps-client/internal/ots"
	"github.com/opentimestamps/opentimestamps-client/internal/proofcache"
)

// Upgrader walks the Pending leaves of a Timestamp and attempts to
// replace each with whatever the naming calendar has produced since,
// consulting and refreshing a proof cache along the way.
type Upgrader struct {
	Calendars map[string]calendar.Client // keyed by Client.URL()
	Cache     proofcache.Cache           // optional; nil disables caching
}

// NewUpgrader constructs an Upgrader dialing calendars by URL.
func NewUpgrader(calendars []calendar.Client, cache proofcache.Cache) *Upgrader {
	byURL := make(map[string]calendar.Client, len(calendars))
	for _, c := range calendars {
		byURL[c.URL()] = c
	}
	return &Upgrader{Calendars: byURL, Cache: cache}
}

// Result reports what Upgrade did.
type Result struct {
	// Upgraded is true if at least one pending leaf was replaced with a
	// completed fragment.
	Upgraded bool
	// StillPending lists the calendar URIs that have not yet confirmed.
	StillPending []string
}

// pendingLeaf pairs a Pending attestation with the live tree node it hangs
// off of, which is the digest actually submitted to that calendar (not
// necessarily root.Msg: the leaf may sit several op-edges deep, e.g.
// beneath the mandatory nonce edge Stamper.Submit inserts).
type pendingLeaf struct {
	node *ots.Timestamp
	uri  string
}

// Upgrade attempts to complete every Pending leaf in root. Each leaf is
// mutated in place via Merge, using that leaf's own Msg as the commitment
// fetched from its calendar.
func (u *Upgrader) Upgrade(ctx context.Context, root *ots.Timestamp) (Result, error) {
	var res Result
	var pending []pendingLeaf
	root.Walk(func(node *ots.Timestamp, a ots.Attestation) bool {
		if a.Kind != ots.AttestationPending {
			return true
		}
		pending = append(pending, pendingLeaf{node: node, uri: a.URI})
		return true
	})

	for _, p := range pending {
		if len(p.node.Msg) != 32 {
			res.StillPending = append(res.StillPending, p.uri)
			continue
		}
		var commitment [32]byte
		copy(commitment[:], p.node.Msg)

		fragment, err := u.fetch(ctx, p.uri, commitment)
		if err != nil {
			res.StillPending = append(res.StillPending, p.uri)
			continue
		}
		if fragment.IsComplete() {
			res.Upgraded = true
		} else {
			res.StillPending = append(res.StillPending, p.uri)
		}
		if err := p.node.Merge(fragment); err != nil {
			return res, err
		}
	}

	return res, nil
}

// fetch consults the cache first, then the calendar, caching whatever
// the calendar returns. Put is idempotent so re-upgrading an
// already-complete commitment is always safe to repeat.
func (u *Upgrader) fetch(ctx context.Context, uri string, commitment [32]byte) (*ots.Timestamp, error) {
	if u.Cache != nil {
		if cached, found, err := u.Cache.Get(commitment); err == nil && found && cached.IsComplete() {
			return cached, nil
		}
	}

	c, ok := u.Calendars[uri]
	if !ok {
		return nil, errors.New("stamper: no client configured for calendar " + uri)
	}
	fragment, err := c.GetTimestamp(ctx, commitment)
	if err != nil {
		return nil, err
	}
	if u.Cache != nil {
		_ = u.Cache.Put(commitment, fragment)
	}
	return fragment, nil
}
