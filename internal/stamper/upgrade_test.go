package stamper

import (
	"bytes"
	"context"
	"testing"

	"github.com/opentimestamps/opentimestamps-client/internal/calendar"
	"github.com/opentimestamps/opentimestamps-client/internal/ots"
)

func TestUpgradePendingBecomesComplete(t *testing.T) {
	cal := calendar.NewFake("https://cal.example")
	var digest [32]byte
	digest[0] = 0x10

	root, err := cal.Submit(context.Background(), digest)
	if err != nil {
		t.Fatal(err)
	}

	completed := ots.New(digest[:])
	completed.AddAttestation(ots.NewBitcoinAttestation(700000))
	cal.Complete(digest, completed)

	u := NewUpgrader([]calendar.Client{cal}, nil)
	res, err := u.Upgrade(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Upgraded {
		t.Error("expected Upgraded true")
	}
	if !root.IsComplete() {
		t.Error("expected root to be complete after upgrade")
	}
}

func TestUpgradeStillPending(t *testing.T) {
	cal := calendar.NewFake("https://cal.example")
	var digest [32]byte
	digest[0] = 0x11

	root, err := cal.Submit(context.Background(), digest)
	if err != nil {
		t.Fatal(err)
	}

	u := NewUpgrader([]calendar.Client{cal}, nil)
	res, err := u.Upgrade(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if res.Upgraded {
		t.Error("expected Upgraded false")
	}
	if len(res.StillPending) != 1 {
		t.Errorf("expected 1 still-pending calendar, got %d", len(res.StillPending))
	}
}

// TestUpgradeMultiHopUsesLeafDigest covers the shape Stamper.Submit
// actually produces: the Pending leaf sits beneath an Append(nonce) ->
// SHA256 edge, so its own Msg (not root.Msg, the file digest) is the
// commitment the calendar knows about.
func TestUpgradeMultiHopUsesLeafDigest(t *testing.T) {
	cal := calendar.NewFake("https://cal.example")
	var fileDigest [32]byte
	fileDigest[0] = 0x20

	root := ots.New(fileDigest[:])
	appendOp, err := ots.NewAppend(bytes.Repeat([]byte{0xbb}, 16))
	if err != nil {
		t.Fatal(err)
	}
	nonced, err := root.AddOp(appendOp)
	if err != nil {
		t.Fatal(err)
	}
	hashOp, err := ots.NewHashOp(ots.TagSHA256)
	if err != nil {
		t.Fatal(err)
	}
	leaf, err := nonced.AddOp(hashOp)
	if err != nil {
		t.Fatal(err)
	}

	var commitment [32]byte
	copy(commitment[:], leaf.Msg)

	fragment, err := cal.Submit(context.Background(), commitment)
	if err != nil {
		t.Fatal(err)
	}
	if err := leaf.Merge(fragment); err != nil {
		t.Fatal(err)
	}

	completed := ots.New(commitment[:])
	completed.AddAttestation(ots.NewBitcoinAttestation(800000))
	cal.Complete(commitment, completed)

	u := NewUpgrader([]calendar.Client{cal}, nil)
	res, err := u.Upgrade(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Upgraded {
		t.Error("expected Upgraded true; Upgrade must use the leaf's own digest, not root.Msg, to fetch from the calendar")
	}
	if !root.IsComplete() {
		t.Error("expected root to be complete after upgrade")
	}
}
