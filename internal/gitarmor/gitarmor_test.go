package gitarmor

import (
	"strings"
	"testing"

	"github.com/opentimestamps/opentimestamps-client/internal/ots"
)

func TestArmorExtractRoundTrip(t *testing.T) {
	commitText := "tree deadbeef\nauthor someone\n\nfix the thing\n"
	digest := CommitDigest(commitText)

	ts := ots.New(digest[:])
	ts.AddAttestation(ots.NewPendingAttestation("https://cal.example"))

	block, err := Armor(ts)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(block, beginLine) {
		t.Fatalf("block missing begin delimiter: %q", block)
	}

	full := commitText + block

	got, err := Extract(full, digest[:])
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Attestations()) != 1 {
		t.Errorf("expected 1 attestation, got %d", len(got.Attestations()))
	}
}

func TestCommitDigestExcludesBlock(t *testing.T) {
	base := "tree deadbeef\nauthor someone\n\nmessage\n"
	withBlock := base + beginLine + "\nAAAA\n" + endLine + "\n"

	if CommitDigest(base) != CommitDigest(withBlock) {
		t.Error("expected digest to ignore embedded timestamp block")
	}
}

func TestExtractNoBlock(t *testing.T) {
	_, err := Extract("just a plain commit message\n", make([]byte, 32))
	if err != ErrNoBlock {
		t.Errorf("expected ErrNoBlock, got %v", err)
	}
}
