package proofcache

import (
	"testing"

	"github.com/opentimestamps/opentimestamps-client/internal/ots"
)

func TestFileCachePutGet(t *testing.T) {
	cache := NewFileCache(t.TempDir())
	var commitment [32]byte
	commitment[0] = 0x42

	frag := ots.New(commitment[:])
	frag.AddAttestation(ots.NewPendingAttestation("https://cal.example"))

	if err := cache.Put(commitment, frag); err != nil {
		t.Fatal(err)
	}

	got, found, err := cache.Get(commitment)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected cache hit")
	}
	if !got.IsComplete() && len(got.Attestations()) != 1 {
		t.Errorf("unexpected fragment: %+v", got.Attestations())
	}
}

func TestFileCacheMissIsNotError(t *testing.T) {
	cache := NewFileCache(t.TempDir())
	var commitment [32]byte
	_, found, err := cache.Get(commitment)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("expected miss")
	}
}

func TestFileCachePutIsIdempotent(t *testing.T) {
	cache := NewFileCache(t.TempDir())
	var commitment [32]byte
	commitment[0] = 0x01

	frag := ots.New(commitment[:])
	frag.AddAttestation(ots.NewBitcoinAttestation(100))

	if err := cache.Put(commitment, frag); err != nil {
		t.Fatal(err)
	}
	if err := cache.Put(commitment, frag); err != nil {
		t.Fatal(err)
	}

	got, _, err := cache.Get(commitment)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Attestations()) != 1 {
		t.Errorf("expected exactly one attestation after repeated put, got %d", len(got.Attestations()))
	}
}
