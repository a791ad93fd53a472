package digest

import (
	"encoding/hex"
	"testing"
)

func TestSHA256Empty(t *testing.T) {
	got := hex.EncodeToString(SHA256(nil))
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got != want {
		t.Errorf("got %s want %s", got, want)
	}
}

func TestReverse(t *testing.T) {
	got := Reverse([]byte{1, 2, 3})
	want := []byte{3, 2, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"sha256", "sha1", "ripemd160", "keccak256"} {
		fn, ok := ByName(name)
		if !ok {
			t.Fatalf("missing hash func %s", name)
		}
		if got := len(fn([]byte("x"))); got != OutputLen(name) {
			t.Errorf("%s: output len %d, want %d", name, got, OutputLen(name))
		}
	}
	if _, ok := ByName("bogus"); ok {
		t.Error("expected unknown name to miss")
	}
}
