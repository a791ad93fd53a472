package varint

import (
	"bytes"
	"testing"
)

func TestVaruintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 1 << 20, 1<<63 - 1}
	for _, v := range values {
		var buf bytes.Buffer
		if err := NewWriter(&buf).WriteVaruint(v); err != nil {
			t.Fatalf("write %d: %v", v, err)
		}
		got, err := NewReader(buf.Bytes()).ReadVaruint()
		if err != nil {
			t.Fatalf("read %d: %v", v, err)
		}
		if got != v {
			t.Errorf("round-trip %d: got %d", v, got)
		}
	}
}

func TestReadByteTruncated(t *testing.T) {
	r := NewReader(nil)
	if _, err := r.ReadByte(); err != ErrTruncated {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestReadBytesTruncated(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	if _, err := r.ReadBytes(4); err != ErrTruncated {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestVarintOverflow(t *testing.T) {
	// 9 bytes, all continuation bits set, bit 63+ required.
	overflowing := bytes.Repeat([]byte{0xff}, 9)
	r := NewReader(overflowing)
	if _, err := r.ReadVaruint(); err != ErrVarintOverflow {
		t.Errorf("expected ErrVarintOverflow, got %v", err)
	}
}

func TestVarBytesMaxLen(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteVaruint(4097)
	buf.Write(make([]byte, 4097))

	r := NewReader(buf.Bytes())
	if _, err := r.ReadVarBytes(4096); err != ErrVarintOverflow {
		t.Errorf("expected overflow for oversized varbytes, got %v", err)
	}
}

func TestVarBytesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	payload := []byte("hello world")
	if err := w.WriteVarBytes(payload); err != nil {
		t.Fatal(err)
	}
	r := NewReader(buf.Bytes())
	got, err := r.ReadVarBytes(0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("got %q want %q", got, payload)
	}
}
