package stamper

import (
	"context"
	"testing"

	"github.com/opentimestamps/opentimestamps-client/internal/calendar"
	"github.com/opentimestamps/opentimestamps-client/internal/ots"
)

func TestSubmitAllCalendarsSucceed(t *testing.T) {
	cals := []calendar.Client{
		calendar.NewFake("https://a.example"),
		calendar.NewFake("https://b.example"),
		calendar.NewFake("https://c.example"),
	}
	s := New(cals, Policy{})

	var digest [32]byte
	digest[0] = 0x01

	root, err := s.Submit(context.Background(), digest)
	if err != nil {
		t.Fatal(err)
	}
	if len(root.Attestations()) != 0 {
		t.Errorf("root should carry no attestations directly, got %+v", root.Attestations())
	}
	atts, err := ots.Walk(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(atts) != 3 {
		t.Errorf("expected 3 pending attestations reachable from root, got %d: %+v", len(atts), atts)
	}
}

type failingCalendar struct{ url string }

func (f failingCalendar) URL() string { return f.url }
func (f failingCalendar) Submit(context.Context, [32]byte) (*ots.Timestamp, error) {
	return nil, context.DeadlineExceeded
}
func (f failingCalendar) GetTimestamp(context.Context, [32]byte) (*ots.Timestamp, error) {
	return nil, context.DeadlineExceeded
}

func TestSubmitQuorumMet(t *testing.T) {
	cals := []calendar.Client{
		calendar.NewFake("https://a.example"),
		calendar.NewFake("https://b.example"),
		failingCalendar{url: "https://c.example"},
	}
	s := New(cals, Policy{Required: 2})

	var digest [32]byte
	digest[0] = 0x02

	root, err := s.Submit(context.Background(), digest)
	if err != nil {
		t.Fatal(err)
	}
	atts, err := ots.Walk(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(atts) != 2 {
		t.Errorf("expected 2 successful attestations reachable from root, got %d", len(atts))
	}
}

func TestSubmitQuorumNotMet(t *testing.T) {
	cals := []calendar.Client{
		failingCalendar{url: "https://a.example"},
		failingCalendar{url: "https://b.example"},
	}
	s := New(cals, Policy{Required: 1})

	var digest [32]byte
	digest[0] = 0x03

	_, err := s.Submit(context.Background(), digest)
	if err == nil {
		t.Fatal("expected ErrQuorumNotMet")
	}
}
