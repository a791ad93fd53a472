package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opentimestamps/opentimestamps-client/internal/calendar"
	"github.com/opentimestamps/opentimestamps-client/internal/ots"
	"github.com/opentimestamps/opentimestamps-client/internal/stamper"
)

func TestAutoStamperWritesSidecar(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "report.txt")
	if err := os.WriteFile(testFile, []byte("hello"), 0600); err != nil {
		t.Fatal(err)
	}

	w, err := New([]string{tmpDir}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	cal := calendar.NewFake("https://cal.example")
	s := stamper.New([]calendar.Client{cal}, stamper.Policy{Required: 1})
	as := NewAutoStamper(w, s, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go as.Run(ctx)

	if err := os.WriteFile(testFile, []byte("hello, updated"), 0600); err != nil {
		t.Fatal(err)
	}

	sidecar := testFile + sidecarSuffix
	deadline := time.Now().Add(4 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(sidecar); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	data, err := os.ReadFile(sidecar)
	if err != nil {
		t.Fatalf("sidecar not written: %v", err)
	}
	dtf, err := ots.Decode(data)
	if err != nil {
		t.Fatalf("decode sidecar: %v", err)
	}
	if dtf.FileHashOp.Tag != ots.TagSHA256 {
		t.Errorf("expected sha256 file hash op, got tag 0x%02x", dtf.FileHashOp.Tag)
	}
}

func TestAutoStamperExcludesMatchingFiles(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "scratch.tmp")
	if err := os.WriteFile(testFile, []byte("ignored"), 0600); err != nil {
		t.Fatal(err)
	}

	w, err := New([]string{tmpDir}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	cal := calendar.NewFake("https://cal.example")
	s := stamper.New([]calendar.Client{cal}, stamper.Policy{Required: 1})
	as := NewAutoStamper(w, s, []string{"*.tmp"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	as.Run(ctx)

	if _, err := os.Stat(testFile + sidecarSuffix); err == nil {
		t.Error("excluded file should not have been stamped")
	}
}
