package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/opentimestamps/opentimestamps-client/internal/atomicfile"
	"github.com/opentimestamps/opentimestamps-client/internal/logging"
	"github.com/opentimestamps/opentimestamps-client/internal/ots"
	"github.com/opentimestamps/opentimestamps-client/internal/stamper"
)

// sidecarSuffix is appended to a watched file's name to produce its proof
// file's path, matching the CLI's "stamp" subcommand convention.
const sidecarSuffix = ".ots"

// AutoStamper drives the Watcher's stabilized-file Events through a
// Stamper, writing each result as a ".ots" sidecar next to the source file.
type AutoStamper struct {
	watcher  *Watcher
	stamper  *stamper.Stamper
	excludes []string
	log      *logging.Logger

	mu   sync.Mutex
	errs []error
}

// NewAutoStamper wires a Watcher to a Stamper. excludes are glob patterns
// (filepath.Match syntax) checked against the base name of each changed
// file; a match is skipped instead of stamped.
func NewAutoStamper(w *Watcher, s *stamper.Stamper, excludes []string) *AutoStamper {
	return &AutoStamper{
		watcher:  w,
		stamper:  s,
		excludes: excludes,
		log:      logging.Default().WithComponent("watcher"),
	}
}

// Run consumes Events until the watcher's Events channel is closed or ctx
// is canceled, stamping each non-excluded file as it stabilizes. It blocks
// and should be run in its own goroutine.
func (a *AutoStamper) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-a.watcher.Events():
			if !ok {
				return
			}
			if a.excluded(ev.Path) {
				continue
			}
			if err := a.stampOne(ctx, ev); err != nil {
				a.recordErr(fmt.Errorf("%s: %w", ev.Path, err))
				a.log.Error("autostamp failed", "path", ev.Path, "error", err)
			} else {
				a.log.Info("stamped", "path", ev.Path, "sidecar", sidecarPath(ev.Path))
			}
		}
	}
}

func (a *AutoStamper) excluded(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range a.excludes {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

func (a *AutoStamper) stampOne(ctx context.Context, ev Event) error {
	hashOp, err := ots.NewHashOp(ots.TagSHA256)
	if err != nil {
		return err
	}

	dtf, err := ots.NewDetachedTimestampFile(hashOp, ev.Hash[:])
	if err != nil {
		return fmt.Errorf("build detached timestamp: %w", err)
	}

	root, err := a.stamper.Submit(ctx, ev.Hash)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	dtf.Timestamp = root

	data, err := ots.Encode(dtf)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	if err := atomicfile.Write(sidecarPath(ev.Path), data, 0640); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

func (a *AutoStamper) recordErr(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errs = append(a.errs, err)
}

// Errs returns the errors accumulated since the last call to Errs.
func (a *AutoStamper) Errs() []error {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.errs
	a.errs = nil
	return out
}

func sidecarPath(path string) string {
	return path + sidecarSuffix
}
