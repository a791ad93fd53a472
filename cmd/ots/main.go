// ots is the command-line client for the OpenTimestamps proof protocol:
// stamp, verify, upgrade, and inspect .ots proof files, and attach/extract
// armored proofs to Git commits and tags.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/opentimestamps/opentimestamps-client/internal/calendar"
	"github.com/opentimestamps/opentimestamps-client/internal/config"
	"github.com/opentimestamps/opentimestamps-client/internal/gitarmor"
	"github.com/opentimestamps/opentimestamps-client/internal/logging"
	"github.com/opentimestamps/opentimestamps-client/internal/oracle"
	"github.com/opentimestamps/opentimestamps-client/internal/ots"
	"github.com/opentimestamps/opentimestamps-client/internal/otsjson"
	"github.com/opentimestamps/opentimestamps-client/internal/proofcache"
	"github.com/opentimestamps/opentimestamps-client/internal/stamper"
	"github.com/opentimestamps/opentimestamps-client/internal/verifier"
	"github.com/opentimestamps/opentimestamps-client/internal/watcher"
)

// Exit codes, matching the documented CLI contract.
const (
	exitSuccess          = 0
	exitVerificationFail = 1
	exitUsage            = 2
	exitIO               = 3
)

// Version information, set via ldflags at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
	Commit    = "unknown"
)

var (
	configPath = flag.String("config", "", "path to config file")
	noColor    = flag.Bool("no-color", false, "disable colored output")
	quiet      = flag.Bool("q", false, "suppress banner")
	verbose    = flag.Bool("v", false, "verbose output")
)

type colors struct {
	Reset, Bold, Dim, Red, Green, Yellow, Cyan string
}

var c colors

func initColors() {
	if *noColor || os.Getenv("NO_COLOR") != "" || !isTerminal() {
		c = colors{}
		return
	}
	c = colors{
		Reset: "\033[0m", Bold: "\033[1m", Dim: "\033[2m",
		Red: "\033[31m", Green: "\033[32m", Yellow: "\033[33m", Cyan: "\033[36m",
	}
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

const banner = `
%s  ┏━┓╺┳╸┏━┓%s
%s  ┃ ┃ ┃ ┗━┓%s
%s  ┗━┛ ╹ ┗━┛%s%s opentimestamps client%s

`

func printBanner() {
	fmt.Fprintf(os.Stderr, banner,
		c.Cyan+c.Bold, c.Reset,
		c.Cyan+c.Bold, c.Reset,
		c.Cyan+c.Bold, c.Reset, c.Dim, c.Reset,
	)
}

func printError(msg string) {
	fmt.Fprintf(os.Stderr, "%s%sERROR%s %s\n", c.Bold, c.Red, c.Reset, msg)
}

func usage() {
	fmt.Fprintf(os.Stderr, `%sUSAGE%s
    ots [options] <command> [arguments]

%sCOMMANDS%s
    stamp       <file>              Submit a file's digest to calendars
    verify      <file.ots> [file]   Verify a proof against a block-header oracle
    upgrade     <file.ots>          Pull completed attestations for pending calendars
    info        <file.ots>          Print a proof's structure
    git-extract <file>              Extract a Git-armored proof
    watch       <dir>...            Auto-stamp files as they change
    version                         Show version information

%sOPTIONS%s
    -config <path>   Path to config file (default: platform config dir)
    -no-color        Disable colored output
    -q               Suppress banner
    -v               Verbose output

%sEXIT CODES%s
    0  success
    1  verification failure
    2  usage error
    3  I/O error

`,
		c.Bold, c.Reset, c.Bold, c.Reset, c.Bold, c.Reset, c.Bold, c.Reset)
}

func main() {
	flag.Parse()
	initColors()

	if flag.NArg() < 1 {
		if !*quiet {
			printBanner()
		}
		usage()
		os.Exit(exitUsage)
	}

	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	if !*quiet && cmd != "version" && cmd != "help" {
		printBanner()
	}

	logging.SetDefault(mustNewLogger())

	switch cmd {
	case "stamp":
		cmdStamp(args)
	case "verify":
		cmdVerify(args)
	case "upgrade":
		cmdUpgrade(args)
	case "info":
		cmdInfo(args)
	case "git-extract":
		cmdGitExtract(args)
	case "watch":
		cmdWatch(args)
	case "help":
		usage()
	case "version":
		printVersion()
	default:
		printError(fmt.Sprintf("unknown command: %s", cmd))
		usage()
		os.Exit(exitUsage)
	}
}

func mustNewLogger() *logging.Logger {
	lvl, err := logging.ParseLevel(os.Getenv("OTS_LOG_LEVEL"))
	if err != nil {
		lvl = logging.LevelInfo
	}
	if *verbose {
		lvl = logging.LevelDebug
	}
	l, err := logging.New(&logging.Config{
		Level: lvl, Format: logging.FormatText, Output: "stderr", Component: "ots",
	})
	if err != nil {
		return logging.Default()
	}
	return l
}

func printVersion() {
	fmt.Printf("%sots%s %s%s%s\n", c.Bold, c.Reset, c.Cyan, Version, c.Reset)
	fmt.Printf("  %sBuild%s     %s\n", c.Dim, c.Reset, BuildTime)
	fmt.Printf("  %sCommit%s    %s\n", c.Dim, c.Reset, Commit)
	fmt.Printf("  %sPlatform%s  %s/%s\n", c.Dim, c.Reset, runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  %sGo%s        %s\n", c.Dim, c.Reset, runtime.Version())
}

func loadConfig() *config.Config {
	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		printError(fmt.Sprintf("loading config: %v", err))
		os.Exit(exitIO)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		printError(fmt.Sprintf("invalid config: %v", err))
		os.Exit(exitUsage)
	}
	return cfg
}

func newClients(cfg *config.Config) []calendar.Client {
	clients := make([]calendar.Client, 0, len(cfg.Calendars))
	for _, url := range cfg.Calendars {
		clients = append(clients, calendar.NewHTTPClient(url, cfg.Timeout()))
	}
	return clients
}

func openCache(cfg *config.Config) (proofcache.Cache, error) {
	switch cfg.CacheBackend {
	case "sqlite":
		return proofcache.OpenSQLiteCache(filepath.Join(cfg.CacheDir, "cache.db"))
	default:
		return proofcache.NewFileCache(cfg.CacheDir), nil
	}
}

func newOracle(cfg *config.Config) oracle.Oracle {
	return oracle.NewEsploraOracle(cfg.OracleURL)
}

func hashFile(path string) ([32]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}

// cmdStamp implements "ots stamp <file>": hash the file, submit the digest
// to the configured calendars, and write a ".ots" sidecar proof.
func cmdStamp(args []string) {
	fs := flag.NewFlagSet("stamp", flag.ExitOnError)
	out := fs.String("o", "", "output path (default: <file>.ots)")
	required := fs.Int("m", 0, "minimum calendars required (default: cfg.RequiredCalendars)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		printError("usage: ots stamp [-o path] [-m N] <file>")
		os.Exit(exitUsage)
	}
	filePath := fs.Arg(0)

	cfg := loadConfig()
	digest, err := hashFile(filePath)
	if err != nil {
		printError(fmt.Sprintf("reading %s: %v", filePath, err))
		os.Exit(exitIO)
	}

	policyN := *required
	if policyN == 0 {
		policyN = cfg.RequiredCalendars
	}

	s := stamper.New(newClients(cfg), stamper.Policy{Required: policyN})
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout()+stamper.GracePeriod)
	defer cancel()

	root, err := s.Submit(ctx, digest)
	if err != nil && root == nil {
		printError(fmt.Sprintf("submit: %v", err))
		os.Exit(exitIO)
	}

	hashOp, _ := ots.NewHashOp(ots.TagSHA256)
	dtf, buildErr := ots.NewDetachedTimestampFile(hashOp, digest[:])
	if buildErr != nil {
		printError(fmt.Sprintf("build proof: %v", buildErr))
		os.Exit(exitIO)
	}
	dtf.Timestamp = root

	data, encErr := ots.Encode(dtf)
	if encErr != nil {
		printError(fmt.Sprintf("encode proof: %v", encErr))
		os.Exit(exitIO)
	}

	outPath := *out
	if outPath == "" {
		outPath = filePath + ".ots"
	}
	if err := os.WriteFile(outPath, data, 0640); err != nil {
		printError(fmt.Sprintf("writing %s: %v", outPath, err))
		os.Exit(exitIO)
	}

	fmt.Printf("\n%s%sSTAMPED%s\n\n", c.Bold, c.Green, c.Reset)
	fmt.Printf("  %sFile%s      %s\n", c.Dim, c.Reset, filePath)
	fmt.Printf("  %sDigest%s    %x\n", c.Dim, c.Reset, digest)
	fmt.Printf("  %sProof%s     %s\n", c.Dim, c.Reset, outPath)
	if !root.IsComplete() {
		fmt.Printf("  %sStatus%s    pending (run \"ots upgrade %s\" later)\n", c.Yellow, c.Reset, outPath)
	}
	fmt.Println()
}

// cmdVerify implements "ots verify <file.ots> [original-file]".
func cmdVerify(args []string) {
	if len(args) < 1 {
		printError("usage: ots verify <file.ots> [original-file]")
		os.Exit(exitUsage)
	}
	proofPath := args[0]

	cfg := loadConfig()
	data, err := os.ReadFile(proofPath)
	if err != nil {
		printError(fmt.Sprintf("reading %s: %v", proofPath, err))
		os.Exit(exitIO)
	}
	dtf, err := ots.Decode(data)
	if err != nil {
		printError(fmt.Sprintf("decoding proof: %v", err))
		os.Exit(exitVerificationFail)
	}

	if len(args) >= 2 {
		digest, err := hashFile(args[1])
		if err != nil {
			printError(fmt.Sprintf("reading %s: %v", args[1], err))
			os.Exit(exitIO)
		}
		if !bytesEqual(digest[:], dtf.Timestamp.Msg) {
			printError("file digest does not match the proof's committed digest")
			os.Exit(exitVerificationFail)
		}
	}

	o := newOracle(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	outcome, err := verifier.Verify(ctx, dtf.Timestamp, o)
	if outcome == nil {
		printError(fmt.Sprintf("verify: %v", err))
		os.Exit(exitVerificationFail)
	}

	if outcome.Success {
		fmt.Printf("\n%s%sVERIFIED%s\n\n", c.Bold, c.Green, c.Reset)
		fmt.Printf("  %sChain%s        %s\n", c.Dim, c.Reset, outcome.Chain)
		fmt.Printf("  %sBlock%s        %d\n", c.Dim, c.Reset, outcome.BlockHeight)
		fmt.Printf("  %sBlock time%s   %s\n", c.Dim, c.Reset, time.Unix(int64(outcome.BlockTime), 0).UTC().Format(time.RFC3339))
	} else if len(outcome.Pending) > 0 {
		fmt.Printf("\n%s%sPENDING%s\n\n", c.Bold, c.Yellow, c.Reset)
		for _, uri := range outcome.Pending {
			fmt.Printf("  %s-%s %s\n", c.Dim, c.Reset, uri)
		}
	} else {
		fmt.Printf("\n%s%sFAILED%s\n\n", c.Bold, c.Red, c.Reset)
		for _, m := range outcome.Mismatches {
			fmt.Printf("  %s-%s %v\n", c.Red, c.Reset, m)
		}
		os.Exit(exitVerificationFail)
	}
	fmt.Println()
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// cmdUpgrade implements "ots upgrade <file.ots>": walks the proof's
// pending leaves, pulls whatever calendars have finished, and rewrites
// the file in place if anything changed.
func cmdUpgrade(args []string) {
	if len(args) != 1 {
		printError("usage: ots upgrade <file.ots>")
		os.Exit(exitUsage)
	}
	proofPath := args[0]

	cfg := loadConfig()
	data, err := os.ReadFile(proofPath)
	if err != nil {
		printError(fmt.Sprintf("reading %s: %v", proofPath, err))
		os.Exit(exitIO)
	}
	dtf, err := ots.Decode(data)
	if err != nil {
		printError(fmt.Sprintf("decoding proof: %v", err))
		os.Exit(exitVerificationFail)
	}

	cache, err := openCache(cfg)
	if err != nil {
		printError(fmt.Sprintf("opening cache: %v", err))
		os.Exit(exitIO)
	}
	defer cache.Close()

	u := stamper.NewUpgrader(newClients(cfg), cache)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	result, err := u.Upgrade(ctx, dtf.Timestamp)
	if err != nil {
		printError(fmt.Sprintf("upgrade: %v", err))
		os.Exit(exitIO)
	}

	if result.Upgraded {
		out, err := ots.Encode(dtf)
		if err != nil {
			printError(fmt.Sprintf("encode: %v", err))
			os.Exit(exitIO)
		}
		if err := os.WriteFile(proofPath, out, 0640); err != nil {
			printError(fmt.Sprintf("writing %s: %v", proofPath, err))
			os.Exit(exitIO)
		}
		fmt.Printf("\n%s%sUPGRADED%s\n\n", c.Bold, c.Green, c.Reset)
	} else {
		fmt.Printf("\n%s%sSTILL PENDING%s\n\n", c.Bold, c.Yellow, c.Reset)
	}
	for _, uri := range result.StillPending {
		fmt.Printf("  %s-%s %s\n", c.Dim, c.Reset, uri)
	}
	fmt.Println()
}

// cmdInfo implements "ots info <file.ots>", printing a proof's structure
// as either human-readable text or JSON.
func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "emit machine-readable JSON")
	fs.Parse(args)

	if fs.NArg() != 1 {
		printError("usage: ots info [-json] <file.ots>")
		os.Exit(exitUsage)
	}
	proofPath := fs.Arg(0)

	data, err := os.ReadFile(proofPath)
	if err != nil {
		printError(fmt.Sprintf("reading %s: %v", proofPath, err))
		os.Exit(exitIO)
	}
	dtf, err := ots.Decode(data)
	if err != nil {
		printError(fmt.Sprintf("decoding proof: %v", err))
		os.Exit(exitVerificationFail)
	}

	if *asJSON {
		printInfoJSON(dtf)
		return
	}

	fmt.Printf("\n%sMessage%s      %x\n", c.Dim, c.Reset, dtf.Timestamp.Msg)
	fmt.Printf("%sFile hash op%s %s\n", c.Dim, c.Reset, dtf.FileHashOp.HashName())
	fmt.Printf("%sComplete%s     %v\n\n", c.Dim, c.Reset, dtf.Timestamp.IsComplete())
	for _, pa := range dtf.Timestamp.AllAttestations() {
		fmt.Printf("  %s%x%s via %s\n", c.Cyan, pa.Msg, c.Reset, describeAttestation(pa.Attestation))
	}
	fmt.Println()
}

func describeAttestation(a ots.Attestation) string {
	switch {
	case a.Kind == ots.AttestationPending:
		return fmt.Sprintf("pending (%s)", a.URI)
	case a.IsBlockHeader():
		return fmt.Sprintf("%s block %d", a.Chain(), a.Height)
	default:
		return "unknown attestation"
	}
}

type infoAttestationJSON struct {
	Digest string `json:"digest"`
	Kind   string `json:"kind"`
	URI    string `json:"uri,omitempty"`
	Chain  string `json:"chain,omitempty"`
	Height uint64 `json:"height,omitempty"`
}

type infoJSON struct {
	Msg          string                `json:"msg"`
	Attestations []infoAttestationJSON `json:"attestations"`
}

func printInfoJSON(dtf *ots.DetachedTimestampFile) {
	doc := infoJSON{Msg: hex.EncodeToString(dtf.Timestamp.Msg)}
	for _, pa := range dtf.Timestamp.AllAttestations() {
		entry := infoAttestationJSON{Digest: hex.EncodeToString(pa.Msg)}
		switch {
		case pa.Attestation.Kind == ots.AttestationPending:
			entry.Kind = "pending"
			entry.URI = pa.Attestation.URI
		case pa.Attestation.IsBlockHeader():
			entry.Kind = "blockheader"
			entry.Chain = pa.Attestation.Chain()
			entry.Height = pa.Attestation.Height
		default:
			entry.Kind = "unknown"
		}
		doc.Attestations = append(doc.Attestations, entry)
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		printError(fmt.Sprintf("marshal: %v", err))
		os.Exit(exitIO)
	}
	if err := otsjson.ValidateInfo(raw); err != nil {
		printError(fmt.Sprintf("internal: generated info JSON failed schema validation: %v", err))
		os.Exit(exitIO)
	}
	fmt.Println(string(raw))
}

// cmdGitExtract implements "ots git-extract <file>": read a commit/tag
// message (or a file containing one), write its embedded proof to
// <file>.ots, and print the commit digest the proof is rooted at.
func cmdGitExtract(args []string) {
	if len(args) != 1 {
		printError("usage: ots git-extract <message-file>")
		os.Exit(exitUsage)
	}
	text, err := os.ReadFile(args[0])
	if err != nil {
		printError(fmt.Sprintf("reading %s: %v", args[0], err))
		os.Exit(exitIO)
	}

	digest := gitarmor.CommitDigest(string(text))
	ts, err := gitarmor.Extract(string(text), digest[:])
	if err != nil {
		printError(fmt.Sprintf("extracting proof: %v", err))
		os.Exit(exitVerificationFail)
	}

	data, err := ots.EncodeTimestamp(ts)
	if err != nil {
		printError(fmt.Sprintf("encode: %v", err))
		os.Exit(exitIO)
	}
	outPath := args[0] + ".ots"
	if err := os.WriteFile(outPath, data, 0640); err != nil {
		printError(fmt.Sprintf("writing %s: %v", outPath, err))
		os.Exit(exitIO)
	}

	fmt.Printf("\n%s%sEXTRACTED%s\n\n", c.Bold, c.Green, c.Reset)
	fmt.Printf("  %sCommit digest%s  %x\n", c.Dim, c.Reset, digest)
	fmt.Printf("  %sProof%s          %s\n\n", c.Dim, c.Reset, outPath)
}

// cmdWatch implements "ots watch <dir>...": watches the given directories
// and auto-stamps files as they stabilize.
func cmdWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	interval := fs.Int("interval", 2, "debounce interval in seconds")
	fs.Parse(args)

	if fs.NArg() < 1 {
		printError("usage: ots watch [-interval SEC] <dir>...")
		os.Exit(exitUsage)
	}
	paths := fs.Args()

	cfg := loadConfig()
	w, err := watcher.New(paths, *interval)
	if err != nil {
		printError(fmt.Sprintf("creating watcher: %v", err))
		os.Exit(exitIO)
	}
	if err := w.Start(); err != nil {
		printError(fmt.Sprintf("starting watcher: %v", err))
		os.Exit(exitIO)
	}
	defer w.Stop()

	s := stamper.New(newClients(cfg), stamper.Policy{Required: cfg.RequiredCalendars})
	as := watcher.NewAutoStamper(w, s, config.DefaultExcludePatterns())

	fmt.Printf("\n%swatching%s %s\n\n", c.Cyan, c.Reset, strings.Join(paths, ", "))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	as.Run(ctx)
}
