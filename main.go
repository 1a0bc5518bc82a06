package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/jedisct1/go-minisign"

	"github.com/3leaps/appverify/internal/logging"
	"github.com/3leaps/appverify/internal/model"
	"github.com/3leaps/appverify/internal/verify"
)

var version = "dev"

const (
	exitOK         = 0
	exitFailed     = 1
	exitUsage      = 2
	exitUnverified = 3
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func run(args []string, stdout, stderr io.Writer) int {
	env := loadSettings()

	fs := flag.NewFlagSet("appverify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "", "path to the downloaded artifact")
	name := fs.String("name", "", "filename to look up in manifests (default: base name of --file)")
	app := fs.String("app", "", "application name recorded in logs")
	appVersion := fs.String("app-version", "", "application version recorded in logs")
	digest := fs.String("digest", "", "expected digest as algorithm:hash (hex or base64)")
	var manifests, manifestSigs stringList
	fs.Var(&manifests, "manifest", "checksum manifest file (repeatable, tried in order)")
	fs.Var(&manifestSigs, "manifest-sig", "minisign signature for the --manifest at the same position (repeatable)")
	releaseNotes := fs.String("release-notes", "", "file containing release notes text")
	requestPath := fs.String("request", "", "YAML/JSON request file describing a batch of artifacts")
	minisignKey := fs.String("minisign-key", "", "minisign public key (.pub file or base64) for manifest signatures")
	requireSigned := fs.Bool("require-signed-manifest", false, "ignore manifests without a verified minisign signature")
	jsonOut := fs.Bool("json", false, "JSON output for CI")
	strict := fs.Bool("strict", false, "exit non-zero when an artifact could not be verified")
	concurrency := fs.Int("concurrency", env.Concurrency, "maximum verifications in flight (0 = unbounded)")
	logLevel := fs.String("log-level", env.LogLevel, "log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", env.LogFormat, "log format (console, json)")
	versionFlag := fs.Bool("version", false, "print version")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if *versionFlag {
		fmt.Fprintln(stdout, "appverify", version)
		return exitOK
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "error: unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return exitUsage
	}
	if (*file == "") == (*requestPath == "") {
		fmt.Fprintln(stderr, "error: exactly one of --file or --request is required")
		fs.Usage()
		return exitUsage
	}
	if len(manifestSigs) > len(manifests) {
		fmt.Fprintln(stderr, "error: more --manifest-sig than --manifest values")
		return exitUsage
	}
	if *requireSigned && *minisignKey == "" {
		fmt.Fprintln(stderr, "error: --require-signed-manifest needs --minisign-key")
		return exitUsage
	}

	logger, err := logging.NewLogger(*logLevel, *logFormat, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()

	opts := []verify.Option{
		verify.WithLogger(logger),
		verify.WithRequireSignedManifest(*requireSigned),
	}
	if *minisignKey != "" {
		key, err := loadManifestKey(*minisignKey)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitUsage
		}
		opts = append(opts, verify.WithManifestKey(key))
	}

	limit := *concurrency
	var reqs []model.VerificationRequest
	if *requestPath != "" {
		rf, err := loadRequestFile(*requestPath)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitUsage
		}
		if rf.Concurrency > 0 && !flagSet(fs, "concurrency") {
			limit = rf.Concurrency
		}
		reqs, err = rf.VerificationRequests()
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitFailed
		}
	} else {
		item := RequestItem{
			File:         *file,
			Name:         *name,
			App:          *app,
			Version:      *appVersion,
			Digest:       *digest,
			ReleaseNotes: *releaseNotes,
		}
		for i, m := range manifests {
			ms := ManifestRef{Path: m}
			if i < len(manifestSigs) {
				ms.Signature = manifestSigs[i]
			}
			item.Manifests = append(item.Manifests, ms)
		}
		req, err := item.build("")
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitFailed
		}
		reqs = []model.VerificationRequest{req}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results := verify.New(opts...).VerifyAll(ctx, reqs, limit)

	if *jsonOut {
		if err := writeJSON(stdout, results); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitFailed
		}
	} else {
		writeText(stdout, results)
	}
	return exitCode(results, *strict)
}

func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// loadManifestKey accepts a path to a .pub file or the key itself.
func loadManifestKey(value string) (minisign.PublicKey, error) {
	if info, err := os.Stat(value); err == nil && !info.IsDir() {
		return verify.LoadMinisignKey(value)
	}
	return verify.ParseMinisignKey(value)
}

type resultJSON struct {
	ID       string                     `json:"id"`
	File     string                     `json:"file"`
	Identity model.Identity             `json:"identity"`
	Outcome  *model.VerificationOutcome `json:"outcome,omitempty"`
	Error    string                     `json:"error,omitempty"`
}

func writeJSON(w io.Writer, results []verify.BatchResult) error {
	out := make([]resultJSON, 0, len(results))
	for _, r := range results {
		item := resultJSON{ID: r.ID, File: r.Request.Path, Identity: r.Request.Identity}
		if r.Err != nil {
			item.Error = r.Err.Error()
		} else {
			outcome := r.Outcome
			item.Outcome = &outcome
		}
		out = append(out, item)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeText(w io.Writer, results []verify.BatchResult) {
	for _, r := range results {
		label := displayName(r.Request)
		if r.Err != nil {
			fmt.Fprintf(w, "ERROR %s: %v\n", label, r.Err)
			continue
		}
		switch r.Outcome.Status {
		case model.StatusPassed:
			fmt.Fprintf(w, "PASS  %s: %s\n", label, r.Outcome.Message)
		case model.StatusFailed:
			fmt.Fprintf(w, "FAIL  %s: %s\n", label, r.Outcome.Message)
		default:
			fmt.Fprintf(w, "WARN  %s: %s\n", label, r.Outcome.Message)
		}
	}
}

func displayName(req model.VerificationRequest) string {
	switch {
	case req.Identity.App != "" && req.Identity.Version != "":
		return req.Identity.App + " " + req.Identity.Version
	case req.Identity.App != "":
		return req.Identity.App
	default:
		return req.Path
	}
}

func exitCode(results []verify.BatchResult, strict bool) int {
	code := exitOK
	for _, r := range results {
		if r.Failure() != nil {
			return exitFailed
		}
		if r.Outcome.Status == model.StatusWarning && strict {
			code = exitUnverified
		}
	}
	return code
}
