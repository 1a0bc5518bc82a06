package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/3leaps/appverify/internal/model"
)

func TestLoadRequestFileResolvesSources(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "SHA256SUMS", "sums")
	writeTestFile(t, dir, "SHA256SUMS.minisig", "sig")
	writeTestFile(t, dir, "notes.md", "notes")
	request := writeTestFile(t, dir, "request.json", `{
  "requests": [
    {
      "file": "App.AppImage",
      "name": "App-1.0.0.AppImage",
      "app": "app",
      "version": "1.0.0",
      "digest": "SHA-256:`+strings.Repeat("A", 64)+`",
      "manifests": [{"path": "SHA256SUMS", "signature": "SHA256SUMS.minisig"}],
      "release_notes": "notes.md"
    }
  ]
}`)

	rf, err := loadRequestFile(request)
	if err != nil {
		t.Fatalf("loadRequestFile: %v", err)
	}
	reqs, err := rf.VerificationRequests()
	if err != nil {
		t.Fatalf("Requests: %v", err)
	}
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	req := reqs[0]
	if req.Path != filepath.Join(dir, "App.AppImage") || req.Filename != "App-1.0.0.AppImage" {
		t.Fatalf("paths: %+v", req)
	}
	if req.Identity != (model.Identity{App: "app", Version: "1.0.0"}) {
		t.Fatalf("identity: %+v", req.Identity)
	}
	if len(req.Sources) != 3 {
		t.Fatalf("expected 3 sources, got %d", len(req.Sources))
	}

	digest, ok := req.Sources[0].(model.DigestSource)
	if !ok || digest.Algorithm != model.AlgorithmSHA256 || digest.Hash != strings.Repeat("a", 64) {
		t.Fatalf("digest source: %+v", req.Sources[0])
	}
	manifest, ok := req.Sources[1].(model.ManifestSource)
	if !ok || manifest.Name != "SHA256SUMS" || string(manifest.Content) != "sums" || string(manifest.Signature) != "sig" {
		t.Fatalf("manifest source: %+v", req.Sources[1])
	}
	notes, ok := req.Sources[2].(model.ReleaseNotesSource)
	if !ok || notes.Text != "notes" {
		t.Fatalf("notes source: %+v", req.Sources[2])
	}
}

func TestLoadRequestFileSchema(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "missing requests", content: `{"concurrency": 2}`},
		{name: "empty requests", content: `{"requests": []}`},
		{name: "missing file", content: `{"requests": [{"app": "x"}]}`},
		{name: "digest without algorithm", content: `{"requests": [{"file": "a", "digest": "abcdef"}]}`},
		{name: "negative concurrency", content: `{"concurrency": -1, "requests": [{"file": "a"}]}`},
		{name: "manifest without path", content: `{"requests": [{"file": "a", "manifests": [{"signature": "s"}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestFile(t, t.TempDir(), "request.json", tt.content)
			if _, err := loadRequestFile(path); err == nil {
				t.Fatalf("expected schema error")
			}
		})
	}
}

func TestRequestsMissingManifest(t *testing.T) {
	rf := &RequestFile{
		Requests: []RequestItem{{File: "a.AppImage", Manifests: []ManifestRef{{Path: "SHA256SUMS"}}}},
		dir:      t.TempDir(),
	}
	_, err := rf.VerificationRequests()
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if !strings.Contains(err.Error(), "requests[0]") {
		t.Fatalf("error should name the request: %v", err)
	}
}
