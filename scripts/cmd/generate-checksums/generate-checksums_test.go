package main

import (
	"context"
	"crypto/md5" // #nosec G501 -- test vector
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/3leaps/appverify/internal/model"
	"github.com/3leaps/appverify/internal/verify"
)

func writeRelease(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile := func(name, contents string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	writeFile("MyApp-1.0.0-x86_64.AppImage", "one")
	writeFile("MyApp-1.0.0-aarch64.AppImage", "two")
	writeFile("MyApp-1.0.0-x86_64.AppImage.zsync", "zsync") // not matched by glob
	writeFile("MyApp-1.0.0-x86_64.AppImage.minisig", "sig") // skipped
	writeFile("SHA256SUMS", "old")                          // skipped/overwritten
	writeFile("release-notes.txt", "notes")                 // skipped
	return dir
}

func readManifest(t *testing.T, dir, name string) *verify.Manifest {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return verify.NewManifest(data, name)
}

func TestRunLineFormat(t *testing.T) {
	dir := writeRelease(t)
	if err := run(context.Background(), options{dir: dir, algos: "sha256,MD5", format: formatLine, glob: "*.AppImage"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	all, err := readManifest(t, dir, "SHA256SUMS").FindAll()
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	expect := map[string]string{
		"MyApp-1.0.0-x86_64.AppImage":  sha256Hex("one"),
		"MyApp-1.0.0-aarch64.AppImage": sha256Hex("two"),
	}
	if len(all) != len(expect) {
		t.Fatalf("expected %d entries, got %v", len(expect), all)
	}
	for name, want := range expect {
		if all[name] != want {
			t.Fatalf("hash mismatch for %s: expected %s, got %s", name, want, all[name])
		}
	}

	entry, err := readManifest(t, dir, "MD5SUMS").FindEntry("MyApp-1.0.0-x86_64.AppImage", "", nil)
	if err != nil {
		t.Fatalf("FindEntry: %v", err)
	}
	if entry.HashValue != md5Hex("one") {
		t.Fatalf("md5: got %s want %s", entry.HashValue, md5Hex("one"))
	}
}

func TestRunBSDFormat(t *testing.T) {
	dir := writeRelease(t)
	if err := run(context.Background(), options{dir: dir, algos: "sha256,sha512", format: formatBSD, glob: "*.AppImage"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	m := readManifest(t, dir, "CHECKSUMS")
	if m.Format() != verify.FormatBSDStyle {
		t.Fatalf("format: got %s", m.Format())
	}
	entry, err := m.FindEntry("MyApp-1.0.0-aarch64.AppImage", "sha512", nil)
	if err != nil {
		t.Fatalf("FindEntry: %v", err)
	}
	if entry.HashValue != sha512Hex("two") {
		t.Fatalf("sha512: got %s want %s", entry.HashValue, sha512Hex("two"))
	}
}

func TestRunYAMLFormat(t *testing.T) {
	dir := writeRelease(t)
	if err := run(context.Background(), options{dir: dir, algos: "sha512,sha256", format: formatYAML, glob: "*.AppImage"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	m := readManifest(t, dir, "checksums.yml")
	if m.Format() != verify.FormatStructured {
		t.Fatalf("format: got %s", m.Format())
	}
	entry, err := m.FindEntry("MyApp-1.0.0-x86_64.AppImage", "", nil)
	if err != nil {
		t.Fatalf("FindEntry: %v", err)
	}
	if entry.HashValue != sha512Hex("one") {
		t.Fatalf("sha512 from base64: got %s want %s", entry.HashValue, sha512Hex("one"))
	}
	entry, err = m.FindEntry("MyApp-1.0.0-x86_64.AppImage", "", []model.Algorithm{model.AlgorithmSHA256})
	if err != nil {
		t.Fatalf("FindEntry sha256: %v", err)
	}
	if entry.HashValue != sha256Hex("one") {
		t.Fatalf("sha256: got %s want %s", entry.HashValue, sha256Hex("one"))
	}
}

func TestRunErrors(t *testing.T) {
	dir := writeRelease(t)
	tests := []struct {
		name string
		opts options
	}{
		{name: "missing dir", opts: options{dir: filepath.Join(dir, "nope"), algos: "sha256", format: formatLine, glob: "*"}},
		{name: "unknown algo", opts: options{dir: dir, algos: "blake3", format: formatLine, glob: "*.AppImage"}},
		{name: "no algos", opts: options{dir: dir, algos: " , ", format: formatLine, glob: "*.AppImage"}},
		{name: "unknown format", opts: options{dir: dir, algos: "sha256", format: "xml", glob: "*.AppImage"}},
		{name: "nothing matched", opts: options{dir: dir, algos: "sha256", format: formatLine, glob: "*.deb"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(context.Background(), tt.opts); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func sha256Hex(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

func sha512Hex(data string) string {
	sum := sha512.Sum512([]byte(data))
	return hex.EncodeToString(sum[:])
}

func md5Hex(data string) string {
	sum := md5.Sum([]byte(data)) // #nosec G401 -- test vector
	return hex.EncodeToString(sum[:])
}
