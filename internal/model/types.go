package model

import (
	"crypto/md5"  // #nosec G501 -- md5 manifests still appear in the wild; comparison only
	"crypto/sha1" // #nosec G505 -- sha1 manifests still appear in the wild; comparison only
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"strings"
)

// Algorithm names a digest algorithm as it appears in manifests and digests.
// Unknown names are representable so that sources naming them can be
// discarded instead of rejected at construction.
type Algorithm string

const (
	AlgorithmMD5    Algorithm = "md5"
	AlgorithmSHA1   Algorithm = "sha1"
	AlgorithmSHA256 Algorithm = "sha256"
	AlgorithmSHA512 Algorithm = "sha512"
)

// SupportedAlgorithms lists every algorithm the hasher can compute.
var SupportedAlgorithms = []Algorithm{
	AlgorithmMD5,
	AlgorithmSHA1,
	AlgorithmSHA256,
	AlgorithmSHA512,
}

// ParseAlgorithm lower-cases name and strips a dash ("SHA-256").
func ParseAlgorithm(name string) Algorithm {
	clean := strings.ToLower(strings.TrimSpace(name))
	clean = strings.ReplaceAll(clean, "-", "")
	return Algorithm(clean)
}

// Supported reports whether a is one of SupportedAlgorithms.
func (a Algorithm) Supported() bool {
	return a.HexLen() > 0
}

// HexLen is the length of a's canonical hex digest, or 0 if unsupported.
func (a Algorithm) HexLen() int {
	switch a {
	case AlgorithmMD5:
		return 32
	case AlgorithmSHA1:
		return 40
	case AlgorithmSHA256:
		return 64
	case AlgorithmSHA512:
		return 128
	default:
		return 0
	}
}

// New returns a fresh hash for a, or nil if a is unsupported.
func (a Algorithm) New() hash.Hash {
	switch a {
	case AlgorithmMD5:
		return md5.New() // #nosec G401
	case AlgorithmSHA1:
		return sha1.New() // #nosec G401
	case AlgorithmSHA256:
		return sha256.New()
	case AlgorithmSHA512:
		return sha512.New()
	default:
		return nil
	}
}

// AlgorithmForHexLen infers the algorithm from a canonical hex digest length.
func AlgorithmForHexLen(n int) (Algorithm, bool) {
	for _, a := range SupportedAlgorithms {
		if a.HexLen() == n {
			return a, true
		}
	}
	return "", false
}

// ChecksumEntry is one filename/hash pair extracted from a manifest.
// HashValue is canonical lowercase hex of Algorithm.HexLen() characters.
type ChecksumEntry struct {
	Filename  string    `json:"filename"`
	HashValue string    `json:"hash"`
	Algorithm Algorithm `json:"algorithm"`
}

// SourceKind orders verification sources by trust: lower is consulted first.
type SourceKind int

const (
	SourceDigest SourceKind = iota
	SourceManifest
	SourceReleaseNotes
)

func (k SourceKind) String() string {
	switch k {
	case SourceDigest:
		return "digest"
	case SourceManifest:
		return "manifest"
	case SourceReleaseNotes:
		return "release-notes"
	default:
		return "unknown"
	}
}

// VerificationSource is the closed set of places an expected hash can come
// from: DigestSource, ManifestSource and ReleaseNotesSource.
type VerificationSource interface {
	Kind() SourceKind
	sealed()
}

// DigestSource is an algorithm:hash pair supplied by release-asset metadata.
type DigestSource struct {
	Algorithm Algorithm
	Hash      string
}

// ManifestSource is the raw text of a companion checksum file.
// Signature optionally holds a minisign signature over Content.
type ManifestSource struct {
	Content   []byte
	Name      string
	Signature []byte
}

// ReleaseNotesSource is the free-text body of a release.
type ReleaseNotesSource struct {
	Text string
}

func (DigestSource) Kind() SourceKind       { return SourceDigest }
func (ManifestSource) Kind() SourceKind     { return SourceManifest }
func (ReleaseNotesSource) Kind() SourceKind { return SourceReleaseNotes }

func (DigestSource) sealed()       {}
func (ManifestSource) sealed()     {}
func (ReleaseNotesSource) sealed() {}

// Identity carries diagnostic metadata only; it never changes a decision.
type Identity struct {
	App     string `json:"app,omitempty"`
	Version string `json:"version,omitempty"`
}

// VerificationRequest asks whether the file at Path is authentic.
// Filename is the release asset name and may differ from filepath.Base(Path).
type VerificationRequest struct {
	Path     string
	Filename string
	Sources  []VerificationSource
	Identity Identity
}

// Status is the verdict of a verification.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusWarning Status = "warning"
)

// Method names the tier that decided an outcome.
type Method string

const (
	MethodDigest       Method = "digest"
	MethodManifestFile Method = "manifest_file"
	MethodReleaseNotes Method = "release_notes"
	MethodNone         Method = "none"
)

// VerificationOutcome is the single result of a verification call.
// Failed always carries both hashes; Warning carries neither.
type VerificationOutcome struct {
	Status       Status    `json:"status"`
	Method       Method    `json:"method"`
	Algorithm    Algorithm `json:"algorithm,omitempty"`
	ExpectedHash string    `json:"expected_hash,omitempty"`
	ComputedHash string    `json:"computed_hash,omitempty"`
	Source       string    `json:"source,omitempty"`
	Message      string    `json:"message"`
}

// Verified reports whether the artifact may be installed without caveat.
func (o VerificationOutcome) Verified() bool {
	return o.Status == StatusPassed
}
