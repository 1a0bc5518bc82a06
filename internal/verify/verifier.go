package verify

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jedisct1/go-minisign"
	"go.uber.org/zap"

	"github.com/3leaps/appverify/internal/model"
)

// Verifier decides whether a downloaded artifact is authentic by consulting
// its verification sources in a fixed order: digest, manifest, release notes.
// It holds configuration only and is safe for concurrent use.
type Verifier struct {
	logger        *zap.Logger
	chunkSize     int
	preference    []model.Algorithm
	manifestKey   *minisign.PublicKey
	requireSigned bool
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithLogger sets the logger; nil keeps the no-op default.
func WithLogger(logger *zap.Logger) Option {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithChunkSize sets the read buffer size used when hashing artifacts.
func WithChunkSize(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.chunkSize = n
		}
	}
}

// WithHashPreference sets the order used to pick among several digests in a
// structured manifest entry.
func WithHashPreference(order ...model.Algorithm) Option {
	return func(v *Verifier) {
		if len(order) > 0 {
			v.preference = append([]model.Algorithm(nil), order...)
		}
	}
}

// WithManifestKey makes signed manifests authenticate against pubKey before use.
func WithManifestKey(pubKey minisign.PublicKey) Option {
	return func(v *Verifier) {
		k := pubKey
		v.manifestKey = &k
	}
}

// WithRequireSignedManifest discards manifests that carry no signature.
func WithRequireSignedManifest(require bool) Option {
	return func(v *Verifier) {
		v.requireSigned = require
	}
}

// New returns a Verifier with a no-op logger and the default chunk size and
// hash preference.
func New(opts ...Option) *Verifier {
	v := &Verifier{
		logger:     zap.NewNop(),
		chunkSize:  DefaultChunkSize,
		preference: DefaultHashPreference,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// expectation is what a tier found: an expected hash and where it came from.
type expectation struct {
	method    model.Method
	algorithm model.Algorithm
	hash      string
	source    string
}

// tier returns nil when it has no usable expected hash.
type tier func(ctx context.Context, req model.VerificationRequest, log *zap.Logger) (*expectation, error)

// Verify runs the tiers in order and stops at the first that yields an
// expected hash. The error is reserved for conditions that are not a verdict:
// a missing artifact, I/O failure, cancellation or a forged manifest.
func (v *Verifier) Verify(ctx context.Context, req model.VerificationRequest) (model.VerificationOutcome, error) {
	if req.Filename == "" {
		req.Filename = filepath.Base(req.Path)
	}
	log := v.logger.With(
		zap.String("app", req.Identity.App),
		zap.String("version", req.Identity.Version),
		zap.String("target", req.Filename),
	)

	if err := checkFileExists(req.Path); err != nil {
		return model.VerificationOutcome{}, err
	}

	for _, t := range []tier{v.fromDigests, v.fromManifests, v.fromReleaseNotes} {
		if err := ctx.Err(); err != nil {
			return model.VerificationOutcome{}, err
		}
		exp, err := t(ctx, req, log)
		if err != nil {
			return model.VerificationOutcome{}, err
		}
		if exp == nil {
			continue
		}
		outcome, err := v.compare(ctx, req, *exp, log)
		if err != nil {
			return model.VerificationOutcome{}, err
		}
		return outcome, nil
	}

	outcome := model.VerificationOutcome{
		Status:  model.StatusWarning,
		Method:  model.MethodNone,
		Message: "no verification source provided an expected hash; artifact is unverified",
	}
	log.Warn("verification unavailable", zap.String("status", string(outcome.Status)))
	return outcome, nil
}

func (v *Verifier) compare(ctx context.Context, req model.VerificationRequest, exp expectation, log *zap.Logger) (model.VerificationOutcome, error) {
	res, err := HashFile(ctx, req.Path, exp.algorithm, v.chunkSize)
	if err != nil {
		return model.VerificationOutcome{}, err
	}
	outcome := model.VerificationOutcome{
		Method:       exp.method,
		Algorithm:    exp.algorithm,
		ExpectedHash: exp.hash,
		ComputedHash: res.Hex,
		Source:       exp.source,
	}
	fields := []zap.Field{
		zap.String("method", string(exp.method)),
		zap.String("algorithm", string(exp.algorithm)),
		zap.String("source", exp.source),
		zap.String("size", FormatSize(res.Size)),
	}
	if res.Hex == exp.hash {
		outcome.Status = model.StatusPassed
		outcome.Message = fmt.Sprintf("%s verified via %s", exp.algorithm, exp.source)
		log.Info("checksum verified", fields...)
		return outcome, nil
	}
	outcome.Status = model.StatusFailed
	outcome.Message = fmt.Sprintf("%s mismatch via %s: expected %s, got %s", exp.algorithm, exp.source, exp.hash, res.Hex)
	log.Error("checksum mismatch", append(fields,
		zap.String("expected", exp.hash),
		zap.String("computed", res.Hex),
	)...)
	return outcome, nil
}

func (v *Verifier) fromDigests(_ context.Context, req model.VerificationRequest, log *zap.Logger) (*expectation, error) {
	for _, src := range req.Sources {
		d, ok := src.(model.DigestSource)
		if !ok {
			continue
		}
		algo := model.ParseAlgorithm(string(d.Algorithm))
		if !algo.Supported() {
			log.Debug("digest discarded", zap.Error(fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, d.Algorithm)))
			continue
		}
		if strings.TrimSpace(d.Hash) == "" {
			log.Debug("digest discarded: empty hash", zap.String("algorithm", string(algo)))
			continue
		}
		// An undecodable digest is still compared so that it fails.
		digest := NormalizeHash(d.Hash)
		return &expectation{
			method:    model.MethodDigest,
			algorithm: algo,
			hash:      digest,
			source:    "digest",
		}, nil
	}
	return nil, nil
}

func (v *Verifier) fromManifests(_ context.Context, req model.VerificationRequest, log *zap.Logger) (*expectation, error) {
	for _, src := range req.Sources {
		ms, ok := src.(model.ManifestSource)
		if !ok {
			continue
		}
		mlog := log.With(zap.String("manifest", ms.Name))

		trusted, err := v.authenticate(ms, mlog)
		if err != nil {
			return nil, err
		}
		if !trusted {
			continue
		}

		m := NewManifest(ms.Content, ms.Name)
		entry, err := v.findManifestEntry(m, req.Filename)
		if err != nil {
			mlog.Debug("manifest discarded",
				zap.String("format", m.Format().String()),
				zap.Error(err),
			)
			continue
		}
		return &expectation{
			method:    model.MethodManifestFile,
			algorithm: entry.Algorithm,
			hash:      entry.HashValue,
			source:    manifestLabel(ms.Name),
		}, nil
	}
	return nil, nil
}

// findManifestEntry tries the algorithm implied by the manifest name first,
// then lets the parser infer it.
func (v *Verifier) findManifestEntry(m *Manifest, target string) (model.ChecksumEntry, error) {
	hint := DetectChecksumAlgorithm(m.Source())
	entry, err := m.FindEntry(target, hint, v.preference)
	if err == nil || hint == "" || !errors.Is(err, ErrEntryNotFound) {
		return entry, err
	}
	return m.FindEntry(target, "", v.preference)
}

// authenticate reports whether a manifest may be used. A bad signature is
// fatal; a missing one only matters when signed manifests are required.
func (v *Verifier) authenticate(ms model.ManifestSource, log *zap.Logger) (bool, error) {
	if len(ms.Signature) == 0 {
		if v.requireSigned {
			log.Debug("manifest discarded: unsigned")
			return false, nil
		}
		return true, nil
	}
	if v.manifestKey == nil {
		if v.requireSigned {
			log.Debug("manifest discarded: no key configured to check signature")
			return false, nil
		}
		log.Debug("manifest signature ignored: no key configured")
		return true, nil
	}
	if err := VerifyManifestSignature(ms.Content, ms.Signature, *v.manifestKey); err != nil {
		return false, fmt.Errorf("%s: %w", manifestLabel(ms.Name), err)
	}
	log.Debug("manifest signature verified")
	return true, nil
}

func (v *Verifier) fromReleaseNotes(_ context.Context, req model.VerificationRequest, log *zap.Logger) (*expectation, error) {
	for _, src := range req.Sources {
		notes, ok := src.(model.ReleaseNotesSource)
		if !ok {
			continue
		}
		entry, found := FindReleaseNotesHash(notes.Text, req.Filename)
		if !found {
			log.Debug("release notes discarded: no sha256 for target")
			continue
		}
		return &expectation{
			method:    model.MethodReleaseNotes,
			algorithm: entry.Algorithm,
			hash:      entry.HashValue,
			source:    "release notes",
		}, nil
	}
	return nil, nil
}

func manifestLabel(name string) string {
	if name == "" {
		return "manifest"
	}
	return name
}
