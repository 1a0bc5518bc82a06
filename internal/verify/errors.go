package verify

import (
	"errors"
	"fmt"

	"github.com/3leaps/appverify/internal/model"
)

var (
	// ErrMissingFile means the artifact was absent when hashing was attempted.
	ErrMissingFile = errors.New("artifact file not found")

	// ErrUnsupportedAlgorithm means a source named an algorithm outside md5/sha1/sha256/sha512.
	ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")

	// ErrManifestParse means manifest text is malformed for its classified format.
	ErrManifestParse = errors.New("malformed checksum manifest")

	// ErrEntryNotFound means a manifest has no entry for the requested filename.
	ErrEntryNotFound = errors.New("checksum entry not found")

	// ErrHashMismatch means an expected hash disagreed with the computed one.
	ErrHashMismatch = errors.New("checksum mismatch")

	// ErrSignatureInvalid means a manifest carried a signature that did not verify.
	ErrSignatureInvalid = errors.New("manifest signature invalid")
)

// HashMismatchError reports both sides of a failed comparison.
type HashMismatchError struct {
	Filename  string
	Algorithm model.Algorithm
	Expected  string
	Computed  string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("%s mismatch for %s: expected %s, got %s", e.Algorithm, e.Filename, e.Expected, e.Computed)
}

func (e *HashMismatchError) Unwrap() error { return ErrHashMismatch }

// OutcomeErr converts a Failed outcome into a *HashMismatchError so batch
// callers can classify it with errors.Is. Other outcomes return nil.
func OutcomeErr(filename string, o model.VerificationOutcome) error {
	if o.Status != model.StatusFailed {
		return nil
	}
	return &HashMismatchError{
		Filename:  filename,
		Algorithm: o.Algorithm,
		Expected:  o.ExpectedHash,
		Computed:  o.ComputedHash,
	}
}
