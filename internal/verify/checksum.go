package verify

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/3leaps/appverify/internal/model"
)

// NormalizeHash converts a raw hash string to canonical lowercase hex.
//
// An "algo:" prefix is stripped first. Hex detection runs before base64
// decoding: a 64-character hex digest is also valid base64 alphabet and
// must never be reinterpreted. Values that are neither are returned
// unchanged so that a later comparison fails instead of matching garbage.
func NormalizeHash(raw string) string {
	value := StripAlgorithmPrefix(raw)
	if isCanonicalHexLength(len(value)) && isHexDigest(value, 0) {
		return strings.ToLower(value)
	}
	if looksLikeBase64(value) {
		decoded, err := base64.StdEncoding.DecodeString(value)
		if err == nil {
			return hex.EncodeToString(decoded)
		}
	}
	return value
}

// StripAlgorithmPrefix drops everything up to and including the first colon.
func StripAlgorithmPrefix(raw string) string {
	value := strings.TrimSpace(raw)
	if _, after, found := strings.Cut(value, ":"); found {
		return strings.TrimSpace(after)
	}
	return value
}

// ParseDigest splits an "algorithm:hash" digest string into a DigestSource.
// The algorithm is kept even when unsupported; the hash is normalized.
func ParseDigest(digest string) (model.DigestSource, error) {
	algo, value, found := strings.Cut(strings.TrimSpace(digest), ":")
	if !found || strings.TrimSpace(algo) == "" || strings.TrimSpace(value) == "" {
		return model.DigestSource{}, fmt.Errorf("digest %q: expected algorithm:hash", digest)
	}
	return model.DigestSource{
		Algorithm: model.ParseAlgorithm(algo),
		Hash:      NormalizeHash(value),
	}, nil
}

// validEntryHash reports whether value is canonical hex for algo.
func validEntryHash(value string, algo model.Algorithm) bool {
	return algo.Supported() && isHexDigest(value, algo.HexLen())
}

func isCanonicalHexLength(n int) bool {
	_, ok := model.AlgorithmForHexLen(n)
	return ok
}

func looksLikeBase64(value string) bool {
	if len(value) == 0 || len(value)%4 != 0 {
		return false
	}
	for i, ch := range value {
		switch {
		case ch >= 'A' && ch <= 'Z', ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == '+', ch == '/':
		case ch == '=':
			if i < len(value)-2 {
				return false
			}
		default:
			return false
		}
	}
	// "=x" at the tail is not valid padding.
	if value[len(value)-2] == '=' && value[len(value)-1] != '=' {
		return false
	}
	return true
}

func isHexDigest(value string, expectedLen int) bool {
	if expectedLen > 0 && len(value) != expectedLen {
		return false
	}
	if len(value) == 0 || len(value)%2 != 0 {
		return false
	}
	for _, ch := range value {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') && (ch < 'A' || ch > 'F') {
			return false
		}
	}
	return true
}
