package verify

import (
	"fmt"
	"strings"

	"github.com/jedisct1/go-minisign"
)

// LoadMinisignKey reads a minisign public key file (.pub).
func LoadMinisignKey(path string) (minisign.PublicKey, error) {
	pubKey, err := minisign.NewPublicKeyFromFile(path)
	if err != nil {
		return minisign.PublicKey{}, fmt.Errorf("read minisign pubkey: %w", err)
	}
	return pubKey, nil
}

// ParseMinisignKey accepts either the bare base64 key or the full .pub file text.
func ParseMinisignKey(value string) (minisign.PublicKey, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return minisign.PublicKey{}, fmt.Errorf("minisign key is empty")
	}
	if strings.HasPrefix(trimmed, "untrusted comment:") {
		pubKey, err := minisign.DecodePublicKey(trimmed)
		if err != nil {
			return minisign.PublicKey{}, fmt.Errorf("decode minisign pubkey: %w", err)
		}
		return pubKey, nil
	}
	pubKey, err := minisign.NewPublicKey(trimmed)
	if err != nil {
		return minisign.PublicKey{}, fmt.Errorf("decode minisign pubkey: %w", err)
	}
	return pubKey, nil
}

// VerifyManifestSignature authenticates manifest bytes against a minisign
// signature. Any failure wraps ErrSignatureInvalid.
func VerifyManifestSignature(content, signature []byte, pubKey minisign.PublicKey) error {
	sig, err := minisign.DecodeSignature(string(signature))
	if err != nil {
		return fmt.Errorf("%w: decode: %v", ErrSignatureInvalid, err)
	}
	valid, err := pubKey.Verify(content, sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	if !valid {
		return ErrSignatureInvalid
	}
	return nil
}
