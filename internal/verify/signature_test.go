package verify

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jedisct1/go-minisign"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSigner struct {
	keyID  [8]byte
	priv   ed25519.PrivateKey
	pubB64 string
}

func newTestSigner(t *testing.T) *testSigner {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	s := &testSigner{priv: priv}
	copy(s.keyID[:], "appvtest")
	raw := append([]byte("Ed"), s.keyID[:]...)
	raw = append(raw, pub...)
	s.pubB64 = base64.StdEncoding.EncodeToString(raw)
	return s
}

func (s *testSigner) publicKey(t *testing.T) minisign.PublicKey {
	t.Helper()
	pk, err := ParseMinisignKey(s.pubB64)
	require.NoError(t, err)
	return pk
}

// sign produces minisign signature text for content in the legacy
// (non-prehashed) Ed format.
func (s *testSigner) sign(content []byte) []byte {
	sig := ed25519.Sign(s.priv, content)
	trusted := "trusted comment: timestamp:1700000000"

	line1 := append([]byte("Ed"), s.keyID[:]...)
	line1 = append(line1, sig...)
	global := ed25519.Sign(s.priv, append(append([]byte(nil), sig...), []byte(trusted)[17:]...))

	return []byte(strings.Join([]string{
		"untrusted comment: signature from appverify test key",
		base64.StdEncoding.EncodeToString(line1),
		trusted,
		base64.StdEncoding.EncodeToString(global),
	}, "\n"))
}

func TestVerifyManifestSignature(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)
	content := []byte(strings.Repeat("a", 64) + "  App.AppImage\n")
	sig := signer.sign(content)

	require.NoError(t, VerifyManifestSignature(content, sig, signer.publicKey(t)))

	tampered := []byte(strings.Repeat("b", 64) + "  App.AppImage\n")
	err := VerifyManifestSignature(tampered, sig, signer.publicKey(t))
	require.ErrorIs(t, err, ErrSignatureInvalid)

	err = VerifyManifestSignature(content, []byte("not a signature"), signer.publicKey(t))
	require.ErrorIs(t, err, ErrSignatureInvalid)

	other := newTestSigner(t)
	err = VerifyManifestSignature(content, sig, other.publicKey(t))
	require.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestParseMinisignKey(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)

	bare, err := ParseMinisignKey("  " + signer.pubB64 + "\n")
	require.NoError(t, err)

	file, err := ParseMinisignKey("untrusted comment: minisign public key\n" + signer.pubB64 + "\n")
	require.NoError(t, err)
	assert.Equal(t, bare, file)

	_, err = ParseMinisignKey("")
	require.Error(t, err)
	_, err = ParseMinisignKey("!!!")
	require.Error(t, err)
}

func TestLoadMinisignKey(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)
	path := filepath.Join(t.TempDir(), "release.pub")
	require.NoError(t, os.WriteFile(path, []byte("untrusted comment: minisign public key\n"+signer.pubB64+"\n"), 0o600))

	pk, err := LoadMinisignKey(path)
	require.NoError(t, err)
	assert.Equal(t, signer.publicKey(t), pk)

	_, err = LoadMinisignKey(filepath.Join(t.TempDir(), "missing.pub"))
	require.Error(t, err)
}
