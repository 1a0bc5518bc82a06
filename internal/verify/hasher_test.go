package verify

import (
	"bytes"
	"context"
	"crypto/md5"  // #nosec G501 -- test vector
	"crypto/sha1" // #nosec G505 -- test vector
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/appverify/internal/model"
)

func writeArtifact(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestHashFileAlgorithms(t *testing.T) {
	t.Parallel()

	content := bytes.Repeat([]byte("appimage payload "), 10_000)
	path := writeArtifact(t, "App.AppImage", content)

	md5Sum := md5.Sum(content)   // #nosec G401 -- test vector
	sha1Sum := sha1.Sum(content) // #nosec G401 -- test vector
	sha256Sum := sha256.Sum256(content)
	sha512Sum := sha512.Sum512(content)

	tests := []struct {
		algo model.Algorithm
		want string
	}{
		{model.AlgorithmMD5, hex.EncodeToString(md5Sum[:])},
		{model.AlgorithmSHA1, hex.EncodeToString(sha1Sum[:])},
		{model.AlgorithmSHA256, hex.EncodeToString(sha256Sum[:])},
		{model.AlgorithmSHA512, hex.EncodeToString(sha512Sum[:])},
	}
	for _, tc := range tests {
		t.Run(string(tc.algo), func(t *testing.T) {
			t.Parallel()
			// A chunk size that does not divide the length exercises the short final read.
			res, err := HashFile(context.Background(), path, tc.algo, 4093)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Hex)
			assert.Equal(t, int64(len(content)), res.Size)
			assert.Equal(t, tc.algo, res.Algorithm)
		})
	}
}

func TestHashFileErrors(t *testing.T) {
	t.Parallel()

	path := writeArtifact(t, "App.AppImage", []byte("x"))

	_, err := HashFile(context.Background(), filepath.Join(t.TempDir(), "gone.AppImage"), model.AlgorithmSHA256, 0)
	require.ErrorIs(t, err, ErrMissingFile)

	_, err = HashFile(context.Background(), path, model.Algorithm("blake3"), 0)
	require.ErrorIs(t, err, ErrUnsupportedAlgorithm)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = HashFile(ctx, path, model.AlgorithmSHA256, 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHashReaderEmpty(t *testing.T) {
	t.Parallel()

	res, err := HashReader(context.Background(), bytes.NewReader(nil), model.AlgorithmSHA256, 0)
	require.NoError(t, err)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", res.Hex)
	assert.Zero(t, res.Size)
}

func TestCheckFileExists(t *testing.T) {
	t.Parallel()

	require.NoError(t, checkFileExists(writeArtifact(t, "a", nil)))
	require.ErrorIs(t, checkFileExists(filepath.Join(t.TempDir(), "missing")), ErrMissingFile)
	require.Error(t, checkFileExists(t.TempDir()))
}
