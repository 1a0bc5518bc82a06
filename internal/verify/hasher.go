package verify

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/3leaps/appverify/internal/model"
)

// DefaultChunkSize bounds the memory used while hashing, whatever the file size.
const DefaultChunkSize = 64 * 1024

// HashResult is a computed digest plus the number of bytes read.
type HashResult struct {
	Algorithm model.Algorithm
	Hex       string
	Size      int64
}

// HashFile streams path through algo in chunkSize reads.
// A missing path yields an error wrapping ErrMissingFile.
func HashFile(ctx context.Context, path string, algo model.Algorithm, chunkSize int) (HashResult, error) {
	if !algo.Supported() {
		return HashResult{}, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algo)
	}
	// #nosec G304 -- path is the artifact the caller asked us to verify
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return HashResult{}, fmt.Errorf("%w: %s", ErrMissingFile, path)
		}
		return HashResult{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	res, err := HashReader(ctx, f, algo, chunkSize)
	if err != nil {
		return HashResult{}, fmt.Errorf("hash %s: %w", path, err)
	}
	return res, nil
}

// HashReader is HashFile for an arbitrary reader.
func HashReader(ctx context.Context, r io.Reader, algo model.Algorithm, chunkSize int) (HashResult, error) {
	h := algo.New()
	if h == nil {
		return HashResult{}, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algo)
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	buf := make([]byte, chunkSize)
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return HashResult{}, err
		}
		n, err := r.Read(buf)
		if n > 0 {
			_, _ = h.Write(buf[:n])
			total += int64(n)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return HashResult{}, err
		}
	}
	return HashResult{Algorithm: algo, Hex: hex.EncodeToString(h.Sum(nil)), Size: total}, nil
}

func checkFileExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingFile, path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
