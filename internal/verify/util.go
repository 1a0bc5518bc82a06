package verify

import (
	"fmt"
	"path"
	"strings"

	"github.com/3leaps/appverify/internal/model"
)

// DetectChecksumAlgorithm infers the algorithm a manifest uses from its name
// (SHA512SUMS, app.AppImage.sha256, md5sums.txt). It returns "" when the
// name carries no hint.
func DetectChecksumAlgorithm(filename string) model.Algorithm {
	lower := strings.ToLower(path.Base(filename))
	switch {
	case strings.Contains(lower, "sha2-512sums"),
		strings.Contains(lower, "sha512sum"),
		strings.HasSuffix(lower, ".sha512"),
		strings.HasSuffix(lower, ".sha512.txt"):
		return model.AlgorithmSHA512
	case strings.Contains(lower, "sha2-256sums"),
		strings.Contains(lower, "sha256sum"),
		strings.HasSuffix(lower, ".sha256"),
		strings.HasSuffix(lower, ".sha256.txt"):
		return model.AlgorithmSHA256
	case strings.Contains(lower, "sha1sum"),
		strings.HasSuffix(lower, ".sha1"):
		return model.AlgorithmSHA1
	case strings.Contains(lower, "md5sum"),
		strings.HasSuffix(lower, ".md5"):
		return model.AlgorithmMD5
	default:
		return ""
	}
}

// FormatSize formats bytes as human-readable size.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
