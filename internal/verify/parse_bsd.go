package verify

import (
	"regexp"
	"strings"

	"github.com/3leaps/appverify/internal/model"
)

// "SHA256 (MyApp.AppImage) = 0123..." as written by `shasum --tag` and BSD md5/sha tools.
var bsdLineRe = regexp.MustCompile(`(?i)^\s*(MD5|SHA1|SHA-1|SHA256|SHA-256|SHA512|SHA-512)\s*\((.+)\)\s*=\s*([0-9a-f]+)\s*$`)

func parseBSDLine(line string) (model.ChecksumEntry, bool) {
	m := bsdLineRe.FindStringSubmatch(line)
	if m == nil {
		return model.ChecksumEntry{}, false
	}
	algo := model.ParseAlgorithm(m[1])
	digest := strings.ToLower(m[3])
	if !validEntryHash(digest, algo) {
		return model.ChecksumEntry{}, false
	}
	return model.ChecksumEntry{Filename: m[2], HashValue: digest, Algorithm: algo}, true
}

// findBSDEntry matches the filename exactly. BSD manifests are produced by
// tools that record the precise name, so no relaxed matching is attempted.
func findBSDEntry(content, target string, hint model.Algorithm) (model.ChecksumEntry, bool) {
	var fallback *model.ChecksumEntry
	for _, line := range strings.Split(content, "\n") {
		entry, ok := parseBSDLine(line)
		if !ok || entry.Filename != target {
			continue
		}
		if !hint.Supported() || entry.Algorithm == hint {
			return entry, true
		}
		if fallback == nil {
			e := entry
			fallback = &e
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return model.ChecksumEntry{}, false
}

func findAllBSD(content string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		if entry, ok := parseBSDLine(line); ok {
			out[entry.Filename] = entry.HashValue
		}
	}
	return out
}
