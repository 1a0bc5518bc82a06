package verify

import (
	"strings"
	"unicode"

	"github.com/3leaps/appverify/internal/model"
)

type lineEntry struct {
	hash     string
	filename string
}

// parseChecksumLine splits "HASH  [*|./]name" on the first whitespace run.
func parseChecksumLine(line string) (lineEntry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return lineEntry{}, false
	}
	idx := strings.IndexFunc(line, unicode.IsSpace)
	if idx < 0 {
		return lineEntry{}, false
	}
	digest := line[:idx]
	name := strings.TrimLeftFunc(line[idx:], unicode.IsSpace)
	name = strings.TrimPrefix(name, "*")
	name = strings.TrimPrefix(name, "./")
	if name == "" || !isHexDigest(digest, 0) {
		return lineEntry{}, false
	}
	return lineEntry{hash: strings.ToLower(digest), filename: name}, true
}

func parseChecksumLines(content string) []lineEntry {
	var out []lineEntry
	for _, line := range strings.Split(content, "\n") {
		if e, ok := parseChecksumLine(line); ok {
			out = append(out, e)
		}
	}
	return out
}

// findLineEntry prefers an exact name, then a nested path ending in
// "/target", then a relaxed build-number variant.
func findLineEntry(content, target string, hint model.Algorithm) (model.ChecksumEntry, bool) {
	if entry, ok := bareDigestEntry(content, target, hint); ok {
		return entry, true
	}

	var usable []lineEntry
	for _, e := range parseChecksumLines(content) {
		if _, ok := entryAlgorithm(e.hash, hint); ok {
			usable = append(usable, e)
		}
	}

	matchers := []func(string) bool{
		func(name string) bool { return name == target },
		func(name string) bool { return strings.HasSuffix(name, "/"+target) },
		func(name string) bool { return FilenamesEquivalent(name, target) },
	}
	for _, match := range matchers {
		for _, e := range usable {
			if match(e.filename) {
				algo, _ := entryAlgorithm(e.hash, hint)
				return model.ChecksumEntry{Filename: e.filename, HashValue: e.hash, Algorithm: algo}, true
			}
		}
	}
	return model.ChecksumEntry{}, false
}

// bareDigestEntry handles per-asset files such as app.AppImage.sha256 that
// hold nothing but the digest.
func bareDigestEntry(content, target string, hint model.Algorithm) (model.ChecksumEntry, bool) {
	var tokens []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens = append(tokens, strings.Fields(line)...)
	}
	if len(tokens) != 1 || !isHexDigest(tokens[0], 0) {
		return model.ChecksumEntry{}, false
	}
	digest := strings.ToLower(tokens[0])
	algo, ok := entryAlgorithm(digest, hint)
	if !ok {
		return model.ChecksumEntry{}, false
	}
	return model.ChecksumEntry{Filename: target, HashValue: digest, Algorithm: algo}, true
}

func findAllLines(content string) map[string]string {
	out := make(map[string]string)
	for _, e := range parseChecksumLines(content) {
		out[e.filename] = e.hash
	}
	return out
}

// entryAlgorithm resolves the algorithm for a hex digest: the hint when it
// fits, otherwise inferred from length.
func entryAlgorithm(digest string, hint model.Algorithm) (model.Algorithm, bool) {
	if hint.Supported() {
		return hint, len(digest) == hint.HexLen()
	}
	return model.AlgorithmForHexLen(len(digest))
}
