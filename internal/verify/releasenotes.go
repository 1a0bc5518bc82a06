package verify

import (
	"regexp"
	"strings"

	"github.com/3leaps/appverify/internal/model"
)

var sha256TokenRe = regexp.MustCompile(`\b[0-9a-fA-F]{64}\b`)

type notesCandidate struct {
	hash string
	line string
}

// FindReleaseNotesHash scans free text for a sha256 digest tied to target.
// A line whose tokens include target exactly wins; otherwise the first line
// merely containing target is used.
func FindReleaseNotesHash(text, target string) (model.ChecksumEntry, bool) {
	if target == "" {
		return model.ChecksumEntry{}, false
	}
	var candidates []notesCandidate
	for _, line := range strings.Split(text, "\n") {
		for _, m := range sha256TokenRe.FindAllString(line, -1) {
			candidates = append(candidates, notesCandidate{hash: strings.ToLower(m), line: line})
		}
	}

	for _, c := range candidates {
		if e, ok := parseChecksumLine(stripMarkup(c.line)); ok && e.hash == c.hash && e.filename == target {
			return notesEntry(c.hash, target), true
		}
		for _, tok := range notesTokens(c.line) {
			if tok == target {
				return notesEntry(c.hash, target), true
			}
		}
	}
	for _, c := range candidates {
		if strings.Contains(c.line, target) {
			return notesEntry(c.hash, target), true
		}
	}
	return model.ChecksumEntry{}, false
}

func notesEntry(digest, target string) model.ChecksumEntry {
	return model.ChecksumEntry{Filename: target, HashValue: digest, Algorithm: model.AlgorithmSHA256}
}

// stripMarkup removes Markdown list bullets and inline code ticks.
func stripMarkup(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*+> ")
	return strings.ReplaceAll(line, "`", "")
}

func notesTokens(line string) []string {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		switch r {
		case ' ', '\t', '\r', '|', '`', ',', ';':
			return true
		}
		return false
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "*_:()[]<>\"'")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
