package verify

import (
	"fmt"

	"github.com/3leaps/appverify/internal/model"
)

// DefaultHashPreference is the order in which structured manifests are
// searched when an entry lists several digests.
var DefaultHashPreference = []model.Algorithm{
	model.AlgorithmSHA512,
	model.AlgorithmSHA256,
	model.AlgorithmSHA1,
	model.AlgorithmMD5,
}

// Manifest is checksum manifest text with its format fixed at construction.
type Manifest struct {
	content string
	source  string
	format  ManifestFormat
}

// NewManifest classifies content once; source is kept for diagnostics.
func NewManifest(content []byte, source string) *Manifest {
	text := string(content)
	return &Manifest{
		content: text,
		source:  source,
		format:  ClassifyManifest(text),
	}
}

func (m *Manifest) Format() ManifestFormat { return m.format }
func (m *Manifest) Source() string         { return m.source }

// FindEntry locates the entry for target. hint narrows the algorithm when
// non-empty; preference orders structured digests and may be nil.
// It returns ErrEntryNotFound or an error wrapping ErrManifestParse.
func (m *Manifest) FindEntry(target string, hint model.Algorithm, preference []model.Algorithm) (model.ChecksumEntry, error) {
	if preference == nil {
		preference = DefaultHashPreference
	}
	var (
		entry model.ChecksumEntry
		found bool
		err   error
	)
	switch m.format {
	case FormatStructured:
		entry, found, err = findStructuredEntry(m.content, target, withHint(hint, preference))
	case FormatBSDStyle:
		entry, found = findBSDEntry(m.content, target, hint)
	default:
		entry, found = findLineEntry(m.content, target, hint)
	}
	if err != nil {
		return model.ChecksumEntry{}, fmt.Errorf("%s: %w", m.source, err)
	}
	if !found {
		return model.ChecksumEntry{}, fmt.Errorf("%s: %s: %w", m.source, target, ErrEntryNotFound)
	}
	return entry, nil
}

// FindAll returns every filename to hash mapping the manifest carries.
func (m *Manifest) FindAll() (map[string]string, error) {
	switch m.format {
	case FormatStructured:
		out, err := findAllStructured(m.content, DefaultHashPreference)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.source, err)
		}
		return out, nil
	case FormatBSDStyle:
		return findAllBSD(m.content), nil
	default:
		return findAllLines(m.content), nil
	}
}

func withHint(hint model.Algorithm, preference []model.Algorithm) []model.Algorithm {
	if !hint.Supported() {
		return preference
	}
	out := []model.Algorithm{hint}
	for _, a := range preference {
		if a != hint {
			out = append(out, a)
		}
	}
	return out
}
