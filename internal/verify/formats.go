package verify

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFormat is the closed set of checksum manifest dialects.
type ManifestFormat int

const (
	FormatLineBased ManifestFormat = iota
	FormatBSDStyle
	FormatStructured
)

func (f ManifestFormat) String() string {
	switch f {
	case FormatStructured:
		return "structured"
	case FormatBSDStyle:
		return "bsd"
	default:
		return "line"
	}
}

var bsdShapeRe = regexp.MustCompile(`^\s*\S+\s*\(.+\)\s*=\s*\S+`)

// ClassifyManifest picks the parser for content. A YAML mapping wins over
// anything else; then any BSD-shaped line; the line-based parser takes the rest.
func ClassifyManifest(content string) ManifestFormat {
	var doc any
	if err := yaml.Unmarshal([]byte(content), &doc); err == nil {
		if _, ok := doc.(map[string]any); ok {
			return FormatStructured
		}
	}
	for _, line := range strings.Split(content, "\n") {
		if bsdShapeRe.MatchString(line) {
			return FormatBSDStyle
		}
	}
	return FormatLineBased
}
