package verify

import (
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/3leaps/appverify/internal/model"
)

// Keys that carry a digest without naming its algorithm.
var genericHashKeys = []string{"checksum", "hash", "digest"}

// Keys that name the file an entry describes.
var entryNameKeys = []string{"name", "path", "file", "filename", "url"}

type structuredEntry struct {
	name  string
	entry model.ChecksumEntry
}

// findStructuredEntry supports two shapes:
//
//	path: App.AppImage          files:
//	sha512: <base64|hex>          App.AppImage: sha256:<hex>
//	                              Other.AppImage: {sha512: <hex>}
//	                            files:
//	                              - url: App.AppImage
//	                                sha512: <base64>
func findStructuredEntry(content, target string, preference []model.Algorithm) (model.ChecksumEntry, bool, error) {
	entries, err := structuredEntries(content, preference)
	if err != nil {
		return model.ChecksumEntry{}, false, err
	}
	for _, e := range entries {
		if e.name == target {
			return withFilename(e.entry, target), true, nil
		}
	}
	for _, e := range entries {
		if path.Base(e.name) == target {
			return withFilename(e.entry, target), true, nil
		}
	}
	return model.ChecksumEntry{}, false, nil
}

func findAllStructured(content string, preference []model.Algorithm) (map[string]string, error) {
	entries, err := structuredEntries(content, preference)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		if _, seen := out[e.name]; !seen {
			out[e.name] = e.entry.HashValue
		}
	}
	return out, nil
}

func withFilename(e model.ChecksumEntry, name string) model.ChecksumEntry {
	e.Filename = name
	return e
}

func structuredEntries(content string, preference []model.Algorithm) ([]structuredEntry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestParse, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top-level value is not a mapping", ErrManifestParse)
	}
	root := doc.Content[0]

	var out []structuredEntry
	if p := mappingValue(root, "path"); p != nil && p.Kind == yaml.ScalarNode && p.Value != "" {
		if e, ok := hashFromMapping(root, preference); ok {
			out = append(out, structuredEntry{name: p.Value, entry: withFilename(e, p.Value)})
		}
	}

	files := mappingValue(root, "files")
	if files == nil {
		return out, nil
	}
	switch files.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(files.Content); i += 2 {
			name := files.Content[i].Value
			if e, ok := hashFromNode(files.Content[i+1], preference); ok {
				out = append(out, structuredEntry{name: name, entry: withFilename(e, name)})
			}
		}
	case yaml.SequenceNode:
		for _, item := range files.Content {
			if item.Kind != yaml.MappingNode {
				continue
			}
			name := entryName(item)
			if name == "" {
				continue
			}
			if e, ok := hashFromMapping(item, preference); ok {
				out = append(out, structuredEntry{name: name, entry: withFilename(e, name)})
			}
		}
	default:
		return nil, fmt.Errorf("%w: files must be a mapping or a list", ErrManifestParse)
	}
	return out, nil
}

func entryName(item *yaml.Node) string {
	for _, key := range entryNameKeys {
		if v := mappingValue(item, key); v != nil && v.Kind == yaml.ScalarNode && v.Value != "" {
			return v.Value
		}
	}
	return ""
}

func hashFromNode(n *yaml.Node, preference []model.Algorithm) (model.ChecksumEntry, bool) {
	switch n.Kind {
	case yaml.ScalarNode:
		return hashFromScalar(n.Value, "")
	case yaml.MappingNode:
		return hashFromMapping(n, preference)
	default:
		return model.ChecksumEntry{}, false
	}
}

// hashFromMapping tries the algorithm-named keys in preference order, then
// the generic digest keys.
func hashFromMapping(n *yaml.Node, preference []model.Algorithm) (model.ChecksumEntry, bool) {
	for _, algo := range preference {
		v := mappingValue(n, string(algo))
		if v == nil || v.Kind != yaml.ScalarNode {
			continue
		}
		if e, ok := hashFromScalar(v.Value, algo); ok {
			return e, true
		}
	}
	for _, key := range genericHashKeys {
		v := mappingValue(n, key)
		if v == nil || v.Kind != yaml.ScalarNode {
			continue
		}
		if e, ok := hashFromScalar(v.Value, ""); ok {
			return e, true
		}
	}
	return model.ChecksumEntry{}, false
}

// hashFromScalar normalizes raw and resolves its algorithm from algo, an
// "algo:" prefix, or the digest length, in that order.
func hashFromScalar(raw string, algo model.Algorithm) (model.ChecksumEntry, bool) {
	if !algo.Supported() {
		if prefix, _, found := strings.Cut(strings.TrimSpace(raw), ":"); found {
			algo = model.ParseAlgorithm(prefix)
		}
	}
	digest := NormalizeHash(raw)
	if !algo.Supported() {
		inferred, ok := model.AlgorithmForHexLen(len(digest))
		if !ok {
			return model.ChecksumEntry{}, false
		}
		algo = inferred
	}
	if !validEntryHash(digest, algo) {
		return model.ChecksumEntry{}, false
	}
	return model.ChecksumEntry{HashValue: strings.ToLower(digest), Algorithm: algo}, true
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if strings.EqualFold(n.Content[i].Value, key) {
			return n.Content[i+1]
		}
	}
	return nil
}
