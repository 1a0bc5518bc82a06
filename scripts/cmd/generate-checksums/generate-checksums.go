// Command generate-checksums writes checksum manifests for AppImage release
// artifacts in any of the dialects appverify reads.
package main

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/3leaps/appverify/internal/model"
	"github.com/3leaps/appverify/internal/verify"
)

const (
	formatLine = "line"
	formatBSD  = "bsd"
	formatYAML = "yaml"
)

type options struct {
	dir    string
	algos  string
	format string
	glob   string
}

func main() {
	var opts options
	flag.StringVar(&opts.dir, "dir", "dist", "directory containing release artifacts")
	flag.StringVar(&opts.algos, "algos", "sha256,sha512", "comma-separated hash algorithms (md5, sha1, sha256, sha512)")
	flag.StringVar(&opts.format, "format", formatLine, "manifest dialect: line, bsd or yaml")
	flag.StringVar(&opts.glob, "glob", "*.AppImage", "artifact filename pattern")
	flag.Parse()

	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	dir := strings.TrimSpace(opts.dir)
	if dir == "" {
		return errors.New("directory is required")
	}
	if err := ensureDir(dir); err != nil {
		return err
	}

	algos, err := parseAlgos(opts.algos)
	if err != nil {
		return err
	}
	if len(algos) == 0 {
		return errors.New("no hash algorithms specified")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}
	files, err := filterFiles(entries, opts.glob)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no release artifacts matching %q found in %s", opts.glob, dir)
	}
	sort.Strings(files)

	sums, err := hashAll(ctx, dir, files, algos)
	if err != nil {
		return err
	}

	var written []string
	switch opts.format {
	case formatLine:
		for _, algo := range algos {
			name := lineManifestName(algo)
			if err := writeFile(filepath.Join(dir, name), renderLine(files, sums, algo)); err != nil {
				return err
			}
			written = append(written, name)
		}
	case formatBSD:
		if err := writeFile(filepath.Join(dir, "CHECKSUMS"), renderBSD(files, sums, algos)); err != nil {
			return err
		}
		written = append(written, "CHECKSUMS")
	case formatYAML:
		out, err := renderYAML(files, sums, algos)
		if err != nil {
			return err
		}
		if err := writeFile(filepath.Join(dir, "checksums.yml"), out); err != nil {
			return err
		}
		written = append(written, "checksums.yml")
	default:
		return fmt.Errorf("unsupported format %q (supported: line, bsd, yaml)", opts.format)
	}

	for _, name := range written {
		fmt.Printf("✅ Wrote %s (%d entries)\n", filepath.Join(dir, name), len(files))
	}
	return nil
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory %s not found", dir)
		}
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

func parseAlgos(list string) ([]model.Algorithm, error) {
	var out []model.Algorithm
	seen := make(map[model.Algorithm]struct{})
	for _, raw := range strings.Split(list, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		algo := model.ParseAlgorithm(raw)
		if !algo.Supported() {
			return nil, fmt.Errorf("unsupported hash algorithm %q", strings.TrimSpace(raw))
		}
		if _, ok := seen[algo]; ok {
			continue
		}
		seen[algo] = struct{}{}
		out = append(out, algo)
	}
	return out, nil
}

func filterFiles(entries []os.DirEntry, glob string) ([]string, error) {
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if skipFile(name) {
			continue
		}
		ok, err := filepath.Match(glob, name)
		if err != nil {
			return nil, fmt.Errorf("bad glob %q: %w", glob, err)
		}
		if ok {
			files = append(files, name)
		}
	}
	return files, nil
}

// skipFile drops signatures and previously generated manifests.
func skipFile(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range []string{".asc", ".sig", ".minisig", ".md5", ".sha1", ".sha256", ".sha512", ".txt", ".yml", ".yaml"} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return strings.HasSuffix(lower, "sums") || lower == "checksums"
}

func lineManifestName(algo model.Algorithm) string {
	return strings.ToUpper(string(algo)) + "SUMS"
}

// hashAll returns name -> algorithm -> hex digest.
func hashAll(ctx context.Context, dir string, files []string, algos []model.Algorithm) (map[string]map[model.Algorithm]string, error) {
	out := make(map[string]map[model.Algorithm]string, len(files))
	for _, name := range files {
		out[name] = make(map[model.Algorithm]string, len(algos))
		for _, algo := range algos {
			res, err := verify.HashFile(ctx, filepath.Join(dir, name), algo, verify.DefaultChunkSize)
			if err != nil {
				return nil, err
			}
			out[name][algo] = res.Hex
		}
	}
	return out, nil
}

func renderLine(files []string, sums map[string]map[model.Algorithm]string, algo model.Algorithm) []byte {
	var b strings.Builder
	for _, name := range files {
		fmt.Fprintf(&b, "%s  %s\n", sums[name][algo], name)
	}
	return []byte(b.String())
}

func renderBSD(files []string, sums map[string]map[model.Algorithm]string, algos []model.Algorithm) []byte {
	var b strings.Builder
	for _, algo := range algos {
		for _, name := range files {
			fmt.Fprintf(&b, "%s (%s) = %s\n", strings.ToUpper(string(algo)), name, sums[name][algo])
		}
	}
	return []byte(b.String())
}

type yamlFile struct {
	URL    string `yaml:"url"`
	SHA512 string `yaml:"sha512,omitempty"`
	SHA256 string `yaml:"sha256,omitempty"`
	SHA1   string `yaml:"sha1,omitempty"`
	MD5    string `yaml:"md5,omitempty"`
}

type yamlManifest struct {
	Files []yamlFile `yaml:"files"`
}

// renderYAML writes the electron-builder layout; sha512 is base64 as that
// tool emits it, the rest hex.
func renderYAML(files []string, sums map[string]map[model.Algorithm]string, algos []model.Algorithm) ([]byte, error) {
	var doc yamlManifest
	for _, name := range files {
		entry := yamlFile{URL: name}
		for _, algo := range algos {
			digest := sums[name][algo]
			switch algo {
			case model.AlgorithmSHA512:
				raw, err := hex.DecodeString(digest)
				if err != nil {
					return nil, fmt.Errorf("encode %s: %w", name, err)
				}
				entry.SHA512 = base64.StdEncoding.EncodeToString(raw)
			case model.AlgorithmSHA256:
				entry.SHA256 = digest
			case model.AlgorithmSHA1:
				entry.SHA1 = digest
			case model.AlgorithmMD5:
				entry.MD5 = digest
			}
		}
		doc.Files = append(doc.Files, entry)
	}
	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return out, nil
}

func writeFile(path string, data []byte) error {
	// #nosec G306 -- manifests are published alongside public release artifacts
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
