package main

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/viper"

	"github.com/3leaps/appverify/internal/model"
	"github.com/3leaps/appverify/internal/verify"
)

//go:embed schemas/verify-request.schema.json
var requestSchemaJSON []byte

const requestSchemaURL = "https://3leaps.dev/schemas/appverify/verify-request.schema.json"

// settings are the environment-backed defaults for CLI flags.
type settings struct {
	LogLevel    string
	LogFormat   string
	Concurrency int
}

func loadSettings() settings {
	v := viper.New()
	v.SetEnvPrefix("APPVERIFY")
	v.AutomaticEnv()
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "console")
	v.SetDefault("concurrency", 4)
	return settings{
		LogLevel:    v.GetString("log_level"),
		LogFormat:   v.GetString("log_format"),
		Concurrency: v.GetInt("concurrency"),
	}
}

// ManifestRef names a manifest file and its optional minisign signature.
type ManifestRef struct {
	Path      string `mapstructure:"path"`
	Signature string `mapstructure:"signature"`
}

// RequestItem is one artifact and its verification sources as written in a
// request file or given on the command line.
type RequestItem struct {
	File         string        `mapstructure:"file"`
	Name         string        `mapstructure:"name"`
	App          string        `mapstructure:"app"`
	Version      string        `mapstructure:"version"`
	Digest       string        `mapstructure:"digest"`
	Manifests    []ManifestRef `mapstructure:"manifests"`
	ReleaseNotes string        `mapstructure:"release_notes"`
}

// RequestFile is a batch of RequestItems.
// Schema: schemas/verify-request.schema.json
type RequestFile struct {
	Concurrency int           `mapstructure:"concurrency"`
	Requests    []RequestItem `mapstructure:"requests"`

	dir string
}

// loadRequestFile reads a YAML, JSON or TOML request file, validates it
// against the embedded schema and decodes it.
func loadRequestFile(path string) (*RequestFile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}
	if err := validateRequestDocument(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("invalid request file %s:\n%w", path, err)
	}

	var rf RequestFile
	if err := v.Unmarshal(&rf); err != nil {
		return nil, fmt.Errorf("decode request file: %w", err)
	}
	rf.dir = filepath.Dir(path)
	return &rf, nil
}

func compileRequestSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(requestSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse embedded request schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(requestSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add request schema: %w", err)
	}
	return c.Compile(requestSchemaURL)
}

func validateRequestDocument(doc map[string]any) error {
	sch, err := compileRequestSchema()
	if err != nil {
		return err
	}
	// Round-trip through JSON so the validator sees plain JSON values.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode request document: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode request document: %w", err)
	}
	return sch.Validate(inst)
}

// VerificationRequests resolves relative paths against the request file's directory and
// loads every referenced source.
func (rf *RequestFile) VerificationRequests() ([]model.VerificationRequest, error) {
	reqs := make([]model.VerificationRequest, 0, len(rf.Requests))
	for i, item := range rf.Requests {
		req, err := item.build(rf.dir)
		if err != nil {
			return nil, fmt.Errorf("requests[%d]: %w", i, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func (s RequestItem) build(baseDir string) (model.VerificationRequest, error) {
	if strings.TrimSpace(s.File) == "" {
		return model.VerificationRequest{}, errors.New("file: missing")
	}
	req := model.VerificationRequest{
		Path:     resolvePath(baseDir, s.File),
		Filename: s.Name,
		Identity: model.Identity{App: s.App, Version: s.Version},
	}

	if s.Digest != "" {
		d, err := verify.ParseDigest(s.Digest)
		if err != nil {
			return model.VerificationRequest{}, err
		}
		req.Sources = append(req.Sources, d)
	}

	for _, m := range s.Manifests {
		path := resolvePath(baseDir, m.Path)
		// #nosec G304 -- manifest path supplied by the operator
		content, err := os.ReadFile(path)
		if err != nil {
			return model.VerificationRequest{}, fmt.Errorf("read manifest: %w", err)
		}
		src := model.ManifestSource{Content: content, Name: filepath.Base(path)}
		if m.Signature != "" {
			// #nosec G304 -- signature path supplied by the operator
			sig, err := os.ReadFile(resolvePath(baseDir, m.Signature))
			if err != nil {
				return model.VerificationRequest{}, fmt.Errorf("read manifest signature: %w", err)
			}
			src.Signature = sig
		}
		req.Sources = append(req.Sources, src)
	}

	if s.ReleaseNotes != "" {
		// #nosec G304 -- release notes path supplied by the operator
		text, err := os.ReadFile(resolvePath(baseDir, s.ReleaseNotes))
		if err != nil {
			return model.VerificationRequest{}, fmt.Errorf("read release notes: %w", err)
		}
		req.Sources = append(req.Sources, model.ReleaseNotesSource{Text: string(text)})
	}
	return req, nil
}

func resolvePath(baseDir, p string) string {
	if baseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
