// Package config finds and validates the eventchain configuration file.
//
// A project directory holds exactly one config file (JSON, YAML or CUE)
// carrying a truthy "eventchain" attribute. The file names the app and the
// query whose "project" clause selects the fields to persist:
//
//	{
//	  "eventchain": 1,
//	  "name": "bitcom",
//	  "q": {
//	    "find": {"out.s1": "19HxigV4QyBv3tHpQVcUEQyq1pzZVdoAut"},
//	    "project": {"out.s2": 1, "in.e.a": 1}
//	  }
//	}
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/eventchain/internal/schema"
)

// Attr marks a file as the eventchain config.
const Attr = "eventchain"

// Extensions lists the file types scanned for a config, in lookup order.
var Extensions = []string{".json", ".yaml", ".yml", ".cue"}

var (
	// ErrNoConfig is returned when no file in the directory carries Attr.
	ErrNoConfig = errors.New(`couldn't find a config file with an "eventchain" attribute`)

	// ErrMultipleConfigs is returned when more than one file carries Attr.
	ErrMultipleConfigs = errors.New("only one config file supported per eventchain")
)

// Query is the filter handed to the event source.
type Query struct {
	Find    map[string]any
	Project map[string]any
}

// Config is a validated configuration file.
type Config struct {
	Path  string
	Name  string
	Query Query

	// Raw is the decoded file content.
	Raw map[string]any
}

// Projection returns the fields selected by the query's project clause.
func (c *Config) Projection() schema.Projection {
	return schema.ParseProjection(c.Query.Project)
}

// Load finds the config file in dir and validates it.
// Validation problems are returned together as ValidationErrors.
func Load(dir string) (*Config, error) {
	path, raw, err := Find(dir)
	if err != nil {
		return nil, err
	}

	if errs := Validate(raw); len(errs) > 0 {
		return nil, errs
	}

	cfg := &Config{
		Path: path,
		Raw:  raw,
	}
	cfg.Name, _ = raw["name"].(string)
	q, _ := raw["q"].(map[string]any)
	cfg.Query.Find, _ = q["find"].(map[string]any)
	cfg.Query.Project, _ = q["project"].(map[string]any)

	slog.Debug("config loaded", "path", path, "name", cfg.Name, "project", len(cfg.Query.Project))
	return cfg, nil
}

// Find scans the top level of dir for the config file and returns its path
// and decoded content. Files that cannot be decoded are skipped; when no
// config is found their errors are joined to ErrNoConfig.
func Find(dir string) (string, map[string]any, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	var (
		found     []string
		contents  []map[string]any
		decodeErr []error
	)
	for _, entry := range entries {
		if entry.IsDir() || !slices.Contains(Extensions, strings.ToLower(filepath.Ext(entry.Name()))) {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		raw, err := decodeFile(path)
		if err != nil {
			slog.Debug("skipping unreadable file", "path", path, "error", err)
			decodeErr = append(decodeErr, err)
			continue
		}
		if !truthy(raw[Attr]) {
			continue
		}
		found = append(found, path)
		contents = append(contents, raw)
	}

	switch len(found) {
	case 0:
		return "", nil, errors.Join(append([]error{ErrNoConfig}, decodeErr...)...)
	case 1:
		return found[0], contents[0], nil
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrMultipleConfigs, strings.Join(found, ", "))
	}
}

// decodeFile reads a JSON, YAML or CUE document into a map.
func decodeFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".cue":
		v := cuecontext.New().CompileBytes(data, cue.Filename(path))
		if err = v.Err(); err == nil {
			err = v.Decode(&raw)
		}
	default:
		return nil, fmt.Errorf("unsupported config type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return raw, nil
}

// truthy reports whether v would enable a config: present, and not false,
// zero, or empty.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case uint64:
		return x != 0
	default:
		return true
	}
}
