package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPatterns are the definition file names searched for when none are
// configured.
var DefaultPatterns = []string{"token*.yaml", "token*.yml", "token*.json"}

// File is the layout of a definition file.
type File struct {
	Tokens []Entry `yaml:"tokens" json:"tokens"`
}

// Entry is one named profile definition.
type Entry struct {
	Name       string     `yaml:"name" json:"name"`
	Definition Definition `yaml:"definition" json:"definition"`
}

// LoadOptions configures Load.
type LoadOptions struct {
	// Root is searched recursively for definition files.
	Root string

	// Patterns are matched against file base names, ignoring case.
	Patterns []string

	Logger *slog.Logger
}

// Load discovers every definition file under opts.Root and merges them into
// a registry. Files are applied in lexical path order, so a later file
// overrides a profile of the same name from an earlier one. Any invalid
// profile fails the whole load.
func Load(opts LoadOptions) (*Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	files, err := Discover(opts.Root, opts.Patterns)
	if err != nil {
		return nil, err
	}
	return LoadFiles(files, logger)
}

// LoadFiles merges the profiles of files, in the given order.
func LoadFiles(files []string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var all []Profile
	origin := map[string]string{}
	for _, file := range files {
		profiles, err := ParseFile(file)
		if err != nil {
			return nil, err
		}
		for _, p := range profiles {
			if prev, ok := origin[p.Name]; ok {
				logger.Info("profile overridden",
					slog.String("profile", p.Name),
					slog.String("previous_file", prev),
					slog.String("file", file),
				)
			}
			origin[p.Name] = file
			all = append(all, p)
		}
		logger.Debug("profile file loaded",
			slog.String("file", file),
			slog.Int("profiles", len(profiles)),
		)
	}

	reg := NewRegistry(all...)
	logger.Info("profiles loaded",
		slog.Int("files", len(files)),
		slog.Int("profiles", reg.Len()),
	)
	return reg, nil
}

// Discover returns the definition files under root matching patterns, in
// lexical order.
func Discover(root string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	if root == "" {
		root = "."
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		for _, pat := range patterns {
			ok, err := filepath.Match(strings.ToLower(pat), name)
			if err != nil {
				return fmt.Errorf("profile: bad pattern %q: %w", pat, err)
			}
			if ok {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("profile: discover definitions in %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

// ParseFile reads one definition file. JSON is used for ".json" files and
// YAML for everything else. A name repeated inside the file keeps its first
// definition.
func ParseFile(path string) ([]Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}

	var f File
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("profile: unable to unmarshal JSON %q: %w", path, err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("profile: unable to unmarshal YAML %q: %w", path, err)
		}
	}

	profiles := make([]Profile, 0, len(f.Tokens))
	seen := make(map[string]struct{}, len(f.Tokens))
	for _, e := range f.Tokens {
		p, err := New(e.Name, e.Definition)
		if err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				ve.File = path
				return nil, ve
			}
			return nil, fmt.Errorf("profile: %s: %w", path, err)
		}
		if _, dup := seen[p.Name]; dup {
			continue
		}
		seen[p.Name] = struct{}{}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
