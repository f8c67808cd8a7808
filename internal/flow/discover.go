package flow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/medportal/medassist/internal/schema"
)

// Files that make up a flow package directory.
const (
	PromptFile       = "flow.prompt"
	InputSchemaFile  = "input.jsonschema"
	OutputSchemaFile = "output.jsonschema"
)

// Prompt file parsing errors.
var (
	ErrNoFrontmatter = errors.New("flow prompt must start with a --- frontmatter block")
	ErrMissingName   = errors.New("flow missing required field: name")
	ErrMissingDesc   = errors.New("flow missing required field: description")
	ErrEmptyTemplate = errors.New("flow prompt has no template body")
)

// Frontmatter is the YAML header of a flow.prompt file.
type Frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`
}

// ParsePromptFile splits a flow.prompt file into its frontmatter and
// template body.
func ParsePromptFile(content []byte) (Frontmatter, string, error) {
	var fm Frontmatter

	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	rest, ok := strings.CutPrefix(text, "---\n")
	if !ok {
		return fm, "", ErrNoFrontmatter
	}
	header, body, ok := strings.Cut(rest, "\n---")
	if !ok {
		return fm, "", ErrNoFrontmatter
	}
	// Drop the remainder of the closing delimiter line.
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}

	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return fm, "", fmt.Errorf("parse frontmatter: %w", err)
	}
	if fm.Name == "" {
		return fm, "", ErrMissingName
	}
	if fm.Description == "" {
		return fm, "", ErrMissingDesc
	}
	if fm.Version != "" {
		v, err := semver.NewVersion(fm.Version)
		if err != nil {
			return fm, "", fmt.Errorf("flow %s: invalid version %q: %w", fm.Name, fm.Version, err)
		}
		fm.Version = v.String()
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return fm, "", ErrEmptyTemplate
	}
	return fm, body, nil
}

// Discover loads the flow packages found directly under each directory.
// Directories are searched in order; the first flow found with a given name
// wins. Missing directories and invalid packages are skipped.
func Discover(dirs []string) ([]Definition, error) {
	seen := make(map[string]bool)
	var defs []Definition

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}

		source := sourceFromPath(dir)
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			def, err := loadPackage(filepath.Join(dir, entry.Name()), source)
			if err != nil {
				continue
			}
			if !seen[def.Name] {
				seen[def.Name] = true
				defs = append(defs, *def)
			}
		}
	}

	return defs, nil
}

// DiscoverOne loads a single flow package directory, reporting why it is
// invalid.
func DiscoverOne(dir string) (*Definition, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: flow package must be a directory", dir)
	}
	return loadPackage(dir, SourceUser)
}

func loadPackage(dir string, source Source) (*Definition, error) {
	content, err := os.ReadFile(filepath.Join(dir, PromptFile))
	if err != nil {
		return nil, err
	}
	fm, body, err := ParsePromptFile(content)
	if err != nil {
		return nil, err
	}

	input, err := loadSchemaFile(filepath.Join(dir, InputSchemaFile), fm.Name+"Input")
	if err != nil {
		return nil, err
	}
	output, err := loadSchemaFile(filepath.Join(dir, OutputSchemaFile), fm.Name+"Output")
	if err != nil {
		return nil, err
	}

	return &Definition{
		Name:        fm.Name,
		Description: fm.Description,
		Version:     fm.Version,
		Input:       input,
		Output:      output,
		Prompt:      body,
		Source:      source,
		Path:        dir,
	}, nil
}

// loadSchemaFile compiles a JSON Schema document, rejecting malformed
// schemas, and converts it to a field schema that also enforces the
// document's own constraints.
func loadSchemaFile(path, name string) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	s, err := schema.ParseJSONSchema(name, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return s, nil
}

// sourceFromPath determines the Source based on the directory path.
func sourceFromPath(dir string) Source {
	dir = filepath.ToSlash(dir)
	switch {
	case strings.Contains(dir, ".medassist/flows"):
		return SourceProject
	case strings.Contains(dir, ".local/share"):
		return SourceInstalled
	}
	return SourceUser
}
