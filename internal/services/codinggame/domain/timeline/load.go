package timeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoTimeline is returned by Load when no source yields a descriptor.
var ErrNoTimeline = errors.New("no timeline could be loaded")

// Source is one candidate location of a timeline document.
type Source struct {
	Name string
	Read func() ([]byte, error)
}

// FileSource reads a timeline from the local filesystem.
func FileSource(filePath string) Source {
	return Source{
		Name: filePath,
		Read: func() ([]byte, error) { return os.ReadFile(filePath) },
	}
}

// FSSource reads a timeline from fsys, typically an embedded default.
func FSSource(fsys fs.FS, name string) Source {
	return Source{
		Name: name,
		Read: func() ([]byte, error) { return fs.ReadFile(fsys, name) },
	}
}

// Load tries each source in order and returns the first descriptor that
// parses. Missing sources are skipped quietly; other failures are kept as
// warnings on the returned descriptor.
func Load(sources []Source) (*Descriptor, error) {
	var warnings []string
	for _, src := range sources {
		if src.Read == nil {
			continue
		}
		raw, err := src.Read()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			warnings = append(warnings, fmt.Sprintf("unable to load %s: %v", src.Name, err))
			continue
		}
		desc, doc, err := parse(src.Name, raw)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("unable to load %s: %v", src.Name, err))
			continue
		}
		warnings = append(warnings, Validate(doc)...)
		warnings = append(warnings, Walk(desc)...)
		desc.Warnings = warnings
		return desc, nil
	}
	if len(warnings) == 0 {
		return nil, ErrNoTimeline
	}
	return nil, fmt.Errorf("%w: %s", ErrNoTimeline, strings.Join(warnings, "; "))
}

// Parse decodes a JSON or YAML timeline document. YAML is selected by the
// .yaml or .yml extension of name.
func Parse(name string, raw []byte) (*Descriptor, error) {
	desc, _, err := parse(name, raw)
	return desc, err
}

func parse(name string, raw []byte) (*Descriptor, any, error) {
	if isYAML(name) {
		converted, err := yamlToJSON(raw)
		if err != nil {
			return nil, nil, err
		}
		raw = converted
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse timeline: %w", err)
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, nil, errors.New("parse timeline: document is not an object")
	}

	var desc Descriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		return nil, nil, fmt.Errorf("parse timeline: %w", err)
	}
	return &desc, doc, nil
}

func isYAML(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func yamlToJSON(raw []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml timeline: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert yaml timeline: %w", err)
	}
	return out, nil
}
