package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"strings"
)

const (
	valueInternalFileURI    = "internal-file-uri"
	valueAppendToListUnique = "append-to-list-unique"
)

type symbolicValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// resolveSettingValue turns a symbolic setting value into a literal, using
// current where the result depends on what the setting holds now. Literal
// values are returned unchanged.
func (e *Engine) resolveSettingValue(raw, current json.RawMessage) (json.RawMessage, error) {
	sym, ok := asSymbolic(raw)
	if !ok {
		return raw, nil
	}
	switch sym.Type {
	case valueInternalFileURI:
		var rel string
		if err := json.Unmarshal(sym.Value, &rel); err != nil {
			return nil, fmt.Errorf("%s value: %w", valueInternalFileURI, err)
		}
		u := url.URL{Scheme: "file", Path: filepath.Join(e.filesDir, rel)}
		return json.Marshal(u.String())
	case valueAppendToListUnique:
		var existing, additions []json.RawMessage
		if len(current) > 0 && string(current) != "null" {
			if err := json.Unmarshal(current, &existing); err != nil {
				return nil, fmt.Errorf("%s current value: %w", valueAppendToListUnique, err)
			}
		}
		if err := json.Unmarshal(sym.Value, &additions); err != nil {
			return nil, fmt.Errorf("%s value: %w", valueAppendToListUnique, err)
		}
		return json.Marshal(unionJSON(existing, additions))
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownSettingType, sym.Type)
	}
}

// dependsOnCurrent reports whether resolving raw needs the setting's current
// value.
func dependsOnCurrent(raw json.RawMessage) bool {
	sym, ok := asSymbolic(raw)
	return ok && sym.Type == valueAppendToListUnique
}

func asSymbolic(raw json.RawMessage) (symbolicValue, bool) {
	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		return symbolicValue{}, false
	}
	if _, ok := fields["type"]; !ok {
		return symbolicValue{}, false
	}
	var sym symbolicValue
	if json.Unmarshal(raw, &sym) != nil || sym.Type == "" {
		return symbolicValue{}, false
	}
	return sym, true
}

// unionJSON appends each addition not already present, keeping order.
func unionJSON(existing, additions []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(existing)+len(additions))
	seen := map[string]bool{}
	for _, list := range [][]json.RawMessage{existing, additions} {
		for _, v := range list {
			key := canonicalJSON(v)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, v)
		}
	}
	return out
}

func canonicalJSON(raw json.RawMessage) string {
	var v any
	if json.Unmarshal(raw, &v) != nil {
		return string(raw)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// resolvePath expands a leading ~ and keeps absolute paths. Relative paths
// name internal files, which are copied into the config dir first.
func (e *Engine) resolvePath(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("attachment has no path")
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		path = filepath.Join(e.homeDir, strings.TrimPrefix(path, "~"))
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}

	target := filepath.Join(e.configDir, path)
	if e.files == nil {
		return "", fmt.Errorf("copy attachment: %w", ErrMissingCollaborator)
	}
	if err := e.files.Copy(ctx, path, target); err != nil {
		log.Printf("copy attachment %s to %s: %v", path, target, err)
	}
	return target, nil
}
