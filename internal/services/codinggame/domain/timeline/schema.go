package timeline

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://codinggame.local/schemas/timeline.schema.json"

//go:embed timeline.schema.json
var schemaText string

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(schemaText)); err != nil {
		return nil, fmt.Errorf("timeline schema load failed: %w", err)
	}
	return c.Compile(schemaURL)
})

// Validate checks a decoded timeline document against the authoring schema.
// Problems are returned as warnings; they never block loading.
func Validate(doc any) []string {
	schema, err := compileSchema()
	if err != nil {
		return []string{err.Error()}
	}
	err = schema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{fmt.Sprintf("timeline schema: %v", err)}
	}
	var warnings []string
	collectLeaves(ve, &warnings)
	return warnings
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		location := ve.InstanceLocation
		if location == "" {
			location = "/"
		}
		*out = append(*out, fmt.Sprintf("timeline schema: %s: %s", location, ve.Message))
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, out)
	}
}
