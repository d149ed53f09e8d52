// Package timelinedata embeds the built-in timeline used when no override is
// installed.
package timelinedata

import (
	"embed"

	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/timeline"
)

// Name is the file name of the built-in timeline.
const Name = "timeline.json"

//go:embed timeline.json
var files embed.FS

// Source returns the built-in timeline as a load source.
func Source() timeline.Source {
	src := timeline.FSSource(files, Name)
	src.Name = "built-in " + Name
	return src
}
