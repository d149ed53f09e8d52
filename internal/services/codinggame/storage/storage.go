// Package storage defines the persistence contract for the event log.
// Backends live in subpackages: jsonfile rewrites a JSON array on every
// append, sqlite appends rows.
package storage

import (
	"errors"

	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/eventlog"
)

// ErrCorrupt is returned by Load when persisted data cannot be decoded.
var ErrCorrupt = errors.New("event log is corrupt")

// Store persists the event log.
type Store = eventlog.Store
