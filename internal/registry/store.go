package registry

import "github.com/sensefold/sensefold/internal/model"

// Store persists semantic constants as a whole keyed collection; no
// partial-record streaming is required. Upsert must be atomic per record:
// concurrent introduces of the same derived id may last-writer-win on
// descriptive fields but must never leave a partially written record.
type Store interface {
	// Load reads the full collection. A store that has never been written
	// returns an empty map, not an error.
	Load() (map[string]*model.SemanticConstant, error)

	// Upsert writes one constant keyed by its id.
	Upsert(c *model.SemanticConstant) error

	// Close releases the store. Callers needing durability treat the
	// store as a scoped acquisition: Close flushes even on error paths.
	Close() error
}
