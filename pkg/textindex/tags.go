package textindex

import (
	"strings"

	"photosync/pkg/errors"
	"photosync/pkg/logger"
	"photosync/pkg/store"
)

// Registry normalizes and deduplicates tags, deriving each tag's
// constituent words the first time a normalized form is seen.
type Registry struct {
	store  *store.Store
	logger logger.Logger
}

// NewRegistry creates a tag registry over the given store.
func NewRegistry(st *store.Store, log logger.Logger) *Registry {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Registry{store: st, logger: log}
}

// Resolve normalizes a raw tag string and returns the stored tag, creating
// it on first sight. Creation also decomposes the tag into its constituent
// words; the decomposition runs once per tag and re-resolving is a pure
// lookup. A tag that normalizes to the empty string is a configuration
// error.
func (r *Registry) Resolve(raw string) (store.Tag, error) {
	normalized := Clean(raw)
	if normalized == "" {
		return store.Tag{}, errors.New(errors.ErrorTypeConfiguration,
			"tag %q normalizes to the empty string", raw)
	}

	id, created, err := r.store.GetOrCreateTag(normalized)
	if err != nil {
		return store.Tag{}, err
	}
	tag := store.Tag{ID: id, Tag: normalized}
	if !created {
		return tag, nil
	}

	for _, token := range strings.Fields(normalized) {
		wordID, err := r.store.GetOrCreateWord(token)
		if err != nil {
			return store.Tag{}, err
		}
		if err := r.store.LinkTagWord(id, wordID); err != nil {
			return store.Tag{}, err
		}
	}

	r.logger.DebugWithFields("tag created", map[string]interface{}{
		"tag": normalized,
	})

	return tag, nil
}
