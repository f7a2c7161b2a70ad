package textindex

import (
	"strings"

	"photosync/pkg/errors"
	"photosync/pkg/logger"
	"photosync/pkg/store"
)

// NgramBuilder generates contiguous word sequences from a photo's text
// surfaces and records them as content-addressed entities.
type NgramBuilder struct {
	store  *store.Store
	logger logger.Logger
}

// NewNgramBuilder creates an n-gram builder over the given store.
func NewNgramBuilder(st *store.Store, log logger.Logger) *NgramBuilder {
	if log == nil {
		log = logger.GetLogger()
	}
	return &NgramBuilder{store: st, logger: log}
}

// BuildNgrams generates every contiguous word window of size 2 up to maxSize
// from each of the photo's attached tag strings and from its cleaned caption,
// and attaches the resulting n-grams to the photo. Surfaces with fewer than
// two tokens produce nothing. maxSize below 2 fails fast before any
// mutation.
func (b *NgramBuilder) BuildNgrams(photo *store.Photo, maxSize int) error {
	if maxSize < 2 {
		return errors.New(errors.ErrorTypeConfiguration,
			"ngram max size must be at least 2, got %d", maxSize)
	}

	tags, err := b.store.TagsForPhoto(photo.ID)
	if err != nil {
		return err
	}

	surfaces := make([]string, 0, len(tags)+1)
	for _, tag := range tags {
		// Tag strings are stored normalized; no further cleaning needed.
		surfaces = append(surfaces, tag.Tag)
	}
	surfaces = append(surfaces, Clean(photo.Caption))

	for _, surface := range surfaces {
		if err := b.buildFromSurface(photo.ID, surface, maxSize); err != nil {
			return err
		}
	}
	return nil
}

// buildFromSurface slides windows of every size 2..min(maxSize, len(tokens))
// across the surface's token sequence. A window spanning the whole surface
// is generated exactly once, at offset zero.
func (b *NgramBuilder) buildFromSurface(photoID int64, surface string, maxSize int) error {
	tokens := strings.Fields(surface)
	if len(tokens) < 2 {
		return nil
	}

	top := maxSize
	if top > len(tokens) {
		top = len(tokens)
	}
	for size := 2; size <= top; size++ {
		for start := 0; start+size <= len(tokens); start++ {
			if err := b.record(photoID, tokens[start:start+size]); err != nil {
				return err
			}
		}
	}
	return nil
}

// record resolves an n-gram by content address and attaches it to the photo.
// The expression is the space-joined, order-preserved word sequence; two
// n-grams with the same sequence resolve to the same entity.
func (b *NgramBuilder) record(photoID int64, words []string) error {
	expression := strings.Join(words, " ")

	ngramID, created, err := b.store.GetOrCreateNgram(expression)
	if err != nil {
		return err
	}
	if created {
		wordIDs := make([]int64, len(words))
		for i, word := range words {
			wordIDs[i], err = b.store.GetOrCreateWord(word)
			if err != nil {
				return err
			}
		}
		if err := b.store.SetNgramWords(ngramID, wordIDs); err != nil {
			return err
		}
	}

	return b.store.LinkPhotoNgram(photoID, ngramID)
}
