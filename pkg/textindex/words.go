package textindex

import (
	"strings"

	"photosync/pkg/logger"
	"photosync/pkg/store"
)

// WordIndexer extracts salient words from photo text and maintains the
// per-photo word strengths.
type WordIndexer struct {
	store  *store.Store
	tagger Tagger
	logger logger.Logger
}

// NewWordIndexer creates a word indexer using the given part-of-speech
// tagger.
func NewWordIndexer(st *store.Store, tagger Tagger, log logger.Logger) *WordIndexer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &WordIndexer{store: st, tagger: tagger, logger: log}
}

// IndexWords recomputes the word strengths for a photo from its caption and
// attached tags. Strengths are overwritten, not accumulated: reindexing the
// same photo always converges to the same association set, and words no
// longer present lose their association entirely.
func (ix *WordIndexer) IndexWords(photo *store.Photo) error {
	counts := make(map[string]int)

	tokens := strings.Fields(photo.Caption)
	categories := ix.tagger.Tag(tokens)
	for i, token := range tokens {
		if !categories[i].Salient() {
			continue
		}
		word := CleanToken(token)
		if word == "" {
			continue
		}
		counts[word]++
	}

	// Tag-word occurrences add into the same accumulator as caption words.
	tags, err := ix.store.TagsForPhoto(photo.ID)
	if err != nil {
		return err
	}
	for _, tag := range tags {
		words, err := ix.store.WordsForTag(tag.ID)
		if err != nil {
			return err
		}
		for _, w := range words {
			counts[w.Word]++
		}
	}

	strengths := make(map[int64]int, len(counts))
	for word, count := range counts {
		wordID, err := ix.store.GetOrCreateWord(word)
		if err != nil {
			return err
		}
		strengths[wordID] = count
	}

	if err := ix.store.ReplaceWordAssociations(photo.ID, strengths); err != nil {
		return err
	}

	ix.logger.DebugWithFields("photo words indexed", map[string]interface{}{
		"photo_id": photo.ID,
		"words":    len(strengths),
	})

	return nil
}
