// Package syncer drives incremental synchronization of photo posts from a
// remote source into the store and the text index.
package syncer

import (
	"time"

	"photosync/pkg/config"
	"photosync/pkg/errors"
	"photosync/pkg/logger"
	"photosync/pkg/store"
	"photosync/pkg/textindex"
	"photosync/pkg/tumblr"
)

// PostFetcher is the slice of the API client the engine needs.
type PostFetcher interface {
	Posts(handle string, offset, limit int, notesInfo bool) (*tumblr.PostsPage, error)
}

// Clock supplies the wall-clock time used for the watermark.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// Result reports what one sync run did.
type Result struct {
	Created int // photos inserted
	Skipped int // photos already stored (dedup hit)
	Pages   int // pages fetched from the API
}

// Engine performs paginated fetches against a source and drives photo, tag,
// word and n-gram creation for each accepted post. One engine serves all
// sources; syncs run one source at a time.
type Engine struct {
	client       PostFetcher
	store        *store.Store
	registry     *textindex.Registry
	indexer      *textindex.WordIndexer
	ngrams       *textindex.NgramBuilder
	pageSize     int
	maxNgramSize int
	clock        Clock
	logger       logger.Logger
}

// New creates a sync engine. The API client is passed in explicitly; the
// engine holds no process-wide client state.
func New(client PostFetcher, st *store.Store, tagger textindex.Tagger, cfg *config.SyncConfig, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = tumblr.DefaultPageLimit
	}
	maxNgramSize := cfg.MaxNgramSize
	if maxNgramSize < 2 {
		maxNgramSize = 2
	}
	return &Engine{
		client:       client,
		store:        st,
		registry:     textindex.NewRegistry(st, log),
		indexer:      textindex.NewWordIndexer(st, tagger, log),
		ngrams:       textindex.NewNgramBuilder(st, log),
		pageSize:     pageSize,
		maxNgramSize: maxNgramSize,
		clock:        systemClock{},
		logger:       log,
	}
}

// SetClock overrides the wall clock. Tests use this to pin the watermark.
func (e *Engine) SetClock(c Clock) {
	e.clock = c
}

// Sync pages through the source's feed and ingests every post newer than the
// watermark. With full set the depth bound is removed; otherwise pagination
// stops after maxDepth pages. The feed is assumed reverse-chronological:
// the first post at or before the watermark ends pagination, as does an
// empty page. On success the watermark moves to the current wall-clock time
// even when nothing new was found. A fetch failure aborts the run and
// leaves the watermark untouched.
func (e *Engine) Sync(src *store.Source, full bool, maxDepth int) (*Result, error) {
	watermark := src.LastSynced
	result := &Result{}

	// The API addresses blogs by host, the store by canonical URL.
	handle := tumblr.MatchBlogURL(src.URL)
	if handle == "" {
		handle = src.URL
	}

	e.logger.InfoWithFields("sync started", map[string]interface{}{
		"source":    src.URL,
		"watermark": watermark,
		"full":      full,
		"max_depth": maxDepth,
	})

	var accepted []tumblr.Post
	for page := 0; full || page < maxDepth; page++ {
		pageData, err := e.client.Posts(handle, page*e.pageSize, e.pageSize, true)
		if err != nil {
			e.logger.ErrorWithFields("page fetch failed", map[string]interface{}{
				"source": src.URL,
				"page":   page,
				"error":  err.Error(),
			})
			return nil, err
		}
		result.Pages++

		if len(pageData.Posts) == 0 {
			e.logger.DebugWithFields("empty page, stopping", map[string]interface{}{
				"source": src.URL,
				"page":   page,
			})
			break
		}

		reachedWatermark := false
		for _, post := range pageData.Posts {
			if !post.Posted().After(watermark) {
				reachedWatermark = true
				break
			}
			accepted = append(accepted, post)
		}
		if reachedWatermark {
			e.logger.DebugWithFields("watermark reached, stopping", map[string]interface{}{
				"source": src.URL,
				"page":   page,
			})
			break
		}
	}

	for _, post := range accepted {
		created, skipped, err := e.ingestPost(src, post)
		if err != nil {
			return nil, err
		}
		result.Created += created
		result.Skipped += skipped
	}

	now := e.clock.Now()
	if err := e.store.UpdateLastSynced(src.ID, now); err != nil {
		return nil, err
	}
	src.LastSynced = now.UTC()

	e.logger.InfoWithFields("sync completed", map[string]interface{}{
		"source":  src.URL,
		"pages":   result.Pages,
		"created": result.Created,
		"skipped": result.Skipped,
	})

	return result, nil
}

// ingestPost expands one post into photo records, one per embedded image,
// and runs the text-index pipeline over each newly created photo.
func (e *Engine) ingestPost(src *store.Source, post tumblr.Post) (created, skipped int, err error) {
	if post.Type != "" && post.Type != "photo" {
		return 0, 0, nil
	}

	likes := post.LikeCount()
	posted := post.Posted()

	for _, embedded := range post.Photos {
		caption := embedded.Caption
		if caption == "" {
			// Single photos rarely carry their own caption.
			caption = post.Caption
		}

		photo := &store.Photo{
			SourceID: src.ID,
			PostURL:  post.PostURL,
			PhotoURL: embedded.OriginalSize.URL,
			Posted:   posted,
			Title:    post.Title,
			Caption:  caption,
			Likes:    likes,
		}

		wasCreated, err := e.store.CreatePhoto(photo)
		if err != nil {
			return created, skipped, err
		}
		if !wasCreated {
			skipped++
			e.logger.DebugWithFields("photo already stored", map[string]interface{}{
				"photo_url": photo.PhotoURL,
			})
			continue
		}
		created++

		if err := e.attachTags(photo, post.Tags); err != nil {
			return created, skipped, err
		}
		if err := e.indexer.IndexWords(photo); err != nil {
			return created, skipped, err
		}
		if err := e.ngrams.BuildNgrams(photo, e.maxNgramSize); err != nil {
			return created, skipped, err
		}
	}

	return created, skipped, nil
}

func (e *Engine) attachTags(photo *store.Photo, rawTags []string) error {
	for _, raw := range rawTags {
		tag, err := e.registry.Resolve(raw)
		if err != nil {
			// Tags that normalize to nothing are dropped, not fatal.
			if errors.IsConfiguration(err) {
				continue
			}
			return err
		}
		if err := e.store.LinkPhotoTag(photo.ID, tag.ID); err != nil {
			return err
		}
	}
	return nil
}
