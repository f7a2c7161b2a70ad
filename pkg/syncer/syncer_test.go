package syncer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photosync/pkg/config"
	"photosync/pkg/errors"
	"photosync/pkg/store"
	"photosync/pkg/textindex"
	"photosync/pkg/tumblr"
)

// fakeFetcher serves a fixed reverse-chronological feed in pages.
type fakeFetcher struct {
	posts   []tumblr.Post
	err     error
	fetches int
}

func (f *fakeFetcher) Posts(handle string, offset, limit int, notesInfo bool) (*tumblr.PostsPage, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	page := &tumblr.PostsPage{TotalPosts: len(f.posts)}
	if offset >= len(f.posts) {
		return page, nil
	}
	end := offset + limit
	if end > len(f.posts) {
		end = len(f.posts)
	}
	page.Posts = f.posts[offset:end]
	return page, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func photoPost(ts int64, photoURL, caption string, tags ...string) tumblr.Post {
	return tumblr.Post{
		Type:      "photo",
		PostURL:   "http://feed.tumblr.com/post/" + photoURL,
		Timestamp: ts,
		Caption:   caption,
		Tags:      tags,
		Photos: []tumblr.PostPhoto{
			{OriginalSize: tumblr.PhotoSize{URL: "http://media.example.com/" + photoURL}},
		},
	}
}

func newTestEngine(t *testing.T, fetcher PostFetcher, pageSize int) (*Engine, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := &config.SyncConfig{PageSize: pageSize, DefaultDepth: 10, MaxNgramSize: 3}
	engine := New(fetcher, st, textindex.NewLexiconTagger(), cfg, nil)
	return engine, st
}

func createTestSource(t *testing.T, st *store.Store, watermark time.Time) *store.Source {
	t.Helper()
	src := &store.Source{URL: "http://feed.tumblr.com/", Name: "Feed"}
	require.NoError(t, st.CreateSource(src))
	if !watermark.IsZero() {
		require.NoError(t, st.UpdateLastSynced(src.ID, watermark))
		src.LastSynced = watermark
	}
	return src
}

func TestSyncStopsAtWatermark(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	ts := func(n int) time.Time { return base.Add(time.Duration(n) * time.Hour) }

	fetcher := &fakeFetcher{posts: []tumblr.Post{
		photoPost(ts(5).Unix(), "5.jpg", "five"),
		photoPost(ts(4).Unix(), "4.jpg", "four"),
		photoPost(ts(3).Unix(), "3.jpg", "three"),
		photoPost(ts(2).Unix(), "2.jpg", "two"),
		photoPost(ts(1).Unix(), "1.jpg", "one"),
	}}

	engine, st := newTestEngine(t, fetcher, 20)
	src := createTestSource(t, st, ts(3))

	result, err := engine.Sync(src, true, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created, "only posts strictly newer than the watermark are ingested")
	assert.Equal(t, 0, result.Skipped)

	_, err = st.PhotoByURL("http://media.example.com/5.jpg")
	assert.NoError(t, err)
	_, err = st.PhotoByURL("http://media.example.com/4.jpg")
	assert.NoError(t, err)
	_, err = st.PhotoByURL("http://media.example.com/3.jpg")
	assert.True(t, errors.IsNotFound(err), "the post at the watermark counts as already seen")
}

func TestSyncStopsOnEmptyPage(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{posts: []tumblr.Post{
		photoPost(base.Add(2*time.Hour).Unix(), "b.jpg", "two"),
		photoPost(base.Add(1*time.Hour).Unix(), "a.jpg", "one"),
	}}

	engine, st := newTestEngine(t, fetcher, 2)
	src := createTestSource(t, st, time.Time{})

	result, err := engine.Sync(src, true, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 2, result.Pages, "the empty page after the feed ends pagination")
}

func TestSyncHonorsDepthLimit(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	var posts []tumblr.Post
	for i := 6; i >= 1; i-- {
		posts = append(posts, photoPost(base.Add(time.Duration(i)*time.Hour).Unix(),
			string(rune('a'+i))+".jpg", "caption"))
	}
	fetcher := &fakeFetcher{posts: posts}

	engine, st := newTestEngine(t, fetcher, 2)
	src := createTestSource(t, st, time.Time{})

	result, err := engine.Sync(src, false, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, 4, result.Created)
}

func TestSyncAdvancesWatermarkWithoutNewPosts(t *testing.T) {
	fetcher := &fakeFetcher{}
	engine, st := newTestEngine(t, fetcher, 20)
	src := createTestSource(t, st, time.Time{})

	now := time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)
	engine.SetClock(fixedClock{t: now})

	result, err := engine.Sync(src, true, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)

	stored, err := st.SourceByURL(src.URL)
	require.NoError(t, err)
	assert.True(t, stored.LastSynced.Equal(now), "a successful run moves the watermark even when empty")
}

func TestSyncFetchErrorLeavesWatermarkUntouched(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New(errors.ErrorTypeConnectivity, "connection refused")}
	engine, st := newTestEngine(t, fetcher, 20)

	watermark := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	src := createTestSource(t, st, watermark)

	_, err := engine.Sync(src, true, 0)
	require.Error(t, err)

	stored, err := st.SourceByURL(src.URL)
	require.NoError(t, err)
	assert.True(t, stored.LastSynced.Equal(watermark))
}

func TestSyncDeduplicatesOnRerun(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{posts: []tumblr.Post{
		photoPost(base.Add(2*time.Hour).Unix(), "b.jpg", "two"),
		photoPost(base.Add(1*time.Hour).Unix(), "a.jpg", "one"),
	}}

	engine, st := newTestEngine(t, fetcher, 20)
	src := createTestSource(t, st, time.Time{})

	result, err := engine.Sync(src, true, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)

	// Resetting the watermark re-pulls the feed; the photos are already stored.
	require.NoError(t, st.ResetLastSynced(src.ID))
	src.LastSynced = store.Epoch

	result, err = engine.Sync(src, true, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 2, result.Skipped)
}

func TestSyncSkipsNonPhotoPosts(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	text := tumblr.Post{Type: "text", Timestamp: base.Add(2 * time.Hour).Unix(), Caption: "words"}
	fetcher := &fakeFetcher{posts: []tumblr.Post{
		text,
		photoPost(base.Add(1*time.Hour).Unix(), "a.jpg", "one"),
	}}

	engine, st := newTestEngine(t, fetcher, 20)
	src := createTestSource(t, st, time.Time{})

	result, err := engine.Sync(src, true, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
}

func TestSyncExpandsPhotosetsWithCaptionFallback(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	post := tumblr.Post{
		Type:      "photo",
		PostURL:   "http://feed.tumblr.com/post/set",
		Timestamp: base.Unix(),
		Caption:   "the whole set",
		Photos: []tumblr.PostPhoto{
			{Caption: "first frame", OriginalSize: tumblr.PhotoSize{URL: "http://media.example.com/s1.jpg"}},
			{OriginalSize: tumblr.PhotoSize{URL: "http://media.example.com/s2.jpg"}},
		},
	}
	fetcher := &fakeFetcher{posts: []tumblr.Post{post}}

	engine, st := newTestEngine(t, fetcher, 20)
	src := createTestSource(t, st, time.Time{})

	result, err := engine.Sync(src, true, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)

	first, err := st.PhotoByURL("http://media.example.com/s1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "first frame", first.Caption)

	second, err := st.PhotoByURL("http://media.example.com/s2.jpg")
	require.NoError(t, err)
	assert.Equal(t, "the whole set", second.Caption, "photos without their own caption inherit the post's")
}

func TestSyncIndexesTagsAndWords(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{posts: []tumblr.Post{
		photoPost(base.Unix(), "a.jpg", "a quick fox", "Red Fox", "!!!"),
	}}

	engine, st := newTestEngine(t, fetcher, 20)
	src := createTestSource(t, st, time.Time{})

	_, err := engine.Sync(src, true, 0)
	require.NoError(t, err)

	photo, err := st.PhotoByURL("http://media.example.com/a.jpg")
	require.NoError(t, err)

	tags, err := st.TagsForPhoto(photo.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1, "tags that normalize to nothing are dropped")
	assert.Equal(t, "red fox", tags[0].Tag)

	assocs, err := st.WordAssociations(photo.ID)
	require.NoError(t, err)
	strengths := make(map[string]int, len(assocs))
	for _, a := range assocs {
		strengths[a.Word] = a.Strength
	}
	assert.Equal(t, 2, strengths["fox"], "caption and tag occurrences accumulate")
	assert.Equal(t, 1, strengths["quick"])
	assert.Equal(t, 1, strengths["red"])

	ngrams, err := st.NgramsForPhoto(photo.ID)
	require.NoError(t, err)
	expressions := make(map[string]bool, len(ngrams))
	for _, n := range ngrams {
		expressions[n.Expression] = true
	}
	assert.True(t, expressions["red fox"], "tag surfaces produce n-grams")
	assert.True(t, expressions["quick fox"], "cleaned caption surfaces produce n-grams")
}

func TestSyncCountsLikes(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	post := photoPost(base.Unix(), "a.jpg", "one")
	post.Notes = []tumblr.Note{
		{Type: "like"},
		{Type: "reblog"},
		{Type: "like"},
	}
	fetcher := &fakeFetcher{posts: []tumblr.Post{post}}

	engine, st := newTestEngine(t, fetcher, 20)
	src := createTestSource(t, st, time.Time{})

	_, err := engine.Sync(src, true, 0)
	require.NoError(t, err)

	photo, err := st.PhotoByURL("http://media.example.com/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, 2, photo.Likes)
}
