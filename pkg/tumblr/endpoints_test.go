package tumblr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPostsURL(t *testing.T) {
	url := GetPostsURL(BaseURL, "photoblog.tumblr.com", 40, 20, true, "key")
	assert.Equal(t, "https://api.tumblr.com/v2/blog/photoblog.tumblr.com/posts/photo?api_key=key&limit=20&notes_info=true&offset=40", url)
}

func TestGetPostsURLClampsLimit(t *testing.T) {
	assert.Contains(t, GetPostsURL(BaseURL, "b.tumblr.com", 0, 0, false, "k"), "limit=20")
	assert.Contains(t, GetPostsURL(BaseURL, "b.tumblr.com", 0, 999, false, "k"), "limit=50")
}

func TestGetBlogInfoURL(t *testing.T) {
	url := GetBlogInfoURL(BaseURL, "photoblog.tumblr.com", "key")
	assert.Equal(t, "https://api.tumblr.com/v2/blog/photoblog.tumblr.com/info?api_key=key", url)
}

func TestGetAvatarURL(t *testing.T) {
	assert.Equal(t, "https://api.tumblr.com/v2/blog/b.tumblr.com/avatar/512",
		GetAvatarURL(BaseURL, "b.tumblr.com", 0))
	assert.Equal(t, "https://api.tumblr.com/v2/blog/b.tumblr.com/avatar/96",
		GetAvatarURL(BaseURL, "b.tumblr.com", 96))
}

func TestMatchBlogURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"http://photoblog.tumblr.com/", "photoblog.tumblr.com"},
		{"https://photoblog.tumblr.com", "photoblog.tumblr.com"},
		{"photoblog.tumblr.com", "photoblog.tumblr.com"},
		{"http://PhotoBlog.tumblr.com/page/2", "photoblog.tumblr.com"},
		{"  photoblog.tumblr.com  ", "photoblog.tumblr.com"},
		{"photoblog", ""},
		{"http://example.com/", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchBlogURL(tt.input), "input %q", tt.input)
	}
}

func TestIsValidBlogName(t *testing.T) {
	assert.True(t, IsValidBlogName("photoblog"))
	assert.True(t, IsValidBlogName("photo-blog-2"))
	assert.False(t, IsValidBlogName("photo blog"))
	assert.False(t, IsValidBlogName("photo.blog"))
	assert.False(t, IsValidBlogName(""))
}

func TestCanonicalBlogURL(t *testing.T) {
	assert.Equal(t, "http://photoblog.tumblr.com/", CanonicalBlogURL("PhotoBlog"))
}
