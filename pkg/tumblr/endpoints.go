package tumblr

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const (
	// BaseURL is the base URL for the Tumblr v2 API
	BaseURL = "https://api.tumblr.com/v2"

	// DefaultPageLimit is the number of posts fetched per page
	DefaultPageLimit = 20

	// MaxPageLimit is the largest page size the API accepts
	MaxPageLimit = 50

	// DefaultAvatarSize is the avatar rendition captured for a source
	DefaultAvatarSize = 512
)

var blogURLPattern = regexp.MustCompile(`^(?:https?://)?(?P<host>[A-Za-z0-9-]+\.tumblr\.com)(?:/.*)?$`)

var blogNamePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// GetPostsURL constructs the URL for fetching a page of a blog's posts.
func GetPostsURL(baseURL, handle string, offset, limit int, notesInfo bool, consumerKey string) string {
	if limit <= 0 {
		limit = DefaultPageLimit
	} else if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	params := url.Values{}
	params.Set("api_key", consumerKey)
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))
	if notesInfo {
		params.Set("notes_info", "true")
	}

	return fmt.Sprintf("%s/blog/%s/posts/photo?%s", baseURL, url.PathEscape(handle), params.Encode())
}

// GetBlogInfoURL constructs the URL for fetching blog metadata.
func GetBlogInfoURL(baseURL, handle, consumerKey string) string {
	params := url.Values{}
	params.Set("api_key", consumerKey)
	return fmt.Sprintf("%s/blog/%s/info?%s", baseURL, url.PathEscape(handle), params.Encode())
}

// GetAvatarURL constructs the URL for fetching a blog avatar rendition.
func GetAvatarURL(baseURL, handle string, size int) string {
	if size <= 0 {
		size = DefaultAvatarSize
	}
	return fmt.Sprintf("%s/blog/%s/avatar/%d", baseURL, url.PathEscape(handle), size)
}

// MatchBlogURL extracts the canonical blog host from a blog URL.
// Returns the empty string when the input does not look like a blog URL.
func MatchBlogURL(s string) string {
	m := blogURLPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// IsValidBlogName reports whether s looks like a bare blog name
// (the part before ".tumblr.com").
func IsValidBlogName(s string) bool {
	return blogNamePattern.MatchString(s)
}

// CanonicalBlogURL returns the canonical URL form for a bare blog name.
func CanonicalBlogURL(name string) string {
	return fmt.Sprintf("http://%s.tumblr.com/", strings.ToLower(name))
}
