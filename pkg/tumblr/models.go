package tumblr

import "time"

// Meta is the status envelope every API response carries.
type Meta struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
}

// PostsResponse is the response for the blog posts endpoint.
type PostsResponse struct {
	Meta     Meta      `json:"meta"`
	Response PostsPage `json:"response"`
}

// PostsPage is one page of posts plus blog metadata.
type PostsPage struct {
	Blog       Blog   `json:"blog"`
	Posts      []Post `json:"posts"`
	TotalPosts int    `json:"total_posts"`
}

// InfoResponse is the response for the blog info endpoint.
type InfoResponse struct {
	Meta     Meta `json:"meta"`
	Response struct {
		Blog Blog `json:"blog"`
	} `json:"response"`
}

// AvatarResponse is the response for the blog avatar endpoint.
type AvatarResponse struct {
	Meta     Meta `json:"meta"`
	Response struct {
		AvatarURL string `json:"avatar_url"`
	} `json:"response"`
}

// Blog describes a remote blog.
type Blog struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Posts       int    `json:"posts"`
	Updated     int64  `json:"updated"`
}

// Post is a single post record from the posts endpoint.
type Post struct {
	Type      string      `json:"type"`
	PostURL   string      `json:"post_url"`
	Timestamp int64       `json:"timestamp"`
	Title     string      `json:"title"`
	Caption   string      `json:"caption"`
	Tags      []string    `json:"tags"`
	Photos    []PostPhoto `json:"photos"`
	Notes     []Note      `json:"notes"`
}

// PostPhoto is one embedded image of a photo post.
type PostPhoto struct {
	Caption      string    `json:"caption"`
	OriginalSize PhotoSize `json:"original_size"`
}

// PhotoSize is a single rendition of an image.
type PhotoSize struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Note is a reaction entry attached to a post.
type Note struct {
	Type      string `json:"type"`
	BlogName  string `json:"blog_name"`
	Timestamp int64  `json:"timestamp"`
}

// Posted returns the post timestamp as a time.Time.
func (p Post) Posted() time.Time {
	return time.Unix(p.Timestamp, 0).UTC()
}

// LikeCount counts the "like"-typed reaction entries on the post.
func (p Post) LikeCount() int {
	likes := 0
	for _, n := range p.Notes {
		if n.Type == "like" {
			likes++
		}
	}
	return likes
}
