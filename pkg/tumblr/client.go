package tumblr

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"photosync/pkg/config"
	"photosync/pkg/errors"
	"photosync/pkg/logger"
	"photosync/pkg/ratelimit"
)

// Client is an HTTP client for the blog API. Construct one per process and
// pass it to the components that need it; there is no package-level default.
type Client struct {
	httpClient  *http.Client
	headers     map[string]string
	baseURL     string
	consumerKey string
	maxRetries  int
	limiter     ratelimit.Limiter
	logger      logger.Logger
}

// NewClient creates a new API client from explicit configuration.
func NewClient(cfg *config.APIConfig, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		headers: map[string]string{
			"User-Agent": cfg.UserAgent,
			"Accept":     "application/json",
		},
		baseURL:     baseURL,
		consumerKey: cfg.ConsumerKey,
		maxRetries:  cfg.MaxRetries,
		limiter:     limiter,
		logger:      log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	if c.limiter != nil {
		c.limiter.Wait()
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.New(errors.ErrorTypeConnectivity, "network error: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// doRequestWithRetry performs an HTTP request with retry on transient failures
func (c *Client) doRequestWithRetry(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WarnWithFields("retrying HTTP request", map[string]interface{}{
				"method":  req.Method,
				"url":     req.URL.String(),
				"attempt": attempt,
				"error":   lastErr.Error(),
			})
			time.Sleep(time.Second * time.Duration(attempt))
		}

		resp, err := c.doRequest(req)
		if err != nil {
			lastErr = err
			if errors.IsConnectivity(err) {
				continue
			}
			return nil, err
		}

		if errors.IsRetryableStatusCode(resp.StatusCode) {
			lastErr = errors.WithCode(errors.ErrorTypeServerError, resp.StatusCode,
				"server returned status %d", resp.StatusCode)
			resp.Body.Close()
			continue
		}

		return resp, nil
	}

	c.logger.ErrorWithFields("max retries exceeded", map[string]interface{}{
		"method":      req.Method,
		"url":         req.URL.String(),
		"max_retries": c.maxRetries,
		"last_error":  lastErr.Error(),
	})

	return nil, lastErr
}

// getJSON performs a GET request and decodes the JSON response
func (c *Client) getJSON(url string, target interface{}) error {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return errors.New(errors.ErrorTypeUnknown, "failed to create request: %v", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WithCode(errors.ErrorTypeConnectivity, resp.StatusCode,
			"failed to read response body: %v", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errors.WithCode(errors.ErrorTypeParsing, resp.StatusCode,
			"failed to parse JSON: %v", err)
	}

	return nil
}

// checkResponseStatus maps HTTP status codes onto the error taxonomy
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		c.logger.WarnWithFields("blog not found", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errors.WithCode(errors.ErrorTypeNotFound, resp.StatusCode, "blog not found")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.WithCode(errors.ErrorTypeConnectivity, resp.StatusCode, "API key rejected")
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.WithCode(errors.ErrorTypeConnectivity, resp.StatusCode, "rate limit exceeded")
	case resp.StatusCode >= 500:
		return errors.WithCode(errors.ErrorTypeServerError, resp.StatusCode, "server error")
	case resp.StatusCode >= 400:
		return errors.WithCode(errors.ErrorTypeUnknown, resp.StatusCode,
			"unexpected status code: %d", resp.StatusCode)
	default:
		return nil
	}
}

// Posts fetches one page of a blog's photo posts.
func (c *Client) Posts(handle string, offset, limit int, notesInfo bool) (*PostsPage, error) {
	url := GetPostsURL(c.baseURL, handle, offset, limit, notesInfo, c.consumerKey)

	c.logger.DebugWithFields("fetching posts page", map[string]interface{}{
		"handle": handle,
		"offset": offset,
		"limit":  limit,
	})

	var response PostsResponse
	if err := c.getJSON(url, &response); err != nil {
		c.logger.ErrorWithFields("failed to fetch posts page", map[string]interface{}{
			"handle": handle,
			"offset": offset,
			"error":  err.Error(),
		})
		return nil, err
	}

	c.logger.DebugWithFields("posts page fetched", map[string]interface{}{
		"handle":      handle,
		"offset":      offset,
		"post_count":  len(response.Response.Posts),
		"total_posts": response.Response.TotalPosts,
	})

	return &response.Response, nil
}

// BlogInfo fetches metadata for a blog.
func (c *Client) BlogInfo(handle string) (*Blog, error) {
	url := GetBlogInfoURL(c.baseURL, handle, c.consumerKey)

	c.logger.DebugWithFields("fetching blog info", map[string]interface{}{
		"handle": handle,
	})

	var response InfoResponse
	if err := c.getJSON(url, &response); err != nil {
		return nil, err
	}

	return &response.Response.Blog, nil
}

// Avatar fetches the avatar URL for a blog at the given pixel size.
func (c *Client) Avatar(handle string, size int) (string, error) {
	url := GetAvatarURL(c.baseURL, handle, size)

	var response AvatarResponse
	if err := c.getJSON(url, &response); err != nil {
		return "", err
	}

	return response.Response.AvatarURL, nil
}

// String implements fmt.Stringer for debug logging.
func (c *Client) String() string {
	return fmt.Sprintf("tumblr.Client(%s)", c.baseURL)
}
