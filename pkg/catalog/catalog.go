// Package catalog manages the set of tracked sources: adding new ones from
// the remote API, removing them after confirmation, and describing them.
package catalog

import (
	"bufio"
	"fmt"
	"io"
	neturl "net/url"
	"strings"

	"photosync/pkg/errors"
	"photosync/pkg/logger"
	"photosync/pkg/store"
	"photosync/pkg/tumblr"
)

// BlogAPI is the slice of the API client the catalog needs.
type BlogAPI interface {
	BlogInfo(handle string) (*tumblr.Blog, error)
	Avatar(handle string, size int) (string, error)
}

// Catalog performs administrative operations on sources. Output goes to out;
// interactive confirmations are read from in, so tests can script them.
type Catalog struct {
	client BlogAPI
	store  *store.Store
	in     *bufio.Scanner
	out    io.Writer
	logger logger.Logger
}

// New creates a catalog. The API client is passed in explicitly; the catalog
// holds no process-wide client state.
func New(client BlogAPI, st *store.Store, in io.Reader, out io.Writer, log logger.Logger) *Catalog {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Catalog{
		client: client,
		store:  st,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: log,
	}
}

// resolveHandle turns a raw identifier into an API blog handle. The
// identifier is either a blog URL or a bare blog name; names are probed
// against the API to check the blog exists.
func (c *Catalog) resolveHandle(identifier string) (string, error) {
	if host := tumblr.MatchBlogURL(identifier); host != "" {
		return host, nil
	}
	if tumblr.IsValidBlogName(identifier) {
		host := strings.ToLower(identifier) + ".tumblr.com"
		if _, err := c.client.BlogInfo(host); err != nil {
			return "", err
		}
		return host, nil
	}
	return "", errors.New(errors.ErrorTypeNotFound,
		"%s does not match a source URL or name pattern", identifier)
}

// Add resolves each identifier to a blog, fetches its metadata and inserts a
// source record. A source that is already stored is reported, not treated as
// a failure; a bad identifier does not abort the rest of the batch.
func (c *Catalog) Add(identifiers []string) {
	for _, identifier := range identifiers {
		handle, err := c.resolveHandle(identifier)
		if err != nil {
			c.logger.WarnWithFields("could not resolve source", map[string]interface{}{
				"identifier": identifier,
				"error":      err.Error(),
			})
			fmt.Fprintf(c.out, "Could not resolve %s: %v\n", identifier, err)
			continue
		}

		info, err := c.client.BlogInfo(handle)
		if err != nil {
			fmt.Fprintf(c.out, "Could not connect to %s: %v\n", handle, err)
			continue
		}

		avatarURL, err := c.client.Avatar(handle, tumblr.DefaultAvatarSize)
		if err != nil {
			// The avatar is decorative; a failed fetch leaves it empty.
			c.logger.WarnWithFields("avatar fetch failed", map[string]interface{}{
				"handle": handle,
				"error":  err.Error(),
			})
		}

		url := info.URL
		if url == "" {
			url = tumblr.CanonicalBlogURL(strings.TrimSuffix(handle, ".tumblr.com"))
		}

		src := &store.Source{
			URL:         url,
			Name:        info.Title,
			Description: info.Description,
			AvatarURL:   avatarURL,
		}
		if err := c.store.CreateSource(src); err != nil {
			if errors.IsDuplicate(err) {
				existing, lookupErr := c.store.SourceByURL(url)
				name := url
				if lookupErr == nil {
					name = existing.Name
				}
				fmt.Fprintf(c.out, "%s has already been added.\n", name)
				continue
			}
			fmt.Fprintf(c.out, "Could not add %s: %v\n", identifier, err)
			continue
		}

		c.logger.InfoWithFields("source added", map[string]interface{}{
			"url":  src.URL,
			"name": src.Name,
		})
		fmt.Fprintf(c.out, "Added source %s\n", src.Name)
	}
}

// Remove deletes each matching source after interactive confirmation. With
// no identifiers every stored source is offered for deletion one at a time.
// Only the literal answer "yes" deletes.
func (c *Catalog) Remove(identifiers []string) {
	sources, err := c.resolveStored(identifiers)
	if err != nil {
		fmt.Fprintf(c.out, "%v\n", err)
		return
	}
	for _, src := range sources {
		if !c.confirm(fmt.Sprintf("Delete %s? (yes/no)\n\t", src.Name)) {
			continue
		}
		if err := c.store.DeleteSource(src.ID); err != nil {
			fmt.Fprintf(c.out, "Could not delete %s: %v\n", src.Name, err)
			continue
		}
		c.logger.InfoWithFields("source deleted", map[string]interface{}{
			"url":  src.URL,
			"name": src.Name,
		})
		fmt.Fprintf(c.out, "Deleted source %s\n\n", src.Name)
	}
}

// Describe prints a summary of each resolved source, or of every source when
// no identifiers are given.
func (c *Catalog) Describe(identifiers []string) {
	sources, err := c.resolveStored(identifiers)
	if err != nil {
		fmt.Fprintf(c.out, "%v\n", err)
		return
	}
	for _, src := range sources {
		c.printInfo(&src)
	}
}

// resolveStored maps identifiers to stored sources. Empty input means all
// sources. Identifiers that match nothing are reported and skipped; the
// rest of the batch continues.
func (c *Catalog) resolveStored(identifiers []string) ([]store.Source, error) {
	if len(identifiers) == 0 {
		return c.store.Sources()
	}

	var out []store.Source
	for _, identifier := range identifiers {
		src, err := c.lookup(identifier)
		if err != nil {
			fmt.Fprintf(c.out, "No source matches %s\n", identifier)
			continue
		}
		out = append(out, *src)
	}
	return out, nil
}

// lookup finds a stored source by URL or by display name.
func (c *Catalog) lookup(identifier string) (*store.Source, error) {
	return FindSource(c.store, identifier)
}

// FindSource resolves an identifier to a stored source. URL-shaped
// identifiers match stored rows on host, so the scheme and trailing path the
// API happened to report do not matter; anything else is treated as a
// display name.
func FindSource(st *store.Store, identifier string) (*store.Source, error) {
	if host := identifierHost(identifier); host != "" {
		sources, err := st.Sources()
		if err != nil {
			return nil, err
		}
		for i := range sources {
			if identifierHost(sources[i].URL) == host {
				return &sources[i], nil
			}
		}
	}
	return st.SourceByName(identifier)
}

// identifierHost extracts a lowercased host from a URL-shaped string.
// Returns the empty string for anything without a dotted host.
func identifierHost(s string) string {
	s = strings.TrimSpace(s)
	if host := tumblr.MatchBlogURL(s); host != "" {
		return host
	}
	u, err := neturl.Parse(s)
	if err != nil || u.Hostname() == "" {
		u, err = neturl.Parse("http://" + s)
		if err != nil {
			return ""
		}
	}
	host := strings.ToLower(u.Hostname())
	if !strings.Contains(host, ".") {
		return ""
	}
	return host
}

func (c *Catalog) confirm(prompt string) bool {
	fmt.Fprint(c.out, prompt)
	if !c.in.Scan() {
		return false
	}
	return strings.TrimSpace(c.in.Text()) == "yes"
}

func (c *Catalog) printInfo(src *store.Source) {
	lastSynced := "Never"
	if src.LastSynced.After(store.Epoch) {
		lastSynced = src.LastSynced.Format("2006-01-02 15:04:05 MST")
	}

	description := src.Description
	// Truncate on runes so a multibyte character never gets cut in half.
	if runes := []rune(description); len(runes) > 80 {
		description = string(runes[:77]) + "..."
	}

	photos, err := c.store.PhotoCount(src.ID)
	if err != nil {
		photos = 0
	}

	fmt.Fprintf(c.out, "\nName:\t\t%s\nURL:\t\t%s\nLast synced:\t%s\nDescription:\t%s\nPhotos:\t\t%d\n",
		src.Name, src.URL, lastSynced, description, photos)
}
