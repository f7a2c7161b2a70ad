package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"photosync/pkg/catalog"
	"photosync/pkg/config"
	"photosync/pkg/logger"
	"photosync/pkg/ratelimit"
	"photosync/pkg/store"
	"photosync/pkg/tumblr"
)

// sourcesCmd groups the administrative subcommands for tracked sources
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Add, remove and describe tracked sources",
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add <url-or-name>...",
	Short: "Start tracking one or more sources",
	Long: `Resolve each identifier to a remote blog, fetch its metadata and start
tracking it. Identifiers are blog URLs or bare blog names; names are probed
against the API. A source that is already tracked is reported, not treated
as an error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, st, err := buildCatalog(true)
		if err != nil {
			return err
		}
		defer st.Close()
		cat.Add(args)
		return nil
	},
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove [url-or-name]...",
	Short: "Stop tracking sources",
	Long: `Delete each matching source after confirmation. With no arguments every
tracked source is offered for deletion one at a time. Only the literal
answer "yes" deletes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, st, err := buildCatalog(false)
		if err != nil {
			return err
		}
		defer st.Close()
		cat.Remove(args)
		return nil
	},
}

var sourcesDescribeCmd = &cobra.Command{
	Use:   "describe [url-or-name]...",
	Short: "Show details for tracked sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, st, err := buildCatalog(false)
		if err != nil {
			return err
		}
		defer st.Close()
		cat.Describe(args)
		return nil
	},
}

func init() {
	sourcesCmd.AddCommand(sourcesAddCmd)
	sourcesCmd.AddCommand(sourcesRemoveCmd)
	sourcesCmd.AddCommand(sourcesDescribeCmd)
	rootCmd.AddCommand(sourcesCmd)
}

// buildCatalog wires the catalog and its store from configuration. Only
// operations that reach the remote API need the consumer key.
func buildCatalog(needsAPIKey bool) (*catalog.Catalog, *store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log := logger.GetLogger()

	if needsAPIKey && cfg.API.ConsumerKey == "" {
		return nil, nil, fmt.Errorf("missing API consumer key; set PHOTOSYNC_CONSUMER_KEY or api.consumer_key in the config file")
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	client := newAPIClient(cfg, log)
	return catalog.New(client, st, os.Stdin, os.Stdout, log), st, nil
}

func newAPIClient(cfg *config.Config, log logger.Logger) *tumblr.Client {
	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)
	return tumblr.NewClient(&cfg.API, limiter, log)
}
