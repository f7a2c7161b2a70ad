package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"photosync/pkg/catalog"
	"photosync/pkg/logger"
	"photosync/pkg/ratelimit"
	"photosync/pkg/store"
	"photosync/pkg/syncer"
	"photosync/pkg/textindex"
	"photosync/pkg/tumblr"
)

var (
	syncSources    []string
	resetWatermark bool
	syncDepth      int
	syncAll        bool
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull new photo posts from tracked sources",
	Long: `Pull new photo posts from one or more tracked sources.

Each source is paged through in reverse-chronological order until a post at
or before the source's last-synced watermark is seen, an empty page comes
back, or the depth limit is reached. Newly seen photos are stored once
(deduplicated by image URL) and indexed into the tag/word/n-gram
association index.

With no --source, every tracked source is synced. A source that fails is
reported and the run continues with the next one.`,
	Example: `  # Sync every tracked source to the default depth
  photosync sync

  # Sync two sources, pulling everything since their watermarks
  photosync sync -s photoblog.tumblr.com -s otherblog --all

  # Re-pull a source from scratch
  photosync sync -s photoblog.tumblr.com --reset --all`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringSliceVarP(&syncSources, "source", "s", nil, "source URL or name (repeatable; default all)")
	syncCmd.Flags().BoolVarP(&resetWatermark, "reset", "r", false, "reset the watermark to the epoch before syncing")
	syncCmd.Flags().IntVarP(&syncDepth, "depth", "d", 0, "maximum number of pages to fetch per source")
	syncCmd.Flags().BoolVarP(&syncAll, "all", "a", false, "no depth limit; fetch until the watermark is reached")
	syncCmd.MarkFlagsMutuallyExclusive("depth", "all")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.GetLogger()

	if cfg.API.ConsumerKey == "" {
		return fmt.Errorf("missing API consumer key; set PHOTOSYNC_CONSUMER_KEY or api.consumer_key in the config file")
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	tagger, err := textindex.NewTagger(cfg.Sync.Tagger)
	if err != nil {
		return err
	}

	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)
	client := tumblr.NewClient(&cfg.API, limiter, log)
	engine := syncer.New(client, st, tagger, &cfg.Sync, log)

	sources, err := resolveSyncSources(st)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Println("No sources to sync. Add one with: photosync sources add <url>")
		return nil
	}

	depth := syncDepth
	if depth <= 0 {
		depth = cfg.Sync.DefaultDepth
	}

	failures := 0
	for i := range sources {
		src := &sources[i]

		if resetWatermark {
			fmt.Printf("Resetting sync data for %s\n", src.Name)
			if err := st.ResetLastSynced(src.ID); err != nil {
				log.WithError(err).WithField("source", src.URL).Error("Failed to reset watermark")
				failures++
				continue
			}
			src.LastSynced = store.Epoch
		}

		fmt.Printf("Syncing posts from %s\n", src.Name)
		result, err := engine.Sync(src, syncAll, depth)
		if err != nil {
			// One failing source must not abort the rest of the run.
			log.WithError(err).WithField("source", src.URL).Error("Sync failed")
			fmt.Printf("Sync of %s failed: %v\n", src.Name, err)
			failures++
			continue
		}
		fmt.Printf("%s: %d new photos, %d already stored (%d pages)\n",
			src.Name, result.Created, result.Skipped, result.Pages)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d sources failed to sync", failures, len(sources))
	}
	return nil
}

// resolveSyncSources maps --source values onto stored sources, or returns
// every stored source when none were given. Unknown identifiers are
// reported and skipped.
func resolveSyncSources(st *store.Store) ([]store.Source, error) {
	if len(syncSources) == 0 {
		return st.Sources()
	}

	var out []store.Source
	for _, identifier := range syncSources {
		src, err := catalog.FindSource(st, identifier)
		if err != nil {
			fmt.Printf("No source matches %s\n", identifier)
			continue
		}
		out = append(out, *src)
	}
	return out, nil
}
