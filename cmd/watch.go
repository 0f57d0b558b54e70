package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"booru/internal/domain"
	"booru/internal/files"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Periodically run the configured watchlists and download new posts",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a := mustApp()
		log := a.log

		if err := a.cfg.UpdateConfig(); err != nil {
			log.Error().Err(err).Msgf("error updating config")
		}

		// init dynamic config
		a.cfg.DynamicReload(log)

		if err := files.EnsureLocation(a.cfg.Config.DownloadLocation); err != nil {
			log.Fatal().Err(err).Msgf("invalid download location")
		}

		if len(a.cfg.Watchlists()) == 0 {
			log.Warn().Msg("no watchlists configured, add some to the config file")
		}

		log.Info().Msg("starting to watch configured searches")

		interval := a.cfg.CheckInterval()
		ticker := time.NewTicker(time.Duration(interval) * time.Minute)
		defer ticker.Stop()

		quit := make(chan bool, 1)
		done := make(chan struct{})

		check := func() {
			wg := sync.WaitGroup{}

			for name, w := range a.cfg.Watchlists() {
				wg.Add(1)

				go func() {
					defer wg.Done()
					runWatchlist(ctx, a, name, w)
				}()
			}

			wg.Wait()
		}

		go func() {
			defer close(done)

			check()

			for {
				select {
				case <-quit:
					return
				case <-ticker.C:
					check()

					// the interval may have changed on reload
					if current := a.cfg.CheckInterval(); current != interval {
						interval = current
						ticker.Reset(time.Duration(interval) * time.Minute)
						log.Info().Msgf("check interval changed to %d minutes", interval)
					}
				}
			}
		}()

		// set up a channel to catch signals for graceful shutdown
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

		fmt.Printf("received signal: %s, stopping watch.\n", <-sigCh)
		quit <- true
		cancel()
		<-done
	},
}

func runWatchlist(ctx context.Context, a *app, name string, w domain.Watchlist) {
	wLog := a.log.With().Str("watchlist", name).Str("site", w.Site).Logger()

	opts := domain.DefaultSearchOptions()
	if w.Limit > 0 {
		opts.Limit = w.Limit
	}

	posts, err := a.client.Search(ctx, w.Site, w.Tags, opts)
	if err != nil {
		wLog.Error().Err(err).Msg("error searching")
		return
	}

	wLog.Debug().Msgf("found %d posts", len(posts))

	dir, template := a.cfg.DownloadSettings()
	downloadPosts(ctx, a.http, a.log, dir, template, posts)
}
