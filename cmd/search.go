package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"booru/internal/domain"
	"booru/internal/parse"

	"github.com/avast/retry-go"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [tags...]",
	Short: "Search a site for posts matching all given tags",
	Example: `  booru search -s e9 glaceon rating:s
  booru search -s safebooru -l 5 -r --json fox`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		a := mustApp()

		posts, err := searchPosts(ctx, a, args)
		if err != nil {
			fmt.Println("Search failed:", err)
			os.Exit(1)
		}

		if jsonOutput {
			out, err := json.MarshalIndent(posts, "", "  ")
			if err != nil {
				fmt.Println("Failed to encode posts:", err)
				os.Exit(1)
			}
			fmt.Println(string(out))
			return
		}

		if len(posts) == 0 {
			fmt.Println("No posts found")
			return
		}

		for _, p := range posts {
			fmt.Printf("%s\t%s\t%d\t%s\n", p.ID, p.Rating, p.Score, p.FileURL)
		}
	},
}

// searchPosts runs the search described by the shared query flags. Only fetch
// errors are retried; bad input won't get better on a second try.
func searchPosts(ctx context.Context, a *app, tags []string) ([]domain.Post, error) {
	n, err := parse.Limit(limit)
	if err != nil {
		return nil, err
	}

	opts := domain.DefaultSearchOptions()
	opts.Limit = n
	opts.Page = page
	opts.Random = random

	var posts []domain.Post

	retryErr := retry.Do(func() error {
		posts, err = a.client.Search(ctx, site, tags, opts)
		if err != nil && domain.KindOf(err) != domain.KindFetch {
			return retry.Unrecoverable(err)
		}
		return err
	},
		retry.Context(ctx),
		retry.Attempts(uint(max(retries, 0))+1),
		retry.Delay(time.Second*3),
		retry.MaxJitter(time.Second*1),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			a.log.Warn().Err(err).Msgf("search on %s failed, retrying (%d)", site, n+1)
		}),
	)
	if retryErr != nil {
		return nil, retryErr
	}

	a.log.Debug().Msgf("found %d posts on %s for %q", len(posts), site, strings.Join(tags, " "))

	return posts, nil
}
