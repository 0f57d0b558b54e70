package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"booru/internal/domain"
	"booru/internal/download"
	"booru/internal/files"
	"booru/internal/logger"
	"booru/internal/sanitize"
	"booru/internal/templater"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download [tags...]",
	Short: "Search a site and download the files of the matching posts",
	Example: `  booru download -s e9 -l 20 -d ./glaceon glaceon rating:s
  booru download -s sb -l 50 -n "{site}_{id:8}" -a foxes.zip fox`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		a := mustApp()

		dir := downloadDirectory
		if dir == "" {
			dir = a.cfg.Config.DownloadLocation
		}

		template := naming
		if template == "" {
			template = a.cfg.Config.NamingTemplate
		}

		if err := files.EnsureLocation(dir); err != nil {
			fmt.Println("Invalid location:", err)
			os.Exit(1)
		}

		posts, err := searchPosts(ctx, a, args)
		if err != nil {
			fmt.Println("Search failed:", err)
			os.Exit(1)
		}

		if len(posts) == 0 {
			fmt.Println("No posts found")
			return
		}

		paths := downloadPosts(ctx, a.http, a.log, dir, template, posts)
		fmt.Printf("Downloaded %d of %d posts to %s\n", len(paths), len(posts), dir)

		if archive != "" {
			zipPath := filepath.Join(dir, sanitize.Filename(archive))
			if filepath.Ext(zipPath) == "" {
				zipPath += ".zip"
			}

			if err := files.CreateArchive(zipPath, paths); err != nil {
				fmt.Println("Failed to create archive:", err)
				os.Exit(1)
			}
			fmt.Println("Created archive", zipPath)
		}
	},
}

const maxParallelDownloads = 8

// downloadPosts saves every post's file to dir, skipping files that already
// exist. It returns the paths of all files present afterwards, in post order.
func downloadPosts(ctx context.Context, client download.Doer, log logger.Logger, dir, template string, posts []domain.Post) []string {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		found = make(map[int]string, len(posts))
		sem   = make(chan struct{}, maxParallelDownloads)
	)

	for i, post := range posts {
		wg.Add(1)

		go func() {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			name := templater.New(post).ExecTemplate(template)
			contentPath := download.Path(dir, name, post)

			pLog := log.With().Str("site", post.SourceSite).Str("post", post.ID).Logger()

			if _, err := os.Stat(contentPath); err == nil {
				pLog.Debug().Msgf("post has already been downloaded, skipping %q", contentPath)
				mu.Lock()
				found[i] = contentPath
				mu.Unlock()
				return
			}

			pLog.Info().Msgf("downloading %q", post.FileURL)
			saved, err := download.Post(ctx, client, contentPath, post)
			if err != nil {
				pLog.Error().Err(err).Msgf("error downloading %q", post.FileURL)
				return
			}
			pLog.Info().Msgf("finished downloading %q", saved)

			mu.Lock()
			found[i] = saved
			mu.Unlock()
		}()
	}

	wg.Wait()

	indexes := make([]int, 0, len(found))
	for i := range found {
		indexes = append(indexes, i)
	}
	slices.Sort(indexes)

	paths := make([]string, 0, len(indexes))
	for _, i := range indexes {
		paths = append(paths, found[i])
	}

	return paths
}
