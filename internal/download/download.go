package download

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"booru/internal/buildinfo"
	"booru/internal/domain"
	"booru/internal/sanitize"

	"github.com/avast/retry-go"
)

// Doer is satisfied by *sharedhttp.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

var (
	retryDelay    = 3 * time.Second
	retryJitter   = 1 * time.Second
	retryAttempts = uint(3)
)

// Path returns where post is saved inside dir. The extension comes from the
// file url; when the url has none, Post picks one from the content type.
func Path(dir, name string, post domain.Post) string {
	base := sanitize.Filename(name)
	if base == "" {
		base = sanitize.Filename(post.SourceSite + "-" + post.ID)
	}
	return filepath.Join(dir, base+urlExtension(post.FileURL))
}

// Post downloads the post's file to contentPath and returns the final path.
func Post(ctx context.Context, client Doer, contentPath string, post domain.Post) (string, error) {
	if post.FileURL == "" {
		return "", fmt.Errorf("post %s has no file url", post.ID)
	}

	if err := os.MkdirAll(filepath.Dir(contentPath), os.ModePerm); err != nil {
		return "", err
	}

	var finalPath string

	retryErr := retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, post.FileURL, nil)
		if err != nil {
			return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
		}

		req.Header.Set("User-Agent", buildinfo.UserAgent())
		if post.PostView != "" {
			req.Header.Set("Referer", post.PostView)
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		filename := contentPath
		if filepath.Ext(filename) == "" {
			filename, err = appendExtension(resp, filename)
			if err != nil {
				return retry.Unrecoverable(err)
			}
		}

		if err := writeFile(filename, resp.Body); err != nil {
			return err
		}

		finalPath = filename
		return nil
	},
		retry.Context(ctx),
		retry.Delay(retryDelay),
		retry.Attempts(retryAttempts),
		retry.MaxJitter(retryJitter),
		retry.LastErrorOnly(true),
	)

	return finalPath, retryErr
}

// writeFile writes through a temp file so an interrupted download never
// leaves a partial file under the final name.
func writeFile(filename string, body io.Reader) error {
	out, err := os.CreateTemp(filepath.Dir(filename), ".booru-*")
	if err != nil {
		return err
	}
	tmp := out.Name()
	defer os.Remove(tmp)

	writeBuf := bufio.NewWriter(out)

	if _, err := io.Copy(writeBuf, bufio.NewReader(body)); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}

	if err := writeBuf.Flush(); err != nil {
		out.Close()
		return err
	}

	if err := out.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, filename)
}

func urlExtension(fileURL string) string {
	u, err := url.Parse(fileURL)
	if err != nil {
		return ""
	}

	ext := strings.ToLower(path.Ext(u.Path))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	return ext
}

func appendExtension(resp *http.Response, filename string) (string, error) {
	contentType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))

	switch contentType {
	case "image/jpeg", "image/jpg":
		return filename + ".jpg", nil
	case "image/png":
		return filename + ".png", nil
	case "image/gif":
		return filename + ".gif", nil
	case "image/webp":
		return filename + ".webp", nil
	case "video/webm":
		return filename + ".webm", nil
	case "video/mp4":
		return filename + ".mp4", nil
	default:
		return filename, fmt.Errorf("unsupported content type: %s", resp.Header.Get("Content-Type"))
	}
}
