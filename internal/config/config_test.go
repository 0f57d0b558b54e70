package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"booru/internal/domain"

	"github.com/stretchr/testify/require"
)

func newAppConfig(cfg *domain.Config) *AppConfig {
	return &AppConfig{Config: cfg, m: new(sync.Mutex)}
}

func TestLoadFromEnv(t *testing.T) {
	c := newAppConfig(&domain.Config{Timeout: 60, CheckInterval: 15})

	c.loadFromEnv([]string{
		"BOORU__DOWNLOAD_LOCATION=/data/booru",
		"BOORU__NAMING_TEMPLATE={site}_{id:8}",
		"BOORU__PROXY=http://127.0.0.1:3128",
		"BOORU__TIMEOUT=30",
		"BOORU__CHECK_INTERVAL=-5",
		"BOORU__LOG_LEVEL=TRACE",
		"BOORU__LOG_PATH=",
		"OTHER__LOG_LEVEL=ERROR",
	})

	require.Equal(t, "/data/booru", c.Config.DownloadLocation)
	require.Equal(t, "{site}_{id:8}", c.Config.NamingTemplate)
	require.Equal(t, "http://127.0.0.1:3128", c.Config.Proxy)
	require.Equal(t, 30, c.Config.Timeout)
	require.Equal(t, 15, c.Config.CheckInterval)
	require.Equal(t, "TRACE", c.Config.LogLevel)
	require.Empty(t, c.Config.LogPath)
}

func TestValidate(t *testing.T) {
	c := newAppConfig(&domain.Config{
		Watchlists: map[string]*domain.Watchlist{
			"ok": {Site: "e926", Tags: []string{"glaceon"}, Limit: 10},
		},
	})
	require.NoError(t, c.Validate())

	c.Config.Watchlists["broken"] = &domain.Watchlist{Tags: []string{"x"}}
	require.ErrorContains(t, c.Validate(), `"broken"`)

	delete(c.Config.Watchlists, "broken")
	c.Config.Sites = []domain.SiteConfig{{Domain: "booru.example.com"}}
	require.Error(t, c.Validate())
}

func TestWatchlistsCopy(t *testing.T) {
	c := newAppConfig(&domain.Config{
		CheckInterval: 5,
		Watchlists: map[string]*domain.Watchlist{
			"a":   {Site: "sb", Limit: 3},
			"nil": nil,
		},
	})

	got := c.Watchlists()
	require.Len(t, got, 1)
	require.Equal(t, "sb", got["a"].Site)
	require.Equal(t, 5, c.CheckInterval())
}

func TestWriteConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")
	c := newAppConfig(&domain.Config{})

	require.NoError(t, c.writeConfig(dir, "config.yaml"))

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, configTemplate, string(data))

	// an existing file is left alone
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("timeout: 5\n"), 0o644))
	require.NoError(t, c.writeConfig(dir, "config.yaml"))

	data, err = os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, "timeout: 5\n", string(data))
}

func TestProcessLines(t *testing.T) {
	c := newAppConfig(&domain.Config{LogLevel: "WARN", LogPath: "logs/booru.log"})

	lines := c.processLines(strings.Split(configTemplate, "\n"))
	out := strings.Join(lines, "\n")

	require.Contains(t, out, `logLevel: "WARN"`)
	require.Contains(t, out, `logPath: "logs/booru.log"`)
	require.NotContains(t, out, `logLevel: "INFO"`)

	c.Config.LogPath = ""
	lines = c.processLines([]string{"timeout: 60"})
	require.Contains(t, lines, `logLevel: "WARN"`)
	require.Contains(t, lines, `#logPath: ""`)
}
