package cmd

import (
	"fmt"
	"os"
	"time"

	"booru/internal/booru"
	"booru/internal/buildinfo"
	"booru/internal/config"
	"booru/internal/logger"
	"booru/internal/sharedhttp"
	"booru/internal/sites"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "booru",
	Short: "Search and download posts from booru style imageboards.",
	Long: `Search and download posts from booru style imageboards.

Sites can be given by domain or alias, run "booru sites" to list them.

Provide a configuration file using one of the following methods:
1. Use the --config <path> or -c <path> flag.
2. Place a config.yaml file in the default user configuration directory (e.g., ~/.config/booru/).
3. Place a config.yaml file a folder inside your home directory (e.g., ~/.booru/).
4. Place a config.yaml file in the working directory.

For more information and examples, visit https://github.com/booru-go/booru`,
}

func init() {
	initRootFlags()
	initSearchFlags()
	initDownloadFlags()

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(sitesCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(watchCmd)
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// app is what every command needs: config, logger, the site table and a client.
type app struct {
	cfg    *config.AppConfig
	log    logger.Logger
	http   *sharedhttp.Client
	client *booru.Client
}

func newApp() (*app, error) {
	cfg := config.New(configPath, buildinfo.Version)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log := logger.New(cfg.Config)

	registry, err := sites.Default()
	if err != nil {
		return nil, err
	}

	if len(cfg.Config.Sites) > 0 {
		if registry, err = registry.Merge(cfg.Config.Sites); err != nil {
			return nil, fmt.Errorf("invalid sites in config: %w", err)
		}
	}

	timeout := time.Duration(cfg.Config.Timeout) * time.Second

	httpClient, err := sharedhttp.NewClient(sharedhttp.Options{
		Timeout: timeout,
		Proxy:   cfg.Config.Proxy,
	})
	if err != nil {
		return nil, err
	}

	client := booru.NewClient(registry, httpClient,
		booru.WithClientLogger(log),
		booru.WithTimeout(timeout),
	)

	return &app{
		cfg:    cfg,
		log:    log,
		http:   httpClient,
		client: client,
	}, nil
}

func mustApp() *app {
	a, err := newApp()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return a
}
