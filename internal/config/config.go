package config

import (
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"booru/internal/domain"
	"booru/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var configTemplate = `# config.yaml

# Download Location
# Directory the download and watch commands save files to
#
# Default: "./downloads"
#
downloadLocation: "./downloads"

# Naming Template
# How downloaded files are named, the extension is added automatically
# Tokens: {site}, {id}, {rating}, {score}, {md5}
#
# Default: "{site}-{id}"
#
namingTemplate: "{site}-{id}"

# Request timeout in seconds
#
# Default: 60
#
timeout: 60

# HTTP proxy used for every request, e.g. "http://127.0.0.1:3128"
#
# Optional
#
#proxy: ""

# Check interval in minutes for the watch command
#
# Default: 15
#
checkInterval: 15

# Watchlists
# Searches the watch command runs every check interval. New posts are downloaded.
#
watchlists:
  # Custom name you can give the entry to easily distinguish between them
  #
  Glaceon:
    # Site to search, a domain or one of its aliases
    #
    site: "e926"

    # Tags to search for
    #
    tags: ["glaceon", "rating:s"]

    # How many of the newest posts to check
    #
    limit: 20

# Extra sites
# Entries with a known domain replace the built in definition, others are added.
#
#sites:
#  - domain: "booru.example.com"
#    searchPath: "/index.php?page=dapi&s=post&q=index&json=1"
#    tagQuery: "tags"
#    paginate: "pid"
#    shape: "json-array"
#    aliases: ["ex"]

# booru logs file
# If not defined, logs to stdout
# Make sure to use forward slashes and include the filename with extension. e.g. "logs/booru.log", "C:/booru/logs/booru.log"
#
# Optional
#
#logPath: ""

# Log level
#
# Default: "INFO"
#
# Options: "ERROR", "DEBUG", "INFO", "WARN", "TRACE"
#
logLevel: "INFO"

# Log Max Size
#
# Default: 50
#
# Max log size in megabytes
#
#logMaxSize: 50

# Log Max Backups
#
# Default: 3
#
# Max amount of old log files
#
#logMaxBackups: 3
`

func (c *AppConfig) writeConfig(configPath string, configFile string) error {
	cfgPath := filepath.Join(configPath, configFile)

	// check if configPath exists, if not create it
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		err := os.MkdirAll(configPath, os.ModePerm)
		if err != nil {
			log.Println(err)
			return err
		}
	}

	// check if config exists, if not create it
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {

		f, err := os.Create(cfgPath)
		if err != nil { // perm 0666
			// handle failed create
			log.Printf("error creating file: %q", err)
			return err
		}
		defer f.Close()

		if _, err = f.WriteString(configTemplate); err != nil {
			log.Printf("error writing contents to file: %v %q", configPath, err)
			return err
		}

		return f.Sync()
	}

	return nil
}

type Config interface {
	UpdateConfig() error
	DynamicReload(log logger.Logger)
}

type AppConfig struct {
	Config *domain.Config
	m      *sync.Mutex
}

func New(configPath string, version string) *AppConfig {
	c := &AppConfig{
		m: new(sync.Mutex),
	}
	c.defaults()
	c.Config = &domain.Config{
		Version:    version,
		ConfigPath: configPath,
	}

	c.load(configPath)
	c.loadFromEnv(os.Environ())

	if c.Config.Timeout <= 0 {
		c.Config.Timeout = defaultTimeout
	}
	if c.Config.CheckInterval <= 0 {
		c.Config.CheckInterval = defaultCheckInterval
	}

	return c
}

// Validate reports settings the commands can't run with.
func (c *AppConfig) Validate() error {
	for name, w := range c.Config.Watchlists {
		if w == nil || w.Site == "" {
			return errors.Errorf("watchlist %q needs a site", name)
		}
		if w.Limit < 0 {
			return errors.Errorf("watchlist %q: limit can't be negative", name)
		}
	}

	for _, s := range c.Config.Sites {
		if err := s.Validate(); err != nil {
			return errors.Wrap(err, "sites")
		}
	}

	return nil
}

const (
	defaultTimeout       = 60
	defaultCheckInterval = 15
	envPrefix            = "BOORU__"
)

func (c *AppConfig) defaults() {
	viper.SetDefault("downloadLocation", "./downloads")
	viper.SetDefault("namingTemplate", "{site}-{id}")
	viper.SetDefault("timeout", defaultTimeout)
	viper.SetDefault("proxy", "")
	viper.SetDefault("checkInterval", defaultCheckInterval)
	viper.SetDefault("watchlists", make(map[string]*domain.Watchlist))
	viper.SetDefault("logPath", "")
	viper.SetDefault("logLevel", "INFO")
	viper.SetDefault("logMaxSize", 50)
	viper.SetDefault("logMaxBackups", 3)
}

func (c *AppConfig) loadFromEnv(envs []string) {
	prefix := envPrefix

	for _, env := range envs {
		if strings.HasPrefix(env, prefix) {
			envPair := strings.SplitN(env, "=", 2)

			if envPair[1] != "" {
				switch envPair[0] {
				case prefix + "DOWNLOAD_LOCATION":
					c.Config.DownloadLocation = envPair[1]
				case prefix + "NAMING_TEMPLATE":
					c.Config.NamingTemplate = envPair[1]
				case prefix + "PROXY":
					c.Config.Proxy = envPair[1]
				case prefix + "TIMEOUT":
					if i, _ := strconv.ParseInt(envPair[1], 10, 32); i > 0 {
						c.Config.Timeout = int(i)
					}
				case prefix + "CHECK_INTERVAL":
					if i, _ := strconv.ParseInt(envPair[1], 10, 32); i > 0 {
						c.Config.CheckInterval = int(i)
					}
				case prefix + "LOG_LEVEL":
					c.Config.LogLevel = envPair[1]
				case prefix + "LOG_PATH":
					c.Config.LogPath = envPair[1]
				case prefix + "LOG_MAX_SIZE":
					if i, _ := strconv.ParseInt(envPair[1], 10, 32); i > 0 {
						c.Config.LogMaxSize = int(i)
					}
				case prefix + "LOG_MAX_BACKUPS":
					if i, _ := strconv.ParseInt(envPair[1], 10, 32); i > 0 {
						c.Config.LogMaxBackups = int(i)
					}
				}
			}
		}
	}
}

func (c *AppConfig) load(configPath string) {
	viper.SetConfigType("yaml")

	if configPath != "" {
		// clean trailing slash from configPath
		configPath = path.Clean(configPath)

		// check if path and file exists
		// if not, create path and file
		if err := c.writeConfig(configPath, "config.yaml"); err != nil {
			log.Printf("write error: %q", err)
		}

		viper.SetConfigFile(path.Join(configPath, "config.yaml"))
	} else {
		viper.SetConfigName("config")

		// Search config in directories
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/booru")
		viper.AddConfigPath("$HOME/.booru")
	}

	// read config
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Printf("config read error: %q", err)
		}
	}

	if err := viper.Unmarshal(c.Config); err != nil {
		log.Fatalf("Could not unmarshal config file: %v: err %q", viper.ConfigFileUsed(), err)
	}
}

func (c *AppConfig) DynamicReload(log logger.Logger) {
	viper.WatchConfig()

	viper.OnConfigChange(func(_ fsnotify.Event) {
		c.m.Lock()
		defer c.m.Unlock()

		logLevel := viper.GetString("logLevel")
		c.Config.LogLevel = logLevel
		log.SetLogLevel(c.Config.LogLevel)

		logPath := viper.GetString("logPath")
		c.Config.LogPath = logPath

		if location := viper.GetString("downloadLocation"); location != "" {
			c.Config.DownloadLocation = location
		}
		if template := viper.GetString("namingTemplate"); template != "" {
			c.Config.NamingTemplate = template
		}

		if interval := viper.GetInt("checkInterval"); interval > 0 {
			c.Config.CheckInterval = interval
		}

		watchlists := make(map[string]*domain.Watchlist)
		if err := viper.UnmarshalKey("watchlists", &watchlists); err != nil {
			log.Error().Err(err).Msg("could not reload watchlists, keeping the previous ones")
		} else {
			c.Config.Watchlists = watchlists
		}

		log.Debug().Msg("config file reloaded!")
	})
}

// Watchlists returns a copy of the current watchlists, safe to use while the
// config is being reloaded.
func (c *AppConfig) Watchlists() map[string]domain.Watchlist {
	c.m.Lock()
	defer c.m.Unlock()

	out := make(map[string]domain.Watchlist, len(c.Config.Watchlists))
	for name, w := range c.Config.Watchlists {
		if w != nil {
			out[name] = *w
		}
	}
	return out
}

// DownloadSettings returns the current download location and naming template.
func (c *AppConfig) DownloadSettings() (string, string) {
	c.m.Lock()
	defer c.m.Unlock()

	return c.Config.DownloadLocation, c.Config.NamingTemplate
}

// CheckInterval returns the current check interval in minutes.
func (c *AppConfig) CheckInterval() int {
	c.m.Lock()
	defer c.m.Unlock()

	return c.Config.CheckInterval
}

func (c *AppConfig) UpdateConfig() error {
	filePath := viper.ConfigFileUsed()
	if filePath == "" {
		return nil
	}

	f, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("could not read config filePath: %s: %w", filePath, err)
	}

	lines := strings.Split(string(f), "\n")
	lines = c.processLines(lines)

	output := strings.Join(lines, "\n")
	if err := os.WriteFile(filePath, []byte(output), 0o644); err != nil {
		return fmt.Errorf("could not write config file: %s: %w", filePath, err)
	}

	return nil
}

func (c *AppConfig) processLines(lines []string) []string {
	// keep track of not found values to append at bottom
	var (
		foundLineLogLevel = false
		foundLineLogPath  = false
	)

	for i, line := range lines {
		if !foundLineLogLevel && strings.Contains(line, "logLevel:") {
			lines[i] = fmt.Sprintf(`logLevel: "%s"`, c.Config.LogLevel)
			foundLineLogLevel = true
		}
		if !foundLineLogPath && strings.Contains(line, "logPath:") {
			if c.Config.LogPath == "" {
				lines[i] = `#logPath: ""`
			} else {
				lines[i] = fmt.Sprintf(`logPath: "%s"`, c.Config.LogPath)
			}
			foundLineLogPath = true
		}
	}

	if !foundLineLogLevel {
		lines = append(lines, "# Log level")
		lines = append(lines, "#")
		lines = append(lines, `# Default: "DEBUG"`)
		lines = append(lines, "#")
		lines = append(lines, `# Options: "ERROR", "DEBUG", "INFO", "WARN", "TRACE"`)
		lines = append(lines, "#")
		lines = append(lines, fmt.Sprintf(`logLevel: "%s"`, c.Config.LogLevel))
	}

	if !foundLineLogPath {
		lines = append(lines, "# Log Path")
		lines = append(lines, "#")
		lines = append(lines, "# Optional")
		lines = append(lines, "#")
		if c.Config.LogPath == "" {
			lines = append(lines, `#logPath: ""`)
		} else {
			lines = append(lines, fmt.Sprintf(`logPath: "%s"`, c.Config.LogPath))
		}
	}

	return lines
}
