package domain

type Config struct {
	Version          string
	ConfigPath       string
	LogPath          string                `yaml:"logPath"`
	LogLevel         string                `yaml:"logLevel"`
	LogMaxSize       int                   `yaml:"logMaxSize"` // in megabytes
	LogMaxBackups    int                   `yaml:"logMaxBackups"`
	Timeout          int                   `yaml:"timeout"` // in seconds
	Proxy            string                `yaml:"proxy"`
	DownloadLocation string                `yaml:"downloadLocation"`
	NamingTemplate   string                `yaml:"namingTemplate"`
	CheckInterval    int                   `yaml:"checkInterval"`
	Watchlists       map[string]*Watchlist `yaml:"watchlists"`
	Sites            []SiteConfig          `yaml:"sites"`
}

type Watchlist struct {
	Site  string   `yaml:"site"`
	Tags  []string `yaml:"tags"`
	Limit int      `yaml:"limit"`
}
