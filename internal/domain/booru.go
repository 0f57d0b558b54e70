package domain

import "context"

// Booru searches a single resolved site.
type Booru interface {
	String() string
	Site() SiteConfig
	Search(ctx context.Context, tags []string, opts SearchOptions) ([]Post, error)
}

type Credentials struct {
	Login  string `mapstructure:"login"`
	APIKey string `mapstructure:"apiKey"`
}

// SearchOptions are the recognised per-search options. Credentials are accepted but not sent.
type SearchOptions struct {
	Limit           int          `mapstructure:"limit"`
	Page            int          `mapstructure:"page"`
	Random          bool         `mapstructure:"random"`
	ShowUnavailable bool         `mapstructure:"showUnavailable"` // keep posts without a file url
	Credentials     *Credentials `mapstructure:"credentials"`
	Proxy           string       `mapstructure:"proxy"`
}

func DefaultSearchOptions() SearchOptions {
	return SearchOptions{Limit: 1}
}

// BooruOptions configure a dispatcher created for repeated searches against one site.
type BooruOptions struct {
	Credentials *Credentials
	Proxy       string
}
