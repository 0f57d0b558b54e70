package booru

import (
	"context"
	"sync"
	"time"

	"booru/internal/domain"
	"booru/internal/logger"
	"booru/internal/parse"
	"booru/internal/sharedhttp"
	"booru/internal/sites"

	"github.com/google/uuid"
)

// Client resolves sites and runs searches. It owns its dispatcher cache, so
// independent clients in one process don't share state.
type Client struct {
	registry *sites.Registry
	fetcher  sharedhttp.Fetcher
	log      logger.Logger
	shuffle  func([]domain.Post)
	timeout  time.Duration

	// cache holds one domain.Booru per resolved site key.
	cache sync.Map
}

type ClientOption func(*Client)

func WithClientLogger(log logger.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

func WithClientShuffle(shuffle func([]domain.Post)) ClientOption {
	return func(c *Client) {
		c.shuffle = shuffle
	}
}

// WithTimeout sets the timeout of fetchers the client creates for proxied dispatchers.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func NewClient(registry *sites.Registry, fetcher sharedhttp.Fetcher, opts ...ClientOption) *Client {
	c := &Client{
		registry: registry,
		fetcher:  fetcher,
		log:      logger.Nop(),
		timeout:  60 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ResolveSite returns the canonical key for a domain or alias.
func (c *Client) ResolveSite(input string) (string, bool) {
	return c.registry.Resolve(input)
}

// Registry returns the site table the client resolves against.
func (c *Client) Registry() *sites.Registry {
	return c.registry
}

// Booru returns the cached dispatcher for a resolved key, creating it on first
// use. Concurrent first calls may each build one; only the stored one is returned.
func (c *Client) Booru(key string) (domain.Booru, error) {
	if b, ok := c.cache.Load(key); ok {
		return b.(domain.Booru), nil
	}

	site, ok := c.registry.Get(key)
	if !ok {
		return nil, domain.SiteNotSupported(key)
	}

	b, err := New(site, c.fetcher, c.options(nil)...)
	if err != nil {
		return nil, err
	}

	actual, _ := c.cache.LoadOrStore(key, b)
	return actual.(domain.Booru), nil
}

// ForSite builds a new, uncached dispatcher for repeated searches against one site.
func (c *Client) ForSite(site string, opts domain.BooruOptions) (domain.Booru, error) {
	key, ok := c.registry.Resolve(site)
	if !ok {
		return nil, domain.SiteNotSupported(site)
	}

	cfg, _ := c.registry.Get(key)

	fetcher := c.fetcher
	if opts.Proxy != "" {
		proxied, err := sharedhttp.NewClient(sharedhttp.Options{Timeout: c.timeout, Proxy: opts.Proxy})
		if err != nil {
			return nil, err
		}
		fetcher = proxied
	}

	return New(cfg, fetcher, c.options(opts.Credentials)...)
}

func (c *Client) options(creds *domain.Credentials) []Option {
	opts := []Option{WithLogger(c.log), WithCredentials(creds)}
	if c.shuffle != nil {
		opts = append(opts, WithShuffle(c.shuffle))
	}
	return opts
}

// Search resolves site and returns at most opts.Limit normalized posts.
func (c *Client) Search(ctx context.Context, site string, tags []string, opts domain.SearchOptions) ([]domain.Post, error) {
	key, ok := c.registry.Resolve(site)
	if !ok {
		return nil, domain.SiteNotSupported(site)
	}

	if err := parse.ValidateOptions(opts); err != nil {
		return nil, err
	}

	var (
		b   domain.Booru
		err error
	)
	if opts.Proxy != "" {
		b, err = c.ForSite(key, domain.BooruOptions{Credentials: opts.Credentials, Proxy: opts.Proxy})
	} else {
		b, err = c.Booru(key)
	}
	if err != nil {
		return nil, err
	}

	log := c.log.With().Str("search_id", uuid.NewString()).Str("site", key).Logger()
	log.Debug().Strs("tags", tags).Int("limit", opts.Limit).Int("page", opts.Page).Bool("random", opts.Random).Msg("searching")

	start := time.Now()

	posts, err := b.Search(ctx, tags, opts)
	if err != nil {
		log.Debug().Err(err).Msg("search failed")
		return nil, err
	}

	log.Debug().Int("posts", len(posts)).Dur("took", time.Since(start)).Msg("search finished")

	return posts, nil
}

// SearchRaw is Search for loosely typed input: tags may be a string or a list,
// options a map of the recognised option names.
func (c *Client) SearchRaw(ctx context.Context, site string, tags any, rawOpts map[string]any) ([]domain.Post, error) {
	if _, ok := c.registry.Resolve(site); !ok {
		return nil, domain.SiteNotSupported(site)
	}

	tagList, err := parse.Tags(tags)
	if err != nil {
		return nil, err
	}

	opts, err := parse.SearchOptions(rawOpts)
	if err != nil {
		return nil, err
	}

	return c.Search(ctx, site, tagList, opts)
}
