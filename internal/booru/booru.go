package booru

import (
	"context"
	"math/rand/v2"
	"net/http"

	"booru/internal/domain"
	"booru/internal/logger"
	"booru/internal/sharedhttp"
)

const (
	// randomFetchSize is the page size requested when a site can't randomize
	// and the shuffle happens locally. The result is a shuffle of that page,
	// not a uniform sample of the whole site.
	randomFetchSize = 100

	randomTag = "order:random"
)

type Option func(*base)

// WithLogger sets the logger. Level changes made on it later apply to the dispatcher.
func WithLogger(log logger.Logger) Option {
	return func(b *base) {
		b.log = log
	}
}

// WithShuffle replaces the function used for client side randomization.
func WithShuffle(shuffle func([]domain.Post)) Option {
	return func(b *base) {
		if shuffle != nil {
			b.shuffle = shuffle
		}
	}
}

// WithCredentials stores credentials on the dispatcher. They are not sent.
func WithCredentials(creds *domain.Credentials) Option {
	return func(b *base) {
		b.credentials = creds
	}
}

// New returns the dispatcher for site's dialect.
func New(site domain.SiteConfig, fetcher sharedhttp.Fetcher, opts ...Option) (domain.Booru, error) {
	if err := site.Validate(); err != nil {
		return nil, domain.SiteNotSupported(site.Domain)
	}

	b := base{
		site:    site,
		fetcher: fetcher,
		header:  sharedhttp.DefaultHeaders(),
		shuffle: shufflePosts,
		log:     logger.Nop(),
	}

	for _, opt := range opts {
		opt(&b)
	}

	switch {
	case site.Type == domain.TypeDerpibooru:
		return &derpibooru{base: b}, nil
	case site.Shape == domain.ShapeXML:
		return &xmlBooru{base: b}, nil
	case site.Shape == domain.ShapeJSONArray, site.Shape == domain.ShapeJSONObject:
		return &jsonBooru{base: b}, nil
	default:
		return nil, domain.SiteNotSupported(site.Domain)
	}
}

// base holds what every strategy shares: the site, the transport and the
// randomize/truncate tail of the pipeline.
type base struct {
	site        domain.SiteConfig
	fetcher     sharedhttp.Fetcher
	header      http.Header
	shuffle     func([]domain.Post)
	credentials *domain.Credentials
	log         logger.Logger
}

func (b *base) String() string {
	return b.site.Domain
}

func (b *base) Site() domain.SiteConfig {
	return b.site
}

// checkTags counts every tag sent, including the random ordering tag.
func (b *base) checkTags(tags []string) error {
	if b.site.TagLimit > 0 && len(tags) > b.site.TagLimit {
		return domain.InvalidArgument("%s allows at most %d tags per search, got %d", b.site.Domain, b.site.TagLimit, len(tags))
	}
	return nil
}

// queryTags adds the random ordering tag when the site can randomize itself.
func (b *base) queryTags(tags []string, opts domain.SearchOptions) []string {
	if !opts.Random || !b.site.NativeRandom {
		return tags
	}

	for _, t := range tags {
		if t == randomTag {
			return tags
		}
	}

	return append(append(make([]string, 0, len(tags)+1), tags...), randomTag)
}

func (b *base) fetchSize(opts domain.SearchOptions) int {
	if opts.Random && !b.site.NativeRandom {
		return max(opts.Limit, randomFetchSize)
	}
	return opts.Limit
}

func (b *base) fetch(ctx context.Context, uri string) ([]byte, error) {
	b.log.Debug().Str("uri", uri).Msg("fetching")

	resp, err := b.fetcher.Fetch(ctx, uri, b.header.Clone())
	if err != nil {
		if domain.KindOf(err) == domain.KindUnknown {
			err = domain.FetchError(err, "request to %s failed", b.site.Domain)
		}
		return nil, err
	}

	return resp.Body, nil
}

func (b *base) finish(posts []domain.Post, opts domain.SearchOptions) []domain.Post {
	if opts.Random && !b.site.NativeRandom {
		b.shuffle(posts)
	}

	if opts.Limit > 0 && len(posts) > opts.Limit {
		posts = posts[:opts.Limit]
	}

	return posts
}

func shufflePosts(posts []domain.Post) {
	rand.Shuffle(len(posts), func(i, j int) {
		posts[i], posts[j] = posts[j], posts[i]
	})
}
