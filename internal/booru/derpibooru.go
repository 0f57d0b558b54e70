package booru

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"booru/internal/domain"
)

const (
	derpibooruMaxPerPage = 50
	derpibooruListField  = "images"
)

// derpibooru talks to the Philomena search endpoint: comma separated tags,
// per_page instead of limit and a sort field for random results.
type derpibooru struct {
	base
}

func (d *derpibooru) Search(ctx context.Context, tags []string, opts domain.SearchOptions) ([]domain.Post, error) {
	if err := d.checkTags(tags); err != nil {
		return nil, err
	}

	body, err := d.fetch(ctx, d.searchURI(tags, opts))
	if err != nil {
		return nil, err
	}

	listField := d.site.ListField
	if listField == "" {
		listField = derpibooruListField
	}

	items, err := decodeJSON(body, domain.ShapeJSONObject, listField)
	if err != nil {
		return nil, err
	}

	posts, err := normalizeAll(d.site, items, derpibooruFields, opts.ShowUnavailable)
	if err != nil {
		return nil, err
	}

	return d.finish(posts, opts), nil
}

func (d *derpibooru) searchURI(tags []string, opts domain.SearchOptions) string {
	q := "*"
	if len(tags) > 0 {
		q = strings.Join(tags, ",")
	}

	params := url.Values{}
	params.Set(d.site.TagQueryParam, q)
	params.Set(d.site.PaginationParam, strconv.Itoa(opts.Page+d.site.PaginationBase))

	if opts.Limit > 0 {
		params.Set("per_page", strconv.Itoa(min(opts.Limit, derpibooruMaxPerPage)))
	}

	if opts.Random && d.site.NativeRandom {
		params.Set("sf", "random")
	}

	return d.site.BaseURL() + d.site.SearchPath + "?" + params.Encode()
}

func derpibooruRating(_ map[string]any, tags []string) domain.Rating {
	rating := domain.RatingUnknown

	for _, t := range tags {
		switch t {
		case "explicit":
			return domain.RatingExplicit
		case "questionable", "suggestive":
			rating = domain.RatingQuestionable
		case "safe":
			if rating == domain.RatingUnknown {
				rating = domain.RatingSafe
			}
		}
	}

	return rating
}
