package query

import (
	"fmt"
	"net/url"
	"strings"

	"booru/internal/domain"
)

var expandedTags = map[string]string{
	"rating:e": "rating:explicit",
	"rating:q": "rating:questionable",
	"rating:s": "rating:safe",
}

// ExpandTag replaces a rating shorthand with its long form. Other tags pass through.
func ExpandTag(tag string) string {
	if ex, ok := expandedTags[strings.ToLower(tag)]; ok {
		return ex
	}
	return tag
}

// EscapeTag percent-encodes a single tag. Spaces become %20 so that + stays the
// only separator between tags.
func EscapeTag(tag string) string {
	return strings.ReplaceAll(url.QueryEscape(tag), "+", "%20")
}

// ExpandTags expands and percent-encodes every tag, keeping the input order.
func ExpandTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, EscapeTag(ExpandTag(tag)))
	}
	return out
}

// BuildSearchURI assembles the search URL for site. page is zero based, the
// site's pagination base is added to it.
func BuildSearchURI(site domain.SiteConfig, tags []string, limit, page int) string {
	var sb strings.Builder

	sb.WriteString(site.BaseURL())
	sb.WriteString(site.SearchPath)
	sb.WriteString(querySeparator(site.SearchPath))
	sb.WriteString(site.TagQueryParam)
	sb.WriteByte('=')
	sb.WriteString(strings.Join(ExpandTags(tags), "+"))
	sb.WriteString(fmt.Sprintf("&limit=%d&", limit))
	sb.WriteString(site.PaginationParam)
	sb.WriteString(fmt.Sprintf("=%d", page+site.PaginationBase))

	return sb.String()
}

// PostViewURL returns the human-facing page of a post, or "" when the site has none.
func PostViewURL(site domain.SiteConfig, id string) string {
	if site.PostViewPath == "" || id == "" {
		return ""
	}
	return site.BaseURL() + site.PostViewPath + url.PathEscape(id)
}

func querySeparator(path string) string {
	i := strings.IndexByte(path, '?')
	switch {
	case i < 0:
		return "?"
	case strings.HasSuffix(path, "?"), strings.HasSuffix(path, "&"):
		return ""
	default:
		return "&"
	}
}
