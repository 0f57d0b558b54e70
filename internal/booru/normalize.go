package booru

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"booru/internal/domain"
	"booru/internal/query"
)

// fieldTable lists, per target field, the source keys to try in order.
// Dotted keys walk into nested objects.
type fieldTable struct {
	id         []string
	fileURL    []string
	previewURL []string
	tags       []string
	rating     []string
	score      []string
	width      []string
	height     []string
	hash       []string
	source     []string
	createdAt  []string

	// ratingOf overrides the rating lookup for sites that encode it elsewhere.
	ratingOf func(item map[string]any, tags []string) domain.Rating
}

// defaultFields covers the gelbooru, moebooru, danbooru and e621 families.
var defaultFields = fieldTable{
	id:         []string{"id"},
	fileURL:    []string{"file_url", "file.url"},
	previewURL: []string{"preview_url", "preview_file_url", "preview.url"},
	tags:       []string{"tags", "tag_string"},
	rating:     []string{"rating"},
	score:      []string{"score.total", "score"},
	width:      []string{"width", "image_width", "file.width"},
	height:     []string{"height", "image_height", "file.height"},
	hash:       []string{"md5", "hash", "file.md5"},
	source:     []string{"source", "sources"},
	createdAt:  []string{"created_at"},
}

var derpibooruFields = fieldTable{
	id:         []string{"id"},
	fileURL:    []string{"view_url", "representations.full"},
	previewURL: []string{"representations.thumb"},
	tags:       []string{"tags"},
	score:      []string{"score"},
	width:      []string{"width"},
	height:     []string{"height"},
	hash:       []string{"sha512_hash", "orig_sha512_hash"},
	source:     []string{"source_url"},
	createdAt:  []string{"created_at"},
	ratingOf:   derpibooruRating,
}

// normalizeAll fails on the first malformed item: a search never returns a
// silently shortened list. Posts without a file url are unavailable (deleted
// or restricted) and are dropped unless showUnavailable is set.
func normalizeAll(site domain.SiteConfig, items []map[string]any, fields fieldTable, showUnavailable bool) ([]domain.Post, error) {
	posts := make([]domain.Post, 0, len(items))

	for i, item := range items {
		p, err := normalize(site, item, fields)
		if err != nil {
			return nil, fmt.Errorf("post %d: %w", i, err)
		}
		if !p.Available() && !showUnavailable {
			continue
		}
		posts = append(posts, p)
	}

	return posts, nil
}

func normalize(site domain.SiteConfig, item map[string]any, fields fieldTable) (domain.Post, error) {
	id := firstString(item, fields.id)
	if id == "" {
		return domain.Post{}, domain.ParseError(nil, "post from %s is missing an id", site.Domain)
	}

	fileURL := resolveURL(site, firstString(item, fields.fileURL))
	if fileURL == "" {
		fileURL = imageDirectoryURL(site, item)
	}

	tags := firstTags(item, fields.tags)

	var rating domain.Rating
	if fields.ratingOf != nil {
		rating = fields.ratingOf(item, tags)
	} else {
		rating = parseRating(firstString(item, fields.rating))
	}

	score, _ := firstInt(item, fields.score)
	width, _ := firstInt(item, fields.width)
	height, _ := firstInt(item, fields.height)

	return domain.Post{
		ID:         id,
		FileURL:    fileURL,
		PreviewURL: resolveURL(site, firstString(item, fields.previewURL)),
		PostView:   query.PostViewURL(site, id),
		Tags:       tags,
		Rating:     rating,
		Score:      score,
		Width:      width,
		Height:     height,
		Hash:       firstString(item, fields.hash),
		Source:     firstString(item, fields.source),
		CreatedAt:  firstString(item, fields.createdAt),
		SourceSite: site.Domain,
		Raw:        item,
	}, nil
}

func parseRating(s string) domain.Rating {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "e", "explicit":
		return domain.RatingExplicit
	case "q", "questionable", "sensitive", "suggestive":
		return domain.RatingQuestionable
	case "s", "safe", "g", "general":
		return domain.RatingSafe
	default:
		return domain.RatingUnknown
	}
}

// resolveURL makes protocol and root relative urls absolute against site.
func resolveURL(site domain.SiteConfig, raw string) string {
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "//"):
		return site.Scheme() + ":" + raw
	case strings.HasPrefix(raw, "/"):
		return site.BaseURL() + raw
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return raw
	default:
		return site.BaseURL() + "/" + raw
	}
}

// imageDirectoryURL builds the file url of gelbooru style items that only
// carry their storage directory and image name.
func imageDirectoryURL(site domain.SiteConfig, item map[string]any) string {
	dir := firstString(item, []string{"directory"})
	image := firstString(item, []string{"image"})
	if dir == "" || image == "" {
		return ""
	}
	return site.BaseURL() + "/images/" + dir + "/" + image
}

func lookup(item map[string]any, path string) (any, bool) {
	var cur any = item

	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}

	return cur, cur != nil
}

func firstString(item map[string]any, keys []string) string {
	for _, key := range keys {
		if v, ok := lookup(item, key); ok {
			if s := toString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstInt(item map[string]any, keys []string) (int, bool) {
	for _, key := range keys {
		if v, ok := lookup(item, key); ok {
			if n, ok := toInt(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func firstTags(item map[string]any, keys []string) []string {
	for _, key := range keys {
		if v, ok := lookup(item, key); ok {
			if tags := toTags(v); len(tags) > 0 {
				return tags
			}
		}
	}
	return []string{}
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case []any:
		for _, el := range t {
			if s, ok := el.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
		if f, err := t.Float64(); err == nil {
			return int(f), true
		}
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f), true
		}
	case float64:
		return int(t), true
	case int:
		return t, true
	}
	return 0, false
}

// toTags accepts a space separated string, a list, or a map of tag category
// to list. Categories are read in sorted order. Duplicates are dropped.
func toTags(v any) []string {
	var raw []string

	switch t := v.(type) {
	case string:
		raw = strings.Fields(t)
	case []any:
		raw = stringsOf(t)
	case map[string]any:
		categories := make([]string, 0, len(t))
		for c := range t {
			categories = append(categories, c)
		}
		slices.Sort(categories)

		for _, c := range categories {
			if list, ok := t[c].([]any); ok {
				raw = append(raw, stringsOf(list)...)
			}
		}
	}

	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	return tags
}

func stringsOf(list []any) []string {
	out := make([]string, 0, len(list))
	for _, el := range list {
		if s, ok := el.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
