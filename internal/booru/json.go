package booru

import (
	"bytes"
	"context"
	"encoding/json"

	"booru/internal/domain"
	"booru/internal/query"
)

// jsonBooru handles sites answering with a JSON array of posts or an object
// holding that array in a named field.
type jsonBooru struct {
	base
}

func (j *jsonBooru) Search(ctx context.Context, tags []string, opts domain.SearchOptions) ([]domain.Post, error) {
	tags = j.queryTags(tags, opts)
	if err := j.checkTags(tags); err != nil {
		return nil, err
	}

	uri := query.BuildSearchURI(j.site, tags, j.fetchSize(opts), opts.Page)

	body, err := j.fetch(ctx, uri)
	if err != nil {
		return nil, err
	}

	items, err := decodeJSON(body, j.site.Shape, j.site.ListField)
	if err != nil {
		return nil, err
	}

	posts, err := normalizeAll(j.site, items, defaultFields, opts.ShowUnavailable)
	if err != nil {
		return nil, err
	}

	return j.finish(posts, opts), nil
}

// decodeJSON returns the post objects of body. An empty body or an object
// without the list field means no results.
func decodeJSON(body []byte, shape domain.ResponseShape, listField string) ([]map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, domain.ParseError(err, "malformed JSON response")
	}

	var list any
	switch shape {
	case domain.ShapeJSONArray:
		list = v
	case domain.ShapeJSONObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, domain.ParseError(nil, "expected a JSON object, got %s", jsonTypeName(v))
		}
		list = obj[listField]
		if list == nil {
			return nil, nil
		}
	default:
		return nil, domain.ParseError(nil, "unexpected response shape %q for JSON", shape)
	}

	arr, ok := list.([]any)
	if !ok {
		return nil, domain.ParseError(nil, "expected a JSON array of posts, got %s", jsonTypeName(list))
	}

	items := make([]map[string]any, 0, len(arr))
	for i, el := range arr {
		item, ok := el.(map[string]any)
		if !ok {
			return nil, domain.ParseError(nil, "post %d is %s, not an object", i, jsonTypeName(el))
		}
		items = append(items, item)
	}

	return items, nil
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "an object"
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return "an unknown value"
	}
}
