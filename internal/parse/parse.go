package parse

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"booru/internal/domain"

	"github.com/mitchellh/mapstructure"
)

// Tags accepts a whitespace separated string or a list of strings.
func Tags(input any) ([]string, error) {
	switch v := input.(type) {
	case nil:
		return []string{}, nil
	case string:
		return strings.Fields(v), nil
	case []string:
		return cleanTags(v), nil
	case []any:
		tags := make([]string, 0, len(v))
		for i, t := range v {
			s, ok := t.(string)
			if !ok {
				return nil, domain.InvalidArgument("`tags` should be an array or string, element %d is %T", i, t)
			}
			tags = append(tags, s)
		}
		return cleanTags(tags), nil
	default:
		return nil, domain.InvalidArgument("`tags` should be an array or string, got %T", input)
	}
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// SearchOptions decodes loosely typed options. Unknown fields and values that
// can't be converted are rejected.
func SearchOptions(raw map[string]any) (domain.SearchOptions, error) {
	opts := domain.DefaultSearchOptions()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       strictIntHook,
	})
	if err != nil {
		return domain.SearchOptions{}, err
	}

	if err := decoder.Decode(raw); err != nil {
		return domain.SearchOptions{}, domain.InvalidArgumentErr(err, "invalid search options")
	}

	if err := ValidateOptions(opts); err != nil {
		return domain.SearchOptions{}, err
	}

	return opts, nil
}

// strictIntHook narrows weak typing for int fields: only integers, finite
// floats and non-empty numeric strings convert. Booleans, empty strings, NaN
// and infinities are rejected.
func strictIntHook(from reflect.Value, to reflect.Value) (any, error) {
	if to.Kind() != reflect.Int {
		return from.Interface(), nil
	}

	switch v := from.Interface().(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return v, nil
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case json.Number:
		return numericString(v.String())
	case string:
		return numericString(v)
	default:
		return nil, fmt.Errorf("expected a number, got %T", v)
	}
}

func numericString(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("expected a number, got an empty string")
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("expected a number, got %q", s)
	}
	return floatToInt(f)
}

// floatToInt truncates f, like a limit of 2.5 meaning 2.
func floatToInt(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expected a finite number, got %v", f)
	}

	t := math.Trunc(f)
	if t > math.MaxInt32 || t < math.MinInt32 {
		return 0, fmt.Errorf("number %v is out of range", f)
	}
	return int64(t), nil
}

// ValidateOptions checks the numeric bounds of opts.
func ValidateOptions(opts domain.SearchOptions) error {
	if opts.Limit < 0 {
		return domain.InvalidArgument("`limit` should be a non-negative int, got %d", opts.Limit)
	}

	if opts.Page < 0 {
		return domain.InvalidArgument("`page` should be a non-negative int, got %d", opts.Page)
	}

	return nil
}

// Limit parses a limit given as text, e.g. from a command line flag.
func Limit(input string) (int, error) {
	opts, err := SearchOptions(map[string]any{"limit": input})
	if err != nil {
		return 0, fmt.Errorf("`limit` should be an int: %w", err)
	}
	return opts.Limit, nil
}
