package domain

import (
	"fmt"
	"strings"
)

// ResponseShape is the encoding a site answers search requests with.
type ResponseShape string

const (
	ShapeJSONArray  ResponseShape = "json-array"
	ShapeJSONObject ResponseShape = "json-object"
	ShapeXML        ResponseShape = "xml"
)

// SpecializedType routes a site to a dedicated strategy instead of the shape based one.
type SpecializedType string

const (
	TypeNone       SpecializedType = ""
	TypeDerpibooru SpecializedType = "derpibooru"
)

// SiteConfig describes the API dialect of one imageboard. Domain is the identity.
type SiteConfig struct {
	Domain          string          `yaml:"domain" mapstructure:"domain"`
	Insecure        bool            `yaml:"insecure" mapstructure:"insecure"`
	SearchPath      string          `yaml:"searchPath" mapstructure:"searchPath"`
	PostViewPath    string          `yaml:"postViewPath" mapstructure:"postViewPath"`
	TagQueryParam   string          `yaml:"tagQuery" mapstructure:"tagQuery"`
	PaginationParam string          `yaml:"paginate" mapstructure:"paginate"`
	PaginationBase  int             `yaml:"paginationBase" mapstructure:"paginationBase"`
	Shape           ResponseShape   `yaml:"shape" mapstructure:"shape"`
	ListField       string          `yaml:"listField" mapstructure:"listField"`
	Type            SpecializedType `yaml:"type" mapstructure:"type"`
	NativeRandom    bool            `yaml:"random" mapstructure:"random"`
	TagLimit        int             `yaml:"tagLimit" mapstructure:"tagLimit"`
	NSFW            bool            `yaml:"nsfw" mapstructure:"nsfw"`
	Aliases         []string        `yaml:"aliases" mapstructure:"aliases"`
}

func (s SiteConfig) Scheme() string {
	if s.Insecure {
		return "http"
	}
	return "https"
}

// BaseURL returns scheme://domain without a trailing slash.
func (s SiteConfig) BaseURL() string {
	return s.Scheme() + "://" + s.Domain
}

// Validate checks that the config can produce a fetchable search URL.
func (s SiteConfig) Validate() error {
	if s.Domain == "" {
		return fmt.Errorf("site domain is required")
	}

	if !strings.HasPrefix(s.SearchPath, "/") {
		return fmt.Errorf("site %s: searchPath must start with /", s.Domain)
	}

	if s.TagQueryParam == "" || s.PaginationParam == "" {
		return fmt.Errorf("site %s: tagQuery and paginate are required", s.Domain)
	}

	switch s.Shape {
	case ShapeJSONArray, ShapeXML:
	case ShapeJSONObject:
		if s.ListField == "" {
			return fmt.Errorf("site %s: listField is required for shape %s", s.Domain, s.Shape)
		}
	default:
		return fmt.Errorf("site %s: unknown response shape %q", s.Domain, s.Shape)
	}

	switch s.Type {
	case TypeNone, TypeDerpibooru:
	default:
		return fmt.Errorf("site %s: unknown type %q", s.Domain, s.Type)
	}

	if s.TagLimit < 0 || s.PaginationBase < 0 {
		return fmt.Errorf("site %s: tagLimit and paginationBase can't be negative", s.Domain)
	}

	return nil
}
