package booru

import (
	"bytes"
	"context"
	"strings"

	"booru/internal/domain"
	"booru/internal/query"

	"github.com/antchfx/xmlquery"
)

// xmlBooru handles sites answering with an XML document whose root holds one
// element per post.
type xmlBooru struct {
	base
}

func (x *xmlBooru) Search(ctx context.Context, tags []string, opts domain.SearchOptions) ([]domain.Post, error) {
	tags = x.queryTags(tags, opts)
	if err := x.checkTags(tags); err != nil {
		return nil, err
	}

	uri := query.BuildSearchURI(x.site, tags, x.fetchSize(opts), opts.Page)

	body, err := x.fetch(ctx, uri)
	if err != nil {
		return nil, err
	}

	items, err := decodeXML(body)
	if err != nil {
		return nil, err
	}

	posts, err := normalizeAll(x.site, items, defaultFields, opts.ShowUnavailable)
	if err != nil {
		return nil, err
	}

	return x.finish(posts, opts), nil
}

// decodeXML turns every element child of the root into a map of its
// attributes and simple child elements.
func decodeXML(body []byte) ([]map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, domain.ParseError(err, "malformed XML response")
	}

	root := xmlquery.FindOne(doc, "/*")
	if root == nil {
		return nil, domain.ParseError(nil, "XML response has no root element")
	}

	// gelbooru style APIs report errors as <response success="false" reason="..."/>
	// with a 200 status.
	if root.Data == "response" && strings.EqualFold(root.SelectAttr("success"), "false") {
		reason := root.SelectAttr("reason")
		if reason == "" {
			reason = strings.TrimSpace(root.InnerText())
		}
		if reason == "" {
			reason = "no reason given"
		}
		return nil, domain.FetchError(nil, "site rejected the search: %s", reason)
	}

	var items []map[string]any
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != xmlquery.ElementNode {
			continue
		}
		items = append(items, elementMap(n))
	}

	return items, nil
}

func elementMap(n *xmlquery.Node) map[string]any {
	m := make(map[string]any, len(n.Attr))

	for _, attr := range n.Attr {
		m[attr.Name.Local] = attr.Value
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		if _, ok := m[c.Data]; !ok {
			m[c.Data] = strings.TrimSpace(c.InnerText())
		}
	}

	return m
}
