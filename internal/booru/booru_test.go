package booru

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"booru/internal/domain"
	"booru/internal/sharedhttp"
	"booru/internal/sites"

	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu      sync.Mutex
	body    []byte
	status  int
	err     error
	urls    []string
	headers []http.Header
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, header http.Header) (sharedhttp.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.urls = append(f.urls, url)
	f.headers = append(f.headers, header)

	if f.err != nil {
		return sharedhttp.Response{}, f.err
	}

	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	if err := sharedhttp.CheckStatusCode(status); err != nil {
		return sharedhttp.Response{StatusCode: status}, err
	}

	return sharedhttp.Response{StatusCode: status, Body: f.body}, nil
}

func (f *fakeFetcher) lastURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.urls) == 0 {
		return ""
	}
	return f.urls[len(f.urls)-1]
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()

	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return b
}

func newTestClient(t *testing.T, fetcher sharedhttp.Fetcher, opts ...ClientOption) *Client {
	t.Helper()

	registry, err := sites.Default()
	require.NoError(t, err)

	return NewClient(registry, fetcher, opts...)
}

func ids(posts []domain.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestSearch_Golden(t *testing.T) {
	tests := []struct {
		name    string
		site    string
		tags    []string
		opts    domain.SearchOptions
		fixture string
		golden  string
		wantURL string
	}{
		{
			name:    "json object with list field",
			site:    "e926",
			tags:    []string{"cute", "glaceon"},
			opts:    domain.SearchOptions{Limit: 2},
			fixture: "e926_posts.json",
			golden:  "e926_posts.golden.json",
			wantURL: "https://e926.net/posts.json?tags=cute+glaceon&limit=2&page=1",
		},
		{
			name:    "json array",
			site:    "sb",
			tags:    []string{"rating:s"},
			opts:    domain.SearchOptions{Limit: 5, Page: 1},
			fixture: "safebooru_posts.json",
			golden:  "safebooru_posts.golden.json",
			wantURL: "https://safebooru.org/index.php?page=dapi&s=post&q=index&json=1&tags=rating%3Asafe&limit=5&pid=1",
		},
		{
			name:    "xml",
			site:    "realbooru",
			tags:    []string{"outdoors"},
			opts:    domain.SearchOptions{Limit: 10},
			fixture: "realbooru_posts.xml",
			golden:  "realbooru_posts.golden.json",
			wantURL: "https://realbooru.com/index.php?page=dapi&s=post&q=index&tags=outdoors&limit=10&pid=0",
		},
		{
			name:    "derpibooru",
			site:    "derpi",
			tags:    []string{"glaceon", "safe"},
			opts:    domain.SearchOptions{Limit: 2},
			fixture: "derpibooru_images.json",
			golden:  "derpibooru_images.golden.json",
			wantURL: "https://derpibooru.org/api/v1/json/search/images?page=1&per_page=2&q=glaceon%2Csafe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{body: fixture(t, tt.fixture)}
			c := newTestClient(t, fetcher)

			posts, err := c.Search(context.Background(), tt.site, tt.tags, tt.opts)
			require.NoError(t, err)
			require.Equal(t, tt.wantURL, fetcher.lastURL())

			got, err := json.Marshal(posts)
			require.NoError(t, err)
			require.JSONEq(t, string(fixture(t, tt.golden)), string(got))

			for _, p := range posts {
				require.NotEmpty(t, p.Raw)
			}
		})
	}
}

func TestSearch_SendsDefaultHeaders(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(`[]`)}
	c := newTestClient(t, fetcher)

	_, err := c.Search(context.Background(), "safebooru", nil, domain.DefaultSearchOptions())
	require.NoError(t, err)

	require.Len(t, fetcher.headers, 1)
	require.Equal(t, "application/json, application/xml;q=0.9, */*;q=0.8", fetcher.headers[0].Get("Accept"))
	require.True(t, strings.HasPrefix(fetcher.headers[0].Get("User-Agent"), "booru/"))
}

func TestSearch_SiteNotSupported(t *testing.T) {
	fetcher := &fakeFetcher{}
	c := newTestClient(t, fetcher)

	_, err := c.Search(context.Background(), "not-a-real-site", []string{}, domain.DefaultSearchOptions())
	require.ErrorIs(t, err, domain.ErrSiteNotSupported)
	require.Equal(t, domain.KindSiteNotSupported, domain.KindOf(err))

	_, err = c.SearchRaw(context.Background(), "not-a-real-site", []string{}, nil)
	require.ErrorIs(t, err, domain.ErrSiteNotSupported)

	_, err = c.Booru("not-a-real-site")
	require.ErrorIs(t, err, domain.ErrSiteNotSupported)

	require.Empty(t, fetcher.urls)
}

func TestSearchRaw_StringTagsMatchList(t *testing.T) {
	fetcher := &fakeFetcher{body: fixture(t, "e926_posts.json")}
	c := newTestClient(t, fetcher)

	fromString, err := c.SearchRaw(context.Background(), "e926", "cute", nil)
	require.NoError(t, err)
	stringURL := fetcher.lastURL()

	fromList, err := c.SearchRaw(context.Background(), "e926", []string{"cute"}, nil)
	require.NoError(t, err)

	require.Equal(t, stringURL, fetcher.lastURL())
	require.Equal(t, fromList, fromString)
	require.Len(t, fromString, 1)
}

func TestSearchRaw_InvalidArgument(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(`[]`)}
	c := newTestClient(t, fetcher)

	tests := []struct {
		name string
		tags any
		opts map[string]any
	}{
		{"non numeric limit", []string{"cute"}, map[string]any{"limit": "abc"}},
		{"negative limit", []string{"cute"}, map[string]any{"limit": -5}},
		{"tags not a string or list", 42, nil},
		{"empty limit", []string{"cute"}, map[string]any{"limit": ""}},
		{"boolean limit", []string{"cute"}, map[string]any{"limit": true}},
		{"unknown option", "cute", map[string]any{"showDeleted": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.SearchRaw(context.Background(), "safebooru", tt.tags, tt.opts)
			require.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}

	require.Empty(t, fetcher.urls)
}

func TestSearch_Idempotent(t *testing.T) {
	fetcher := &fakeFetcher{body: fixture(t, "safebooru_posts.json")}
	c := newTestClient(t, fetcher)

	opts := domain.SearchOptions{Limit: 10}

	first, err := c.Search(context.Background(), "safebooru", []string{"fox"}, opts)
	require.NoError(t, err)

	second, err := c.Search(context.Background(), "safebooru", []string{"fox"}, opts)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, fetcher.urls[0], fetcher.urls[1])
}

func TestSearch_FetchError(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		c := newTestClient(t, &fakeFetcher{status: http.StatusInternalServerError})

		_, err := c.Search(context.Background(), "e926", []string{"cute"}, domain.DefaultSearchOptions())
		require.ErrorIs(t, err, domain.ErrFetch)
		require.Contains(t, err.Error(), "500")
	})

	t.Run("transport", func(t *testing.T) {
		cause := errors.New("connection reset by peer")
		c := newTestClient(t, &fakeFetcher{err: cause})

		_, err := c.Search(context.Background(), "e926", []string{"cute"}, domain.DefaultSearchOptions())
		require.ErrorIs(t, err, domain.ErrFetch)
		require.ErrorIs(t, err, cause)
	})
}

func TestSearch_ParseError(t *testing.T) {
	tests := []struct {
		name string
		site string
		body string
	}{
		{"malformed json", "safebooru", `[{"id":1,`},
		{"array expected", "safebooru", `{"post":[]}`},
		{"object expected", "e926", `[{"id":1}]`},
		{"list field not an array", "e926", `{"posts":"nope"}`},
		{"item not an object", "safebooru", `[1,2]`},
		{"missing id", "safebooru", `[{"file_url":"https://safebooru.org/images/1/a.jpg"}]`},
		{"malformed xml", "realbooru", `<posts><post id="1" file_url="/a.jpg"`},
		{"xml without root", "realbooru", `just text`},
		{"xml missing id", "realbooru", `<posts><post file_url="/a.jpg"/></posts>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &fakeFetcher{body: []byte(tt.body)})

			_, err := c.Search(context.Background(), tt.site, nil, domain.SearchOptions{Limit: 10})
			require.ErrorIs(t, err, domain.ErrParse)
		})
	}
}

func TestSearch_UnavailablePosts(t *testing.T) {
	fetcher := &fakeFetcher{body: fixture(t, "e621_unavailable.json")}
	c := newTestClient(t, fetcher)

	posts, err := c.Search(context.Background(), "e621", []string{"fox"}, domain.SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, []string{"1", "3"}, ids(posts))

	posts, err = c.SearchRaw(context.Background(), "e621", "fox", map[string]any{"limit": 10, "showUnavailable": true})
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2", "3"}, ids(posts))
	require.False(t, posts[1].Available())
	require.Empty(t, posts[1].FileURL)
	require.Equal(t, "b2", posts[1].Hash)
	require.Equal(t, "https://e621.net/posts/2", posts[1].PostView)

	// unavailable posts are dropped before truncation
	posts, err = c.Search(context.Background(), "e621", []string{"fox"}, domain.SearchOptions{Limit: 2})
	require.NoError(t, err)
	require.Equal(t, []string{"1", "3"}, ids(posts))
}

func TestSearch_XMLErrorResponse(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{"reason attribute", `<?xml version="1.0" encoding="UTF-8"?><response success="false" reason="Search error: API limited due to abuse"/>`, "API limited due to abuse"},
		{"reason text", `<response success="false">Missing authentication</response>`, "Missing authentication"},
		{"no reason", `<response success="false"/>`, "no reason given"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &fakeFetcher{body: []byte(tt.body)})

			posts, err := c.Search(context.Background(), "realbooru", []string{"a"}, domain.SearchOptions{Limit: 5})
			require.ErrorIs(t, err, domain.ErrFetch)
			require.ErrorContains(t, err, tt.reason)
			require.Nil(t, posts)
		})
	}

	// a successful response element is not an error
	c := newTestClient(t, &fakeFetcher{body: []byte(`<response success="true"/>`)})
	posts, err := c.Search(context.Background(), "realbooru", []string{"a"}, domain.SearchOptions{Limit: 5})
	require.NoError(t, err)
	require.Empty(t, posts)
}

func TestSearch_BadItemFailsWholeSearch(t *testing.T) {
	body := `[{"id":1,"file_url":"https://safebooru.org/images/1/a.jpg"},{"tags":"no_id"}]`
	c := newTestClient(t, &fakeFetcher{body: []byte(body)})

	posts, err := c.Search(context.Background(), "safebooru", nil, domain.SearchOptions{Limit: 10})
	require.ErrorIs(t, err, domain.ErrParse)
	require.Nil(t, posts)
}

func TestSearch_EmptyResults(t *testing.T) {
	tests := []struct {
		site string
		body string
	}{
		{"safebooru", ""},
		{"safebooru", "[]"},
		{"gelbooru", `{"@attributes":{"limit":100,"offset":0,"count":0}}`},
		{"e926", `{"posts":[]}`},
		{"realbooru", `<?xml version="1.0" encoding="UTF-8"?><posts count="0" offset="0"></posts>`},
	}

	for _, tt := range tests {
		c := newTestClient(t, &fakeFetcher{body: []byte(tt.body)})

		posts, err := c.Search(context.Background(), tt.site, []string{"nothing"}, domain.SearchOptions{Limit: 5})
		require.NoError(t, err, tt.site)
		require.Empty(t, posts, tt.site)
	}
}

func TestSearch_Truncates(t *testing.T) {
	c := newTestClient(t, &fakeFetcher{body: fixture(t, "safebooru_posts.json")})

	posts, err := c.Search(context.Background(), "safebooru", nil, domain.SearchOptions{Limit: 1})
	require.NoError(t, err)
	require.Equal(t, []string{"5000001"}, ids(posts))
}

func TestSearch_RandomNative(t *testing.T) {
	fetcher := &fakeFetcher{body: fixture(t, "e926_posts.json")}
	shuffled := false
	c := newTestClient(t, fetcher, WithClientShuffle(func([]domain.Post) { shuffled = true }))

	posts, err := c.Search(context.Background(), "e926", []string{"cute"}, domain.SearchOptions{Limit: 2, Random: true})
	require.NoError(t, err)

	require.Equal(t, "https://e926.net/posts.json?tags=cute+order%3Arandom&limit=2&page=1", fetcher.lastURL())
	require.False(t, shuffled)
	require.Equal(t, []string{"4012345", "4012346"}, ids(posts))
}

func TestSearch_RandomClientSide(t *testing.T) {
	fetcher := &fakeFetcher{body: fixture(t, "safebooru_posts.json")}
	c := newTestClient(t, fetcher, WithClientShuffle(func(p []domain.Post) { slices.Reverse(p) }))

	posts, err := c.Search(context.Background(), "safebooru", []string{"fox"}, domain.SearchOptions{Limit: 1, Random: true})
	require.NoError(t, err)

	require.Contains(t, fetcher.lastURL(), "&limit=100&")
	require.NotContains(t, fetcher.lastURL(), "order")
	require.Equal(t, []string{"5000002"}, ids(posts))
}

func TestSearch_RandomDerpibooru(t *testing.T) {
	fetcher := &fakeFetcher{body: fixture(t, "derpibooru_images.json")}
	c := newTestClient(t, fetcher)

	_, err := c.Search(context.Background(), "derpibooru", nil, domain.SearchOptions{Limit: 80, Random: true})
	require.NoError(t, err)
	require.Equal(t, "https://derpibooru.org/api/v1/json/search/images?page=1&per_page=50&q=%2A&sf=random", fetcher.lastURL())
}

func TestSearch_TagLimit(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(`[]`)}
	c := newTestClient(t, fetcher)

	_, err := c.Search(context.Background(), "danbooru", []string{"a", "b", "c"}, domain.SearchOptions{Limit: 1})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	require.Empty(t, fetcher.urls)

	_, err = c.Search(context.Background(), "danbooru", []string{"a", "b"}, domain.SearchOptions{Limit: 1, Random: true})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	require.Empty(t, fetcher.urls)

	_, err = c.Search(context.Background(), "danbooru", []string{"a", "b"}, domain.SearchOptions{Limit: 1})
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "danbooru", []string{"a"}, domain.SearchOptions{Limit: 1, Random: true})
	require.NoError(t, err)
	require.Contains(t, fetcher.lastURL(), "tags=a+order%3Arandom&")
}

func TestSearch_Cancelled(t *testing.T) {
	c := newTestClient(t, &fakeFetcher{err: context.Canceled})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Search(ctx, "e926", nil, domain.DefaultSearchOptions())
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, err, domain.ErrFetch)
}
