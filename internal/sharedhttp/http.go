package sharedhttp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"booru/internal/buildinfo"
	"booru/internal/domain"

	"github.com/avast/retry-go"
)

const acceptHeader = "application/json, application/xml;q=0.9, */*;q=0.8"

var Transport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ReadBufferSize:        65536,
	WriteBufferSize:       65536,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher performs a GET and returns the raw body. Non-2xx answers are errors.
type Fetcher interface {
	Fetch(ctx context.Context, url string, header http.Header) (Response, error)
}

type Options struct {
	Timeout time.Duration
	// Proxy is a http(s)://host:port url. Empty uses the environment.
	Proxy string
}

type Client struct {
	client *http.Client
}

func NewClient(opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	transport := Transport
	if opts.Proxy != "" {
		proxyURL, err := ParseProxy(opts.Proxy)
		if err != nil {
			return nil, err
		}

		transport = Transport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Client{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
	}, nil
}

// ParseProxy validates a proxy url of the form http(s)://host:port.
func ParseProxy(proxy string) (*url.URL, error) {
	u, err := url.Parse(proxy)
	if err != nil {
		return nil, domain.InvalidArgumentErr(err, "invalid proxy %q", proxy)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" || u.Port() == "" {
		return nil, domain.InvalidArgument("proxy must look like http(s)://host:port, got %q", proxy)
	}

	return u, nil
}

// DefaultHeaders returns the header set sent with every search.
func DefaultHeaders() http.Header {
	h := make(http.Header)
	h.Set("Accept", acceptHeader)
	h.Set("User-Agent", buildinfo.UserAgent())
	return h
}

func CheckStatusCode(statusCode int) error {
	if statusCode >= 200 && statusCode <= 299 {
		return nil
	}

	return domain.FetchError(nil, "unexpected status code %d %s", statusCode, http.StatusText(statusCode))
}

// Retryable reports whether a request that got statusCode is worth repeating.
func Retryable(statusCode int) bool {
	switch statusCode {
	case http.StatusNotFound, http.StatusTooManyRequests, http.StatusRequestTimeout:
		return true
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusInternalServerError:
		return true
	default:
		return false
	}
}

func (c *Client) Fetch(ctx context.Context, url string, header http.Header) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, domain.FetchError(err, "failed to create request")
	}

	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Response{}, domain.FetchError(err, "request to %s failed", req.URL.Host)
	}
	defer resp.Body.Close()

	if err := CheckStatusCode(resp.StatusCode); err != nil {
		return Response{StatusCode: resp.StatusCode}, fmt.Errorf("%s: %w", req.URL.Host, err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, domain.FetchError(err, "failed to read response body")
	}

	return Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// Do executes req on the shared transport and checks the status code.
// Statuses that won't change on a second try come back as retry.Unrecoverable.
// The caller closes the body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.FetchError(err, "request to %s failed", req.URL.Host)
	}

	if err := CheckStatusCode(resp.StatusCode); err != nil {
		resp.Body.Close()
		if !Retryable(resp.StatusCode) {
			return nil, retry.Unrecoverable(err)
		}
		return nil, err
	}

	return resp, nil
}
