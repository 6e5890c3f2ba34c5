package portfolio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ErrParse matches every document decoding failure.
var ErrParse = errors.New("parse portfolio document")

// ParseError wraps a JSON decoding failure.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s: %v", ErrParse, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrParse) true for any ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// StatusError reports a non-success HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: HTTP error status %d", e.URL, e.Code)
}

// Fetcher loads the document once per page load.
type Fetcher interface {
	Fetch(ctx context.Context) (*Document, error)
}

// Source is a Fetcher that can also hand out the undecoded bytes.
type Source interface {
	Fetcher
	FetchRaw(ctx context.Context) ([]byte, error)
}

// Bytes is a document already in memory.
type Bytes []byte

// Fetch decodes b.
func (b Bytes) Fetch(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Decode(b)
}

// FetchRaw returns b unchanged.
func (b Bytes) FetchRaw(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b, nil
}

// DefaultTimeout bounds a document fetch over HTTP.
const DefaultTimeout = 30 * time.Second

// maxDocumentSize caps how much of a response body is read.
const maxDocumentSize = 8 << 20

// HTTPFetcher fetches the document from a fixed URL.
type HTTPFetcher struct {
	url        string
	httpClient *http.Client
}

// NewHTTPFetcher returns a fetcher for url. A nil client gets a default one
// with DefaultTimeout.
func NewHTTPFetcher(url string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPFetcher{url: url, httpClient: client}
}

// URL returns the fetched URL.
func (f *HTTPFetcher) URL() string { return f.url }

// Fetch issues a single GET and decodes the body. There is no retry.
func (f *HTTPFetcher) Fetch(ctx context.Context) (*Document, error) {
	body, err := f.FetchRaw(ctx)
	if err != nil {
		return nil, err
	}
	return Decode(body)
}

// FetchRaw issues a single GET and returns the body.
func (f *HTTPFetcher) FetchRaw(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", f.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: f.url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.url, err)
	}
	return body, nil
}

// FileFetcher reads the document from a fixed path.
type FileFetcher struct {
	path string
}

// NewFileFetcher returns a fetcher for path.
func NewFileFetcher(path string) *FileFetcher {
	return &FileFetcher{path: path}
}

// Path returns the file read by Fetch.
func (f *FileFetcher) Path() string { return f.path }

// Fetch reads and decodes the file.
func (f *FileFetcher) Fetch(ctx context.Context) (*Document, error) {
	data, err := f.FetchRaw(ctx)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// FetchRaw reads the file.
func (f *FileFetcher) FetchRaw(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", f.path, err)
	}
	return data, nil
}
