package core

// source.go provides the raw-text providers the pipeline loads from.
//
// Every provider normalises text the same way before parsing: a UTF-8 BOM
// (common in Windows spreadsheet exports) is removed and invalid UTF-8 is
// replaced, so the first header is "Country" and not a BOM-prefixed one.

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultMaxSourceSize is the largest dataset a provider reads unless told
// otherwise (100MB).
const DefaultMaxSourceSize int64 = 100 * 1024 * 1024

// Source provides the raw text of one dataset.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (string, error)
}

// Sources names the provider for each dataset.
type Sources struct {
	Tariff     Source
	Population Source
	Historical Source
}

// ordered returns the sources in load order (tariff, population, historical), keyed by dataset.
func (s Sources) ordered() []keyedSource {
	return []keyedSource{
		{DatasetTariff, s.Tariff},
		{DatasetPopulation, s.Population},
		{DatasetHistorical, s.Historical},
	}
}

type keyedSource struct {
	key string
	src Source
}

// newTextDecoder strips a leading BOM and replaces invalid UTF-8 with
// U+FFFD, whether or not a BOM was present.
func newTextDecoder() transform.Transformer {
	return unicode.UTF8BOM.NewDecoder()
}

// decode normalises raw dataset bytes.
func decode(raw []byte) (string, error) {
	text, _, err := transform.Bytes(newTextDecoder(), raw)
	if err != nil {
		return "", err
	}
	return string(text), nil
}

// FileSource reads a dataset from the local filesystem.
type FileSource struct {
	name    string
	path    string
	maxSize int64
}

// NewFileSource returns a FileSource for path.
func NewFileSource(name, path string) *FileSource {
	return &FileSource{name: name, path: path, maxSize: DefaultMaxSourceSize}
}

// WithMaxSize sets the largest file accepted, in bytes. Non-positive values
// keep the default.
func (s *FileSource) WithMaxSize(n int64) *FileSource {
	if n > 0 {
		s.maxSize = n
	}
	return s
}

// Name implements Source.
func (s *FileSource) Name() string { return s.name }

// Path returns the file path.
func (s *FileSource) Path() string { return s.path }

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", sourceErr(s.name, err)
	}

	f, err := os.Open(s.path)
	if err != nil {
		return "", sourceErr(s.name, err)
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, s.maxSize+1))
	if err != nil {
		return "", sourceErr(s.name, fmt.Errorf("read %s: %w", s.path, err))
	}
	if int64(len(raw)) > s.maxSize {
		return "", sourceErr(s.name, fmt.Errorf("file too large: %s exceeds %d bytes", s.path, s.maxSize))
	}

	text, err := decode(raw)
	if err != nil {
		return "", sourceErr(s.name, fmt.Errorf("decode %s: %w", s.path, err))
	}
	return text, nil
}

// HTTPSource fetches a dataset with a GET request. Non-2xx responses are
// failures. Requests are never retried.
type HTTPSource struct {
	name    string
	url     string
	client  *resty.Client
	maxSize int64
}

// NewHTTPClient returns a resty client suitable for HTTPSource.
func NewHTTPClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", "tariffdash/1.0").
		SetHeader("Accept", "text/csv, text/plain, */*")
}

// NewHTTPSource returns an HTTPSource. A nil client gets a default one.
func NewHTTPSource(name, url string, client *resty.Client) *HTTPSource {
	if client == nil {
		client = NewHTTPClient(30 * time.Second)
	}
	return &HTTPSource{name: name, url: url, client: client, maxSize: DefaultMaxSourceSize}
}

// WithMaxSize sets the largest response body accepted, in bytes.
// Non-positive values keep the default.
func (s *HTTPSource) WithMaxSize(n int64) *HTTPSource {
	if n > 0 {
		s.maxSize = n
	}
	return s
}

// Name implements Source.
func (s *HTTPSource) Name() string { return s.name }

// URL returns the request URL.
func (s *HTTPSource) URL() string { return s.url }

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	resp, err := s.client.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return "", sourceErr(s.name, err)
	}
	if !resp.IsSuccess() {
		return "", sourceErr(s.name, fmt.Errorf("GET %s: unexpected status %s", s.url, resp.Status()))
	}

	body := resp.Body()
	if int64(len(body)) > s.maxSize {
		return "", sourceErr(s.name, fmt.Errorf("file too large: %s exceeds %d bytes", s.url, s.maxSize))
	}

	text, err := decode(body)
	if err != nil {
		return "", sourceErr(s.name, fmt.Errorf("decode %s: %w", s.url, err))
	}
	return text, nil
}

// StaticSource serves fixed text, or a fixed error.
type StaticSource struct {
	SourceName string
	Text       string
	Err        error
}

// Name implements Source.
func (s StaticSource) Name() string { return s.SourceName }

// Fetch implements Source.
func (s StaticSource) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", sourceErr(s.SourceName, err)
	}
	if s.Err != nil {
		return "", sourceErr(s.SourceName, s.Err)
	}
	text, err := decode([]byte(s.Text))
	if err != nil {
		return "", sourceErr(s.SourceName, err)
	}
	return text, nil
}
