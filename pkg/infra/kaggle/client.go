package kaggle

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/dsfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/dsfetch/pkg/domain/model"
	"github.com/m-mizutani/dsfetch/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultBaseURL is the root of the Kaggle public REST API
const DefaultBaseURL = "https://www.kaggle.com/api/v1"

const (
	partialSuffix   = ".part"
	maxErrorBodyLen = 512
)

// Client talks to the Kaggle dataset API
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	creds      *model.Credentials
}

var _ interfaces.DatasetAPI = (*Client)(nil)

// Option is a functional option for Client configuration
type Option func(*Client)

// WithBaseURL sets the API root URL
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client used for every request
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// New creates a new Kaggle client. Authenticate must be called before any API call.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		userAgent:  "dsfetch/" + types.Version,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Authenticate loads the credentials file used for HTTP basic authentication
func (c *Client) Authenticate(ctx context.Context, credentialsPath string) error {
	creds, err := LoadCredentials(ctx, credentialsPath)
	if err != nil {
		return err
	}
	c.creds = creds
	return nil
}

// GetDataset retrieves metadata of a dataset
func (c *Client) GetDataset(ctx context.Context, ref model.DatasetRef) (*model.Dataset, error) {
	req, err := c.newRequest(ctx, "datasets/view/"+datasetPath(ref), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var dataset model.Dataset
	if err := json.NewDecoder(resp.Body).Decode(&dataset); err != nil {
		return nil, goerr.Wrap(err, "failed to decode dataset metadata", goerr.V("dataset", ref.String()))
	}

	return &dataset, nil
}

// DownloadDataset streams the dataset archive into destDir as <slug>.zip
func (c *Client) DownloadDataset(ctx context.Context, ref model.DatasetRef, destDir string, progress interfaces.ProgressFunc) error {
	logger := ctxlog.From(ctx)

	var query url.Values
	if ref.Version > 0 {
		query = url.Values{"datasetVersionNumber": []string{strconv.Itoa(ref.Version)}}
	}

	req, err := c.newRequest(ctx, "datasets/download/"+datasetPath(ref), query)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	destPath := filepath.Join(destDir, ref.ArchiveName())
	partPath := destPath + partialSuffix

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	logger.Debug("Streaming dataset archive",
		"dataset", ref.String(),
		"part_path", partPath,
		"content_length", total,
	)

	if err := writeArchive(partPath, resp.Body, total, progress); err != nil {
		if rmErr := os.Remove(partPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warn("Failed to remove partial download", "path", partPath, "error", rmErr)
		}
		return goerr.Wrap(err, "failed to download dataset archive",
			goerr.V("dataset", ref.String()),
			goerr.V("path", destPath),
		)
	}

	if err := os.Rename(partPath, destPath); err != nil {
		return goerr.Wrap(err, "failed to move downloaded archive into place",
			goerr.V("from", partPath),
			goerr.V("to", destPath),
		)
	}

	return nil
}

func writeArchive(path string, body io.Reader, total int64, progress interfaces.ProgressFunc) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return goerr.Wrap(err, "failed to create archive file", goerr.V("path", path))
	}

	w := &progressWriter{w: file, total: total, fn: progress}
	if _, err := io.Copy(w, body); err != nil {
		_ = file.Close()
		return goerr.Wrap(err, "failed to write archive", goerr.V("written", w.written))
	}

	if err := file.Close(); err != nil {
		return goerr.Wrap(err, "failed to close archive file", goerr.V("path", path))
	}

	if total > 0 && w.written != total {
		return goerr.New("archive is shorter than announced",
			goerr.V("written", w.written),
			goerr.V("expected", total),
		)
	}

	return nil
}

func (c *Client) newRequest(ctx context.Context, path string, query url.Values) (*http.Request, error) {
	if c.creds == nil {
		return nil, goerr.New("client is not authenticated")
	}

	endpoint := c.baseURL + "/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request", goerr.V("url", endpoint))
	}

	req.SetBasicAuth(c.creds.Username, c.creds.Key)
	req.Header.Set("User-Agent", c.userAgent)

	return req, nil
}

// do sends the request and turns non-2xx responses into errors
func (c *Client) do(req *http.Request) (*http.Response, error) {
	logger := ctxlog.From(req.Context())
	logger.Debug("Sending API request", "method", req.Method, "url", req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send request", goerr.V("url", req.URL.String()))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
	opts := []goerr.Option{
		goerr.V("url", req.URL.String()),
		goerr.V("status", resp.StatusCode),
		goerr.V("body", string(body)),
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, goerr.Wrap(model.ErrUnauthorized, "dataset API rejected the credentials", opts...)
	default:
		return nil, goerr.New("unexpected status code "+strconv.Itoa(resp.StatusCode)+" from dataset API", opts...)
	}
}

func datasetPath(ref model.DatasetRef) string {
	return url.PathEscape(ref.Owner) + "/" + url.PathEscape(ref.Slug)
}

type progressWriter struct {
	w       io.Writer
	written int64
	total   int64
	fn      interfaces.ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	if p.fn != nil && n > 0 {
		p.fn(p.written, p.total)
	}
	return n, err
}
