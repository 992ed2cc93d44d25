package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ben-burie/Stryde/internal/domain/upload"
)

const (
	defaultBaseURL = "http://127.0.0.1:5000/api"
	uploadPath     = "/upload-data"
	formField      = "file"
	maxBodyBytes   = 1 << 20
)

// Doer is the subset of *http.Client the analytics client needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client posts CSV files to the VDOT analytics service.
type Client struct {
	baseURL    string
	httpClient Doer
}

// NewClient builds a client with an instrumented transport. A zero timeout
// leaves requests bounded only by the caller's context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithDoer(baseURL, &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
}

// NewClientWithDoer builds a client around a caller supplied transport.
func NewClientWithDoer(baseURL string, doer Doer) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(url, "/"),
		httpClient: doer,
	}
}

// Endpoint returns the fully qualified upload URL.
func (c *Client) Endpoint() string {
	return c.baseURL + uploadPath
}

// Analyze sends file as a single multipart field and decodes the JSON reply.
// The body is decoded regardless of status code: the service reports business
// errors as {"error": "..."} with non-2xx statuses.
func (c *Client) Analyze(ctx context.Context, file upload.File) (upload.Result, error) {
	body, contentType, err := encodeForm(file)
	if err != nil {
		return upload.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), body)
	if err != nil {
		return upload.Result{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return upload.Result{}, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return upload.Result{}, fmt.Errorf("read upload response: %w", err)
	}

	var out upload.Result
	if err := json.Unmarshal(payload, &out); err != nil {
		snippet := payload
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return upload.Result{}, fmt.Errorf("decode upload response (status=%d body=%q): %w", resp.StatusCode, snippet, err)
	}
	return out, nil
}

func encodeForm(file upload.File) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, formField, file.Name))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "text/csv"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, "", fmt.Errorf("write form part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

var _ upload.Analyzer = (*Client)(nil)
