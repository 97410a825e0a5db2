package superchat

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
)

const (
	DefaultEndpoint  = "https://superchat-img.vercel.app/super-chat"
	DefaultUserAgent = "superchat"
	DefaultTimeout   = 30 * time.Second
)

// Image is a rendered Super Chat as returned by the endpoint.
type Image struct {
	Data        []byte
	ContentType string
}

// Client talks to the rendering endpoint.
type Client struct {
	endpoint  *url.URL
	http      *http.Client
	userAgent string
	logger    *log.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient returns a client for endpoint, or DefaultEndpoint when empty.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("error parsing endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint scheme %q (must be http or https)", u.Scheme)
	}
	c := &Client{
		endpoint:  u,
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: DefaultUserAgent,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ShareURL builds the GET link for p. Only fields that are set end up in the
// query; the icon never does.
func (c *Client) ShareURL(p Params) string {
	u := *c.endpoint
	q := u.Query()
	if p.Name != "" {
		q.Set("name", p.Name)
	}
	if p.Price != 0 {
		q.Set("price", strconv.Itoa(p.Price))
	}
	if p.Message != "" {
		q.Set("message", p.Message)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Render POSTs p as multipart form data and returns the rendered image.
func (c *Client) Render(ctx context.Context, p Params) (*Image, error) {
	body, contentType, err := multipartBody(p)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req)
}

// Fetch GETs the share URL of p directly. It cannot carry an icon.
func (c *Client) Fetch(ctx context.Context, p Params) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ShareURL(p), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Image, error) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "image/*")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Render response", "method", req.Method, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &RequestFailedError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading image data: %w", err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return &Image{Data: data, ContentType: ct}, nil
}

func multipartBody(p Params) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := p.Name
	if name == "" {
		name = DefaultName
	}
	if err := w.WriteField("name", name); err != nil {
		return nil, "", fmt.Errorf("error writing form: %w", err)
	}
	if p.Price != 0 {
		if err := w.WriteField("price", strconv.Itoa(p.Price)); err != nil {
			return nil, "", fmt.Errorf("error writing form: %w", err)
		}
	}
	if p.Message != "" {
		if err := w.WriteField("message", p.Message); err != nil {
			return nil, "", fmt.Errorf("error writing form: %w", err)
		}
	}
	if p.Icon != "" {
		if err := writeIcon(w, p.Icon); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("error writing form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func writeIcon(w *multipart.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading icon: %w", err)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="icon"; filename=%q`, filepath.Base(path)))
	h.Set("Content-Type", http.DetectContentType(data))
	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("error writing form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("error writing form: %w", err)
	}
	return nil
}
