// Package visual talks to the remote visual testing service that stores
// reference screenshots and the captures that failed comparison.
package visual

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gxtest/uitest/pkg/logger"
)

// PlatformIOS is the platform code sent with every request.
const PlatformIOS = 1

const (
	getResourcePath = "GetResource"
	setResourcePath = "SetResource"
	uploadPath      = "SetResource/gxobject"

	defaultHTTPTimeout = 60 * time.Second
)

// Config identifies the reference a provider reads and writes.
type Config struct {
	// BaseURL of the service. Empty means visual testing is not configured.
	BaseURL     string
	ProjectCode string
	TestCode    string
	Reference   string
}

// Provider fetches and stores reference images for one screenshot reference.
// Calls block until the request completes or ctx is done.
type Provider struct {
	cfg    Config
	client *http.Client
	info   ClientInfo
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.client = c
	}
}

// WithClientInfo sets the device metadata sent as headers.
func WithClientInfo(info ClientInfo) Option {
	return func(p *Provider) {
		p.info = info
	}
}

// New creates a provider for cfg.
func New(cfg Config, opts ...Option) *Provider {
	p := &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: defaultHTTPTimeout},
		info:   DefaultClientInfo(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the provider configuration.
func (p *Provider) Config() Config {
	return p.cfg
}

type resourceParams struct {
	ProjectCode       string `json:"projectCode"`
	TestCode          string `json:"testCode"`
	ResourceReference string `json:"resourceReference"`
	Platform          int    `json:"platform"`
	Image             string `json:"image,omitempty"`
}

type resourceResponse struct {
	Image  string `json:"image"`
	DiffID DiffID `json:"diffId"`
}

type uploadResponse struct {
	ObjectID string `json:"object_id"`
}

func (p *Provider) params() resourceParams {
	return resourceParams{
		ProjectCode:       p.cfg.ProjectCode,
		TestCode:          p.cfg.TestCode,
		ResourceReference: p.cfg.Reference,
		Platform:          PlatformIOS,
	}
}

// GetReferenceImage returns the stored reference PNG, or nil when the service
// has no reference for this test yet.
func (p *Provider) GetReferenceImage(ctx context.Context) ([]byte, error) {
	endpoint, err := p.endpoint(getResourcePath)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(p.params())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialize, err)
	}

	var resp resourceResponse
	if err := p.postJSON(ctx, endpoint, body, "application/json", &resp, false); err != nil {
		return nil, err
	}
	if resp.Image == "" {
		logger.Debug("visual: no reference image for %s/%s", p.cfg.TestCode, p.cfg.Reference)
		return nil, nil
	}
	return p.getImage(ctx, resp.Image)
}

// SaveReferenceImage uploads img and stores it as the reference.
func (p *Provider) SaveReferenceImage(ctx context.Context, img []byte) (DiffID, error) {
	endpoint, err := p.endpoint(setResourcePath)
	if err != nil {
		return "", err
	}
	objectID, err := p.upload(ctx, img)
	if err != nil {
		return "", err
	}

	params := p.params()
	params.Image = objectID
	body, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialize, err)
	}

	var resp resourceResponse
	if err := p.postJSON(ctx, endpoint, body, "application/json", &resp, true); err != nil {
		return "", err
	}
	logger.Info("visual: stored image for %s/%s (diff id %q)", p.cfg.TestCode, p.cfg.Reference, resp.DiffID)
	return resp.DiffID, nil
}

// SaveImageWithDifference stores a capture that failed comparison. The
// service decides whether it becomes a difference record.
func (p *Provider) SaveImageWithDifference(ctx context.Context, img []byte) (DiffID, error) {
	return p.SaveReferenceImage(ctx, img)
}

func (p *Provider) upload(ctx context.Context, img []byte) (string, error) {
	endpoint, err := p.endpoint(uploadPath)
	if err != nil {
		return "", err
	}
	if len(img) == 0 {
		return "", ErrFailedToUploadImage
	}

	var resp uploadResponse
	if err := p.postJSON(ctx, endpoint, img, "image/png", &resp, true); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToUploadImage, err)
	}
	if resp.ObjectID == "" {
		return "", ErrFailedToUploadImage
	}
	return resp.ObjectID, nil
}

func (p *Provider) getImage(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid image URL %q", ErrSerialize, rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	data, err := p.do(req)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &NetworkError{URL: rawURL, Err: errors.New("invalid image data")}
	}
	return data, nil
}

func (p *Provider) endpoint(path string) (string, error) {
	base := strings.TrimSpace(p.cfg.BaseURL)
	if base == "" {
		return "", ErrInvalidURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := url.Parse(base + path)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", ErrInvalidURL
	}
	return u.String(), nil
}

// postJSON posts body and decodes the JSON response into out. An empty
// response body is accepted only when allowEmpty is set.
func (p *Provider) postJSON(ctx context.Context, endpoint string, body []byte, contentType string, out interface{}, allowEmpty bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	p.info.apply(req.Header)
	req.Header.Set("Content-Type", contentType)

	data, err := p.do(req)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		if allowEmpty {
			return nil
		}
		return &NetworkError{URL: endpoint, Err: errors.New("no data returned from server")}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &NetworkError{URL: endpoint, Err: fmt.Errorf("invalid JSON response: %w", err)}
	}
	return nil
}

func (p *Provider) do(req *http.Request) ([]byte, error) {
	logger.Debug("visual: %s %s", req.Method, req.URL)
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: req.URL.String(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &NetworkError{URL: req.URL.String(), StatusCode: resp.StatusCode}
	}
	return data, nil
}
