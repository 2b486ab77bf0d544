// Package store is the client for the manifest store API: listing and
// fetching raw manifest files, uploading new ones, and publishing the
// built tracking index.
package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/Gobusters/ectologger"

	"github.com/huymai96/package-confirmation-app/pkg/httpclient"
	"github.com/huymai96/package-confirmation-app/pkg/models"
	"github.com/huymai96/package-confirmation-app/pkg/tracing"
)

// Client talks to the manifest store API.
type Client struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
	logger  ectologger.Logger
}

// Config holds store client configuration.
type Config struct {
	BaseURL string
	APIKey  string
}

func NewClient(cfg Config, http *httpclient.Client, logger ectologger.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    http,
		logger:  logger,
	}
}

func (c *Client) authHeaders() map[string]string {
	return map[string]string{"x-api-key": c.apiKey}
}

// List returns every manifest currently in the store.
func (c *Client) List(ctx context.Context) ([]models.ManifestFile, error) {
	ctx, span := tracing.StartSpan(ctx, "store.Client.List")
	defer span.End()

	resp, err := c.http.Get(ctx, c.baseURL+"/api/manifests?action=list", nil)
	if err != nil {
		return nil, fmt.Errorf("list manifests: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("list manifests: unexpected status %d", resp.StatusCode)
	}

	var list models.ManifestListResponse
	if err := resp.DecodeJSON(&list); err != nil {
		return nil, fmt.Errorf("list manifests: decode response: %w", err)
	}
	return list.Manifests, nil
}

// Fetch downloads the raw bytes of one manifest.
func (c *Client) Fetch(ctx context.Context, file models.ManifestFile) ([]byte, error) {
	ctx, span := tracing.StartSpan(ctx, "store.Client.Fetch")
	defer span.End()

	resp, err := c.http.Get(ctx, file.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", file.Filename, err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", file.Filename, resp.StatusCode)
	}
	return resp.Body, nil
}

type uploadRequest struct {
	Type     string `json:"type"`
	Filename string `json:"filename"`
	Data     string `json:"data"`
}

// Upload sends a manifest file to the store as base64 JSON.
func (c *Client) Upload(ctx context.Context, sourceType models.SourceType, filename string, data []byte) error {
	ctx, span := tracing.StartSpan(ctx, "store.Client.Upload")
	defer span.End()

	payload := uploadRequest{
		Type:     string(sourceType),
		Filename: filename,
		Data:     base64.StdEncoding.EncodeToString(data),
	}

	resp, err := c.http.PostJSON(ctx, c.baseURL+"/api/manifests", payload, c.authHeaders())
	if err != nil {
		return fmt.Errorf("upload %s: %w", filename, err)
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("upload %s: unexpected status %d", filename, resp.StatusCode)
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"filename": filename,
		"type":     sourceType,
		"bytes":    len(data),
	}).Info("uploaded manifest")

	return nil
}

// Delete removes a manifest from the store by its storage URL.
func (c *Client) Delete(ctx context.Context, file models.ManifestFile) error {
	ctx, span := tracing.StartSpan(ctx, "store.Client.Delete")
	defer span.End()

	target := c.baseURL + "/api/manifests?url=" + url.QueryEscape(file.URL)
	resp, err := c.http.Delete(ctx, target, c.authHeaders())
	if err != nil {
		return fmt.Errorf("delete %s: %w", file.Filename, err)
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("delete %s: unexpected status %d", file.Filename, resp.StatusCode)
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"filename": file.Filename,
	}).Info("deleted manifest")

	return nil
}

type publishRequest struct {
	Index models.TrackingIndex `json:"index"`
}

// PublishIndex uploads the built index so the lookup API starts serving it.
func (c *Client) PublishIndex(ctx context.Context, idx models.TrackingIndex) error {
	ctx, span := tracing.StartSpan(ctx, "store.Client.PublishIndex")
	defer span.End()

	resp, err := c.http.PostJSON(ctx, c.baseURL+"/api/upload-index", publishRequest{Index: idx}, c.authHeaders())
	if err != nil {
		return fmt.Errorf("publish index: %w", err)
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("publish index: unexpected status %d", resp.StatusCode)
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"entries": len(idx),
	}).Info("published tracking index")

	return nil
}

// FetchIndex downloads the currently published index, if any. A store with
// no published index returns an empty map.
func (c *Client) FetchIndex(ctx context.Context) (models.TrackingIndex, error) {
	ctx, span := tracing.StartSpan(ctx, "store.Client.FetchIndex")
	defer span.End()

	resp, err := c.http.Get(ctx, c.baseURL+"/api/upload-index", c.authHeaders())
	if err != nil {
		return nil, fmt.Errorf("fetch index: %w", err)
	}
	if resp.StatusCode == 404 {
		return models.TrackingIndex{}, nil
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("fetch index: unexpected status %d", resp.StatusCode)
	}

	var payload publishRequest
	if err := resp.DecodeJSON(&payload); err != nil {
		return nil, fmt.Errorf("fetch index: decode response: %w", err)
	}
	if payload.Index == nil {
		return models.TrackingIndex{}, nil
	}
	return payload.Index, nil
}

// Lookup queries the store's label-lookup endpoint for one tracking value.
// Used by station-side tooling and smoke tests, not the build.
func (c *Client) Lookup(ctx context.Context, tracking string) (*models.LookupResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "store.Client.Lookup")
	defer span.End()

	target := c.baseURL + "/api/label-lookup?action=lookup&tracking=" + url.QueryEscape(tracking)
	resp, err := c.http.Get(ctx, target, c.authHeaders())
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", tracking, err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("lookup %s: unexpected status %d", tracking, resp.StatusCode)
	}

	var result models.LookupResponse
	if err := resp.DecodeJSON(&result); err != nil {
		return nil, fmt.Errorf("lookup %s: decode response: %w", tracking, err)
	}
	return &result, nil
}
