package video

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to the external video hosting provider
type Client struct {
	http *resty.Client
}

// NewClient creates a video host client authenticated with API token credentials
func NewClient(baseURL, tokenID, tokenSecret string) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(tokenID, tokenSecret).
		SetTimeout(10 * time.Second)

	return &Client{http: client}
}

type playbackIDResponse struct {
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// ResolveAssetID resolves a stored playback reference to the provider's asset ID
func (c *Client) ResolveAssetID(ctx context.Context, videoRef string) (string, error) {
	var result playbackIDResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/video/v1/playback-ids/" + videoRef)
	if err != nil {
		return "", fmt.Errorf("failed to resolve playback id: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return "", fmt.Errorf("playback id %s not found", videoRef)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d resolving playback id", resp.StatusCode())
	}

	if result.Data.Object.ID == "" {
		return "", fmt.Errorf("playback id %s has no asset", videoRef)
	}

	return result.Data.Object.ID, nil
}

// DeleteAsset removes an asset from the video host
func (c *Client) DeleteAsset(ctx context.Context, assetID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete("/video/v1/assets/" + assetID)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}

	if resp.StatusCode() != http.StatusNoContent && resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("unexpected status %d deleting asset", resp.StatusCode())
	}

	return nil
}
