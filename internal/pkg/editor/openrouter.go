package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/picflux/picflux/internal/pkg/env"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultImageModel        = "google/gemini-2.5-flash-image"
)

// Client proxies image-edit requests to OpenRouter's multimodal chat API.
// The call is stateless: one request in, extracted image URLs out.
type Client struct {
	APIKey  string
	BaseURL string
	Model   string
	Referer string
	Title   string

	HTTPClient *http.Client
}

func NewClientFromEnv() *Client {
	return &Client{
		APIKey:  strings.TrimSpace(env.GetEnv("OPENROUTER_API_KEY", "")),
		BaseURL: strings.TrimRight(env.GetEnv("OPENROUTER_BASE_URL", defaultOpenRouterBaseURL), "/"),
		Model:   env.GetEnv("OPENROUTER_MODEL", defaultImageModel),
		Referer: env.GetEnv("PUBLIC_DOMAIN", "http://localhost:4000"),
		Title:   "PicFlux",
		HTTPClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// EditImage sends the prompt plus input image to the model and returns the
// image URLs (https or data URLs) found in the completion.
func (c *Client) EditImage(ctx context.Context, prompt, imageDataURL string) ([]string, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("OPENROUTER_API_KEY is not configured")
	}
	if strings.TrimSpace(prompt) == "" || strings.TrimSpace(imageDataURL) == "" {
		return nil, errors.New("prompt and image are required")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"model": c.Model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": prompt},
					{"type": "image_url", "image_url": map[string]string{"url": imageDataURL}},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("HTTP-Referer", c.Referer)
	req.Header.Set("X-Title", c.Title)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openrouter request failed: status=%d body=%s", resp.StatusCode, truncate(string(body), 512))
	}

	return ExtractImages(body), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
