package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"bookimg/internal/types"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicModel   = "claude-3-5-sonnet-20241022"
	anthropicVersion = "2023-06-01"
)

type anthropic struct {
	key     string
	baseURL string
	client  *http.Client
}

func newAnthropic(cfg Config) (Provider, error) {
	if cfg.AnthropicKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY is not set")
	}

	base := cfg.AnthropicBaseURL
	if base == "" {
		base = anthropicBaseURL
	}

	return &anthropic{key: cfg.AnthropicKey, baseURL: base, client: cfg.client()}, nil
}

func (a *anthropic) Name() string {
	return "claude"
}

type anthropicContentBlock struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Source *struct {
		Type      string `json:"type"`
		MediaType string `json:"media_type"`
		Data      string `json:"data"`
	} `json:"source,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (a *anthropic) GenerateCoverSVG(ctx context.Context, book *types.Book, coverImagePath string) (string, error) {
	return a.messageSVG(ctx, formatPrompt(promptCoverSVG, book, ""), coverImagePath)
}

func (a *anthropic) GenerateBannerSVG(ctx context.Context, book *types.Book, coverImagePath, coverSVG string) (string, error) {
	return a.messageSVG(ctx, formatPrompt(promptBannerSVG, book, coverSVG), coverImagePath)
}

func (a *anthropic) GenerateCoverSVGDirect(ctx context.Context, book *types.Book) (string, error) {
	return a.messageSVG(ctx, formatPrompt(promptCoverSVGDirect, book, ""), "")
}

func (a *anthropic) GenerateBannerSVGDirect(ctx context.Context, book *types.Book, coverSVG string) (string, error) {
	return a.messageSVG(ctx, formatPrompt(promptBannerSVGDirect, book, coverSVG), "")
}

// GenerateCoverImage is not a capability of the messages API.
func (a *anthropic) GenerateCoverImage(ctx context.Context, book *types.Book) (string, error) {
	return "", ErrUnsupported
}

func (a *anthropic) messageSVG(ctx context.Context, prompt, coverImagePath string) (string, error) {
	var blocks []anthropicContentBlock

	if coverImagePath != "" {
		data, mediaType, err := encodeImageFile(coverImagePath)
		if err != nil {
			return "", err
		}

		block := anthropicContentBlock{Type: "image"}
		block.Source = &struct {
			Type      string `json:"type"`
			MediaType string `json:"media_type"`
			Data      string `json:"data"`
		}{Type: "base64", MediaType: mediaType, Data: data}
		blocks = append(blocks, block)
	}

	blocks = append(blocks, anthropicContentBlock{Type: "text", Text: prompt})

	reqBody := map[string]any{
		"model":      anthropicModel,
		"max_tokens": 8192,
		"messages": []map[string]any{
			{"role": "user", "content": blocks},
		},
	}

	bs, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(bs))
	if err != nil {
		return "", fmt.Errorf("building anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.key)
	req.Header.Set("anthropic-version", anthropicVersion)

	res, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling anthropic: %w", err)
	}
	defer res.Body.Close()

	rs, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("reading anthropic response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic responded %s: %s", res.Status, truncate(string(rs), 200))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(rs, &parsed); err != nil {
		return "", fmt.Errorf("decoding anthropic response: %w", err)
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("anthropic: %s", parsed.Error.Message)
	}

	for _, block := range parsed.Content {
		if block.Type == "text" {
			return cleanSVGOutput(block.Text), nil
		}
	}

	return "", errors.New("anthropic returned no text content")
}
