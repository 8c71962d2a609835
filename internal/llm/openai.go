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
	openAIBaseURL    = "https://api.openai.com/v1"
	openAIChatModel  = "gpt-5"
	openAIImageModel = "dall-e-3"
)

type openAI struct {
	key     string
	baseURL string
	client  *http.Client
}

func newOpenAI(cfg Config) (Provider, error) {
	if cfg.OpenAIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}

	base := cfg.OpenAIBaseURL
	if base == "" {
		base = openAIBaseURL
	}

	return &openAI{key: cfg.OpenAIKey, baseURL: base, client: cfg.client()}, nil
}

func (o *openAI) Name() string {
	return "gpt-5"
}

type openAIContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

type openAIChatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string              `json:"role"`
		Content []openAIContentPart `json:"content"`
	} `json:"messages"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (o *openAI) GenerateCoverSVG(ctx context.Context, book *types.Book, coverImagePath string) (string, error) {
	return o.chatSVG(ctx, formatPrompt(promptCoverSVG, book, ""), coverImagePath)
}

func (o *openAI) GenerateBannerSVG(ctx context.Context, book *types.Book, coverImagePath, coverSVG string) (string, error) {
	return o.chatSVG(ctx, formatPrompt(promptBannerSVG, book, coverSVG), coverImagePath)
}

func (o *openAI) GenerateCoverSVGDirect(ctx context.Context, book *types.Book) (string, error) {
	return o.chatSVG(ctx, formatPrompt(promptCoverSVGDirect, book, ""), "")
}

func (o *openAI) GenerateBannerSVGDirect(ctx context.Context, book *types.Book, coverSVG string) (string, error) {
	return o.chatSVG(ctx, formatPrompt(promptBannerSVGDirect, book, coverSVG), "")
}

func (o *openAI) chatSVG(ctx context.Context, prompt, coverImagePath string) (string, error) {
	parts := []openAIContentPart{{Type: "text", Text: prompt}}

	if coverImagePath != "" {
		data, mediaType, err := encodeImageFile(coverImagePath)
		if err != nil {
			return "", err
		}

		part := openAIContentPart{Type: "image_url"}
		part.ImageURL = &struct {
			URL string `json:"url"`
		}{URL: "data:" + mediaType + ";base64," + data}
		parts = append(parts, part)
	}

	var reqBody openAIChatRequest
	reqBody.Model = openAIChatModel
	reqBody.Messages = []struct {
		Role    string              `json:"role"`
		Content []openAIContentPart `json:"content"`
	}{{Role: "user", Content: parts}}

	var res openAIChatResponse
	if err := o.post(ctx, "/chat/completions", reqBody, &res); err != nil {
		return "", err
	}

	if res.Error != nil {
		return "", fmt.Errorf("openai: %s", res.Error.Message)
	}
	if len(res.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}

	return cleanSVGOutput(res.Choices[0].Message.Content), nil
}

func (o *openAI) GenerateCoverImage(ctx context.Context, book *types.Book) (string, error) {
	reqBody := map[string]any{
		"model":  openAIImageModel,
		"prompt": formatPrompt(promptCoverImage, book, ""),
		"n":      1,
		"size":   "1024x1792",
	}

	var res struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := o.post(ctx, "/images/generations", reqBody, &res); err != nil {
		return "", err
	}

	if res.Error != nil {
		return "", fmt.Errorf("openai: %s", res.Error.Message)
	}
	if len(res.Data) == 0 {
		return "", errors.New("openai returned no generated image")
	}

	return res.Data[0].URL, nil
}

func (o *openAI) post(ctx context.Context, path string, body, out any) error {
	bs, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshalling openai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(bs))
	if err != nil {
		return fmt.Errorf("building openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.key)

	res, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling openai: %w", err)
	}
	defer res.Body.Close()

	rs, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("reading openai response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("openai responded %s: %s", res.Status, truncate(string(rs), 200))
	}

	if err := json.Unmarshal(rs, out); err != nil {
		return fmt.Errorf("decoding openai response: %w", err)
	}

	return nil
}
