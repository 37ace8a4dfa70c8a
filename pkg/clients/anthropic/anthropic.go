package anthropic

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	defaultModel   = "claude-3-haiku-20240307"
	maxTokens      = 2048
)

var languageNames = map[string]string{
	"spa": "Spanish",
	"eng": "English",
	"por": "Portuguese",
}

// Client transcribes receipt photos through the Anthropic Messages API.
type Client struct {
	httpClient *resty.Client
	model      string
}

// NewClient creates a configured Anthropic client. An empty model selects the default.
func NewClient(apiKey, model string) *Client {
	return newClient(defaultBaseURL, apiKey, model)
}

func newClient(baseURL, apiKey, model string) *Client {
	if model == "" {
		model = defaultModel
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(30 * time.Second)

	return &Client{httpClient: client, model: model}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Recognize returns the raw text printed or handwritten on the photographed document.
// The model is asked to transcribe, not to interpret: field extraction happens downstream.
func (c *Client) Recognize(ctx context.Context, image []byte, contentType, language string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("empty image")
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	reqBody := messageRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    systemPrompt(language),
		Messages: []message{{
			Role: "user",
			Content: []contentBlock{
				{
					Type: "image",
					Source: &imageSource{
						Type:      "base64",
						MediaType: contentType,
						Data:      base64.StdEncoding.EncodeToString(image),
					},
				},
				{Type: "text", Text: "Transcribe this document."},
			},
		}},
	}

	var respBody messageResponse
	var errBody apiError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		SetError(&errBody).
		Post("/v1/messages")
	if err != nil {
		return "", fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		if errBody.Error.Message != "" {
			return "", fmt.Errorf("anthropic api error: status=%d, message=%s", resp.StatusCode(), errBody.Error.Message)
		}
		return "", fmt.Errorf("anthropic api error: %s", resp.String())
	}

	var text strings.Builder
	for _, block := range respBody.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return strings.TrimSpace(text.String()), nil
}

func systemPrompt(language string) string {
	name, ok := languageNames[strings.ToLower(language)]
	if !ok {
		name = language
	}
	return fmt.Sprintf(`You are an OCR engine. Output every piece of text visible in the image exactly as written,
line by line, in reading order. The document is most likely written in %s.
Do not translate, summarize, correct or format the text. Do not add commentary.
If no text is visible, output nothing.`, name)
}
