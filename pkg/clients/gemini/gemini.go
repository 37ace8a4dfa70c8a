package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const transcribePrompt = `Transcribe every piece of text visible in this document exactly as written, line by line,
in reading order. The document is most likely written in %s. Do not translate, summarize or
correct anything and do not add commentary or markdown.`

// Client transcribes receipt photos with a Gemini vision model.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewClient creates a Gemini OCR client.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	return &Client{client: client, model: model}, nil
}

// Recognize returns the raw text found in the image.
func (c *Client) Recognize(ctx context.Context, image []byte, contentType, language string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("empty image")
	}

	resp, err := c.model.GenerateContent(ctx,
		genai.ImageData(imageFormat(contentType), image),
		genai.Text(fmt.Sprintf(transcribePrompt, language)),
	)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	return strings.TrimSpace(text.String()), nil
}

// Close closes the Gemini client.
func (c *Client) Close() error {
	return c.client.Close()
}

// imageFormat maps a MIME type to the format suffix genai.ImageData expects.
func imageFormat(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" {
		return "jpeg"
	}
	if idx := strings.Index(mimeType, "/"); idx >= 0 {
		mimeType = mimeType[idx+1:]
	}
	if mimeType == "jpg" {
		return "jpeg"
	}
	return mimeType
}
