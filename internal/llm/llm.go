package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/pavelanni/scaffold/internal/llm/prompts"
	"github.com/pavelanni/scaffold/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Client wraps an OpenAI-compatible vision API used to read study notes.
type Client struct {
	api     *openai.Client
	model   string
	variant prompts.Variant
	subject string
}

// New creates a new extraction client. lang selects the prompt language and
// falls back to English.
func New(baseURL, apiKey, modelName, lang string) (*Client, error) {
	if err := prompts.Load(prompts.FS); err != nil {
		return nil, err
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	variant := prompts.VariantEnglish
	if prompts.IsValidVariant(lang) {
		variant = prompts.Variant(lang)
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   modelName,
		variant: variant,
	}, nil
}

// SetSubject sets the subject hint included in every extraction prompt.
func (c *Client) SetSubject(subject string) {
	c.subject = subject
}

// Ping checks that the API is reachable and the model is listed.
func (c *Client) Ping(ctx context.Context) error {
	models, err := c.api.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	for _, m := range models.Models {
		if m.ID == c.model {
			return nil
		}
	}
	slog.Warn("model not listed by API", "model", c.model, "available", len(models.Models))
	return nil
}

// Extract reads the text of an image and picks the keywords to blank out.
// defaultTitle is used when the model returns no title.
func (c *Client) Extract(ctx context.Context, raw []byte, crop *model.Crop, defaultTitle string) (model.Payload, error) {
	img, err := PrepareImage(raw, crop)
	if err != nil {
		return model.Payload{}, err
	}

	prompt, err := prompts.BuildOCRPrompt(c.variant, prompts.OCRData{
		Subject: c.subject,
		Cropped: crop != nil,
	})
	if err != nil {
		return model.Payload{}, fmt.Errorf("build prompt: %w", err)
	}

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(img)
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL,
						Detail: openai.ImageURLDetailHigh,
					}},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		return model.Payload{}, fmt.Errorf("LLM extraction call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.Payload{}, fmt.Errorf("LLM returned no choices for extraction")
	}

	raw = []byte(resp.Choices[0].Message.Content)
	slog.Debug("LLM extraction response", "bytes", len(raw))

	p, err := ParsePayload(raw, defaultTitle)
	if err != nil {
		return model.Payload{}, err
	}
	slog.Info("extracted study text",
		"title", p.Title,
		"pages", len(p.Pages),
		"keywords", len(p.Blanks))
	return p, nil
}
