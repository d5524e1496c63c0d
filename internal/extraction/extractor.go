package extraction

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"docqa/internal/logger"
)

// Prompt asks the model for the invoice fields.
const Prompt = `Extract the invoice recipient name and invoice total.
Return only JSON that matches the provided schema.
Bounding boxes are [y_min, x_min, y_max, x_max] on a 0-1000 grid measured from the top-left corner of the page.
If a field is missing, set it to null (and bounding box to [0, 0, 0, 0]).`

// Config configures the extraction model client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// Extractor uploads a PDF and asks a multimodal chat model for the invoice fields.
type Extractor struct {
	api   openai.Client
	model string
}

// NewExtractor creates an extractor reading its API key from cfg.APIKeyEnv.
func NewExtractor(cfg Config) (*Extractor, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 180 * time.Second
	}
	return &Extractor{
		api: openai.NewClient(
			option.WithAPIKey(key),
			option.WithBaseURL(cfg.BaseURL),
			option.WithRequestTimeout(cfg.Timeout),
		),
		model: cfg.Model,
	}, nil
}

// Extract returns the schema-validated invoice fields of the PDF at path.
// The uploaded file is deleted afterwards.
func (e *Extractor) Extract(ctx context.Context, path string) (*Invoice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	uploaded, err := e.api.Files.New(ctx, openai.FileNewParams{
		File:    openai.File(f, filepath.Base(path), "application/pdf"),
		Purpose: openai.FilePurposeUserData,
	})
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", path, err)
	}
	logger.Debug("uploaded %s as %s", path, uploaded.ID)
	defer func() {
		if _, err := e.api.Files.Delete(context.WithoutCancel(ctx), uploaded.ID); err != nil {
			logger.Warn("deleting uploaded file %s: %v", uploaded.ID, err)
		}
	}()

	resp, err := e.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
					FileID: openai.String(uploaded.ID),
				}),
				openai.TextContentPart(Prompt),
			}),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "invoice",
					Schema: Schema(),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("extraction returned no choices")
	}
	content := resp.Choices[0].Message.Content
	logger.Debug("extraction response: %s", content)
	return Decode([]byte(content))
}
