package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/fatflowers/genstudio/pkg/apperr"
	"github.com/fatflowers/genstudio/pkg/config"
)

const openAIName = "OpenAI"

type imageCreator interface {
	CreateImage(ctx context.Context, request openai.ImageRequest) (openai.ImageResponse, error)
}

// OpenAI generates images through the Images API and asks for base64 output
// so the bytes can go through the same artifact store as other providers.
type OpenAI struct {
	client imageCreator
	apiKey string
	model  string
}

func NewOpenAI(cfg config.ProviderConfig) *OpenAI {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.CreateImageModelDallE3
	}
	return &OpenAI{client: openai.NewClientWithConfig(oc), apiKey: cfg.APIKey, model: model}
}

func (o *OpenAI) Name() string { return openAIName }

func (o *OpenAI) GenerateImage(ctx context.Context, req ImageRequest) (*Image, error) {
	if o.apiKey == "" {
		return nil, apperr.MissingCredential("provider.api_key")
	}
	resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         req.Prompt,
		Model:          o.model,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, openAIError(err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, &apperr.ProviderError{Provider: openAIName, StatusCode: 200, Body: "empty image payload"}
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, &apperr.ProviderError{Provider: openAIName, StatusCode: 200, Body: fmt.Sprintf("invalid image payload: %v", err)}
	}
	return &Image{Data: data, Format: "png", Provider: openAIName}, nil
}

func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &apperr.ProviderError{Provider: openAIName, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		body := ""
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &apperr.ProviderError{Provider: openAIName, StatusCode: reqErr.HTTPStatusCode, Body: body, Err: err}
	}
	return &apperr.ProviderError{Provider: openAIName, Err: err}
}
