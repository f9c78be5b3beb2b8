package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/fatflowers/genstudio/pkg/apperr"
	"github.com/fatflowers/genstudio/pkg/config"
)

const (
	stabilityName       = "Stability AI"
	defaultStabilityURL = "https://api.stability.ai/v2beta/stable-image/generate/sd3"
	// maxErrorBody bounds how much of a failed response ends up in errors.
	maxErrorBody = 4 << 10
)

// Stability calls the Stability AI stable-image endpoint, which takes a
// multipart form and answers with the image bytes.
type Stability struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewStability(cfg config.ProviderConfig, client *http.Client) *Stability {
	if client == nil {
		client = http.DefaultClient
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultStabilityURL
	}
	return &Stability{client: client, baseURL: baseURL, apiKey: cfg.APIKey, model: cfg.Model}
}

func (s *Stability) Name() string { return stabilityName }

func (s *Stability) GenerateImage(ctx context.Context, req ImageRequest) (*Image, error) {
	if s.apiKey == "" {
		return nil, apperr.MissingCredential("provider.api_key")
	}
	format := req.OutputFormat
	if format == "" {
		format = "png"
	}

	body, contentType, err := stabilityForm(req.Prompt, format, s.model)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, body)
	if err != nil {
		return nil, fmt.Errorf("build stability request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	httpReq.Header.Set("Accept", "image/*")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, &apperr.ProviderError{Provider: stabilityName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &apperr.ProviderError{Provider: stabilityName, StatusCode: resp.StatusCode, Body: string(msg)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.ProviderError{Provider: stabilityName, Err: fmt.Errorf("read image: %w", err)}
	}
	return &Image{Data: data, Format: format, Provider: stabilityName}, nil
}

func stabilityForm(prompt, format, model string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{{"prompt", prompt}, {"output_format", format}}
	if model != "" {
		fields = append(fields, [2]string{"model", model})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", f[0], err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
