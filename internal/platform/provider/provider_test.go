package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/genstudio/pkg/apperr"
	"github.com/fatflowers/genstudio/pkg/config"
)

func TestStability_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "image/*", r.Header.Get("Accept"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "a red fox", r.FormValue("prompt"))
		assert.Equal(t, "png", r.FormValue("output_format"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG"))
	}))
	defer srv.Close()

	s := NewStability(config.ProviderConfig{APIKey: "sk-test", BaseURL: srv.URL}, srv.Client())
	img, err := s.GenerateImage(context.Background(), ImageRequest{Prompt: "a red fox", OutputFormat: "png"})
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), img.Data)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, "Stability AI", img.Provider)
}

func TestStability_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"errors":["insufficient credits"]}`))
	}))
	defer srv.Close()

	s := NewStability(config.ProviderConfig{APIKey: "sk-test", BaseURL: srv.URL}, srv.Client())
	_, err := s.GenerateImage(context.Background(), ImageRequest{Prompt: "a red fox"})
	require.Error(t, err)

	var pe *apperr.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusPaymentRequired, pe.StatusCode)
	assert.Contains(t, pe.Body, "insufficient credits")
	assert.Contains(t, err.Error(), "402")
	assert.False(t, pe.Retryable())
}

func TestStability_MissingKeyMakesNoCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	s := NewStability(config.ProviderConfig{BaseURL: srv.URL}, srv.Client())
	_, err := s.GenerateImage(context.Background(), ImageRequest{Prompt: "x"})
	assert.True(t, apperr.IsKind(err, apperr.KindMissingCredential))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestStability_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	s := NewStability(config.ProviderConfig{APIKey: "k", BaseURL: url}, nil)
	_, err := s.GenerateImage(context.Background(), ImageRequest{Prompt: "x"})
	var pe *apperr.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.True(t, pe.Unavailable())
}

type fakeCreator struct {
	resp openai.ImageResponse
	err  error
	req  openai.ImageRequest
}

func (f *fakeCreator) CreateImage(_ context.Context, req openai.ImageRequest) (openai.ImageResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestOpenAI_DecodesBase64(t *testing.T) {
	fake := &fakeCreator{resp: openai.ImageResponse{Data: []openai.ImageResponseDataInner{
		{B64JSON: base64.StdEncoding.EncodeToString([]byte("img-bytes"))},
	}}}
	o := &OpenAI{client: fake, apiKey: "k", model: openai.CreateImageModelDallE3}

	img, err := o.GenerateImage(context.Background(), ImageRequest{Prompt: "a red fox"})
	require.NoError(t, err)
	assert.Equal(t, []byte("img-bytes"), img.Data)
	assert.Equal(t, openai.CreateImageResponseFormatB64JSON, fake.req.ResponseFormat)
	assert.Equal(t, "a red fox", fake.req.Prompt)
}

func TestOpenAI_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "api error", err: &openai.APIError{HTTPStatusCode: 429, Message: "rate limited"}, wantStatus: 429},
		{name: "request error", err: &openai.RequestError{HTTPStatusCode: 503, Err: errors.New("bad gateway")}, wantStatus: 503},
		{name: "transport", err: errors.New("dial tcp: refused"), wantStatus: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &OpenAI{client: &fakeCreator{err: tt.err}, apiKey: "k"}
			_, err := o.GenerateImage(context.Background(), ImageRequest{Prompt: "x"})
			var pe *apperr.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.wantStatus, pe.StatusCode)
		})
	}
}

func TestOpenAI_MissingKey(t *testing.T) {
	o := NewOpenAI(config.ProviderConfig{})
	_, err := o.GenerateImage(context.Background(), ImageRequest{Prompt: "x"})
	assert.True(t, apperr.IsKind(err, apperr.KindMissingCredential))
}

type scriptedProvider struct {
	errs  []error
	calls int
	block bool
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) GenerateImage(ctx context.Context, _ ImageRequest) (*Image, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return nil, &apperr.ProviderError{Provider: "scripted", Err: ctx.Err()}
	}
	if len(s.errs) >= s.calls && s.errs[s.calls-1] != nil {
		return nil, s.errs[s.calls-1]
	}
	return &Image{Data: []byte("ok")}, nil
}

func newTestRetrying(p ImageProvider, timeout time.Duration, attempts int) *Retrying {
	r := NewRetrying(p, timeout, attempts, zap.NewNop().Sugar())
	r.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return r
}

func TestRetrying(t *testing.T) {
	unavailable := &apperr.ProviderError{Provider: "scripted", Err: errors.New("reset")}
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{name: "first try", wantCalls: 1},
		{name: "retries 5xx then succeeds", errs: []error{&apperr.ProviderError{StatusCode: 503}, unavailable}, wantCalls: 3},
		{name: "retries 429", errs: []error{&apperr.ProviderError{StatusCode: 429}}, wantCalls: 2},
		{name: "gives up after max attempts", errs: []error{unavailable, unavailable, unavailable, unavailable}, wantCalls: 3, wantErr: true},
		{name: "4xx is final", errs: []error{&apperr.ProviderError{StatusCode: 402}}, wantCalls: 1, wantErr: true},
		{name: "missing credential is final", errs: []error{apperr.MissingCredential("provider.api_key")}, wantCalls: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &scriptedProvider{errs: tt.errs}
			img, err := newTestRetrying(p, time.Second, 3).GenerateImage(context.Background(), ImageRequest{Prompt: "x"})
			assert.Equal(t, tt.wantCalls, p.calls)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, img)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []byte("ok"), img.Data)
		})
	}
}

func TestRetrying_TimeoutIsProviderUnavailable(t *testing.T) {
	p := &scriptedProvider{block: true}
	_, err := newTestRetrying(p, 20*time.Millisecond, 3).GenerateImage(context.Background(), ImageRequest{Prompt: "x"})

	var pe *apperr.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.True(t, pe.Unavailable())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, p.calls)
}
