package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voltastudio/volta-backend/internal/clients/gcp"
	"github.com/voltastudio/volta-backend/internal/platform/envutil"
	"github.com/voltastudio/volta-backend/internal/platform/httpx"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
	"github.com/voltastudio/volta-backend/internal/services"
)

// Client calls an OpenAI-compatible generation API and lands the produced
// bytes in the object store, returning storage keys rather than raw bytes.
// It implements services.GenerationProvider.
type Client struct {
	log        *logger.Logger
	httpClient *http.Client
	bucket     gcp.BucketService

	baseURL    string
	apiKey     string
	imageModel string
	videoModel string
	textModel  string
	maxRetries int
}

func NewClient(baseLog *logger.Logger, bucket gcp.BucketService) (*Client, error) {
	apiKey := envutil.String("GENAI_API_KEY", "")
	if apiKey == "" {
		return nil, fmt.Errorf("GENAI_API_KEY is not set")
	}
	return &Client{
		log:        baseLog.With("client", "genai"),
		httpClient: &http.Client{Timeout: envutil.DurationSeconds("GENAI_HTTP_TIMEOUT_SECONDS", 600)},
		bucket:     bucket,
		baseURL:    strings.TrimRight(envutil.String("GENAI_BASE_URL", "https://api.openai.com"), "/"),
		apiKey:     apiKey,
		imageModel: envutil.String("GENAI_IMAGE_MODEL", "gpt-image-1"),
		videoModel: envutil.String("GENAI_VIDEO_MODEL", "sora-2"),
		textModel:  envutil.String("GENAI_TEXT_MODEL", "gpt-4.1-mini"),
		maxRetries: envutil.Int("GENAI_MAX_RETRIES", 3),
	}, nil
}

var _ services.GenerationProvider = (*Client)(nil)

func (c *Client) Generate(ctx context.Context, req services.GenerationRequest) (*services.GenerationOutput, error) {
	switch req.AssetType {
	case "video":
		return c.generateVideo(ctx, req)
	case "3d":
		return nil, fmt.Errorf("genai: 3d generation requires a dedicated backend")
	default:
		return c.generateImage(ctx, req)
	}
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size,omitempty"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
}

func (c *Client) generateImage(ctx context.Context, req services.GenerationRequest) (*services.GenerationOutput, error) {
	body := imageRequest{
		Model:  c.imageModel,
		Prompt: req.Prompt,
		N:      1,
		Size:   imageSize(req.Width, req.Height),
	}

	var resp imageResponse
	if err := c.do(ctx, http.MethodPost, "/v1/images/generations", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("genai: empty image response")
	}

	d := resp.Data[0]
	if d.B64JSON == "" {
		if d.URL != "" {
			return &services.GenerationOutput{URL: d.URL, Width: req.Width, Height: req.Height, MimeType: "image/png"}, nil
		}
		return nil, fmt.Errorf("genai: image response carried no content")
	}

	raw, err := base64.StdEncoding.DecodeString(d.B64JSON)
	if err != nil {
		return nil, fmt.Errorf("genai: decode image payload: %w", err)
	}

	key := fmt.Sprintf("assets/%s.png", uuid.New().String())
	if c.bucket != nil {
		if err := c.bucket.UploadFile(ctx, key, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("genai: store generated image: %w", err)
		}
	}

	return &services.GenerationOutput{
		StorageKey: key,
		Width:      req.Width,
		Height:     req.Height,
		FileSize:   int64(len(raw)),
		MimeType:   "image/png",
	}, nil
}

type videoRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size,omitempty"`
	Seconds int    `json:"seconds,omitempty"`
}

type videoResponse struct {
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
}

func (c *Client) generateVideo(ctx context.Context, req services.GenerationRequest) (*services.GenerationOutput, error) {
	body := videoRequest{
		Model:  c.videoModel,
		Prompt: req.Prompt,
		Size:   imageSize(req.Width, req.Height),
	}
	var resp videoResponse
	if err := c.do(ctx, http.MethodPost, "/v1/videos/generations", body, &resp); err != nil {
		return nil, err
	}
	if resp.URL == "" {
		return nil, fmt.Errorf("genai: video response carried no content")
	}
	return &services.GenerationOutput{
		URL:      resp.URL,
		Width:    req.Width,
		Height:   req.Height,
		Duration: resp.Duration,
		MimeType: "video/mp4",
	}, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const enhanceSystemPrompt = "Rewrite the user's prompt into a rich, specific prompt for a visual generation model. Keep the subject and intent; add composition, lighting, and material detail. Reply with the rewritten prompt only."

func (c *Client) EnhancePrompt(ctx context.Context, prompt string) (string, error) {
	body := chatRequest{
		Model: c.textModel,
		Messages: []chatMessage{
			{Role: "system", Content: enhanceSystemPrompt},
			{Role: "user", Content: prompt},
		},
	}
	var resp chatResponse
	if err := c.do(ctx, http.MethodPost, "/v1/chat/completions", body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("genai: empty completion response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("genai: http %d: %s", e.StatusCode, e.Body)
}

func (e *apiError) HTTPStatusCode() int { return e.StatusCode }

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := time.Second

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("genai: decode response: %w", uErr)
			}
			return nil
		}

		if attempt >= c.maxRetries || !httpx.IsRetryableError(err) {
			return err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("genai request retrying", "path", path, "attempt", attempt+1, "sleep", sleepFor.String(), "error", err)
		time.Sleep(sleepFor)
		backoff *= 2
	}
}

func (c *Client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &apiError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func imageSize(w, h int) string {
	if w <= 0 || h <= 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", w, h)
}
