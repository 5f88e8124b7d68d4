package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gxpseeker/guidance-harvester/pkg/config"
	"github.com/gxpseeker/guidance-harvester/pkg/utils"
)

// QwenClient implements Translator against an OpenAI-compatible chat
// completions endpoint that accepts translation_options (Qwen MT models).
type QwenClient struct {
	endpoint   string
	model      string
	apiKey     string
	terms      []Term
	httpClient *http.Client
}

var _ Translator = (*QwenClient)(nil)

// NewQwenClient builds a client from configuration. The API key comes from
// the caller (read from the configured environment variable).
func NewQwenClient(cfg config.TranslatorConfig, apiKey string, terms []Term) *QwenClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if terms == nil {
		terms = DefaultTerms
	}
	return &QwenClient{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   apiKey,
		terms:    terms,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model              string             `json:"model"`
	Messages           []chatMessage      `json:"messages"`
	TranslationOptions translationOptions `json:"translation_options"`
}

type translationOptions struct {
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Terms      []Term `json:"terms,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Translate sends one text to the service and returns the translated string.
func (c *QwenClient) Translate(ctx context.Context, text string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: missing API key", utils.ErrTranslation)
	}

	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: text}},
		TranslationOptions: translationOptions{
			SourceLang: "English",
			TargetLang: "Chinese",
			Terms:      c.terms,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %w", utils.ErrTranslation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: new request: %w", utils.ErrTranslation, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", utils.ErrTranslation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: %s: %s", utils.ErrTranslation, resp.Status, strings.TrimSpace(string(detail)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", utils.ErrTranslation, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices in response", utils.ErrTranslation)
	}
	return parsed.Choices[0].Message.Content, nil
}
