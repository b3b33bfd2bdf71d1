package gemini

import (
	"context"
	"strings"
	"time"

	"google.golang.org/genai"

	"blugr/internal/config"
	"blugr/internal/services"
)

const summaryPrompt = `You are given the transcript of a video.
Read the transcript and summarize its contents as a blog post.
Focus on key points and main ideas. Use clear, professional language.
RELY HEAVILY ON THE TRANSCRIPT FOR THE CONTENT.
The body should contain at least 3 to 4 subheadings and 3 to 4 corresponding paragraphs.
Each paragraph should be between 100 and 200 words.
Refrain from using "Transcript", "Summary", "Youtube", "Video" or "Speaker" anywhere in the output.
Your output must be a JSON object with:
    1. title (title of the blog, maximum 10 words)
    2. blog_desc (overall description of the blog content, maximum 69 words)
    3. body (list of objects, each with "h2" (descriptive subheading, maximum 10 words) and "p" (paragraph, maximum 150 words))

Transcript:
---
%TRANSCRIPT%
---`

// Client generates structured article summaries through the Gemini API.
type Client struct {
	apiKey  string
	model   string
	timeout time.Duration

	// generate is swappable for tests.
	generate func(ctx context.Context, prompt string) (string, error)
}

// New creates a summarizer client from configuration.
func New(cfg *config.Config) *Client {
	c := &Client{
		apiKey:  cfg.Gemini.APIKey,
		model:   cfg.Gemini.Model,
		timeout: time.Duration(cfg.Gemini.TimeoutSeconds) * time.Second,
	}
	c.generate = c.callModel
	return c
}

// WithGenerator sets a custom generation function (for testing).
func (c *Client) WithGenerator(generate func(ctx context.Context, prompt string) (string, error)) {
	c.generate = generate
}

// Model returns the configured model name for logging.
func (c *Client) Model() string {
	return c.model
}

// GenerateSummary asks the model for a structured article summary of the
// transcript. The raw JSON bytes are returned for the caller to decode and
// validate; a syntactically broken response is the caller's signal to retry
// or fall back.
func (c *Client) GenerateSummary(ctx context.Context, transcriptText string) ([]byte, error) {
	if strings.TrimSpace(transcriptText) == "" {
		return nil, services.Wrap(services.ErrInvalidInput, "summarize", "generate", "empty transcript", nil)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	prompt := strings.Replace(summaryPrompt, "%TRANSCRIPT%", transcriptText, 1)
	text, err := c.generate(ctx, prompt)
	if err != nil {
		if isRateLimited(err) {
			return nil, services.Wrap(services.ErrResourceExhausted, "summarize", "generate", "model quota exhausted", err)
		}
		return nil, services.Wrap(services.ErrTransient, "summarize", "generate", "model request failed", err)
	}
	return []byte(stripCodeFence(text)), nil
}

func (c *Client) callModel(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", err
	}

	generateCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	result, err := client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), generateCfg)
	if err != nil {
		return "", err
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", services.Wrap(services.ErrTransient, "summarize", "generate", "empty model response", nil)
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	return text.String(), nil
}

func isRateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

// stripCodeFence removes a markdown code fence if the model wrapped its JSON
// in one despite the response MIME type.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
