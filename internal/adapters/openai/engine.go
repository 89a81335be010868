// Package openai provides an LLM-backed classification engine as an
// alternative provider. Unlike the artifact engine it calls a remote model
// and is not strictly deterministic; it exists for deployments without a
// trained local artifact.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/core"
	"github.com/mailsift/mailsift/internal/textproc"
)

const promptFormat = `You are a spam detection system. Analyze the following message and decide whether it is spam.
Respond with a JSON object containing:
- is_spam: boolean (true if spam, false if not)
- confidence: number between 0 and 1 (estimated probability of your verdict)

Message:
%s

Respond only with the JSON object and nothing else.`

// Engine implements core.Engine against the OpenAI chat completion API.
type Engine struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	maxBodySize int
	logger      *zap.Logger
}

type verdictResponse struct {
	IsSpam     bool    `json:"is_spam"`
	Confidence float64 `json:"confidence"`
}

// NewEngine creates an OpenAI-backed engine.
func NewEngine(apiKey, modelName string, maxTokens int, temperature, topP float32, maxBodySize int, logger *zap.Logger) *Engine {
	return &Engine{
		client:      openai.NewClient(apiKey),
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		maxBodySize: maxBodySize,
		logger:      logger,
	}
}

// Classify sends the (truncated) text to the model and parses its JSON
// verdict.
func (e *Engine) Classify(ctx context.Context, text string) (core.Label, float64, error) {
	body := text
	if e.maxBodySize > 0 && len(body) > e.maxBodySize {
		body = textproc.TruncateUTF8(body, e.maxBodySize)
		e.logger.Debug("message body truncated for LLM",
			zap.Int("original_size", len(text)),
			zap.Int("max_size", e.maxBodySize))
	}

	req := openai.ChatCompletionRequest{
		Model: e.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a spam detection system. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(promptFormat, body),
			},
		},
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
		TopP:        e.topP,
	}
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: "json"}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", 0, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", 0, fmt.Errorf("empty response from model %s", e.modelName)
	}

	verdict, err := parseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		return "", 0, err
	}

	confidence := verdict.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	if verdict.IsSpam {
		return core.LabelSpam, confidence, nil
	}
	return core.LabelNotSpam, confidence, nil
}

// Name identifies this engine in results and headers.
func (e *Engine) Name() string {
	return "openai:" + e.modelName
}

// parseVerdict decodes the model's JSON reply, tolerating prose around the
// object.
func parseVerdict(text string) (*verdictResponse, error) {
	var v verdictResponse
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return &v, nil
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	return &v, nil
}
