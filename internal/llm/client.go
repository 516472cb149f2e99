// Package llm wraps eino chat models with the three completion shapes the
// assistant needs: plain text, JSON decoded into a Go value, and a
// one-message screenshot description.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

var (
	// ErrUpstream wraps failures returned by the model API itself.
	ErrUpstream = errors.New("llm: upstream request failed")
	// ErrNoResponse is returned when the model produced no message.
	ErrNoResponse = errors.New("no response from LLM")
	// ErrParseResponse is returned when the model's text is not valid JSON
	// for the requested shape. The raw text is logged, not returned.
	ErrParseResponse = errors.New("failed to parse LLM response JSON")
)

// Generator is the subset of an eino chat model the client needs.
// Every eino-ext chat model satisfies it.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// ImageSource turns an image URL into base64 JPEG bytes.
type ImageSource interface {
	FetchBase64(ctx context.Context, url string) (string, error)
}

// Config wires the models behind a Client.
type Config struct {
	// Model serves plain completions.
	Model Generator
	// JSONModel serves completions that requested JSON output. When nil,
	// Model is used and the prompt alone carries the format instruction.
	JSONModel Generator
	// Vision describes images. Required only for ImageToText.
	Vision Generator
	// Images downloads and shrinks screenshots. Required only for ImageToText.
	Images ImageSource
	// Logger receives parse-failure diagnostics. Defaults to slog.Default.
	Logger *slog.Logger
}

// Client issues single-turn completions. It holds no per-request state and
// is safe for concurrent use.
type Client struct {
	model     Generator
	jsonModel Generator
	vision    Generator
	images    ImageSource
	log       *slog.Logger
}

// New constructs a Client. cfg.Model is required.
func New(cfg Config) (*Client, error) {
	if cfg.Model == nil {
		return nil, errors.New("llm: model is required")
	}
	c := &Client{
		model:     cfg.Model,
		jsonModel: cfg.JSONModel,
		vision:    cfg.Vision,
		images:    cfg.Images,
		log:       cfg.Logger,
	}
	if c.jsonModel == nil {
		c.jsonModel = c.model
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c, nil
}

// ResponseFormat selects the output shape requested from the model.
type ResponseFormat int

const (
	// FormatText requests free text.
	FormatText ResponseFormat = iota
	// FormatJSON requests a JSON object.
	FormatJSON
)

type callOptions struct {
	roleContext string
	temperature *float32
	format      ResponseFormat
}

// Option customises a single completion call.
type Option func(*callOptions)

// WithRoleContext prepends a system message.
func WithRoleContext(s string) Option {
	return func(o *callOptions) { o.roleContext = s }
}

// WithTemperature overrides the sampling temperature. Zero leaves the
// model default in place.
func WithTemperature(t float32) Option {
	return func(o *callOptions) {
		if t != 0 {
			o.temperature = &t
		}
	}
}

// WithResponseFormat requests text or JSON output.
func WithResponseFormat(f ResponseFormat) Option {
	return func(o *callOptions) { o.format = f }
}

// ChatCompletion sends an optional system message followed by content as a
// single user message and returns the model's text.
func (c *Client) ChatCompletion(ctx context.Context, content string, opts ...Option) (string, error) {
	var co callOptions
	for _, o := range opts {
		o(&co)
	}

	msgs := make([]*schema.Message, 0, 2)
	if co.roleContext != "" {
		msgs = append(msgs, schema.SystemMessage(co.roleContext))
	}
	msgs = append(msgs, schema.UserMessage(content))

	gen := c.model
	if co.format == FormatJSON {
		gen = c.jsonModel
	}
	return generate(ctx, gen, msgs, co.temperature)
}

// ChatCompletionAsObject requests JSON output and decodes it into v.
// A model failure wraps ErrUpstream or ErrNoResponse; text that does not
// decode into v is logged and reported as ErrParseResponse.
func (c *Client) ChatCompletionAsObject(ctx context.Context, content string, v any, opts ...Option) error {
	opts = append(opts, WithResponseFormat(FormatJSON))
	raw, err := c.ChatCompletion(ctx, content, opts...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), v); err != nil {
		c.log.Error("llm: failed to parse LLM response JSON",
			slog.String("raw", raw),
			slog.String("error", err.Error()),
		)
		return ErrParseResponse
	}
	return nil
}

// AsObject is the generic form of ChatCompletionAsObject.
func AsObject[T any](ctx context.Context, c *Client, content string, opts ...Option) (T, error) {
	var out T
	err := c.ChatCompletionAsObject(ctx, content, &out, opts...)
	return out, err
}

// ImageToText downloads imageURL, shrinks it and asks the vision model to
// describe it following instruction.
func (c *Client) ImageToText(ctx context.Context, imageURL, instruction string) (string, error) {
	if c.vision == nil || c.images == nil {
		return "", errors.New("llm: vision model is not configured")
	}
	b64, err := c.images.FetchBase64(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("llm: prepare image: %w", err)
	}

	msg := &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: instruction},
			{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL: "data:image/jpeg;base64," + b64,
				},
			},
		},
	}
	return generate(ctx, c.vision, []*schema.Message{msg}, nil)
}

func generate(ctx context.Context, gen Generator, msgs []*schema.Message, temperature *float32) (string, error) {
	var mopts []model.Option
	if temperature != nil {
		mopts = append(mopts, model.WithTemperature(*temperature))
	}
	resp, err := gen.Generate(ctx, msgs, mopts...)
	if err != nil {
		if isEmptyChoices(err) {
			return "", fmt.Errorf("%w: %w", ErrNoResponse, err)
		}
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if resp == nil {
		return "", ErrNoResponse
	}
	return resp.Content, nil
}

// emptyChoicesMsg is the error text eino-ext's OpenAI-compatible adapters
// return for a completion with zero choices. They export no sentinel.
const emptyChoicesMsg = "received empty choices"

func isEmptyChoices(err error) bool {
	return strings.Contains(err.Error(), emptyChoicesMsg)
}

// stripCodeFence removes a surrounding ```json fence some models add even
// when asked for bare JSON.
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimPrefix(t, "json")
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
