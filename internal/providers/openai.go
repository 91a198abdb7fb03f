package providers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/openai/openai-go/v3/shared"
)

const (
	OpenAIName         = "openai"
	openAIDefaultModel = "gpt-4o-mini"
)

// OpenAIConfig holds configuration for the OpenAI streaming client.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string        // Optional: any OpenAI-compatible endpoint (e.g. OpenRouter)
	Timeout    time.Duration // HTTP timeout, bounds the whole stream
	HTTPClient *http.Client  // Optional (tests)
}

// OpenAIClient implements StreamingClient using the official OpenAI SDK.
// With BaseURL set it talks to any OpenAI-compatible provider.
type OpenAIClient struct {
	apiKey string
	model  string
	client openai.Client
}

// NewOpenAIClient creates a new OpenAI streaming client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		// The pipeline owns failure handling; a failed call is resubmitted
		// by the user, never replayed by the transport.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		client: openai.NewClient(opts...),
	}
}

// Name returns the client identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// HasCredential reports whether an API key is configured.
func (c *OpenAIClient) HasCredential() bool {
	return c.apiKey != ""
}

// StreamChat opens a streaming chat completion constrained to the request
// schema.
func (c *OpenAIClient) StreamChat(ctx context.Context, req *ChatRequest) (*ChatStream, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: messages,
	}

	if req.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.SchemaName,
					Schema: req.Schema,
					Strict: openai.Bool(true),
				},
			},
		}
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		return nil, err
	}
	return &ChatStream{src: &openaiSource{stream: stream}}, nil
}

type openaiSource struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
}

func (o *openaiSource) next() (string, error) {
	for o.stream.Next() {
		chunk := o.stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			return delta, nil
		}
	}
	if err := o.stream.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (o *openaiSource) close() error {
	return o.stream.Close()
}

// IsAuthError reports whether err is a credential failure from the
// provider (HTTP 401/403).
func IsAuthError(err error) bool {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return apierr.StatusCode == http.StatusUnauthorized || apierr.StatusCode == http.StatusForbidden
	}
	return false
}
