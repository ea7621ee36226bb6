// Package openaicompat reaches any OpenAI-compatible chat endpoint through
// the official SDK.
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/forPelevin/hlsync/internal/ports"
	"github.com/forPelevin/hlsync/internal/ports/adapters/endpoint"
	"github.com/forPelevin/hlsync/internal/ports/adapters/llmjson"
	"github.com/forPelevin/hlsync/internal/types"
)

const (
	requestTimeout = 90 * time.Second
	defaultModel   = "gpt-4o-mini"
	DefaultBaseURL = "https://api.openai.com/v1"
)

// DefaultHosts are accepted when OPENAI_ALLOWED_HOSTS is unset.
var DefaultHosts = []string{"api.openai.com"}

func ValidateBaseURL(baseURL string, allowedHosts []string) error {
	return endpoint.Validate("OPENAI_BASE_URL", endpoint.Normalize(baseURL, DefaultBaseURL), DefaultHosts, allowedHosts)
}

type Adapter struct {
	model  string
	ready  bool
	client openai.Client
}

func New(apiKey, model, baseURL string, opts ...option.RequestOption) *Adapter {
	if model == "" {
		model = defaultModel
	}
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(endpoint.Normalize(baseURL, DefaultBaseURL) + "/"),
	}
	clientOpts = append(clientOpts, opts...)
	return &Adapter{
		model:  model,
		ready:  strings.TrimSpace(apiKey) != "",
		client: openai.NewClient(clientOpts...),
	}
}

func (a *Adapter) GenerateClips(ctx context.Context, req types.HighlightRequest) ([]any, error) {
	if !a.ready {
		return nil, ports.ErrNoCollaborator
	}
	content, err := a.complete(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(req.System),
		openai.UserMessage(contentParts(req.Frames, req.Instructions+"\nWrap the array as {\"clips\": [...]}.")),
	})
	if err != nil {
		return nil, err
	}
	return llmjson.Candidates(content, "clips")
}

func (a *Adapter) GenerateCaptions(ctx context.Context, req types.CaptionRequest) ([]any, error) {
	if !a.ready {
		return nil, ports.ErrNoCollaborator
	}
	content, err := a.complete(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage(contentParts(req.Frames, req.Instructions+"\nWrap the array as {\"captions\": [...]}.")),
	})
	if err != nil {
		return nil, err
	}
	return llmjson.Candidates(content, "captions")
}

func (a *Adapter) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(a.model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{Type: "json_object"},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion (model=%s): %w", a.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("openai: empty content")
	}
	return content, nil
}

func contentParts(frames []types.AnalyzedFrame, instructions string) []openai.ChatCompletionContentPartUnionParam {
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, 2*len(frames)+1)
	for i, f := range frames {
		parts = append(parts,
			openai.TextContentPart(fmt.Sprintf("Frame %d at timestamp %.1fs:", i+1, f.Time)),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: "data:image/jpeg;base64," + f.Image,
			}),
		)
	}
	return append(parts, openai.TextContentPart(instructions))
}
