package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
)

// CompletionModel is the chat model used to generate answers.
const CompletionModel = openai.ChatModelGPT4oMini

// ErrGeneration marks failures from the completion API.
var ErrGeneration = errors.New("generation service error")

// Generator produces chat completions from a system instruction and a user
// message.
type Generator struct {
	client *openai.Client
}

// NewGenerator creates a Generator with the given OpenAI client.
func NewGenerator(client *openai.Client) *Generator {
	return &Generator{client: client}
}

// Complete sends the system and user messages to the chat model and returns
// the response text verbatim.
func (g *Generator) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model: CompletionModel,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: completion returned no choices", ErrGeneration)
	}

	return resp.Choices[0].Message.Content, nil
}
