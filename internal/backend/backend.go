package backend

import (
	"context"
	"errors"
	"fmt"

	"LoopChat/internal/config"
	"LoopChat/internal/llm"
)

// ErrUnknownProvider is returned by New for provider names the CLI does not know
var ErrUnknownProvider = errors.New("unknown provider")

// Backend sends one user turn and returns the reply text
type Backend interface {
	Name() string
	Send(ctx context.Context, text string) (string, error)
}

// Mock serves every provider with the offline chat stub
type Mock struct {
	provider string
	model    string
	chat     *llm.LlmChat
}

// New returns the backend for provider. All known providers are served by Mock.
func New(provider, model, apiKey, sessionID, systemMessage string) (Backend, error) {
	if !config.IsKnownProvider(provider) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return NewMock(provider, model, llm.NewLlmChat(apiKey, sessionID, systemMessage)), nil
}

func NewMock(provider, model string, chat *llm.LlmChat) *Mock {
	return &Mock{
		provider: provider,
		model:    model,
		chat:     chat.WithModel(provider, model),
	}
}

func (m *Mock) Name() string {
	return m.provider + "/" + m.model
}

func (m *Mock) Send(ctx context.Context, text string) (string, error) {
	resp, err := m.chat.SendMessage(ctx, llm.NewUserMessage(text))
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// KnownProviders lists the provider names New accepts
func KnownProviders() []string {
	return config.Providers()
}
