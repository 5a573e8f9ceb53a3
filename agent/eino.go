package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"prezo/config"
)

// EinoService runs pipeline completions through an Eino chain. It is
// used for providers that speak the OpenAI chat schema; the raw-HTTP
// LLMService covers the Anthropic-format providers.
type EinoService struct {
	ChatModel model.ChatModel
	cfg       config.Config
}

// NewEinoService creates an EinoService for the configured provider.
func NewEinoService(cfg config.Config) (*EinoService, error) {
	chatModel, err := openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.ModelName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model: %v", err)
	}

	return &EinoService{
		ChatModel: chatModel,
		cfg:       cfg,
	}, nil
}

// Chat sends one user message through a model chain and returns the
// reply text.
func (s *EinoService) Chat(ctx context.Context, message string) (string, error) {
	chain := compose.NewChain[*schema.Message, *schema.Message]()
	chain.AppendChatModel(s.ChatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return "", err
	}

	msg := &schema.Message{
		Role:    schema.User,
		Content: message,
	}

	resp, err := runnable.Invoke(ctx, msg)
	if err != nil {
		return "", err
	}

	return resp.Content, nil
}

// NewChatCompleter picks the completion backend for the configured
// provider: the Eino OpenAI model for OpenAI-schema providers, the raw
// HTTP client otherwise.
func NewChatCompleter(cfg config.Config, logFunc func(string)) (ChatCompleter, error) {
	switch cfg.LLMProvider {
	case "OpenAI", "OpenAI-Compatible":
		return NewEinoService(cfg)
	default:
		return NewLLMService(cfg, logFunc), nil
	}
}
