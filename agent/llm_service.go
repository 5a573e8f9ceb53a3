package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"prezo/config"
)

// ChatCompleter is the single-turn completion interface the pipeline
// stages call. Both LLMService and EinoService satisfy it, and tests
// stub it.
type ChatCompleter interface {
	Chat(ctx context.Context, message string) (string, error)
}

// LLMService is a provider-switched chat client speaking the raw HTTP
// APIs of OpenAI, Anthropic and their compatible gateways.
type LLMService struct {
	Provider  string
	APIKey    string
	BaseURL   string
	ModelName string
	MaxTokens int
	Log       func(string)
}

// NewLLMService creates an LLMService from the application config.
func NewLLMService(cfg config.Config, logFunc func(string)) *LLMService {
	return &LLMService{
		Provider:  cfg.LLMProvider,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		ModelName: cfg.ModelName,
		MaxTokens: cfg.MaxTokens,
		Log:       logFunc,
	}
}

func (s *LLMService) log(msg string) {
	if s.Log != nil {
		s.Log(msg)
	}
}

// Chat sends one user message and returns the model's text reply.
func (s *LLMService) Chat(ctx context.Context, message string) (string, error) {
	s.log(fmt.Sprintf("Chat Request [%s/%s]: %d chars", s.Provider, s.ModelName, len(message)))

	if s.APIKey == "" && s.Provider != "OpenAI-Compatible" {
		return "", fmt.Errorf("API key not configured")
	}

	var resp string
	var err error

	switch s.Provider {
	case "OpenAI", "OpenAI-Compatible":
		resp, err = s.chatOpenAI(ctx, message)
	case "Anthropic", "Claude-Compatible":
		resp, err = s.chatAnthropic(ctx, message)
	default:
		return "", fmt.Errorf("unsupported LLM provider %q", s.Provider)
	}

	if err != nil {
		s.log(fmt.Sprintf("Chat Error: %v", err))
	} else {
		s.log(fmt.Sprintf("Chat Response: %d chars", len(resp)))
	}

	return resp, err
}

func (s *LLMService) chatOpenAI(ctx context.Context, message string) (string, error) {
	fullURL := "https://api.openai.com/v1/chat/completions"
	if s.BaseURL != "" {
		u, err := url.Parse(s.BaseURL)
		if err != nil {
			return "", fmt.Errorf("invalid base URL: %v", err)
		}

		path := u.Path
		if !strings.HasSuffix(strings.TrimSuffix(path, "/"), "/chat/completions") {
			if !strings.HasSuffix(path, "/") {
				path += "/"
			}
			if !hasVersionSegment(path) {
				path += "v1/"
			}
			path += "chat/completions"
		}
		u.Path = path
		fullURL = u.String()
	}

	body := map[string]interface{}{
		"model":      s.ModelName,
		"max_tokens": s.maxTokens(),
		"messages": []map[string]string{
			{"role": "user", "content": message},
		},
	}

	headers := map[string]string{}
	if s.APIKey != "" {
		headers["Authorization"] = "Bearer " + s.APIKey
	}

	respBody, err := s.post(ctx, fullURL, body, headers)
	if err != nil {
		return "", err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI-compatible API")
	}
	return result.Choices[0].Message.Content, nil
}

func (s *LLMService) chatAnthropic(ctx context.Context, message string) (string, error) {
	fullURL := "https://api.anthropic.com/v1/messages"
	if s.BaseURL != "" {
		u, err := url.Parse(s.BaseURL)
		if err != nil {
			return "", fmt.Errorf("invalid base URL: %v", err)
		}

		path := u.Path
		if path == "" || path == "/" || path == "/v1" || path == "/v1/" {
			if !strings.HasSuffix(path, "/") {
				path += "/"
			}
			if !strings.HasPrefix(strings.TrimPrefix(path, "/"), "v1") {
				path += "v1/"
			}
			path += "messages"
		}
		u.Path = path
		fullURL = u.String()
	}

	body := map[string]interface{}{
		"model":      s.ModelName,
		"max_tokens": s.maxTokens(),
		"messages": []map[string]string{
			{"role": "user", "content": message},
		},
	}

	headers := map[string]string{
		"x-api-key":         s.APIKey,
		"anthropic-version": "2023-06-01",
	}

	respBody, err := s.post(ctx, fullURL, body, headers)
	if err != nil {
		return "", err
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("no response from Anthropic")
	}
	return result.Content[0].Text, nil
}

func (s *LLMService) post(ctx context.Context, fullURL string, body interface{}, headers map[string]string) ([]byte, error) {
	jsonBody, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, "POST", fullURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{Timeout: 300 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("API error (404): check the base URL and path, full URL used: %s", fullURL)
		}
		if resp.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("API error (400): model name %q may be wrong for this provider: %s", s.ModelName, string(respBody))
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

func (s *LLMService) maxTokens() int {
	if s.MaxTokens > 0 {
		return s.MaxTokens
	}
	return 4096
}

// hasVersionSegment reports whether an URL path already carries an API
// version segment such as /v1/ or /v4/.
func hasVersionSegment(path string) bool {
	for _, p := range strings.Split(path, "/") {
		if strings.HasPrefix(p, "v") && len(p) > 1 && p[1] >= '0' && p[1] <= '9' {
			return true
		}
	}
	return false
}
