package config

import "strings"

// Config structure
type Config struct {
	LLMProvider string `json:"llmProvider"`
	APIKey      string `json:"apiKey"`
	BaseURL     string `json:"baseUrl"`
	ModelName   string `json:"modelName"`
	MaxTokens   int    `json:"maxTokens"`
	DetailedLog bool   `json:"detailedLog"`

	// TemplateDir holds analyzed template metadata; ModuleDir holds
	// generated module descriptors; OutputDir receives finished decks.
	TemplateDir string `json:"templateDir"`
	ModuleDir   string `json:"moduleDir"`
	OutputDir   string `json:"outputDir"`
}

// knownProviders lists every provider the chat backends can serve.
var knownProviders = []string{
	"OpenAI",
	"OpenAI-Compatible",
	"Anthropic",
	"Claude-Compatible",
}

// Validate normalizes fields in place. Unknown providers fall back to
// OpenAI so a hand-edited config file cannot strand the pipeline.
func (c *Config) Validate() {
	c.LLMProvider = strings.TrimSpace(c.LLMProvider)
	valid := false
	for _, p := range knownProviders {
		if c.LLMProvider == p {
			valid = true
			break
		}
	}
	if !valid {
		c.LLMProvider = "OpenAI"
	}
	if c.MaxTokens < 0 {
		c.MaxTokens = 0
	}
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.ModelName = strings.TrimSpace(c.ModelName)
}
