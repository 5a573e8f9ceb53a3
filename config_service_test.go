package main

import (
	"context"
	"path/filepath"
	"testing"

	"prezo/config"
)

func newTestConfigService(t *testing.T) *ConfigService {
	t.Helper()
	cs := NewConfigService(nil)
	cs.SetStorageDir(t.TempDir())
	if err := cs.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return cs
}

func TestGetConfigDefaults(t *testing.T) {
	cs := newTestConfigService(t)

	cfg, err := cs.GetConfig()
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}

	if cfg.LLMProvider != "OpenAI" {
		t.Errorf("LLMProvider = %q, want OpenAI", cfg.LLMProvider)
	}
	if cfg.MaxTokens != 8192 {
		t.Errorf("MaxTokens = %d, want 8192", cfg.MaxTokens)
	}

	dir, _ := cs.GetStorageDir()
	if cfg.TemplateDir != filepath.Join(dir, "templates") {
		t.Errorf("TemplateDir = %q", cfg.TemplateDir)
	}
	if cfg.ModuleDir != filepath.Join(dir, "modules") {
		t.Errorf("ModuleDir = %q", cfg.ModuleDir)
	}
	if cfg.OutputDir != filepath.Join(dir, "output") {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
}

func TestSaveAndReloadConfig(t *testing.T) {
	cs := newTestConfigService(t)

	cfg := config.Config{
		LLMProvider: "Anthropic",
		APIKey:      "sk-test",
		ModelName:   "claude-sonnet",
		MaxTokens:   4096,
		DetailedLog: true,
	}
	if err := cs.SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := cs.GetConfig()
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if loaded.LLMProvider != "Anthropic" || loaded.APIKey != "sk-test" {
		t.Errorf("loaded = %+v", loaded)
	}
	if !loaded.DetailedLog {
		t.Error("DetailedLog lost on reload")
	}
}

func TestSaveConfigNormalizesUnknownProvider(t *testing.T) {
	cs := newTestConfigService(t)

	if err := cs.SaveConfig(config.Config{LLMProvider: "TeleportAI"}); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := cs.GetConfig()
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if loaded.LLMProvider != "OpenAI" {
		t.Errorf("unknown provider persisted as %q, want OpenAI", loaded.LLMProvider)
	}
}

func TestSaveConfigTriggersCallbacks(t *testing.T) {
	cs := newTestConfigService(t)

	var got []config.Config
	cs.OnConfigChanged(func(cfg config.Config) {
		got = append(got, cfg)
	})
	cs.OnConfigChanged(func(cfg config.Config) {
		got = append(got, cfg)
	})

	if err := cs.SaveConfig(config.Config{LLMProvider: "OpenAI", ModelName: "gpt-4o"}); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("%d callbacks fired, want 2", len(got))
	}
	for _, cfg := range got {
		if cfg.ModelName != "gpt-4o" {
			t.Errorf("callback received %+v", cfg)
		}
	}
}
