package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"prezo/config"
)

// ConfigProvider exposes read access to the stored configuration.
type ConfigProvider interface {
	GetConfig() (config.Config, error)
}

// ConfigPersister exposes write access to the stored configuration.
type ConfigPersister interface {
	SaveConfig(cfg config.Config) error
}

// ConfigService owns the on-disk JSON configuration under the storage
// directory. Implements ConfigProvider and ConfigPersister.
type ConfigService struct {
	storageDir string
	logger     func(string)
	callbacks  []func(config.Config)
	mu         sync.RWMutex
}

// NewConfigService creates a ConfigService.
func NewConfigService(logger func(string)) *ConfigService {
	return &ConfigService{
		logger:    logger,
		callbacks: make([]func(config.Config), 0),
	}
}

func (cs *ConfigService) Name() string {
	return "config"
}

// Initialize makes sure the storage directory exists.
func (cs *ConfigService) Initialize(ctx context.Context) error {
	dir, err := cs.GetStorageDir()
	if err != nil {
		return WrapError("config", "Initialize", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return WrapError("config", "Initialize", fmt.Errorf("failed to create storage dir: %w", err))
	}
	cs.log(fmt.Sprintf("ConfigService initialized, storage dir: %s", dir))
	return nil
}

func (cs *ConfigService) Shutdown() error {
	return nil
}

// GetStorageDir returns the storage directory (~/PrezO unless
// overridden).
func (cs *ConfigService) GetStorageDir() (string, error) {
	cs.mu.RLock()
	sd := cs.storageDir
	cs.mu.RUnlock()

	if sd != "" {
		return sd, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", WrapError("config", "GetStorageDir", err)
	}
	return filepath.Join(home, "PrezO"), nil
}

// SetStorageDir overrides the storage directory, mainly for tests.
func (cs *ConfigService) SetStorageDir(dir string) {
	cs.mu.Lock()
	cs.storageDir = dir
	cs.mu.Unlock()
}

// GetConfigPath returns the config file path.
func (cs *ConfigService) GetConfigPath() (string, error) {
	dir, err := cs.GetStorageDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfig loads the configuration from disk, falling back to
// defaults when no file exists yet.
func (cs *ConfigService) GetConfig() (config.Config, error) {
	path, err := cs.GetConfigPath()
	if err != nil {
		return config.Config{}, err
	}

	dir := filepath.Dir(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cs.applyDefaults(config.Config{
			LLMProvider: "OpenAI",
			ModelName:   "gpt-4o",
			MaxTokens:   8192,
		}, dir), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config.Config{}, WrapError("config", "GetConfig", err)
	}

	var cfg config.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return config.Config{}, WrapError("config", "GetConfig", err)
	}

	return cs.applyDefaults(cfg, dir), nil
}

// applyDefaults fills empty directory fields relative to the storage
// directory.
func (cs *ConfigService) applyDefaults(cfg config.Config, storageDir string) config.Config {
	if cfg.TemplateDir == "" {
		cfg.TemplateDir = filepath.Join(storageDir, "templates")
	}
	if cfg.ModuleDir == "" {
		cfg.ModuleDir = filepath.Join(storageDir, "modules")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(storageDir, "output")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}
	return cfg
}

// SaveConfig validates and persists the configuration, then triggers
// all registered callbacks.
func (cs *ConfigService) SaveConfig(cfg config.Config) error {
	dir, err := cs.GetStorageDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return WrapError("config", "SaveConfig", fmt.Errorf("failed to create storage dir: %w", err))
	}

	cfg.Validate()

	path := filepath.Join(dir, "config.json")
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return WrapError("config", "SaveConfig", fmt.Errorf("failed to marshal config: %w", err))
	}

	// 0600: the file carries API keys.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return WrapError("config", "SaveConfig", fmt.Errorf("failed to write config file: %w", err))
	}

	cs.log("Configuration saved to disk")

	cs.NotifyConfigChanged(cfg)

	return nil
}

// OnConfigChanged registers a configuration change callback.
func (cs *ConfigService) OnConfigChanged(callback func(config.Config)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.callbacks = append(cs.callbacks, callback)
}

// NotifyConfigChanged fires all registered callbacks.
func (cs *ConfigService) NotifyConfigChanged(cfg config.Config) {
	cs.mu.RLock()
	cbs := make([]func(config.Config), len(cs.callbacks))
	copy(cbs, cs.callbacks)
	cs.mu.RUnlock()

	for _, cb := range cbs {
		cb(cfg)
	}
}

func (cs *ConfigService) log(msg string) {
	if cs.logger != nil {
		cs.logger(msg)
	}
}
