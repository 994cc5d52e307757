// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

type InsightsConfig struct {
	// Server: where the insights HTTP service runs
	Server ServerConfig `yaml:"server"`

	// ModelBackend: decides which LLM backend the service uses
	ModelBackend BackendConfig `yaml:"model_backend"`

	// Logging: CLI log destination and level
	Logging LoggingConfig `yaml:"logging"`

	// Connectors: credentials for the data sources
	Connectors ConnectorsConfig `yaml:"connectors"`
}

type ServerConfig struct {
	URL string `yaml:"url"` // e.g. http://localhost:12240
}

type BackendConfig struct {
	// Type can be "ollama", "openai", or "none"
	Type    string `yaml:"type"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug/info/warn/error
	Dir   string `yaml:"dir,omitempty"`
}

type ConnectorsConfig struct {
	GoogleAnalytics GoogleAnalyticsConfig `yaml:"google_analytics"`
	Stripe          StripeConfig          `yaml:"stripe"`
}

type GoogleAnalyticsConfig struct {
	KeyFile    string `yaml:"key_file,omitempty"`
	PropertyID string `yaml:"property_id,omitempty"`
}

type StripeConfig struct {
	// UseEnv reads STRIPE_API_KEY from the environment instead of the
	// config file, so the key never lands on disk.
	UseEnv bool   `yaml:"use_env"`
	APIKey string `yaml:"api_key,omitempty"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() InsightsConfig {
	return InsightsConfig{
		Server: ServerConfig{
			URL: "http://localhost:12240",
		},
		ModelBackend: BackendConfig{
			Type:    "ollama",
			BaseURL: "http://localhost:11434",
			Model:   "llama3.2",
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "~/.aleutian/logs",
		},
		Connectors: ConnectorsConfig{
			Stripe: StripeConfig{UseEnv: true},
		},
	}
}
