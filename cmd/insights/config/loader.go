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

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// Global holds the loaded configuration. Valid after Load returns.
	Global InsightsConfig
	once   sync.Once
)

// Load parses ~/.aleutian/insights.yaml into Global exactly once per
// process; later calls are no-ops returning the first result. A missing
// file is not an error: defaults are written so the user has something
// concrete to edit.
func Load() error {
	var err error
	once.Do(func() {
		err = loadInternal()
	})
	return err
}

func loadInternal() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}
	configPath := filepath.Join(home, ".aleutian", "insights.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf("No config found, writing defaults to %s\n", configPath)
		if err := writeDefaults(configPath); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read config %s: %w", configPath, err)
	}
	if err = yaml.Unmarshal(data, &Global); err != nil {
		return fmt.Errorf("parse config %s: %w", configPath, err)
	}
	return nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
