// Copyright 2025 Arion Yau
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the run configuration of atvremote.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"atvremote/internal/androidtv"
)

// DefaultDriver is used when neither the file nor the flags name one
const DefaultDriver = "simulator"

// ConfigurationError reports a missing or malformed setting. It is fatal at
// startup and always surfaces before any connection attempt.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Errorf builds a ConfigurationError
func Errorf(format string, args ...any) error {
	return &ConfigurationError{Err: fmt.Errorf(format, args...)}
}

// Config is the configuration of one run
type Config struct {
	CommandsFile string `json:"commands_file" yaml:"commands_file"`
	IP           string `json:"ip" yaml:"ip"`
	Cert         string `json:"cert" yaml:"cert"`
	Key          string `json:"key,omitempty" yaml:"key,omitempty"`
	ClientName   string `json:"client_name,omitempty" yaml:"client_name,omitempty"`
	Driver       string `json:"driver,omitempty" yaml:"driver,omitempty"`
}

// LoadFile loads configuration from a JSON or YAML file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if isYAMLFormat(path, data) {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, Errorf("failed to parse YAML config file: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, Errorf("failed to parse JSON config file: %w", err)
		}
	}

	return &cfg, nil
}

// Override copies the fields of other whose keys set reports as given,
// e.g. command line flags the operator typed. A field given as an empty
// string still overrides.
func (c *Config) Override(other Config, set func(key string) bool) {
	fields := []struct {
		key string
		dst *string
		src string
	}{
		{"commands_file", &c.CommandsFile, other.CommandsFile},
		{"ip", &c.IP, other.IP},
		{"cert", &c.Cert, other.Cert},
		{"key", &c.Key, other.Key},
		{"client_name", &c.ClientName, other.ClientName},
		{"driver", &c.Driver, other.Driver},
	}
	for _, f := range fields {
		if set(f.key) {
			*f.dst = f.src
		}
	}
}

// ApplyDefaults fills in optional settings. The key file defaults to a
// sibling of the certificate: cert.pem -> cert.key.pem.
func (c *Config) ApplyDefaults() {
	if c.Key == "" && c.Cert != "" {
		ext := filepath.Ext(c.Cert)
		base := strings.TrimSuffix(c.Cert, ext)
		if ext == "" {
			ext = ".pem"
		}
		c.Key = base + ".key" + ext
	}
	if c.ClientName == "" {
		c.ClientName = androidtv.DefaultClientName
	}
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
}

// Validate checks that the required settings are present
func (c *Config) Validate() error {
	var missing []string
	if c.CommandsFile == "" {
		missing = append(missing, "commands_file")
	}
	if c.IP == "" {
		missing = append(missing, "ip")
	}
	if c.Cert == "" {
		missing = append(missing, "cert")
	}
	if len(missing) > 0 {
		return Errorf("missing required parameters: %s", strings.Join(missing, ", "))
	}

	if c.Key != "" && filepath.Clean(c.Key) == filepath.Clean(c.Cert) {
		return Errorf("key and cert must be different files")
	}
	return nil
}

// RemoteOptions converts the configuration into driver options
func (c *Config) RemoteOptions() androidtv.Options {
	return androidtv.Options{
		Host:       c.IP,
		CertFile:   c.Cert,
		KeyFile:    c.Key,
		ClientName: c.ClientName,
	}
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// isYAMLFormat determines if the file should be parsed as YAML
func isYAMLFormat(filename string, content []byte) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".yml" || ext == ".yaml" {
		return true
	}
	if ext == ".json" {
		return false
	}

	contentStr := strings.TrimSpace(string(content))
	if strings.HasPrefix(contentStr, "{") {
		return false
	}

	// key: value on the first meaningful line
	for _, line := range strings.Split(contentStr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return strings.Contains(line, ":") && !strings.HasPrefix(line, "\"")
	}

	return false
}
