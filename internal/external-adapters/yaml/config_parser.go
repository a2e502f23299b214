// Package yaml provides YAML-based scan configuration parsing.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ochairo/modulescanner/internal/domain/entities"
)

// yamlConfig represents the raw YAML structure. Pointers tell unset
// fields apart from zero values so a file only overrides what it names.
type yamlConfig struct {
	Root      *string       `yaml:"root"`
	Cutoff    *string       `yaml:"cutoff"`
	Output    *string       `yaml:"output"`
	Delimiter *string       `yaml:"delimiter"`
	MaxDepth  *int          `yaml:"max_depth"`
	Workers   *int          `yaml:"workers"`
	LogLevel  *string       `yaml:"log_level"`
	Analyzer  *yamlAnalyzer `yaml:"analyzer"`
	Publish   *yamlPublish  `yaml:"publish"`
}

type yamlAnalyzer struct {
	Enabled      *bool   `yaml:"enabled"`
	Command      *string `yaml:"command"`
	SkipExplicit *bool   `yaml:"skip_explicit"`
	Timeout      *string `yaml:"timeout"`
}

type yamlPublish struct {
	Enabled   *bool   `yaml:"enabled"`
	Endpoint  *string `yaml:"endpoint"`
	Region    *string `yaml:"region"`
	AccessKey *string `yaml:"access_key"`
	SecretKey *string `yaml:"secret_key"`
	Bucket    *string `yaml:"bucket"`
	Prefix    *string `yaml:"prefix"`
	UseSSL    *bool   `yaml:"use_ssl"`
}

// ConfigParser parses YAML scan configuration files
type ConfigParser struct{}

// NewConfigParser creates a new YAML parser
func NewConfigParser() *ConfigParser {
	return &ConfigParser{}
}

// ParseFile reads filePath and applies it on top of base
func (p *ConfigParser) ParseFile(filePath string, base entities.ScanConfig) (entities.ScanConfig, error) {
	//nolint:gosec // G304: filePath is the operator supplied config file
	data, err := os.ReadFile(filePath)
	if err != nil {
		return base, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	cfg, err := p.Parse(data, base)
	if err != nil {
		return base, fmt.Errorf("%s: %w", filePath, err)
	}
	return cfg, nil
}

// Parse applies the YAML document in data on top of base. Unknown keys
// are rejected.
func (p *ConfigParser) Parse(data []byte, base entities.ScanConfig) (entities.ScanConfig, error) {
	var raw yamlConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg := base
	override(&cfg.Root, raw.Root)
	override(&cfg.Cutoff, raw.Cutoff)
	override(&cfg.Output, raw.Output)
	override(&cfg.Delimiter, raw.Delimiter)
	override(&cfg.LogLevel, raw.LogLevel)
	override(&cfg.MaxDepth, raw.MaxDepth)
	override(&cfg.Workers, raw.Workers)

	if a := raw.Analyzer; a != nil {
		override(&cfg.Analyzer.Enabled, a.Enabled)
		override(&cfg.Analyzer.Command, a.Command)
		override(&cfg.Analyzer.SkipExplicit, a.SkipExplicit)
		if a.Timeout != nil {
			timeout, err := time.ParseDuration(*a.Timeout)
			if err != nil {
				return base, fmt.Errorf("invalid analyzer timeout: %w", err)
			}
			cfg.Analyzer.Timeout = timeout
		}
	}

	if pub := raw.Publish; pub != nil {
		override(&cfg.Publish.Enabled, pub.Enabled)
		override(&cfg.Publish.Endpoint, pub.Endpoint)
		override(&cfg.Publish.Region, pub.Region)
		override(&cfg.Publish.AccessKey, pub.AccessKey)
		override(&cfg.Publish.SecretKey, pub.SecretKey)
		override(&cfg.Publish.Bucket, pub.Bucket)
		override(&cfg.Publish.Prefix, pub.Prefix)
		override(&cfg.Publish.UseSSL, pub.UseSSL)
	}

	return cfg, nil
}

func override[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
