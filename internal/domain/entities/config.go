package entities

import (
	"fmt"
	"strings"
	"time"
)

// Default scan settings
const (
	DefaultRoot      = "../gs-maven-mirror"
	DefaultCutoff    = "20170101000000"
	DefaultOutput    = "modulescanner.csv"
	DefaultDelimiter = ","
	DefaultMaxDepth  = 100
	DefaultAnalyzer  = "jdeps"
)

// ScanConfig represents the settings of one scan run
type ScanConfig struct {
	Root      string
	Cutoff    string
	Output    string
	Delimiter string
	MaxDepth  int
	Workers   int
	LogLevel  string
	Analyzer  AnalyzerConfig
	Publish   PublishConfig
}

// AnalyzerConfig represents the internal API analyzer settings
type AnalyzerConfig struct {
	Enabled      bool
	Command      string
	SkipExplicit bool          // explicit modules are not analyzed
	Timeout      time.Duration // zero waits indefinitely
}

// PublishConfig represents the optional upload of the report to object storage
type PublishConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// DefaultScanConfig returns the settings used when nothing is configured
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		Root:      DefaultRoot,
		Cutoff:    DefaultCutoff,
		Output:    DefaultOutput,
		Delimiter: DefaultDelimiter,
		MaxDepth:  DefaultMaxDepth,
		Workers:   1,
		LogLevel:  "info",
		Analyzer: AnalyzerConfig{
			Enabled:      true,
			Command:      DefaultAnalyzer,
			SkipExplicit: true,
		},
		Publish: PublishConfig{
			Region: "us-east-1",
			Bucket: "modulescanner-reports",
		},
	}
}

// Validate checks settings that would make a scan meaningless
func (c ScanConfig) Validate() error {
	switch {
	case strings.TrimSpace(c.Root) == "":
		return fmt.Errorf("root must not be empty")
	case strings.TrimSpace(c.Output) == "":
		return fmt.Errorf("output must not be empty")
	case c.MaxDepth < 1:
		return fmt.Errorf("max depth must be positive, got %d", c.MaxDepth)
	case c.Workers < 1:
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	case c.Analyzer.Enabled && strings.TrimSpace(c.Analyzer.Command) == "":
		return fmt.Errorf("analyzer command must not be empty")
	case c.Analyzer.Timeout < 0:
		return fmt.Errorf("analyzer timeout must not be negative")
	case c.Publish.Enabled && strings.TrimSpace(c.Publish.Endpoint) == "":
		return fmt.Errorf("publish endpoint is required when publishing is enabled")
	}
	return nil
}
