// Package env applies .env files and environment variables to the scan
// configuration.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ochairo/modulescanner/internal/domain/entities"
)

// Environment variable names
const (
	Root         = "MODULESCANNER_ROOT"
	Cutoff       = "MODULESCANNER_CUTOFF"
	Output       = "MODULESCANNER_OUTPUT"
	Delimiter    = "MODULESCANNER_DELIMITER"
	MaxDepth     = "MODULESCANNER_MAX_DEPTH"
	Workers      = "MODULESCANNER_WORKERS"
	LogLevel     = "MODULESCANNER_LOG_LEVEL"
	Jdeps        = "MODULESCANNER_JDEPS"
	JdepsEnabled = "MODULESCANNER_JDEPS_ENABLED"
	JdepsTimeout = "MODULESCANNER_JDEPS_TIMEOUT"
	SkipExplicit = "MODULESCANNER_SKIP_EXPLICIT"
	Publish      = "MODULESCANNER_PUBLISH"

	S3Endpoint  = "ARTIFACT_S3_ENDPOINT"
	S3Region    = "ARTIFACT_S3_REGION"
	S3AccessKey = "ARTIFACT_S3_ACCESS_KEY"
	S3SecretKey = "ARTIFACT_S3_SECRET_KEY"
	S3Bucket    = "ARTIFACT_S3_BUCKET"
	S3Prefix    = "ARTIFACT_S3_PREFIX"
	S3UseSSL    = "ARTIFACT_S3_USE_SSL"

	minioUser     = "MINIO_ROOT_USER"
	minioPassword = "MINIO_ROOT_PASSWORD"
)

// LookupFunc reads one variable, like os.LookupEnv
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored; variables already set are kept.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Apply overrides cfg with the variables visible through lookup. A nil
// lookup reads the process environment.
func Apply(cfg entities.ScanConfig, lookup LookupFunc) (entities.ScanConfig, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	applyString(get, Root, &cfg.Root)
	applyString(get, Cutoff, &cfg.Cutoff)
	applyString(get, Output, &cfg.Output)
	applyString(get, LogLevel, &cfg.LogLevel)
	applyString(get, Jdeps, &cfg.Analyzer.Command)
	if v, ok := lookup(Delimiter); ok && v != "" {
		cfg.Delimiter = v
	}

	var errs []error
	errs = append(errs,
		applyInt(get, MaxDepth, &cfg.MaxDepth),
		applyInt(get, Workers, &cfg.Workers),
		applyBool(get, JdepsEnabled, &cfg.Analyzer.Enabled),
		applyBool(get, SkipExplicit, &cfg.Analyzer.SkipExplicit),
	)
	if v, ok := get(JdepsTimeout); ok {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", JdepsTimeout, err))
		} else {
			cfg.Analyzer.Timeout = timeout
		}
	}

	if v, ok := get(S3Endpoint); ok {
		cfg.Publish.Endpoint = v
		cfg.Publish.Enabled = true
	}
	applyString(get, S3Region, &cfg.Publish.Region)
	applyString(get, minioUser, &cfg.Publish.AccessKey)
	applyString(get, S3AccessKey, &cfg.Publish.AccessKey)
	applyString(get, minioPassword, &cfg.Publish.SecretKey)
	applyString(get, S3SecretKey, &cfg.Publish.SecretKey)
	applyString(get, S3Bucket, &cfg.Publish.Bucket)
	applyString(get, S3Prefix, &cfg.Publish.Prefix)
	errs = append(errs,
		applyBool(get, S3UseSSL, &cfg.Publish.UseSSL),
		applyBool(get, Publish, &cfg.Publish.Enabled),
	)

	if err := errors.Join(errs...); err != nil {
		return cfg, fmt.Errorf("invalid environment: %w", err)
	}
	return cfg, nil
}

type getter func(key string) (string, bool)

func applyString(get getter, key string, dst *string) {
	if v, ok := get(key); ok {
		*dst = v
	}
}

func applyInt(get getter, key string, dst *int) error {
	v, ok := get(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func applyBool(get getter, key string, dst *bool) error {
	v, ok := get(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}
