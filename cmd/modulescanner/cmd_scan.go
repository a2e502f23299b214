package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	adapters "github.com/ochairo/modulescanner/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/modulescanner/internal/domain-orchestrators"
	"github.com/ochairo/modulescanner/internal/domain/entities"
	"github.com/ochairo/modulescanner/internal/domain/interfaces"
	"github.com/ochairo/modulescanner/internal/domain/interfaces/gateways"
	"github.com/ochairo/modulescanner/internal/domain/services"
	"github.com/ochairo/modulescanner/internal/external-adapters/charmlog"
	"github.com/ochairo/modulescanner/internal/external-adapters/csvreport"
	"github.com/ochairo/modulescanner/internal/external-adapters/env"
	"github.com/ochairo/modulescanner/internal/external-adapters/s3"
	"github.com/ochairo/modulescanner/internal/external-adapters/yaml"
)

// scanOptions holds the flag values of the root command
type scanOptions struct {
	configFile string
	workers    int
	noJdeps    bool
	logLevel   string
	delimiter  string
}

func newRootCommand() *cobra.Command {
	return newScanCommand(&scanOptions{})
}

func newScanCommand(opts *scanOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modulescanner [root] [cutoff] [output]",
		Short: "Report Java module adoption across a Maven mirror",
		Long: `Walk a mirrored Maven repository, resolve the latest release of every
artifact updated after the cutoff, and report whether its archive is an
explicit module, an automatic module or neither. Archives that are not
explicit modules are checked for JDK-internal API usage with jdeps.

Arguments default to ` + entities.DefaultRoot + `, ` + entities.DefaultCutoff + ` and ` + entities.DefaultOutput + `.`,
		Example: `  modulescanner
  modulescanner /srv/maven-mirror 20180101000000 report.csv
  modulescanner --no-jdeps --workers 8 /srv/maven-mirror`,
		Args:         cobra.MaximumNArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			//nolint:errcheck // .env files are optional
			env.LoadDotEnv()

			cfg, err := loadConfig(cmd, args, opts, os.LookupEnv)
			if err != nil {
				return err
			}
			return runScan(cmd.Context(), cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", "", "YAML config file")
	flags.IntVarP(&opts.workers, "workers", "w", 1, "archives inspected concurrently")
	flags.BoolVar(&opts.noJdeps, "no-jdeps", false, "skip JDK-internal API detection")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.delimiter, "delimiter", entities.DefaultDelimiter, "report column delimiter")

	return cmd
}

// loadConfig resolves settings with increasing precedence: defaults,
// config file, environment, then arguments and flags
func loadConfig(cmd *cobra.Command, args []string, opts *scanOptions, lookup env.LookupFunc) (entities.ScanConfig, error) {
	cfg := entities.DefaultScanConfig()

	if opts.configFile != "" {
		var err error
		if cfg, err = yaml.NewConfigParser().ParseFile(opts.configFile, cfg); err != nil {
			return cfg, err
		}
	}

	cfg, err := env.Apply(cfg, lookup)
	if err != nil {
		return cfg, err
	}

	positional := []*string{&cfg.Root, &cfg.Cutoff, &cfg.Output}
	for i, arg := range args {
		*positional[i] = arg
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("delimiter") {
		cfg.Delimiter = opts.delimiter
	}
	if opts.noJdeps {
		cfg.Analyzer.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runScan(ctx context.Context, cmd *cobra.Command, cfg entities.ScanConfig) (err error) {
	logger, err := charmlog.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return fmt.Errorf("failed to resolve root %s: %w", cfg.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("cannot scan %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cannot scan %s: not a directory", root)
	}

	// Absolute paths on the host filesystem are handed to jdeps unchanged
	fsys := osfs.New(string(filepath.Separator))

	walker := adapters.NewRepositoryWalker(fsys, adapters.WalkerConfig{
		Root:     root,
		MaxDepth: cfg.MaxDepth,
		Cutoff:   cfg.Cutoff,
	}, logger)

	var analyzer gateways.AnalyzerRunner
	if cfg.Analyzer.Enabled {
		analyzer = adapters.NewJdepsRunner(cfg.Analyzer.Command, cfg.Analyzer.Timeout)
	}
	modules := services.NewModuleService(adapters.NewModuleDescriptorParser(), analyzer, logger)

	//nolint:gosec // G304: output path is operator supplied
	file, err := os.Create(cfg.Output)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			err = errors.Join(err, fmt.Errorf("failed to close report: %w", closeErr))
		}
	}()

	writer, err := csvreport.NewReportWriter(file, cfg.Delimiter, cfg.Analyzer.Enabled)
	if err != nil {
		return err
	}

	logger.Info("scanning repository",
		interfaces.F("root", root),
		interfaces.F("cutoff", cfg.Cutoff),
		interfaces.F("output", cfg.Output),
		interfaces.F("jdeps", cfg.Analyzer.Enabled))

	orch := orchestrators.NewScanOrchestrator(walker, adapters.NewJarOpener(fsys), modules, logger,
		orchestrators.ScanOrchestratorConfig{
			DetectViolations: cfg.Analyzer.Enabled,
			SkipExplicit:     cfg.Analyzer.SkipExplicit,
			Workers:          cfg.Workers,
		})

	summary, err := orch.Scan(ctx, writer)
	if err != nil {
		return fmt.Errorf("scan failed after %d rows: %w", summary.RowsWritten, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}

	if cfg.Publish.Enabled {
		if err := publishReport(ctx, cfg, logger); err != nil {
			return err
		}
	}

	fmt.Fprint(cmd.OutOrStdout(), renderSummary(summary, cfg.Output))
	return nil
}

// publishReport uploads the finished report to object storage
func publishReport(ctx context.Context, cfg entities.ScanConfig, logger interfaces.Logger) error {
	store, err := s3.NewReportStore(cfg.Publish)
	if err != nil {
		return fmt.Errorf("failed to configure report upload: %w", err)
	}

	//nolint:gosec // G304: output path is operator supplied
	content, err := os.ReadFile(cfg.Output)
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}

	key := filepath.Base(cfg.Output)
	if err := store.Put(ctx, key, content); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}

	logger.Info("report published",
		interfaces.F("bucket", cfg.Publish.Bucket),
		interfaces.F("key", store.ObjectKey(key)))
	return nil
}
