package gateways

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/ochairo/modulescanner/internal/domain/interfaces/gateways"
)

// JdkInternalsFlag asks jdeps to report JDK-internal API usage
const JdkInternalsFlag = "--jdk-internals"

// JdepsRunner invokes the jdeps analyzer as a child process
type JdepsRunner struct {
	command string
	timeout time.Duration

	once     sync.Once
	resolved string
	lookErr  error
}

// NewJdepsRunner creates a runner for command. A zero timeout waits for the
// analyzer to finish.
func NewJdepsRunner(command string, timeout time.Duration) *JdepsRunner {
	if command == "" {
		command = "jdeps"
	}
	return &JdepsRunner{command: command, timeout: timeout}
}

// Run executes the analyzer against archivePath, capturing stdout, stderr
// and the exit status separately
func (r *JdepsRunner) Run(ctx context.Context, archivePath string) (*gateways.AnalyzerOutput, error) {
	binary, err := r.executable()
	if err != nil {
		return nil, err
	}

	execCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	//nolint:gosec // G204: Analyzer command comes from operator configuration
	cmd := exec.CommandContext(execCtx, binary, JdkInternalsFlag, archivePath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	output := &gateways.AnalyzerOutput{}
	err = cmd.Run()
	output.Stdout = stdout.String()
	output.Stderr = stderr.String()

	if err != nil {
		var exitErr *exec.ExitError
		//nolint:gocritic // ifElseChain: checking different error types, not suitable for switch
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("analyzer timeout after %v on %s", r.timeout, archivePath)
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		} else if errors.As(err, &exitErr) {
			output.ExitCode = exitErr.ExitCode()
			return output, nil
		}
		return nil, fmt.Errorf("failed to run analyzer: %w", err)
	}

	return output, nil
}

// executable resolves the analyzer once, trying PATH and then JAVA_HOME/bin
func (r *JdepsRunner) executable() (string, error) {
	r.once.Do(func() {
		r.resolved, r.lookErr = resolveCommand(r.command)
	})
	return r.resolved, r.lookErr
}

func resolveCommand(command string) (string, error) {
	path, err := exec.LookPath(command)
	if err == nil {
		return path, nil
	}

	if javaHome := os.Getenv("JAVA_HOME"); javaHome != "" && filepath.Base(command) == command {
		candidate := filepath.Join(javaHome, "bin", command)
		if found, lookErr := exec.LookPath(candidate); lookErr == nil {
			return found, nil
		}
	}

	return "", fmt.Errorf("%w: %s: %w", gateways.ErrAnalyzerUnavailable, command, err)
}
