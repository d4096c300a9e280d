package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/kata/internal/domain"
)

// LocalSandbox executes submissions with the host python3 interpreter.
// It is the default backend; it offers no isolation beyond a temp dir and
// a timeout, which is acceptable for a local single-user tool.
type LocalSandbox struct {
	python  string
	timeout time.Duration
	logger  *slog.Logger
}

// LocalConfig holds local sandbox configuration.
type LocalConfig struct {
	Python  string        // interpreter binary, default python3
	Timeout time.Duration // per-invocation wall clock limit
}

// NewLocalSandbox creates a subprocess-backed sandbox.
func NewLocalSandbox(cfg LocalConfig, logger *slog.Logger) *LocalSandbox {
	if cfg.Python == "" {
		cfg.Python = "python3"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &LocalSandbox{python: cfg.Python, timeout: cfg.Timeout, logger: logger}
}

// Invoke runs the candidate entry point with one case's arguments and
// returns the textual form of its return value.
func (s *LocalSandbox) Invoke(ctx context.Context, source, entryPoint, construct string, args []string) (string, error) {
	files, err := harnessFiles(source, entryPoint, construct, args)
	if err != nil {
		return "", err
	}

	dir, err := writeTempCodeDir(files)
	if err != nil {
		return "", fmt.Errorf("stage code: %w", err)
	}
	defer os.RemoveAll(dir)

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.python, harnessFile)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() != nil {
			return "", fmt.Errorf("execution timed out after %s", s.timeout)
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// The interpreter itself could not be started.
			s.logger.Warn("python interpreter unavailable", "python", s.python, "error", err)
			return "", fmt.Errorf("%w: %v", domain.ErrSandboxUnavailable, err)
		}
		// Nonzero exit still carries marker output; fall through to parse.
	}

	return parseHarnessOutput(stdout.String(), stderr.String())
}

func writeTempCodeDir(files map[string]string) (string, error) {
	dir, err := os.MkdirTemp("", "kata-run-*")
	if err != nil {
		return "", err
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			os.RemoveAll(dir)
			return "", err
		}
	}
	return dir, nil
}
