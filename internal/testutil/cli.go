// Package testutil provides shared test utilities for CLI testing across packages.
// This enables co-located CLI tests while maintaining consistent test infrastructure.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tasktrack/cmd/tasktrack/cmd"
)

// Clock is the fixed instant CLI tests run at.
var Clock = time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)

// CLITest provides a test helper for running CLI commands in isolation.
type CLITest struct {
	t          *testing.T
	cfg        *cmd.Config
	tmpDir     string
	configPath string
	tick       int
}

// NewCLITest creates a new CLI test helper backed by a file store in a
// temporary directory.
func NewCLITest(t *testing.T) *CLITest {
	t.Helper()
	return NewCLITestWithStore(t, "file")
}

// NewCLITestWithStore creates a new CLI test helper using the given store
// type (file, sqlite or memory) rooted in a temporary directory.
func NewCLITestWithStore(t *testing.T, storeType string) *CLITest {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	storePath := filepath.Join(tmpDir, "store")
	if storeType == "sqlite" {
		storePath = filepath.Join(tmpDir, "tasks.db")
	}

	// Write a minimal config to ensure isolation from the user's XDG dirs
	config := fmt.Sprintf("store:\n  type: %s\n  path: %s\nviews_dir: %s\n",
		storeType, storePath, filepath.Join(tmpDir, "views"))
	if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
		t.Fatalf("failed to create config file: %v", err)
	}

	c := &CLITest{
		t:          t,
		tmpDir:     tmpDir,
		configPath: configPath,
	}

	seq := 0
	c.cfg = &cmd.Config{
		NoPrompt:   true,
		ConfigPath: configPath,
		// Each call advances one minute so creation order is observable.
		Now: func() time.Time {
			c.tick++
			return Clock.Add(time.Duration(c.tick) * time.Minute)
		},
		NewID: func() string {
			seq++
			return fmt.Sprintf("%08d-0000-4000-8000-000000000000", seq)
		},
	}
	return c
}

// ID returns the id the n-th generated task or subtask receives.
func ID(n int) string {
	return fmt.Sprintf("%08d-0000-4000-8000-000000000000", n)
}

// Config returns the test configuration.
func (c *CLITest) Config() *cmd.Config {
	return c.cfg
}

// TmpDir returns the temporary directory for the test.
func (c *CLITest) TmpDir() string {
	return c.tmpDir
}

// ConfigPath returns the path to the config file.
func (c *CLITest) ConfigPath() string {
	return c.configPath
}

// SetConfigValue appends a top-level key-value pair to the test config file.
func (c *CLITest) SetConfigValue(key, value string) {
	c.t.Helper()

	data, err := os.ReadFile(c.configPath)
	if err != nil {
		c.t.Fatalf("failed to read config file: %v", err)
	}

	newConfig := string(data) + key + ": " + value + "\n"
	if err := os.WriteFile(c.configPath, []byte(newConfig), 0644); err != nil {
		c.t.Fatalf("failed to write config file: %v", err)
	}
}

// SetPromptAnswers enables confirmation prompts and feeds them the given
// input lines.
func (c *CLITest) SetPromptAnswers(lines ...string) {
	c.cfg.NoPrompt = false
	c.cfg.Stdin = strings.NewReader(strings.Join(lines, "\n") + "\n")
}

// WriteFile writes content to name inside the temporary directory and
// returns its path.
func (c *CLITest) WriteFile(name, content string) string {
	c.t.Helper()

	path := filepath.Join(c.tmpDir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		c.t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// Execute runs a CLI command with the given arguments and returns stdout, stderr, and exit code.
func (c *CLITest) Execute(args ...string) (stdout, stderr string, exitCode int) {
	c.t.Helper()

	var stdoutBuf, stderrBuf bytes.Buffer
	exitCode = cmd.Execute(args, &stdoutBuf, &stderrBuf, c.cfg)
	return stdoutBuf.String(), stderrBuf.String(), exitCode
}

// MustExecute runs a CLI command and fails the test if exit code is non-zero.
func (c *CLITest) MustExecute(args ...string) string {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode != 0 {
		c.t.Fatalf("expected exit code 0, got %d: stdout=%s stderr=%s", exitCode, stdout, stderr)
	}
	return stdout
}

// ExecuteAndFail runs a CLI command and fails the test if exit code is zero.
func (c *CLITest) ExecuteAndFail(args ...string) (stdout, stderr string) {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode == 0 {
		c.t.Fatalf("expected non-zero exit code, got 0: stdout=%s", stdout)
	}
	return stdout, stderr
}

// AssertContains fails the test if output doesn't contain expected string.
func AssertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

// AssertNotContains fails the test if output contains unexpected string.
func AssertNotContains(t *testing.T, output, unexpected string) {
	t.Helper()
	if strings.Contains(output, unexpected) {
		t.Errorf("expected output NOT to contain %q, got:\n%s", unexpected, output)
	}
}

// AssertExitCode fails the test if exit code doesn't match expected.
func AssertExitCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("expected exit code %d, got %d", want, got)
	}
}

// AssertOrder fails the test unless each string appears in output after the
// previous one.
func AssertOrder(t *testing.T, output string, want ...string) {
	t.Helper()
	pos := 0
	for _, w := range want {
		i := strings.Index(output[pos:], w)
		if i < 0 {
			t.Errorf("expected %q after position %d in output:\n%s", w, pos, output)
			return
		}
		pos += i + len(w)
	}
}
