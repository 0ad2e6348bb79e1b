package cmd

import (
	"bytes"
	"io"
	"os"
	"testing"

	logger "github.com/ethan-huo/env/internal/logging"

	"github.com/fatih/color"
)

// setupProject runs the test in a fresh project directory with an empty home.
func setupProject(t *testing.T) string {
	t.Helper()
	color.NoColor = true

	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())

	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(originalWd); err != nil {
			t.Fatalf("Failed to change to original directory: %v", err)
		}
	})
	return dir
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()
	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	outputChan := make(chan string, 2)
	for _, r := range []io.Reader{stdoutReader, stderrReader} {
		go func(r io.Reader) {
			var buf bytes.Buffer
			_, _ = io.Copy(&buf, r)
			outputChan <- buf.String()
		}(r)
	}

	err := fn()

	stdoutWriter.Close()
	stderrWriter.Close()
	os.Stdout = originalStdout
	os.Stderr = originalStderr

	first := <-outputChan
	second := <-outputChan
	return first + second, err
}

// runCLI executes the root command with args and returns its output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ResetGlobalState()
	SetLogger(logger.Logger{})
	RootCmd.SetArgs(args)
	return captureOutput(RootCmd.Execute)
}

// mustRun is runCLI failing the test on error.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	output, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("env %v failed: %v\nOutput: %s", args, err, output)
	}
	return output
}
