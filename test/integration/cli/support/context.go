// Package support holds the godog step definitions of the CLI suite. Commands
// run in-process against a fake OCR engine so the suite needs no Tesseract
// installation.
package support

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MeKo-Tech/tessnode/cmd/tessnode/cmd"
	"github.com/MeKo-Tech/tessnode/internal/engine/enginetest"
	"github.com/MeKo-Tech/tessnode/internal/items"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	TempDir string
	Engine  *enginetest.Engine
	Stdin   string

	LastArgs     []string
	LastOutput   string
	LastStderr   string
	LastError    error
	LastDuration time.Duration
	Outputs      []items.Output
}

// NewTestContext creates the scenario state and its scratch directory.
func NewTestContext() (*TestContext, error) {
	dir, err := os.MkdirTemp("", "tessnode-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &TestContext{TempDir: dir}, nil
}

// Cleanup removes the scratch directory.
func (testCtx *TestContext) Cleanup() error {
	return os.RemoveAll(testCtx.TempDir)
}

// Run executes tessnode with args inside the scratch directory.
func (testCtx *TestContext) Run(ctx context.Context, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	if err := os.Chdir(testCtx.TempDir); err != nil {
		return err
	}
	defer func() { _ = os.Chdir(wd) }()

	opts := []cmd.Option{cmd.WithStdin(strings.NewReader(testCtx.Stdin))}
	if testCtx.Engine != nil {
		opts = append(opts, cmd.WithEngine(testCtx.Engine.Factory()))
	}
	root := cmd.NewRootCommand(opts...)

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	start := time.Now()
	testCtx.LastError = root.ExecuteContext(ctx)
	testCtx.LastDuration = time.Since(start)
	testCtx.LastArgs = args
	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()

	testCtx.Outputs = nil
	if testCtx.LastError == nil && strings.HasPrefix(strings.TrimSpace(testCtx.LastOutput), "[") {
		if err := json.Unmarshal([]byte(testCtx.LastOutput), &testCtx.Outputs); err != nil {
			return fmt.Errorf("failed to decode outputs: %w", err)
		}
	}
	return nil
}

func (testCtx *TestContext) output(n int) (items.Output, error) {
	if n < 1 || n > len(testCtx.Outputs) {
		return items.Output{}, fmt.Errorf("output %d requested but there are %d outputs:\n%s", n, len(testCtx.Outputs), testCtx.LastOutput)
	}
	return testCtx.Outputs[n-1], nil
}
