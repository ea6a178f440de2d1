package transpile

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// DefaultCompileTimeout bounds a single compiler invocation.
const DefaultCompileTimeout = 10 * time.Second

// Compiler lowers TSX/TS syntax to plain ES modules. Implementations
// must be safe for concurrent use.
type Compiler interface {
	Compile(ctx context.Context, path string, src []byte, withMarkup bool) ([]byte, string, error)
	Available() bool
}

// EsbuildCompiler shells out to the esbuild binary, feeding source on
// stdin and reading the lowered module from stdout. Diagnostics arrive
// on stderr in esbuild's file:line:col format.
type EsbuildCompiler struct {
	command string
	timeout time.Duration
}

// NewEsbuildCompiler returns a compiler using the given binary name, or
// "esbuild" when empty.
func NewEsbuildCompiler(command string) *EsbuildCompiler {
	if command == "" {
		command = "esbuild"
	}
	return &EsbuildCompiler{command: command, timeout: DefaultCompileTimeout}
}

// Available reports whether the compiler binary can be found on PATH.
func (c *EsbuildCompiler) Available() bool {
	_, err := exec.LookPath(c.command)
	return err == nil
}

// Compile runs one compiler invocation. The returned string is raw
// stderr output for diagnostic parsing; err is non-nil when the process
// failed to run or exited non-zero.
func (c *EsbuildCompiler) Compile(ctx context.Context, path string, src []byte, withMarkup bool) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{
		"--loader=tsx",
		"--format=esm",
		"--target=es2020",
		fmt.Sprintf("--sourcefile=%s", path),
	}
	if withMarkup {
		args = append(args, "--jsx-factory=jsx", "--jsx-fragment=Fragment")
	}

	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Stdin = bytes.NewReader(src)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, stderr.String(), fmt.Errorf("compiler timed out after %s: %s", c.timeout, path)
	}
	if err != nil {
		return nil, stderr.String(), fmt.Errorf("compiler failed for %s: %w", path, err)
	}
	return stdout.Bytes(), stderr.String(), nil
}

// PassthroughCompiler returns input unchanged. It backs plain .js
// sources that need no lowering and keeps tests hermetic.
type PassthroughCompiler struct{}

func (PassthroughCompiler) Available() bool { return true }

func (PassthroughCompiler) Compile(_ context.Context, _ string, src []byte, _ bool) ([]byte, string, error) {
	return src, "", nil
}
