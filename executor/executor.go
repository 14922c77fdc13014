// Package executor runs external commands with output capture, environment
// variable management, optional retries, and context support for cancellation
// and timeouts. The release pipeline uses it to invoke package manager check
// commands.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Result holds the output and exit status of a command execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Options configures command execution behavior.
type Options struct {
	// WorkingDir is the directory the command runs in. Empty means the
	// current process directory.
	WorkingDir string

	// Env holds environment variables appended to the current environment.
	Env map[string]string

	// Stdin is fed to the command's standard input when non-empty.
	Stdin string

	// MaxRetries is the number of additional attempts after a failure.
	MaxRetries int

	// RetryDelay is the wait between attempts.
	RetryDelay time.Duration

	// RetryOn decides whether a failure is retried. Nil retries every
	// failure when MaxRetries is set.
	RetryOn func(error) bool

	// StdoutWriter and StderrWriter receive a live copy of the command
	// output in addition to the captured Result.
	StdoutWriter io.Writer
	StderrWriter io.Writer
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithWorkingDir sets the working directory.
func WithWorkingDir(dir string) Option {
	return func(o *Options) {
		o.WorkingDir = dir
	}
}

// WithEnv adds environment variables.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		for k, v := range env {
			o.Env[k] = v
		}
	}
}

// WithEnvVar adds a single environment variable.
func WithEnvVar(key, value string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		o.Env[key] = value
	}
}

// WithStdin feeds input to the command's standard input.
func WithStdin(input string) Option {
	return func(o *Options) {
		o.Stdin = input
	}
}

// WithRetry configures retry behavior.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(o *Options) {
		o.MaxRetries = maxRetries
		o.RetryDelay = delay
	}
}

// WithRetryCondition sets a custom retry condition.
func WithRetryCondition(fn func(error) bool) Option {
	return func(o *Options) {
		o.RetryOn = fn
	}
}

// WithStdoutWriter mirrors command stdout to w.
func WithStdoutWriter(w io.Writer) Option {
	return func(o *Options) {
		o.StdoutWriter = w
	}
}

// WithStderrWriter mirrors command stderr to w.
func WithStderrWriter(w io.Writer) Option {
	return func(o *Options) {
		o.StderrWriter = w
	}
}

// Command is an external command prepared for execution.
type Command struct {
	program string
	args    []string
	options Options
}

// New creates a Command for the given program and arguments.
func New(program string, args ...string) *Command {
	return &Command{
		program: program,
		args:    args,
		options: Options{RetryDelay: time.Second},
	}
}

// String returns the command line for logging.
func (c *Command) String() string {
	if len(c.args) == 0 {
		return c.program
	}
	return c.program + " " + strings.Join(c.args, " ")
}

// Run executes the command. Output is always captured in the returned Result,
// which is non-nil whenever an attempt was made, including on failure.
func (c *Command) Run(ctx context.Context, opts ...Option) (*Result, error) {
	options := c.options
	for _, opt := range opts {
		opt(&options)
	}

	maxAttempts := options.MaxRetries + 1
	var result *Result
	var err error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err = c.runOnce(ctx, &options)
		if err == nil || attempt == maxAttempts {
			return result, err
		}
		if options.RetryOn != nil && !options.RetryOn(err) {
			return result, err
		}

		select {
		case <-ctx.Done():
			return result, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(options.RetryDelay):
		}
	}

	return result, err
}

func (c *Command) runOnce(ctx context.Context, options *Options) (*Result, error) {
	cmd := exec.CommandContext(ctx, c.program, c.args...)

	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}
	if len(options.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range options.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}
	if options.Stdin != "" {
		cmd.Stdin = strings.NewReader(options.Stdin)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	if options.StdoutWriter != nil {
		cmd.Stdout = io.MultiWriter(&stdoutBuf, options.StdoutWriter)
	}
	if options.StderrWriter != nil {
		cmd.Stderr = io.MultiWriter(&stderrBuf, options.StderrWriter)
	}

	err := cmd.Run()

	result := &Result{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = -1
	}

	if err != nil {
		return result, fmt.Errorf("command %q failed: %w", c.String(), err)
	}
	return result, nil
}
