// Package sipgateway provisions inbound trunks and dispatch rules on the
// LiveKit SIP gateway. Two adapters implement provision.Gateway: CLI submits
// JSON job files through the lk binary, API calls the server SDK directly.
package sipgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"agent-platform/internal/provision"
)

const (
	InboundTrunkFile = "inbound_trunk.json"
	DispatchRuleFile = "dispatch_rule.json"
)

var (
	inboundTrunkIDPattern = regexp.MustCompile(`ST_\w+`)
	dispatchRuleIDPattern = regexp.MustCompile(`SDR_\w+`)
)

// Runner executes an external command and returns its captured output.
// err is non-nil when the command could not start or exited non-zero.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Dir string
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, name, args...)
	command.Dir = r.Dir
	command.Stdout = &stdout
	command.Stderr = &stderr
	err := command.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// CommandError reports a failed gateway command with its diagnostic output.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += " (stderr: " + e.Stderr + ")"
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// CLI submits gateway jobs as JSON files consumed by `lk sip ... create`.
// Job files are written to WorkDir and left in place after the command runs.
// Jobs share fixed file names, so one job is in flight per CLI at a time.
type CLI struct {
	Binary  string
	WorkDir string
	Runner  Runner

	mu sync.Mutex
}

func NewCLI(binary, workDir string) *CLI {
	if binary == "" {
		binary = "lk"
	}
	if workDir == "" {
		workDir = "."
	}
	return &CLI{Binary: binary, WorkDir: workDir, Runner: ExecRunner{}}
}

// CreateInboundTrunk runs `lk sip inbound create inbound_trunk.json` and
// extracts the ST_ identifier from stdout.
func (c *CLI) CreateInboundTrunk(ctx context.Context, d provision.InboundTrunkDescriptor) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path, err := c.writeJob(InboundTrunkFile, d)
	if err != nil {
		return "", err
	}
	stdout, err := c.run(ctx, "sip", "inbound", "create", path)
	if err != nil {
		return "", err
	}
	return ParseInboundTrunkID(stdout)
}

// CreateDispatchRule runs `lk sip dispatch-rule create dispatch_rule.json`.
// The SDR_ identifier is returned when the output carries one.
func (c *CLI) CreateDispatchRule(ctx context.Context, d provision.DispatchRuleDescriptor) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path, err := c.writeJob(DispatchRuleFile, d)
	if err != nil {
		return "", err
	}
	stdout, err := c.run(ctx, "sip", "dispatch-rule", "create", path)
	if err != nil {
		return "", err
	}
	return dispatchRuleIDPattern.FindString(stdout), nil
}

// ParseInboundTrunkID returns the first ST_<word chars> token in out.
func ParseInboundTrunkID(out string) (string, error) {
	id := inboundTrunkIDPattern.FindString(out)
	if id == "" {
		return "", provision.ErrIdentifierNotFound
	}
	return id, nil
}

func (c *CLI) writeJob(name string, v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return "", fmt.Errorf("sipgateway: encode %s: %w", name, err)
	}
	path := filepath.Join(c.WorkDir, name)
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return "", fmt.Errorf("sipgateway: write %s: %w", name, err)
	}
	return path, nil
}

func (c *CLI) run(ctx context.Context, args ...string) (string, error) {
	runner := c.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	stdout, stderr, err := runner.Run(ctx, c.Binary, args...)
	if err != nil {
		ce := &CommandError{
			Args:     append([]string{c.Binary}, args...),
			ExitCode: -1,
			Stderr:   strings.TrimSpace(string(stderr)),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			ce.ExitCode = exitErr.ExitCode()
		}
		return "", ce
	}
	return string(stdout), nil
}
