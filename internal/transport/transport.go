// Package transport wraps the external binaries the manager shells out to
// in order to reach a remote host: `ssh` for the authenticated remote
// shell and `ping` for the liveness pre-check (spec §4.4/§4.5/§11.1). It
// follows the teacher's own idiom for talking to an external system it
// does not want to reimplement — wrap the real CLI tool with os/exec,
// parse its output, return a typed error — rather than pulling in a
// protocol library.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Transport runs a command on a remote host over an authenticated shell.
type Transport interface {
	// Run executes argv on host as user, returning combined stdout+stderr.
	// argv is passed as a single remote command string built by Command;
	// callers never hand Run a raw, unescaped string.
	Run(ctx context.Context, user, host string, remote Command) ([]byte, error)
}

// Command is an argv vector for the remote side. Building the remote
// command as a vector, not a concatenated string, is the one invariant the
// whole package exists to uphold (spec §9 design note).
type Command []string

// String renders the vector as a single shell-escaped command line, the
// one place a command string is unavoidable: ssh's own argument contract
// takes the remote command as one string. This is the package's single
// shellQuote boundary — nowhere else in this package (or its callers)
// builds a command by string concatenation.
func (c Command) String() string {
	parts := make([]string, len(c))
	for i, p := range c {
		parts[i] = shellQuote(p)
	}
	return strings.Join(parts, " ")
}

// shellQuote wraps s in single quotes, escaping any single quote it
// contains, so it is safe to splice into a POSIX shell command line
// irrespective of what characters it holds.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// SSHTransport invokes the system `ssh` binary.
type SSHTransport struct {
	// BinPath overrides the resolved "ssh" binary, for tests.
	BinPath string
	// ExtraArgs are appended before the destination, e.g. ["-p", "2222"].
	ExtraArgs []string
}

func (t *SSHTransport) bin() string {
	if t.BinPath != "" {
		return t.BinPath
	}
	return "ssh"
}

// Run implements Transport.
func (t *SSHTransport) Run(ctx context.Context, user, host string, remote Command) ([]byte, error) {
	dest := host
	if user != "" {
		dest = user + "@" + host
	}
	argv := append([]string{}, t.ExtraArgs...)
	argv = append(argv, dest, remote.String())

	cmd := exec.CommandContext(ctx, t.bin(), argv...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.Bytes(), fmt.Errorf("ssh %s: %w", dest, err)
	}
	return out.Bytes(), nil
}

// PingProbes is the fixed number of echo requests the liveness pre-check
// sends, per spec §4.4/§5.
const PingProbes = 3

// Pinger checks whether a host answers ICMP echo requests.
type Pinger interface {
	Alive(ctx context.Context, host string) bool
}

// SystemPinger shells out to the system `ping` binary instead of opening a
// raw ICMP socket, which would need elevated privileges the manager should
// not require (spec §11.4).
type SystemPinger struct {
	// BinPath overrides the resolved "ping" binary, for tests.
	BinPath string
	// Timeout bounds each probe round; zero means the binary's own default.
	Timeout time.Duration
}

func (p *SystemPinger) bin() string {
	if p.BinPath != "" {
		return p.BinPath
	}
	return "ping"
}

// Alive sends PingProbes echo requests and reports whether ping exited 0.
func (p *SystemPinger) Alive(ctx context.Context, host string) bool {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, p.bin(), "-c", fmt.Sprintf("%d", PingProbes), host)
	return cmd.Run() == nil
}
