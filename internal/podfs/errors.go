package podfs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for container filesystem operations.
// These errors can be checked using errors.Is() for programmatic error handling.
var (
	// ErrRemoteCommandFailed indicates that a command executed inside a
	// container exited non-zero or that the executor produced no result.
	ErrRemoteCommandFailed = errors.New("remote command failed")

	// ErrMalformedResponse indicates that a structured query (the pod spec)
	// came back without the fields needed to build the tree.
	ErrMalformedResponse = errors.New("malformed structured response")

	// ErrHostCapabilityUnavailable indicates that a collaborator required to
	// activate the feature (Kubernetes client, executor) is missing.
	ErrHostCapabilityUnavailable = errors.New("host capability unavailable")

	// ErrInvalidIdentifier indicates that a document identifier string could
	// not be decoded.
	ErrInvalidIdentifier = errors.New("invalid document identifier")
)

// CommandError describes a failed remote command.
type CommandError struct {
	Target   Target
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "command %q in %s failed", e.Command, e.Target)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
		return b.String()
	}
	fmt.Fprintf(&b, " with exit code %d", e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		fmt.Fprintf(&b, ": %s", stderr)
	}
	return b.String()
}

// Unwrap returns the underlying executor error, if any.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Is reports ErrRemoteCommandFailed as a match so callers need not know the concrete type.
func (e *CommandError) Is(target error) bool {
	return target == ErrRemoteCommandFailed
}

// Detail returns the most useful diagnostic text for display: stderr when
// present, otherwise the executor error.
func (e *CommandError) Detail() string {
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		return e.Stderr
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unable to run command"
}
