package podfs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/giantswarm/mcp-podfs/internal/logging"
)

// ContentProvider resolves document identifiers into text by running one
// remote read command per call. Nothing is cached.
type ContentProvider struct {
	exec     Executor
	platform Platform
	reporter Reporter
	logger   *slog.Logger
	observer ExecObserver
}

// NewContentProvider returns a provider running read commands through exec.
func NewContentProvider(exec Executor, opts ...Option) (*ContentProvider, error) {
	if exec == nil {
		return nil, fmt.Errorf("%w: executor is required", ErrHostCapabilityUnavailable)
	}
	o := buildOptions(opts)
	return &ContentProvider{
		exec:     exec,
		platform: o.platform,
		reporter: o.reporter,
		logger:   o.logger,
		observer: o.observer,
	}, nil
}

// Resolve returns the text of the document id addresses. It always returns
// displayable text: on failure the error is reported and a diagnostic naming
// the attempted command is returned instead.
//
// For SchemeView the result is the command's stdout verbatim. For the other
// schemes stdout is preceded by the command line and a blank line.
func (p *ContentProvider) Resolve(ctx context.Context, id Identifier) string {
	command, err := p.platform.ReadCommand(id.Scheme, id.Path)
	if err != nil {
		report(ctx, p.reporter, err)
		return err.Error()
	}
	cmdText := strings.Join(command, " ")
	target := id.Target()

	p.logger.DebugContext(ctx, "resolving container document",
		logging.Scheme(string(id.Scheme)), logging.Namespace(target.Namespace),
		logging.Pod(target.Pod), logging.Container(target.Container), logging.Path(id.Path))

	start := time.Now()
	res, err := run(ctx, p.exec, target, command)
	if p.observer != nil {
		p.observer.ObserveExec(ctx, string(id.Scheme), target.Namespace, time.Since(start), err)
	}
	if err != nil {
		report(ctx, p.reporter, err)
		return cmdText + "\n" + diagnostic(err)
	}
	if id.Scheme == SchemeView {
		return res.Stdout
	}
	return cmdText + "\n\n" + res.Stdout
}

// ResolveString decodes raw and resolves it. An undecodable identifier is
// reported and echoed back.
func (p *ContentProvider) ResolveString(ctx context.Context, raw string) string {
	id, err := ParseIdentifier(raw)
	if err != nil {
		report(ctx, p.reporter, err)
		return raw
	}
	return p.Resolve(ctx, id)
}

func diagnostic(err error) string {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Detail()
	}
	return err.Error()
}
