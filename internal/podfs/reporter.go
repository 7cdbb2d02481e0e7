package podfs

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/giantswarm/mcp-podfs/internal/logging"
)

// Reporter receives the failures that tree and document operations recover
// from. Operations never return these errors; they report them once and
// continue with an empty or diagnostic result.
type Reporter interface {
	Report(ctx context.Context, err error)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(ctx context.Context, err error)

// Report calls f.
func (f ReporterFunc) Report(ctx context.Context, err error) {
	f(ctx, err)
}

// LogReporter writes reported failures to a slog logger at warn level.
type LogReporter struct {
	Logger *slog.Logger
}

// NewLogReporter returns a reporter logging to logger, or slog.Default() when nil.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{Logger: logger}
}

// Report implements Reporter.
func (r *LogReporter) Report(ctx context.Context, err error) {
	if err == nil {
		return
	}
	attrs := []any{logging.SanitizedErr(err)}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		attrs = append(attrs,
			logging.Namespace(cmdErr.Target.Namespace),
			logging.Pod(cmdErr.Target.Pod),
			logging.Container(cmdErr.Target.Container),
			logging.Command(cmdErr.Command),
			logging.ExitCode(cmdErr.ExitCode),
		)
	}
	r.Logger.WarnContext(ctx, "container filesystem operation failed", attrs...)
}

// Collector keeps reported failures in memory. It is safe for concurrent use.
type Collector struct {
	mu   sync.Mutex
	errs []error
}

// Report implements Reporter.
func (c *Collector) Report(_ context.Context, err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
}

// Errors returns a copy of the collected failures in report order.
func (c *Collector) Errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]error, len(c.errs))
	copy(out, c.errs)
	return out
}

// Len returns the number of collected failures.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errs)
}

// Err joins every collected failure, or returns nil when none were reported.
func (c *Collector) Err() error {
	return errors.Join(c.Errors()...)
}

// MultiReporter fans a report out to every reporter in order.
type MultiReporter []Reporter

// Report implements Reporter.
func (m MultiReporter) Report(ctx context.Context, err error) {
	for _, r := range m {
		if r != nil {
			r.Report(ctx, err)
		}
	}
}

type reporterKey struct{}

// WithReporter returns a context carrying r. Tree and content operations
// report to it in addition to their own reporter, which lets a single request
// capture the failures it caused.
func WithReporter(ctx context.Context, r Reporter) context.Context {
	return context.WithValue(ctx, reporterKey{}, r)
}

func reporterFrom(ctx context.Context) Reporter {
	r, _ := ctx.Value(reporterKey{}).(Reporter)
	return r
}

// report sends err to base and to any reporter attached to ctx.
func report(ctx context.Context, base Reporter, err error) {
	if base != nil {
		base.Report(ctx, err)
	}
	if r := reporterFrom(ctx); r != nil {
		r.Report(ctx, err)
	}
}
