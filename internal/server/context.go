package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	corev1 "k8s.io/api/core/v1"

	"github.com/giantswarm/mcp-podfs/internal/instrumentation"
	"github.com/giantswarm/mcp-podfs/internal/k8s"
	"github.com/giantswarm/mcp-podfs/internal/podfs"
	"github.com/giantswarm/mcp-podfs/internal/tools/output"
)

// ServerContext holds the dependencies shared by every MCP tool and resource
// handler and manages their lifecycle.
type ServerContext struct {
	k8sClient k8s.Client
	logger    *slog.Logger
	config    *Config

	instrumentationProvider *instrumentation.Provider

	// reporter receives failures in addition to the log and metrics reporters.
	reporter podfs.Reporter

	inCluster bool

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a ServerContext. Options are applied in order and
// a Kubernetes client is required.
func NewServerContext(ctx context.Context, opts ...Option) (*ServerContext, error) {
	serverCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:    serverCtx,
		cancel: cancel,
		config: NewDefaultConfig(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(sc); err != nil {
			cancel()
			return nil, err
		}
	}

	if err := sc.validate(); err != nil {
		cancel()
		return nil, err
	}

	return sc, nil
}

// Context returns the server context for cancellation and deadlines.
func (sc *ServerContext) Context() context.Context {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.ctx
}

// K8sClient returns the Kubernetes client.
func (sc *ServerContext) K8sClient() k8s.Client {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.k8sClient
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.logger
}

// Config returns the server configuration.
func (sc *ServerContext) Config() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config
}

// InstrumentationProvider returns the OpenTelemetry provider, or nil.
func (sc *ServerContext) InstrumentationProvider() *instrumentation.Provider {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.instrumentationProvider
}

// Metrics returns the metrics recorder. The result may be nil, which every
// recording method accepts.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.InstrumentationProvider().Metrics()
}

// OutputConfig returns the validated output limits.
func (sc *ServerContext) OutputConfig() *output.Config {
	return sc.Config().Output.Validate()
}

// InClusterMode reports whether the server authenticates with a service account.
func (sc *ServerContext) InClusterMode() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.inCluster
}

// Reporter returns the reporter tree and document failures are sent to: the
// log, the failure counter and any reporter set with WithReporter.
func (sc *ServerContext) Reporter() podfs.Reporter {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	metrics := sc.instrumentationProvider.Metrics()
	return podfs.MultiReporter{
		podfs.NewLogReporter(sc.logger),
		podfs.ReporterFunc(func(ctx context.Context, err error) {
			metrics.RecordReportedFailure(ctx, FailureKind(err))
		}),
		sc.reporter,
	}
}

// Platform resolves a platform name, falling back to the configured default
// when name is empty.
func (sc *ServerContext) Platform(name string) (podfs.Platform, error) {
	if name == "" {
		name = sc.Config().Platform
	}
	return podfs.ParsePlatform(name)
}

// KubeContext returns kubeContext, or the configured default when empty.
func (sc *ServerContext) KubeContext(kubeContext string) string {
	if kubeContext != "" {
		return kubeContext
	}
	return sc.Config().KubeContext
}

// PodGetter returns a pod getter bound to a kubeconfig context. Lookups are
// recorded as Kubernetes operations.
func (sc *ServerContext) PodGetter(kubeContext string) podfs.PodGetter {
	client := sc.K8sClient()
	metrics := sc.Metrics()
	kubeContext = sc.KubeContext(kubeContext)
	return podfs.PodGetterFunc(func(ctx context.Context, namespace, name string) (*corev1.Pod, error) {
		start := time.Now()
		pod, err := client.GetPod(ctx, kubeContext, namespace, name)
		metrics.RecordK8sOperation(ctx, instrumentation.OperationGetPod, namespace, instrumentation.StatusFor(err), time.Since(start))
		return pod, err
	})
}

func (sc *ServerContext) podfsOptions(platform podfs.Platform) []podfs.Option {
	return []podfs.Option{
		podfs.WithPlatform(platform),
		podfs.WithLogger(sc.Logger()),
		podfs.WithReporterSink(sc.Reporter()),
		podfs.WithExecObserver(sc.Metrics()),
	}
}

// Tree returns a container filesystem tree for a kubeconfig context and
// platform. Trees hold no state and are cheap to build per request.
func (sc *ServerContext) Tree(kubeContext string, platform podfs.Platform) (*podfs.Tree, error) {
	if sc.IsShutdown() {
		return nil, ErrServerShutdown
	}
	exec := podfs.NewKubeExecutor(sc.K8sClient(), sc.KubeContext(kubeContext))
	return podfs.NewTree(sc.PodGetter(kubeContext), exec, sc.podfsOptions(platform)...)
}

// ContentProvider returns a document content provider for a kubeconfig
// context and platform.
func (sc *ServerContext) ContentProvider(kubeContext string, platform podfs.Platform) (*podfs.ContentProvider, error) {
	if sc.IsShutdown() {
		return nil, ErrServerShutdown
	}
	exec := podfs.NewKubeExecutor(sc.K8sClient(), sc.KubeContext(kubeContext))
	return podfs.NewContentProvider(exec, sc.podfsOptions(platform)...)
}

// Shutdown cancels the server context. It is safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.logger.Info("Shutting down server context")
	if sc.cancel != nil {
		sc.cancel()
	}
	sc.shutdown = true
	return nil
}

// IsShutdown returns true if the server context has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

func (sc *ServerContext) validate() error {
	if sc.k8sClient == nil {
		return ErrMissingK8sClient
	}
	if sc.logger == nil {
		return ErrMissingLogger
	}
	if sc.config == nil {
		return ErrMissingConfig
	}
	if _, err := podfs.ParsePlatform(sc.config.Platform); err != nil {
		return err
	}
	return nil
}

// FailureKind classifies a reported failure for the failure counter.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, podfs.ErrRemoteCommandFailed):
		return "remote_command"
	case errors.Is(err, podfs.ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, podfs.ErrInvalidIdentifier):
		return "invalid_identifier"
	case errors.Is(err, podfs.ErrHostCapabilityUnavailable):
		return "host_capability"
	}
	return "other"
}

// Config holds the server configuration.
type Config struct {
	ServerName string `json:"serverName"`
	Version    string `json:"version"`

	// DefaultNamespace is used when a tool call names no namespace.
	DefaultNamespace string `json:"defaultNamespace"`
	// KubeContext is the kubeconfig context used when a call names none.
	// Empty selects the kubeconfig's current context.
	KubeContext string `json:"kubeContext"`
	// Platform is the default container platform, "linux" or "windows".
	Platform string `json:"platform"`
	// CLI is the command line tool named in generated terminal commands.
	CLI string `json:"cli"`

	// RestrictedNamespaces lists namespaces whose pods may not be browsed.
	RestrictedNamespaces []string `json:"restrictedNamespaces"`

	// Output bounds listing and document sizes in tool responses.
	Output *output.Config `json:"output"`
}

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		ServerName:       "mcp-podfs",
		Version:          "0.1.0",
		DefaultNamespace: podfs.DefaultNamespace,
		Platform:         string(podfs.Linux),
		CLI:              podfs.DefaultCLI,
		Output:           output.DefaultConfig(),
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.RestrictedNamespaces != nil {
		clone.RestrictedNamespaces = make([]string, len(c.RestrictedNamespaces))
		copy(clone.RestrictedNamespaces, c.RestrictedNamespaces)
	}
	clone.Output = c.Output.Clone()
	return &clone
}
