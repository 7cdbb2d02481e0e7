package server

import (
	"errors"
	"log/slog"

	"github.com/giantswarm/mcp-podfs/internal/instrumentation"
	"github.com/giantswarm/mcp-podfs/internal/k8s"
	"github.com/giantswarm/mcp-podfs/internal/podfs"
	"github.com/giantswarm/mcp-podfs/internal/tools/output"
)

// Option is a functional option for configuring ServerContext.
type Option func(*ServerContext) error

// WithK8sClient sets the Kubernetes client for the ServerContext.
func WithK8sClient(client k8s.Client) Option {
	return func(sc *ServerContext) error {
		if client == nil {
			return ErrMissingK8sClient
		}
		sc.k8sClient = client
		return nil
	}
}

// WithLogger sets the logger for the ServerContext.
func WithLogger(logger *slog.Logger) Option {
	return func(sc *ServerContext) error {
		if logger == nil {
			return ErrMissingLogger
		}
		sc.logger = logger
		return nil
	}
}

// WithConfig replaces the configuration with a copy of config.
func WithConfig(config *Config) Option {
	return func(sc *ServerContext) error {
		if config == nil {
			return ErrMissingConfig
		}
		sc.config = config.Clone()
		return nil
	}
}

// WithServerName sets the server name in the configuration.
func WithServerName(name string) Option {
	return func(sc *ServerContext) error {
		sc.config.ServerName = name
		return nil
	}
}

// WithVersion sets the reported server version.
func WithVersion(version string) Option {
	return func(sc *ServerContext) error {
		sc.config.Version = version
		return nil
	}
}

// WithDefaultNamespace sets the namespace used when a call names none.
func WithDefaultNamespace(namespace string) Option {
	return func(sc *ServerContext) error {
		if namespace != "" {
			sc.config.DefaultNamespace = namespace
		}
		return nil
	}
}

// WithKubeContext sets the default kubeconfig context.
func WithKubeContext(kubeContext string) Option {
	return func(sc *ServerContext) error {
		sc.config.KubeContext = kubeContext
		return nil
	}
}

// WithPlatform sets the default container platform.
func WithPlatform(name string) Option {
	return func(sc *ServerContext) error {
		p, err := podfs.ParsePlatform(name)
		if err != nil {
			return err
		}
		sc.config.Platform = string(p)
		return nil
	}
}

// WithCLI sets the command line tool named in generated terminal commands.
func WithCLI(cli string) Option {
	return func(sc *ServerContext) error {
		if cli != "" {
			sc.config.CLI = cli
		}
		return nil
	}
}

// WithRestrictedNamespaces sets the list of restricted namespaces.
func WithRestrictedNamespaces(namespaces []string) Option {
	return func(sc *ServerContext) error {
		if namespaces != nil {
			sc.config.RestrictedNamespaces = make([]string, len(namespaces))
			copy(sc.config.RestrictedNamespaces, namespaces)
		}
		return nil
	}
}

// WithOutputConfig sets the output limits for tool responses.
func WithOutputConfig(cfg *output.Config) Option {
	return func(sc *ServerContext) error {
		sc.config.Output = cfg.Clone()
		return nil
	}
}

// WithInstrumentationProvider sets the OpenTelemetry instrumentation provider.
func WithInstrumentationProvider(provider *instrumentation.Provider) Option {
	return func(sc *ServerContext) error {
		sc.instrumentationProvider = provider
		return nil
	}
}

// WithReporter adds a reporter that receives every tree and document failure.
func WithReporter(reporter podfs.Reporter) Option {
	return func(sc *ServerContext) error {
		sc.reporter = reporter
		return nil
	}
}

// WithInClusterMode marks the server as running with a service account.
func WithInClusterMode(enabled bool) Option {
	return func(sc *ServerContext) error {
		sc.inCluster = enabled
		return nil
	}
}

// Error definitions for ServerContext validation and operations.
var (
	ErrMissingK8sClient = errors.New("kubernetes client is required")
	ErrMissingLogger    = errors.New("logger is required")
	ErrMissingConfig    = errors.New("configuration is required")
	ErrServerShutdown   = errors.New("server context has been shutdown")
)
