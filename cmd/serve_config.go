package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/giantswarm/mcp-podfs/internal/k8s"
	"github.com/giantswarm/mcp-podfs/internal/logging"
	"github.com/giantswarm/mcp-podfs/internal/podfs"
	"github.com/giantswarm/mcp-podfs/internal/tools/output"
)

// Transport type constants for the MCP server.
const (
	transportStdio          = "stdio"
	transportSSE            = "sse"
	transportStreamableHTTP = "streamable-http"
)

// envValueTrue is the string value used to enable boolean environment variables.
const envValueTrue = "true"

// shutdownTimeout bounds the graceful shutdown of HTTP listeners.
const shutdownTimeout = 30 * time.Second

// defaultMaxRequestBytes bounds MCP request bodies on HTTP transports.
const defaultMaxRequestBytes = 1 << 20

// ClusterFlags selects the cluster and the containers' platform. It is
// shared by serve and the fs commands.
type ClusterFlags struct {
	KubeconfigPath string
	Context        string
	InCluster      bool
	Namespace      string
	Platform       string
	CLI            string

	QPSLimit   float32
	BurstLimit int
	Timeout    time.Duration

	RestrictedNamespaces []string
}

// addTo registers the flags on fs.
func (c *ClusterFlags) addTo(fs *pflag.FlagSet) {
	fs.StringVar(&c.KubeconfigPath, "kubeconfig", "", "Path to the kubeconfig file (default: $KUBECONFIG or ~/.kube/config)")
	fs.StringVar(&c.Context, "context", "", "Kubeconfig context to use (default: the current context)")
	fs.BoolVar(&c.InCluster, "in-cluster", false, "Use in-cluster authentication (service account token) instead of kubeconfig")
	fs.StringVarP(&c.Namespace, "namespace", "n", podfs.DefaultNamespace, "Namespace of the pod")
	fs.StringVar(&c.Platform, "container-os", "", "Operating system of the containers: linux or windows (default: $PODFS_CONTAINER_OS or linux)")
	fs.StringVar(&c.CLI, "cli", podfs.DefaultCLI, "Command line tool named in generated terminal commands")
	fs.Float32Var(&c.QPSLimit, "qps-limit", 20.0, "QPS limit for Kubernetes API calls")
	fs.IntVar(&c.BurstLimit, "burst-limit", 30, "Burst limit for Kubernetes API calls")
	fs.DurationVar(&c.Timeout, "timeout", 30*time.Second, "Timeout of Kubernetes API requests")
	fs.StringSliceVar(&c.RestrictedNamespaces, "restricted-namespaces", nil, "Namespaces whose pods may not be browsed (default: $RESTRICTED_NAMESPACES)")
}

// loadEnv fills unset values from the environment.
func (c *ClusterFlags) loadEnv() {
	loadEnvIfEmpty(&c.Platform, "PODFS_CONTAINER_OS")
	if c.Platform == "" {
		c.Platform = string(podfs.Linux)
	}
	if len(c.RestrictedNamespaces) == 0 {
		c.RestrictedNamespaces = splitList(os.Getenv("RESTRICTED_NAMESPACES"))
	}
}

// Validate checks the flag values.
func (c *ClusterFlags) Validate() error {
	if _, err := podfs.ParsePlatform(c.Platform); err != nil {
		return fmt.Errorf("invalid --container-os: %w", err)
	}
	if c.InCluster && c.KubeconfigPath != "" {
		return fmt.Errorf("--kubeconfig cannot be combined with --in-cluster")
	}
	if c.QPSLimit <= 0 {
		return fmt.Errorf("--qps-limit must be positive, got %v", c.QPSLimit)
	}
	if c.BurstLimit <= 0 {
		return fmt.Errorf("--burst-limit must be positive, got %d", c.BurstLimit)
	}
	return nil
}

// clientConfig builds the Kubernetes client configuration.
func (c *ClusterFlags) clientConfig(logger *slog.Logger, debug bool) *k8s.ClientConfig {
	return &k8s.ClientConfig{
		KubeconfigPath:       c.KubeconfigPath,
		Context:              c.Context,
		InCluster:            c.InCluster,
		RestrictedNamespaces: c.RestrictedNamespaces,
		QPSLimit:             c.QPSLimit,
		BurstLimit:           c.BurstLimit,
		Timeout:              c.Timeout,
		DebugMode:            debug,
		Logger:               logging.NewSlogAdapter(logger),
	}
}

// newK8sClient builds the Kubernetes client. Tests replace it.
var newK8sClient = func(config *k8s.ClientConfig) (k8s.Client, error) {
	return k8s.NewClient(config)
}

// MetricsServeConfig holds the dedicated metrics listener configuration.
type MetricsServeConfig struct {
	Enabled bool
	Addr    string
}

// SecurityServeConfig holds the HTTP hardening applied to HTTP transports.
type SecurityServeConfig struct {
	EnableHSTS      bool
	AllowedOrigins  string
	MaxRequestBytes int64
}

// ServeConfig holds all configuration for the serve command.
type ServeConfig struct {
	// Transport settings
	Transport string
	HTTPAddr  string

	// Endpoint paths
	SSEEndpoint     string
	MessageEndpoint string
	HTTPEndpoint    string

	Cluster   ClusterFlags
	DebugMode bool

	// Output limits of tool responses
	MaxItems         int
	MaxResponseBytes int

	Metrics  MetricsServeConfig
	Security SecurityServeConfig
}

// Validate checks the configuration before anything is started.
func (c *ServeConfig) Validate() error {
	switch c.Transport {
	case transportStdio:
	case transportSSE:
		if err := validateEndpoint("--sse-endpoint", c.SSEEndpoint); err != nil {
			return err
		}
		if err := validateEndpoint("--message-endpoint", c.MessageEndpoint); err != nil {
			return err
		}
		if c.SSEEndpoint == c.MessageEndpoint {
			return fmt.Errorf("--sse-endpoint and --message-endpoint must differ")
		}
	case transportStreamableHTTP:
		if err := validateEndpoint("--http-endpoint", c.HTTPEndpoint); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, sse, streamable-http)", c.Transport)
	}

	if c.Transport != transportStdio && c.HTTPAddr == "" {
		return fmt.Errorf("--http-addr is required for the %s transport", c.Transport)
	}
	if c.Metrics.Enabled && c.Metrics.Addr != "" && c.Metrics.Addr == c.HTTPAddr {
		return fmt.Errorf("--metrics-addr must differ from --http-addr")
	}
	if c.MaxItems < 0 || c.MaxResponseBytes < 0 {
		return fmt.Errorf("output limits must not be negative")
	}
	return c.Cluster.Validate()
}

// outputConfig returns the output limits, capped at the absolute maximums.
func (c *ServeConfig) outputConfig() *output.Config {
	return (&output.Config{MaxItems: c.MaxItems, MaxResponseBytes: c.MaxResponseBytes}).Validate()
}

func validateEndpoint(flag, path string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%s must start with /, got %q", flag, path)
	}
	return nil
}

// newLogger returns the text logger used by every command. Debug wins over
// LOG_LEVEL.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := logging.ParseLevel(os.Getenv("LOG_LEVEL"))
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadEnvIfEmpty loads an environment variable into a string pointer if it's empty.
func loadEnvIfEmpty(target *string, envKey string) {
	if *target == "" {
		*target = os.Getenv(envKey)
	}
}

// parseIntEnv parses an integer from an environment variable value.
// Returns the parsed int and true if successful, or zero and false if parsing fails.
func parseIntEnv(value, envName string, logger *slog.Logger) (int, bool) {
	if value == "" {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logger.Warn("invalid integer in environment", "env", envName, "value", value, logging.Err(err))
		return 0, false
	}
	return n, true
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
