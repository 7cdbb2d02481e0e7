package k8s

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// kubernetesClient implements the Client interface using client-go.
type kubernetesClient struct {
	config *ClientConfig

	// Per-context clients, created on first use.
	mu       sync.RWMutex
	contexts map[string]*contextClients

	kubeconfigData *clientcmdapi.Config
	currentContext string

	restrictedNamespaces []string

	qpsLimit   float32
	burstLimit int
	timeout    time.Duration
}

// contextClients holds the lazily built clients of one kubeconfig context.
type contextClients struct {
	rest      lazyValue[*rest.Config]
	clientset lazyValue[kubernetes.Interface]
}

// ClientConfig holds configuration for the Kubernetes client.
type ClientConfig struct {
	// Kubeconfig settings
	KubeconfigPath string
	Context        string

	// Use in-cluster service account authentication instead of kubeconfig
	InCluster bool

	// Namespaces that may not be browsed
	RestrictedNamespaces []string

	// Performance settings
	QPSLimit   float32
	BurstLimit int
	Timeout    time.Duration

	DebugMode bool

	Logger Logger
}

// Logger is the leveled logger used by the client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NewClient returns a client for the kubeconfig, or for the pod's service
// account when config.InCluster is set. Clientsets are built per context on
// first use.
func NewClient(config *ClientConfig) (*kubernetesClient, error) {
	if config == nil {
		return nil, fmt.Errorf("client configuration is required")
	}
	config.QPSLimit = cmp.Or(config.QPSLimit, DefaultQPSLimit)
	config.BurstLimit = cmp.Or(config.BurstLimit, DefaultBurstLimit)
	config.Timeout = cmp.Or(config.Timeout, DefaultTimeout*time.Second)

	c := &kubernetesClient{
		config:               config,
		contexts:             make(map[string]*contextClients),
		restrictedNamespaces: config.RestrictedNamespaces,
		qpsLimit:             config.QPSLimit,
		burstLimit:           config.BurstLimit,
		timeout:              config.Timeout,
	}

	if config.InCluster {
		if err := c.validateInClusterEnvironment(); err != nil {
			return nil, fmt.Errorf("in-cluster authentication not available: %w", err)
		}
		c.currentContext = InClusterContext
		c.info("Using in-cluster authentication")
		return c, nil
	}

	if err := c.loadKubeconfig(); err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	c.currentContext = cmp.Or(config.Context, c.kubeconfigData.CurrentContext)
	if _, ok := c.kubeconfigData.Contexts[c.currentContext]; !ok && c.currentContext != "" {
		return nil, fmt.Errorf("context %q does not exist in kubeconfig", c.currentContext)
	}

	c.info("Using kubeconfig authentication", "context", c.currentContext)
	return c, nil
}

// NewClientForClientset returns a client whose current context is served by
// clientset. Exec is unavailable because there is no REST config to dial.
func NewClientForClientset(clientset kubernetes.Interface, config *ClientConfig) *kubernetesClient {
	if config == nil {
		config = &ClientConfig{}
	}
	cc := &contextClients{}
	cc.clientset.value, cc.clientset.set = clientset, true
	return &kubernetesClient{
		config:               config,
		contexts:             map[string]*contextClients{InClusterContext: cc},
		currentContext:       InClusterContext,
		restrictedNamespaces: config.RestrictedNamespaces,
		kubeconfigData: &clientcmdapi.Config{
			Contexts:       map[string]*clientcmdapi.Context{InClusterContext: {Cluster: InClusterContext}},
			CurrentContext: InClusterContext,
		},
	}
}

// validateInClusterEnvironment checks that the service account files are present.
func (c *kubernetesClient) validateInClusterEnvironment() error {
	for what, path := range map[string]string{
		"token":          DefaultTokenPath,
		"CA certificate": DefaultCACertPath,
		"namespace":      DefaultNamespacePath,
	} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("service account %s not found at %s", what, path)
		}
	}
	return nil
}

// loadKubeconfig loads the kubeconfig from the configured path, $KUBECONFIG
// or the default location.
func (c *kubernetesClient) loadKubeconfig() error {
	if kconf := os.Getenv("KUBECONFIG"); kconf != "" && c.config.KubeconfigPath == "" {
		if strings.HasPrefix(kconf, "~/") {
			uhd, _ := os.UserHomeDir()
			kconf = filepath.Join(uhd, kconf[2:])
		}
		c.config.KubeconfigPath = kconf
	}

	rawConfig, err := c.clientConfig("").RawConfig()
	if err != nil {
		return fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	c.kubeconfigData = &rawConfig
	return nil
}

func (c *kubernetesClient) clientConfig(contextName string) clientcmd.ClientConfig {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if c.config.KubeconfigPath != "" {
		loadingRules.ExplicitPath = c.config.KubeconfigPath
	}
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		loadingRules,
		&clientcmd.ConfigOverrides{CurrentContext: contextName},
	)
}

// clientsFor returns the client cache entry of a context, creating it if needed.
func (c *kubernetesClient) clientsFor(contextName string) (string, *contextClients) {
	c.mu.RLock()
	if contextName == "" {
		contextName = c.currentContext
	}
	cc, ok := c.contexts[contextName]
	c.mu.RUnlock()
	if ok {
		return contextName, cc
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cc, ok = c.contexts[contextName]; !ok {
		cc = &contextClients{}
		c.contexts[contextName] = cc
	}
	return contextName, cc
}

// getRestConfig returns a rest.Config for the specified context.
func (c *kubernetesClient) getRestConfig(contextName string) (*rest.Config, error) {
	name, cc := c.clientsFor(contextName)
	return cc.rest.Get(func() (*rest.Config, error) {
		c.debug("creating REST config", "context", name)

		var (
			restConfig *rest.Config
			err        error
		)
		if c.config.InCluster {
			restConfig, err = rest.InClusterConfig()
			if err != nil {
				return nil, fmt.Errorf("failed to create in-cluster rest config: %w", err)
			}
		} else {
			restConfig, err = c.clientConfig(name).ClientConfig()
			if err != nil {
				return nil, fmt.Errorf("failed to create rest config for context %q: %w", name, err)
			}
		}

		restConfig.QPS = c.qpsLimit
		restConfig.Burst = c.burstLimit
		restConfig.Timeout = c.timeout
		return restConfig, nil
	})
}

// getClientset returns a Kubernetes clientset for the specified context.
func (c *kubernetesClient) getClientset(contextName string) (kubernetes.Interface, error) {
	name, cc := c.clientsFor(contextName)
	return cc.clientset.Get(func() (kubernetes.Interface, error) {
		restConfig, err := c.getRestConfig(name)
		if err != nil {
			return nil, err
		}
		c.debug("creating clientset", "context", name)
		clientset, err := kubernetes.NewForConfig(restConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create clientset for context %q: %w", name, err)
		}
		return clientset, nil
	})
}

// isNamespaceRestricted checks if a namespace is restricted.
func (c *kubernetesClient) isNamespaceRestricted(namespace string) error {
	if slices.Contains(c.restrictedNamespaces, namespace) {
		return fmt.Errorf("access to namespace %q is restricted", namespace)
	}
	return nil
}

// logOperation logs an operation for debugging and audit purposes.
func (c *kubernetesClient) logOperation(operation, kubeContext, namespace, pod string) {
	if c.config.Logger != nil {
		c.config.Logger.Debug("kubernetes operation",
			"operation", operation,
			"context", kubeContext,
			"namespace", namespace,
			"pod", pod,
		)
	}
}

func (c *kubernetesClient) info(msg string, args ...any) {
	if c.config.Logger != nil {
		c.config.Logger.Info(msg, args...)
	}
}

func (c *kubernetesClient) debug(msg string, args ...any) {
	if c.config.DebugMode && c.config.Logger != nil {
		c.config.Logger.Debug(msg, args...)
	}
}

// ContextManager implementation

func (c *kubernetesClient) current() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentContext
}

// describeContext returns the kubeconfig entry of name, or false when the
// kubeconfig has no such context.
func (c *kubernetesClient) describeContext(name, current string) (ContextInfo, bool) {
	entry, ok := c.kubeconfigData.Contexts[name]
	if !ok {
		return ContextInfo{}, false
	}
	return ContextInfo{
		Name:      name,
		Cluster:   entry.Cluster,
		User:      entry.AuthInfo,
		Namespace: entry.Namespace,
		Current:   name == current,
	}, true
}

// ListContexts returns the kubeconfig contexts sorted by name.
func (c *kubernetesClient) ListContexts(ctx context.Context) ([]ContextInfo, error) {
	c.logOperation("list-contexts", "", "", "")
	if c.config.InCluster {
		return []ContextInfo{c.inClusterContext()}, nil
	}

	current := c.current()
	names := make([]string, 0, len(c.kubeconfigData.Contexts))
	for name := range c.kubeconfigData.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)

	contexts := make([]ContextInfo, 0, len(names))
	for _, name := range names {
		info, _ := c.describeContext(name, current)
		contexts = append(contexts, info)
	}
	return contexts, nil
}

// GetCurrentContext returns the context used when a call names none.
func (c *kubernetesClient) GetCurrentContext(ctx context.Context) (*ContextInfo, error) {
	if c.config.InCluster {
		info := c.inClusterContext()
		return &info, nil
	}
	current := c.current()
	info, ok := c.describeContext(current, current)
	if !ok {
		return nil, fmt.Errorf("current context %q does not exist", current)
	}
	return &info, nil
}

// SwitchContext changes the default context. In-cluster clients only accept
// InClusterContext.
func (c *kubernetesClient) SwitchContext(ctx context.Context, contextName string) error {
	c.logOperation("switch-context", contextName, "", "")

	switch {
	case c.config.InCluster && contextName != InClusterContext:
		return fmt.Errorf("cannot switch context in in-cluster mode: only %q context is available", InClusterContext)
	case c.config.InCluster:
		return nil
	}
	if _, ok := c.kubeconfigData.Contexts[contextName]; !ok {
		return fmt.Errorf("context %q does not exist in kubeconfig", contextName)
	}

	c.mu.Lock()
	c.currentContext = contextName
	c.mu.Unlock()

	c.info("switched kubernetes context", "context", contextName)
	return nil
}

func (c *kubernetesClient) inClusterContext() ContextInfo {
	namespace := "default"
	if data, err := os.ReadFile(DefaultNamespacePath); err == nil {
		namespace = strings.TrimSpace(string(data))
	}
	return ContextInfo{
		Name:      InClusterContext,
		Cluster:   InClusterContext,
		User:      "serviceaccount",
		Namespace: namespace,
		Current:   true,
	}
}
