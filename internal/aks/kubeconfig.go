package aks

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// MergeKubeconfig merges the contexts, clusters and users of kubeconfig into
// the file at path, creating it if needed. Entries with the same name are
// replaced. When setCurrent is true the current context of kubeconfig
// becomes the current context of the file. It returns the merged context
// name.
func MergeKubeconfig(path string, kubeconfig []byte, setCurrent bool) (string, error) {
	incoming, err := clientcmd.Load(kubeconfig)
	if err != nil {
		return "", fmt.Errorf("failed to parse kubeconfig: %w", err)
	}

	existing := clientcmdapi.NewConfig()
	if _, err := os.Stat(path); err == nil {
		existing, err = clientcmd.LoadFromFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to load %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	for name, cluster := range incoming.Clusters {
		existing.Clusters[name] = cluster
	}
	for name, user := range incoming.AuthInfos {
		existing.AuthInfos[name] = user
	}
	for name, kubeContext := range incoming.Contexts {
		existing.Contexts[name] = kubeContext
	}
	if setCurrent && incoming.CurrentContext != "" {
		existing.CurrentContext = incoming.CurrentContext
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("failed to create kubeconfig directory: %w", err)
	}
	if err := clientcmd.WriteToFile(*existing, path); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return incoming.CurrentContext, nil
}
