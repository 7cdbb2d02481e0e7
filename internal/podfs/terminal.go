package podfs

import (
	"fmt"
)

// Command strings handed to an interactive terminal. They are never parsed
// or run by this package.

// DefaultCLI is the cluster CLI used in terminal command strings.
const DefaultCLI = "kubectl"

// ShellCommand opens an interactive shell in container c.
func ShellCommand(cli string, p Platform, c *Container) string {
	shell := "sh"
	if p == Windows {
		shell = "powershell"
	}
	return fmt.Sprintf("%s exec -it %s -c %s --namespace %s -- %s",
		cliOrDefault(cli), c.Pod.Name, c.Name, c.Pod.Namespace, shell)
}

// CopyFromCommand copies file f out of its container into the working
// directory under its own name.
func CopyFromCommand(cli string, f *Entry) string {
	return fmt.Sprintf("%s cp %s/%s:%s %s -c %s",
		cliOrDefault(cli), f.Pod.Namespace, f.Pod.Name, f.FullPath(), f.Name, f.Container)
}

// TailCommand follows file f.
func TailCommand(cli string, f *Entry) string {
	return fmt.Sprintf("%s exec -it %s -c %s --namespace %s -- tail -f %s",
		cliOrDefault(cli), f.Pod.Name, f.Container, f.Pod.Namespace, f.FullPath())
}

func cliOrDefault(cli string) string {
	if cli == "" {
		return DefaultCLI
	}
	return cli
}
