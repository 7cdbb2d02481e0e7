// Package cmd provides the command-line interface for mcp-podfs.
//
// Command Structure:
//
//	mcp-podfs serve [flags]                      # Starts the MCP server
//	mcp-podfs fs roots POD                       # Volumes, containers and root folders of a pod
//	mcp-podfs fs ls POD CONTAINER [PATH]         # One folder level
//	mcp-podfs fs cat|find|ls-al POD CONTAINER PATH
//	mcp-podfs fs open IDENTIFIER                 # Any document, e.g. view:web-0:default:nginx:/etc/hosts
//	mcp-podfs fs shell|cp|tail ...               # Print terminal commands
//	mcp-podfs aks get-credentials                # Merge AKS credentials into a kubeconfig
//	mcp-podfs aks periscope list|download        # Diagnostic logs collected by periscope
//	mcp-podfs version                            # Shows version information
//	mcp-podfs self-update                        # Updates to latest release
//
// The serve command supports the stdio (default), sse and streamable-http
// transports:
//
//	mcp-podfs serve --transport sse --http-addr :8080 --sse-endpoint /sse
//	mcp-podfs serve --transport streamable-http --http-addr :9000 --http-endpoint /mcp
//
// serve and fs share the cluster flags: kubeconfig, context, in-cluster
// authentication, default namespace, container OS and restricted namespaces.
package cmd
