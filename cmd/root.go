package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the mcp-podfs application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mcp-podfs",
	Short: "Browse files inside Kubernetes pod containers",
	Long: `mcp-podfs is a Model Context Protocol (MCP) server and command line tool
for browsing the filesystems of running Kubernetes containers. Folders are
listed on demand by running a command inside the container, and files can be
opened as read-only documents.

It also fetches AKS cluster credentials and the diagnostic logs periscope
collects for AKS clusters.

When run without subcommands, it starts the MCP server (equivalent to 'mcp-podfs serve').`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcp-podfs version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newFSCmd())
	rootCmd.AddCommand(newAKSCmd())
}
