// Package logging provides structured logging utilities for mcp-podfs.
//
// Attribute helpers keep key names consistent across the codebase:
//
//	logger := logging.WithTool(slog.Default(), "container_fs_children")
//	logger.Info("listing folder",
//	    logging.Namespace("default"),
//	    logging.Pod("web-0"),
//	    logging.Path("/etc/"))
//
// Hosts and errors that may carry API server addresses go through Host and
// SanitizedErr. Credentials are only ever logged through Secret.
package logging
