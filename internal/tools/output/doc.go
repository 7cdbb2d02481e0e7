// Package output bounds the size of container filesystem tool responses.
//
// Folder listings in large containers (for example a node_modules tree) and
// documents such as log files can exceed what an LLM client can use. Listings
// are cut to a maximum number of nodes and documents to a maximum number of
// bytes, and a [TruncationWarning] tells the caller what was left out.
//
//	cfg := output.DefaultConfig().Validate()
//	nodes, warning := output.TruncateGeneric(nodes, cfg.MaxItems)
//	text, warning := output.TruncateText(text, cfg.MaxResponseBytes)
package output
