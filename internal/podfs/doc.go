// Package podfs models the filesystems of running pod containers as a lazy
// tree.
//
// The top level of a pod holds its volumes, its containers and one root
// folder per container. Folders are expanded by running a single listing
// command inside the container through an Executor and parsing its output;
// a trailing '/' or '\' marks a sub-folder, anything else is a file. Nothing
// is cached, so every expansion reflects the live filesystem.
//
// Documents (file contents, recursive finds, detailed listings) are addressed
// by an Identifier and resolved by a ContentProvider.
//
// Tree and document operations fail open: a failed remote command is sent to
// a Reporter exactly once and the operation returns an empty child list or a
// diagnostic text.
package podfs
