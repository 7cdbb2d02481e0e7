// Package podfstools exposes container filesystems over MCP.
//
// Tools:
//   - pod_list: pods that can be browsed
//   - container_fs_roots: volumes, containers and container root folders of a pod
//   - container_fs_children: one folder level, listed with a single remote command
//   - container_fs_read: a file (view) or folder (find, list-detailed) as text
//   - container_terminal_command: shell, copy and tail command lines
//
// Every folder and file node carries the identifiers of the documents it can
// be opened as. The same identifiers are served as resource templates
// (view:{pod}:{namespace}:{container}:{+path} and so on).
package podfstools
