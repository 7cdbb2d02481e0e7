// Package k8s wraps client-go for the operations needed to browse container
// filesystems.
//
// The Client interface is broken down into focused concerns:
//
//   - ContextManager: kubeconfig context listing and switching
//   - PodManager: pod lookup, pod listing and exec
//   - ClusterManager: API server reachability
//
// Every operation accepts a kubeContext so one process can browse pods in
// several clusters. Clients for each context are built lazily on first use
// and cached for the lifetime of the process.
//
// Exec runs a command over the SPDY exec subresource and waits for it to
// finish. Output is captured into the ExecResult and a non-zero exit status
// is reported through ExitCode rather than as an error:
//
//	res, err := client.Exec(ctx, "", "default", "web-0", "nginx",
//		[]string{"ls", "-F", "/etc/"}, ExecOptions{})
//	if err != nil {
//		return err // the command could not be run
//	}
//	if res.ExitCode != 0 {
//		log.Printf("ls failed: %s", res.Stderr)
//	}
package k8s
