package aks

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"github.com/giantswarm/mcp-podfs/internal/instrumentation"
	"github.com/giantswarm/mcp-podfs/internal/logging"
)

// Container names are 3 to 63 characters of lowercase letters, digits and
// single dashes.
const (
	minContainerName = 3
	maxContainerName = 63
)

// LogBlob is one file uploaded by a periscope run.
type LogBlob struct {
	Name         string    `json:"name"`
	Run          string    `json:"run"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified,omitempty"`
}

// Periscope reads the diagnostic logs collected for clusters from one
// storage account. Each cluster's logs live in a blob container named after
// the cluster, grouped under one top-level folder per collection run.
type Periscope struct {
	client *azblob.Client
	settings
}

// NewPeriscope returns a Periscope for the storage account, authenticating
// with cred or, when nil, the default Azure credential chain.
func NewPeriscope(account string, cred azcore.TokenCredential, opts ...Option) (*Periscope, error) {
	if account == "" {
		return nil, ErrStorageAccountRequired
	}
	if cred == nil {
		var err error
		cred, err = azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create default credential: %w", err)
		}
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", account)
	client, err := azblob.NewClient(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	return NewPeriscopeFromClient(client, opts...), nil
}

// NewPeriscopeFromClient returns a Periscope using client.
func NewPeriscopeFromClient(client *azblob.Client, opts ...Option) *Periscope {
	return &Periscope{client: client, settings: newSettings(opts)}
}

// ContainerName returns the blob container holding the logs of a cluster:
// the lowercased name with every other character than a letter or digit
// turned into a single dash, trimmed of dashes and cut to 63 characters.
func ContainerName(clusterName string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(clusterName) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimRight(b.String(), "-")
	if len(name) > maxContainerName {
		name = strings.TrimRight(name[:maxContainerName], "-")
	}
	for len(name) < minContainerName {
		name += "0"
	}
	return name
}

// ListLogs lists the log files of cluster, optionally limited to one run.
// Blobs are returned newest run first, then by name.
func (p *Periscope) ListLogs(ctx context.Context, cluster ClusterID, run string) (blobs []LogBlob, err error) {
	containerName := ContainerName(cluster.Name)

	ctx, span := instrumentation.StartAzureSpan(ctx, instrumentation.OperationAKSDiagnostics, cluster.String())
	defer func() {
		p.metrics.RecordAzureOperation(ctx, instrumentation.OperationAKSDiagnostics, instrumentation.StatusFor(err))
		instrumentation.EndSpan(span, err)
	}()

	listOpts := &container.ListBlobsFlatOptions{}
	if run != "" {
		prefix := strings.TrimSuffix(run, "/") + "/"
		listOpts.Prefix = &prefix
	}

	pager := p.client.ServiceClient().NewContainerClient(containerName).NewListBlobsFlatPager(listOpts)
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list logs in container %s: %w", containerName, err)
		}
		for _, item := range resp.Segment.BlobItems {
			if item == nil || item.Name == nil {
				continue
			}
			blob := LogBlob{Name: *item.Name, Run: runOf(*item.Name)}
			if item.Properties != nil {
				if item.Properties.ContentLength != nil {
					blob.Size = *item.Properties.ContentLength
				}
				if item.Properties.LastModified != nil {
					blob.LastModified = *item.Properties.LastModified
				}
			}
			blobs = append(blobs, blob)
		}
	}

	sort.SliceStable(blobs, func(i, j int) bool {
		if blobs[i].Run != blobs[j].Run {
			return blobs[i].Run > blobs[j].Run
		}
		return blobs[i].Name < blobs[j].Name
	})

	p.logger.Debug("listed periscope logs",
		logging.Operation(instrumentation.OperationAKSDiagnostics),
		logging.Cluster(cluster.Name),
		logging.Host(p.client.URL()),
		"count", len(blobs))
	return blobs, nil
}

// Runs returns the distinct runs of blobs, newest first.
func Runs(blobs []LogBlob) []string {
	seen := map[string]bool{}
	var runs []string
	for _, b := range blobs {
		if b.Run != "" && !seen[b.Run] {
			seen[b.Run] = true
			runs = append(runs, b.Run)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(runs)))
	return runs
}

// Download writes the content of one log blob of cluster to w.
func (p *Periscope) Download(ctx context.Context, cluster ClusterID, name string, w io.Writer) (written int64, err error) {
	containerName := ContainerName(cluster.Name)

	ctx, span := instrumentation.StartAzureSpan(ctx, instrumentation.OperationAKSDiagnostics, cluster.String())
	defer func() {
		p.metrics.RecordAzureOperation(ctx, instrumentation.OperationAKSDiagnostics, instrumentation.StatusFor(err))
		instrumentation.EndSpan(span, err)
	}()

	resp, err := p.client.DownloadStream(ctx, containerName, name, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to download %s: %w", name, err)
	}
	defer resp.Body.Close()

	written, err = io.Copy(w, resp.Body)
	if err != nil {
		return written, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return written, nil
}

// runOf returns the top-level folder of a blob name.
func runOf(name string) string {
	dir := path.Dir(name)
	if dir == "." {
		return ""
	}
	if i := strings.IndexByte(dir, '/'); i >= 0 {
		return dir[:i]
	}
	return dir
}
