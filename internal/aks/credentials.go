package aks

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v6"

	"github.com/giantswarm/mcp-podfs/internal/instrumentation"
	"github.com/giantswarm/mcp-podfs/internal/logging"
)

const managedClusterType = "Microsoft.ContainerService/managedClusters"

// CredentialKind selects which kubeconfig is fetched for a cluster.
type CredentialKind string

const (
	// CredentialAdmin is the cluster admin kubeconfig (local accounts).
	CredentialAdmin CredentialKind = "clusterAdmin"
	// CredentialUser is the kubeconfig of the signed-in Azure identity.
	CredentialUser CredentialKind = "clusterUser"
)

// ClusterID identifies a managed cluster.
type ClusterID struct {
	SubscriptionID string
	ResourceGroup  string
	Name           string
}

// String returns the ARM resource id of the cluster.
func (c ClusterID) String() string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/%s/%s",
		c.SubscriptionID, c.ResourceGroup, managedClusterType, c.Name)
}

// ParseClusterID parses the ARM resource id of a managed cluster.
func ParseClusterID(id string) (ClusterID, error) {
	rid, err := arm.ParseResourceID(strings.TrimSpace(id))
	if err != nil {
		return ClusterID{}, fmt.Errorf("%w %q: %v", ErrInvalidResourceID, id, err)
	}
	if !strings.EqualFold(rid.ResourceType.String(), managedClusterType) {
		return ClusterID{}, fmt.Errorf("%w %q: resource type is %s", ErrInvalidResourceID, id, rid.ResourceType.String())
	}
	if rid.SubscriptionID == "" || rid.ResourceGroupName == "" || rid.Name == "" {
		return ClusterID{}, fmt.Errorf("%w %q", ErrInvalidResourceID, id)
	}
	return ClusterID{
		SubscriptionID: rid.SubscriptionID,
		ResourceGroup:  rid.ResourceGroupName,
		Name:           rid.Name,
	}, nil
}

// ManagedClustersAPI is the part of the managed clusters client used to
// fetch credentials. *armcontainerservice.ManagedClustersClient satisfies it.
type ManagedClustersAPI interface {
	ListClusterAdminCredentials(ctx context.Context, resourceGroupName, resourceName string, options *armcontainerservice.ManagedClustersClientListClusterAdminCredentialsOptions) (armcontainerservice.ManagedClustersClientListClusterAdminCredentialsResponse, error)
	ListClusterUserCredentials(ctx context.Context, resourceGroupName, resourceName string, options *armcontainerservice.ManagedClustersClientListClusterUserCredentialsOptions) (armcontainerservice.ManagedClustersClientListClusterUserCredentialsResponse, error)
}

// ClustersFactory returns the managed clusters client of a subscription.
type ClustersFactory func(subscriptionID string) (ManagedClustersAPI, error)

// Client fetches managed cluster kubeconfigs.
type Client struct {
	clusters ClustersFactory
	settings
}

// NewClient returns a Client authenticating with cred. A nil cred uses the
// default Azure credential chain (environment, workload identity, managed
// identity, Azure CLI).
func NewClient(cred azcore.TokenCredential, opts ...Option) (*Client, error) {
	if cred == nil {
		var err error
		cred, err = azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create default credential: %w", err)
		}
	}
	factory := func(subscriptionID string) (ManagedClustersAPI, error) {
		client, err := armcontainerservice.NewManagedClustersClient(subscriptionID, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create managed clusters client: %w", err)
		}
		return client, nil
	}
	return NewClientWithFactory(factory, opts...), nil
}

// NewClientWithFactory returns a Client using factory for the ARM calls.
func NewClientWithFactory(factory ClustersFactory, opts ...Option) *Client {
	return &Client{clusters: factory, settings: newSettings(opts)}
}

// Kubeconfig returns the kubeconfig of kind for the cluster with the given
// resource id.
func (c *Client) Kubeconfig(ctx context.Context, resourceID string, kind CredentialKind) (kubeconfig []byte, err error) {
	id, err := ParseClusterID(resourceID)
	if err != nil {
		return nil, err
	}

	ctx, span := instrumentation.StartAzureSpan(ctx, instrumentation.OperationAKSCredentials, id.String())
	defer func() {
		c.metrics.RecordAzureOperation(ctx, instrumentation.OperationAKSCredentials, instrumentation.StatusFor(err))
		instrumentation.EndSpan(span, err)
	}()

	clusters, err := c.clusters(id.SubscriptionID)
	if err != nil {
		return nil, err
	}

	var results armcontainerservice.CredentialResults
	switch kind {
	case CredentialAdmin:
		resp, err := clusters.ListClusterAdminCredentials(ctx, id.ResourceGroup, id.Name, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list admin credentials of %s: %w", id.Name, err)
		}
		results = resp.CredentialResults
	case CredentialUser:
		resp, err := clusters.ListClusterUserCredentials(ctx, id.ResourceGroup, id.Name, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list user credentials of %s: %w", id.Name, err)
		}
		results = resp.CredentialResults
	default:
		return nil, fmt.Errorf("unknown credential kind %q", kind)
	}

	for _, r := range results.Kubeconfigs {
		if r != nil && r.Name != nil && *r.Name == string(kind) {
			c.logger.Debug("fetched cluster kubeconfig",
				logging.Operation(instrumentation.OperationAKSCredentials),
				logging.Cluster(id.Name),
				logging.Secret("kubeconfig", string(r.Value)),
				"kind", string(kind))
			return r.Value, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrKubeconfigNotFound, kind)
}
