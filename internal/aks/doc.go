// Package aks retrieves Azure Kubernetes Service cluster credentials and the
// diagnostic logs that periscope uploads to a cluster's storage account.
//
// Clusters are addressed by their ARM resource id:
//
//	/subscriptions/<sub>/resourceGroups/<rg>/providers/Microsoft.ContainerService/managedClusters/<name>
//
// Credentials come from the managed cluster's listClusterAdminCredential or
// listClusterUserCredential endpoint; the kubeconfig named clusterAdmin or
// clusterUser is selected from the result and can be merged into a local
// kubeconfig file.
package aks
