package aks

import "errors"

var (
	// ErrInvalidResourceID is returned when a string is not the ARM id of a
	// managed cluster.
	ErrInvalidResourceID = errors.New("invalid managed cluster resource id")

	// ErrKubeconfigNotFound is returned when the credential result holds no
	// kubeconfig with the requested name.
	ErrKubeconfigNotFound = errors.New("kubeconfig not found in credential results")

	// ErrStorageAccountRequired is returned when periscope logs are requested
	// without a storage account.
	ErrStorageAccountRequired = errors.New("storage account is required")
)
