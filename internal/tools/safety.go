package tools

import (
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/giantswarm/mcp-podfs/internal/server"
)

// ErrNamespaceRestricted is returned for operations on pods in a namespace
// listed in the server's RestrictedNamespaces.
var ErrNamespaceRestricted = errors.New("namespace is restricted")

// ValidateNamespace returns an error wrapping ErrNamespaceRestricted when
// operation may not touch pods in namespace.
func ValidateNamespace(sc *server.ServerContext, operation, namespace string) error {
	for _, ns := range sc.Config().RestrictedNamespaces {
		if ns == namespace {
			return fmt.Errorf("%s operations are not allowed in restricted namespace %q: %w",
				cases.Title(language.English).String(operation), namespace, ErrNamespaceRestricted)
		}
	}
	return nil
}

// CheckNamespaceAllowed verifies that an operation may touch pods in
// namespace given the server configuration. Returns an error result if
// blocked, nil if allowed.
//
// Protected operations include: browse, read, shell.
func CheckNamespaceAllowed(sc *server.ServerContext, operation, namespace string) *mcp.CallToolResult {
	if err := ValidateNamespace(sc, operation, namespace); err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return nil
}

// IsRestrictedNamespace reports whether namespace is hidden from listings.
func IsRestrictedNamespace(sc *server.ServerContext, namespace string) bool {
	return ValidateNamespace(sc, "list", namespace) != nil
}
