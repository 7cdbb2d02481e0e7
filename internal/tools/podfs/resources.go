package podfstools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-podfs/internal/podfs"
	"github.com/giantswarm/mcp-podfs/internal/server"
	"github.com/giantswarm/mcp-podfs/internal/tools"
	"github.com/giantswarm/mcp-podfs/internal/tools/output"
)

const documentMIMEType = "text/plain"

var schemeDescriptions = map[podfs.Scheme]string{
	podfs.SchemeView:         "Contents of a file inside a running container",
	podfs.SchemeFind:         "Recursive listing of a folder inside a running container",
	podfs.SchemeListDetailed: "Long listing of a folder inside a running container",
}

// DocumentTemplate returns the URI template of documents read with scheme.
func DocumentTemplate(scheme podfs.Scheme) string {
	return string(scheme) + ":{pod}:{namespace}:{container}:{+path}"
}

// registerDocumentTemplates exposes every document scheme as a resource
// template. Documents use the server's default context and platform.
func registerDocumentTemplates(s *mcpserver.MCPServer, sc *server.ServerContext) {
	for _, scheme := range podfs.Schemes {
		template := mcp.NewResourceTemplate(
			DocumentTemplate(scheme),
			"container-"+string(scheme),
			mcp.WithTemplateDescription(schemeDescriptions[scheme]),
			mcp.WithTemplateMIMEType(documentMIMEType),
		)
		s.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return handleReadDocument(ctx, request, sc)
		})
	}
}

// handleReadDocument resolves a document resource. Like the read tool it
// returns the diagnostic text when the remote command fails.
func handleReadDocument(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	id, err := podfs.ParseIdentifier(request.Params.URI)
	if err != nil {
		return nil, err
	}
	if err := tools.ValidateNamespace(sc, "read", id.Namespace); err != nil {
		return nil, err
	}

	platform, err := sc.Platform("")
	if err != nil {
		return nil, err
	}
	provider, err := sc.ContentProvider("", platform)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	text, warning := output.TruncateText(provider.Resolve(ctx, id), sc.OutputConfig().MaxResponseBytes)
	if warning != nil {
		text += "\n\n" + warning.Message
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: documentMIMEType,
			Text:     text,
		},
	}, nil
}
