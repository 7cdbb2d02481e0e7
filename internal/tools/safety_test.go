package tools

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-podfs/internal/server"
	"github.com/giantswarm/mcp-podfs/internal/tools/testdata"
)

func newTestServerContext(t *testing.T, opts ...server.Option) *server.ServerContext {
	t.Helper()
	opts = append([]server.Option{
		server.WithK8sClient(testdata.NewMockK8sClient(testdata.WebPod())),
		server.WithLogger(slog.New(slog.DiscardHandler)),
	}, opts...)
	sc, err := server.NewServerContext(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

// TestCheckNamespaceAllowed_Blocked verifies that every operation is blocked
// in a restricted namespace.
func TestCheckNamespaceAllowed_Blocked(t *testing.T) {
	sc := newTestServerContext(t, server.WithRestrictedNamespaces([]string{"kube-system"}))

	for _, op := range []string{"browse", "read", "shell"} {
		t.Run(op+" is blocked", func(t *testing.T) {
			result := CheckNamespaceAllowed(sc, op, "kube-system")
			require.NotNil(t, result, "%s should be blocked in kube-system", op)
			assert.True(t, result.IsError)
		})
	}
}

func TestCheckNamespaceAllowed_TitleCasesOperation(t *testing.T) {
	sc := newTestServerContext(t, server.WithRestrictedNamespaces([]string{"kube-system"}))

	result := CheckNamespaceAllowed(sc, "browse", "kube-system")
	require.NotNil(t, result)
	assert.Equal(t, `Browse operations are not allowed in restricted namespace "kube-system": namespace is restricted`, ResultText(result))
}

func TestValidateNamespace(t *testing.T) {
	sc := newTestServerContext(t, server.WithRestrictedNamespaces([]string{"kube-system"}))

	assert.ErrorIs(t, ValidateNamespace(sc, "read", "kube-system"), ErrNamespaceRestricted)
	assert.NoError(t, ValidateNamespace(sc, "read", "default"))
	assert.True(t, IsRestrictedNamespace(sc, "kube-system"))
	assert.False(t, IsRestrictedNamespace(sc, "default"))
}

func TestCheckNamespaceAllowed_Allowed(t *testing.T) {
	tests := []struct {
		name       string
		restricted []string
		namespace  string
	}{
		{name: "no restrictions", restricted: nil, namespace: "kube-system"},
		{name: "other namespace", restricted: []string{"kube-system"}, namespace: "default"},
		{name: "exact match only", restricted: []string{"kube"}, namespace: "kube-system"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestServerContext(t, server.WithRestrictedNamespaces(tt.restricted))
			assert.Nil(t, CheckNamespaceAllowed(sc, "read", tt.namespace))
		})
	}
}
