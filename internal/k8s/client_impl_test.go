package k8s

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/clientcmd/api"
)

// testKubeconfig returns a kubeconfig with two contexts.
func testKubeconfig() *api.Config {
	return &api.Config{
		Clusters: map[string]*api.Cluster{
			"dev-cluster": {
				Server: "https://dev.example.com",
			},
			"stg-cluster": {
				Server: "https://stg.example.com",
			},
		},
		AuthInfos: map[string]*api.AuthInfo{
			"dev-user": {
				Token: "dev-token",
			},
		},
		Contexts: map[string]*api.Context{
			"kognitos-dev": {
				Cluster:   "dev-cluster",
				AuthInfo:  "dev-user",
				Namespace: "bdk",
			},
			"kognitos-stg": {
				Cluster:   "stg-cluster",
				AuthInfo:  "dev-user",
				Namespace: "bdk",
			},
		},
		CurrentContext: "kognitos-dev",
	}
}

// writeTestKubeconfig writes the test kubeconfig to a temp file and returns
// its path.
func writeTestKubeconfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "kubeconfig")
	require.NoError(t, clientcmd.WriteToFile(*testKubeconfig(), path))
	return path
}

func TestNewClient(t *testing.T) {
	kubeconfigPath := writeTestKubeconfig(t)

	tests := []struct {
		name        string
		config      *ClientConfig
		expectError bool
		errorMsg    string
	}{
		{
			name:        "nil config",
			config:      nil,
			expectError: true,
			errorMsg:    "client configuration is required",
		},
		{
			name: "valid config with defaults",
			config: &ClientConfig{
				KubeconfigPath: kubeconfigPath,
			},
			expectError: false,
		},
		{
			name: "explicit context",
			config: &ClientConfig{
				KubeconfigPath: kubeconfigPath,
				Context:        "kognitos-stg",
			},
			expectError: false,
		},
		{
			name: "unknown context",
			config: &ClientConfig{
				KubeconfigPath: kubeconfigPath,
				Context:        "missing-context",
			},
			expectError: true,
			errorMsg:    "does not exist in kubeconfig",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, client)
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(&ClientConfig{
		KubeconfigPath: writeTestKubeconfig(t),
	})
	require.NoError(t, err)

	assert.Equal(t, float32(DefaultQPSLimit), client.qpsLimit)
	assert.Equal(t, DefaultBurstLimit, client.burstLimit)
	assert.Equal(t, DefaultTimeout*time.Second, client.timeout)
	assert.Equal(t, "kognitos-dev", client.currentContext)
}

func TestListContexts(t *testing.T) {
	client, err := NewClient(&ClientConfig{
		KubeconfigPath: writeTestKubeconfig(t),
	})
	require.NoError(t, err)

	contexts, err := client.ListContexts(context.Background())
	require.NoError(t, err)
	require.Len(t, contexts, 2)

	// Sorted by name
	assert.Equal(t, "kognitos-dev", contexts[0].Name)
	assert.True(t, contexts[0].Current)
	assert.Equal(t, "dev-cluster", contexts[0].Cluster)
	assert.Equal(t, "bdk", contexts[0].Namespace)

	assert.Equal(t, "kognitos-stg", contexts[1].Name)
	assert.False(t, contexts[1].Current)
}

func TestGetCurrentContext(t *testing.T) {
	client, err := NewClient(&ClientConfig{
		KubeconfigPath: writeTestKubeconfig(t),
	})
	require.NoError(t, err)

	current, err := client.GetCurrentContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "kognitos-dev", current.Name)
	assert.True(t, current.Current)
	assert.Equal(t, "dev-user", current.User)
}

func TestSwitchContext(t *testing.T) {
	kubeconfigPath := writeTestKubeconfig(t)

	client, err := NewClient(&ClientConfig{
		KubeconfigPath: kubeconfigPath,
	})
	require.NoError(t, err)

	err = client.SwitchContext(context.Background(), "kognitos-stg")
	require.NoError(t, err)

	current, err := client.GetCurrentContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "kognitos-stg", current.Name)

	// The switch is persisted to the kubeconfig file.
	persisted, err := clientcmd.LoadFromFile(kubeconfigPath)
	require.NoError(t, err)
	assert.Equal(t, "kognitos-stg", persisted.CurrentContext)
}

func TestSwitchContextUnknown(t *testing.T) {
	client, err := NewClient(&ClientConfig{
		KubeconfigPath: writeTestKubeconfig(t),
	})
	require.NoError(t, err)

	err = client.SwitchContext(context.Background(), "no-such-context")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist in kubeconfig")

	// Current context is unchanged.
	current, err := client.GetCurrentContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "kognitos-dev", current.Name)
}
