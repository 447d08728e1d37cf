package k8s

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
)

var (
	bookGVR           = schema.GroupVersionResource{Group: KognitosGroup, Version: "v1alpha1", Resource: "books"}
	bookConnectionGVR = schema.GroupVersionResource{Group: KognitosGroup, Version: "v1alpha1", Resource: "bookconnections"}
	secretGVR         = schema.GroupVersionResource{Group: "", Version: "v1", Resource: "secrets"}
)

// newFakeDynamicClient builds a client backed by a fake dynamic client
// seeded with the given objects.
func newFakeDynamicClient(t *testing.T, objects ...runtime.Object) *kubernetesClient {
	t.Helper()

	client, err := NewClient(&ClientConfig{
		KubeconfigPath: writeTestKubeconfig(t),
	})
	require.NoError(t, err)

	scheme := runtime.NewScheme()
	listKinds := map[schema.GroupVersionResource]string{
		bookGVR:           "BookList",
		bookConnectionGVR: "BookConnectionList",
		secretGVR:         "SecretList",
		podMetricsGVR:     "PodMetricsList",
	}
	client.dynamicClients["kognitos-dev"] = dynamicfake.NewSimpleDynamicClientWithCustomListKinds(scheme, listKinds, objects...)

	return client
}

func newBook(namespace, name, bookName, version string) *unstructured.Unstructured {
	return &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "kognitos.com/v1alpha1",
			"kind":       "Book",
			"metadata": map[string]interface{}{
				"name":      name,
				"namespace": namespace,
			},
			"spec": map[string]interface{}{
				"name":       bookName,
				"version":    version,
				"bdkVersion": "2.1.0",
			},
		},
	}
}

func newSecret(namespace, name string, data map[string]interface{}) *unstructured.Unstructured {
	return &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "v1",
			"kind":       "Secret",
			"metadata": map[string]interface{}{
				"name":      name,
				"namespace": namespace,
			},
			"type": "Opaque",
			"data": data,
		},
	}
}

func TestGet(t *testing.T) {
	client := newFakeDynamicClient(t, newBook("bdk", "invoice-processing", "Invoice Processing", "1.2.3"))

	obj, err := client.Get(context.Background(), "kognitos-dev", "bdk", "books", "invoice-processing")
	require.NoError(t, err)
	assert.Equal(t, "Book", obj.GetKind())
	assert.Equal(t, "invoice-processing", obj.GetName())
}

func TestGetNotFound(t *testing.T) {
	client := newFakeDynamicClient(t)

	_, err := client.Get(context.Background(), "kognitos-dev", "bdk", "books", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get books")
}

func TestList(t *testing.T) {
	client := newFakeDynamicClient(t,
		newBook("bdk", "invoice-processing", "Invoice Processing", "1.2.3"),
		newBook("bdk", "email-triage", "Email Triage", "0.9.0"),
		newBook("other", "elsewhere", "Elsewhere", "1.0.0"),
	)

	items, err := client.List(context.Background(), "kognitos-dev", "bdk", "books", ListOptions{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestListEmpty(t *testing.T) {
	client := newFakeDynamicClient(t)

	items, err := client.List(context.Background(), "kognitos-dev", "bdk", "books", ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestManifest(t *testing.T) {
	client := newFakeDynamicClient(t, newBook("bdk", "invoice-processing", "Invoice Processing", "1.2.3"))

	manifest, err := client.Manifest(context.Background(), "kognitos-dev", "bdk", "books", "invoice-processing")
	require.NoError(t, err)
	assert.Contains(t, manifest, "kind: Book")
	assert.Contains(t, manifest, "name: invoice-processing")
	assert.Contains(t, manifest, "bdkVersion: 2.1.0")
}

func TestManifestRedactsSecrets(t *testing.T) {
	client := newFakeDynamicClient(t, newSecret("bdk", "api-credentials", map[string]interface{}{
		"password": "c3VwZXJzZWNyZXQ=",
		"username": "YWRtaW4=",
	}))

	manifest, err := client.Manifest(context.Background(), "kognitos-dev", "bdk", "secrets", "api-credentials")
	require.NoError(t, err)

	assert.Contains(t, manifest, "password: "+RedactedValue)
	assert.Contains(t, manifest, "username: "+RedactedValue)
	assert.NotContains(t, manifest, "c3VwZXJzZWNyZXQ=")
	assert.NotContains(t, manifest, "YWRtaW4=")
}

func TestResolveResourceTypeBuiltin(t *testing.T) {
	client := newFakeDynamicClient(t)

	tests := []struct {
		resourceType string
		expected     schema.GroupVersionResource
		namespaced   bool
	}{
		{"books", bookGVR, true},
		{"Book", bookGVR, true},
		{"bookconnections", bookConnectionGVR, true},
		{"secrets", secretGVR, true},
		{"deployments", schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "deployments"}, true},
		{"namespaces", schema.GroupVersionResource{Group: "", Version: "v1", Resource: "namespaces"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.resourceType, func(t *testing.T) {
			gvr, namespaced, err := client.resolveResourceType(tt.resourceType, "kognitos-dev")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, gvr)
			assert.Equal(t, tt.namespaced, namespaced)
		})
	}
}
