package k8s

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func TestSummarizeBook(t *testing.T) {
	book := newBook("bdk", "invoice-processing", "Invoice Processing", "1.2.3")

	summary := SummarizeBook(book)
	assert.Equal(t, "invoice-processing", summary.Name)
	assert.Equal(t, "bdk", summary.Namespace)
	assert.Equal(t, "Invoice Processing", summary.BookName)
	assert.Equal(t, "1.2.3", summary.Version)
	assert.Equal(t, "2.1.0", summary.BdkVersion)
}

func TestSummarizeBookMissingSpec(t *testing.T) {
	book := &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "kognitos.com/v1alpha1",
			"kind":       "Book",
			"metadata": map[string]interface{}{
				"name":      "bare-book",
				"namespace": "bdk",
			},
		},
	}

	summary := SummarizeBook(book)
	assert.Equal(t, "bare-book", summary.Name)
	assert.Empty(t, summary.BookName)
	assert.Empty(t, summary.Version)
}

func TestSummarizeBookConnection(t *testing.T) {
	conn := &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "kognitos.com/v1alpha1",
			"kind":       "BookConnection",
			"metadata": map[string]interface{}{
				"name":      "invoice-conn",
				"namespace": "org-acme-ws-proto1",
				"labels": map[string]interface{}{
					"book_name":    "invoice-processing",
					"book_version": "1.2.3",
				},
			},
		},
	}

	summary := SummarizeBookConnection(conn)
	assert.Equal(t, "invoice-conn", summary.Name)
	assert.Equal(t, "org-acme-ws-proto1", summary.Namespace)
	assert.Equal(t, "invoice-processing", summary.BookName)
	assert.Equal(t, "1.2.3", summary.BookVersion)
}

func TestSummarizeDeployment(t *testing.T) {
	deployment := &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "apps/v1",
			"kind":       "Deployment",
			"metadata": map[string]interface{}{
				"name":      "api-server",
				"namespace": "bdk",
			},
			"spec": map[string]interface{}{
				"replicas": int64(3),
				"template": map[string]interface{}{
					"spec": map[string]interface{}{
						"containers": []interface{}{
							map[string]interface{}{
								"name":  "api",
								"image": "registry.example.com/api:v4",
							},
						},
					},
				},
			},
			"status": map[string]interface{}{
				"readyReplicas": int64(2),
			},
		},
	}

	summary := SummarizeDeployment(deployment)
	assert.Equal(t, "api-server", summary.Name)
	assert.Equal(t, "2/3", summary.Replicas)
	assert.Equal(t, "registry.example.com/api:v4", summary.Image)
}

func TestSummarizeDeploymentNoContainers(t *testing.T) {
	deployment := &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "apps/v1",
			"kind":       "Deployment",
			"metadata": map[string]interface{}{
				"name":      "empty",
				"namespace": "bdk",
			},
		},
	}

	summary := SummarizeDeployment(deployment)
	assert.Equal(t, "0/0", summary.Replicas)
	assert.Empty(t, summary.Image)
}

func TestSummarizeSecret(t *testing.T) {
	secret := newSecret("bdk", "api-credentials", map[string]interface{}{
		"username": "YWRtaW4=",
		"password": "c3VwZXJzZWNyZXQ=",
	})

	summary := SummarizeSecret(secret)
	assert.Equal(t, "api-credentials", summary.Name)
	assert.Equal(t, "Opaque", summary.Type)
	// Keys are sorted, values never appear.
	assert.Equal(t, "password, username", summary.Keys)
}

func TestSummarizeTriggerInstance(t *testing.T) {
	instance := &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "kognitos.com/v1alpha1",
			"kind":       "TriggerInstance",
			"metadata": map[string]interface{}{
				"name":      "daily-sync",
				"namespace": "bdk",
				"labels": map[string]interface{}{
					"name":    "sync",
					"version": "0.4.0",
				},
			},
		},
	}

	summary := SummarizeTriggerInstance(instance)
	assert.Equal(t, "daily-sync", summary.Name)
	assert.Equal(t, "sync", summary.LabelName)
	assert.Equal(t, "0.4.0", summary.LabelVersion)
}
