package k8s

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Summary types condense raw resources into the fields the dashboard tables
// show. Missing fields render as empty strings rather than failing the row.

// BookSummary describes a Book custom resource.
type BookSummary struct {
	Name       string    `json:"name"`
	Namespace  string    `json:"namespace"`
	BookName   string    `json:"bookName"`
	Version    string    `json:"version"`
	BdkVersion string    `json:"bdkVersion"`
	CreatedAt  time.Time `json:"createdAt"`
}

// BookConnectionSummary describes a BookConnection custom resource.
type BookConnectionSummary struct {
	Name        string    `json:"name"`
	Namespace   string    `json:"namespace"`
	BookName    string    `json:"bookName"`
	BookVersion string    `json:"bookVersion"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TriggerInstanceSummary describes a TriggerInstance custom resource.
type TriggerInstanceSummary struct {
	Name         string    `json:"name"`
	Namespace    string    `json:"namespace"`
	LabelName    string    `json:"labelName"`
	LabelVersion string    `json:"labelVersion"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DeploymentSummary describes a Deployment.
type DeploymentSummary struct {
	Name      string    `json:"name"`
	Namespace string    `json:"namespace"`
	Replicas  string    `json:"replicas"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

// SecretSummary describes a Secret. Keys are listed, values never leave the
// cluster unredacted.
type SecretSummary struct {
	Name      string    `json:"name"`
	Namespace string    `json:"namespace"`
	Type      string    `json:"type"`
	Keys      string    `json:"keys"`
	CreatedAt time.Time `json:"createdAt"`
}

// SummarizeBook extracts list-view fields from a Book resource.
func SummarizeBook(obj *unstructured.Unstructured) BookSummary {
	return BookSummary{
		Name:       obj.GetName(),
		Namespace:  obj.GetNamespace(),
		BookName:   nestedString(obj, "spec", "name"),
		Version:    nestedString(obj, "spec", "version"),
		BdkVersion: nestedString(obj, "spec", "bdkVersion"),
		CreatedAt:  obj.GetCreationTimestamp().Time,
	}
}

// SummarizeBookConnection extracts list-view fields from a BookConnection.
func SummarizeBookConnection(obj *unstructured.Unstructured) BookConnectionSummary {
	labels := obj.GetLabels()
	return BookConnectionSummary{
		Name:        obj.GetName(),
		Namespace:   obj.GetNamespace(),
		BookName:    labels["book_name"],
		BookVersion: labels["book_version"],
		CreatedAt:   obj.GetCreationTimestamp().Time,
	}
}

// SummarizeTriggerInstance extracts list-view fields from a TriggerInstance.
func SummarizeTriggerInstance(obj *unstructured.Unstructured) TriggerInstanceSummary {
	labels := obj.GetLabels()
	return TriggerInstanceSummary{
		Name:         obj.GetName(),
		Namespace:    obj.GetNamespace(),
		LabelName:    labels["name"],
		LabelVersion: labels["version"],
		CreatedAt:    obj.GetCreationTimestamp().Time,
	}
}

// SummarizeDeployment extracts list-view fields from a Deployment.
func SummarizeDeployment(obj *unstructured.Unstructured) DeploymentSummary {
	ready, _, _ := unstructured.NestedInt64(obj.Object, "status", "readyReplicas")
	desired, _, _ := unstructured.NestedInt64(obj.Object, "spec", "replicas")

	var image string
	containers, found, _ := unstructured.NestedSlice(obj.Object, "spec", "template", "spec", "containers")
	if found && len(containers) > 0 {
		if container, ok := containers[0].(map[string]interface{}); ok {
			image, _, _ = unstructured.NestedString(container, "image")
		}
	}

	return DeploymentSummary{
		Name:      obj.GetName(),
		Namespace: obj.GetNamespace(),
		Replicas:  fmt.Sprintf("%d/%d", ready, desired),
		Image:     image,
		CreatedAt: obj.GetCreationTimestamp().Time,
	}
}

// SummarizeSecret extracts list-view fields from a Secret. Only key names
// are surfaced.
func SummarizeSecret(obj *unstructured.Unstructured) SecretSummary {
	data, _, _ := unstructured.NestedMap(obj.Object, "data")
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return SecretSummary{
		Name:      obj.GetName(),
		Namespace: obj.GetNamespace(),
		Type:      nestedString(obj, "type"),
		Keys:      strings.Join(keys, ", "),
		CreatedAt: obj.GetCreationTimestamp().Time,
	}
}

func nestedString(obj *unstructured.Unstructured, fields ...string) string {
	value, _, _ := unstructured.NestedString(obj.Object, fields...)
	return value
}
