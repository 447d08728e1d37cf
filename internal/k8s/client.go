package k8s

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Client defines the interface for Kubernetes operations.
// It supports multi-context operation by accepting kubecontext parameters
// and covers everything the dashboard needs.
type Client interface {
	// Context Management Operations
	ContextManager

	// Resource Management Operations
	ResourceManager

	// Pod Operations
	PodManager
}

// ContextManager handles Kubernetes context operations.
type ContextManager interface {
	// ListContexts returns all available Kubernetes contexts, sorted by name.
	ListContexts(ctx context.Context) ([]ContextInfo, error)

	// GetCurrentContext returns the currently active context.
	GetCurrentContext(ctx context.Context) (*ContextInfo, error)

	// SwitchContext changes the active Kubernetes context and persists the
	// change to the kubeconfig file.
	SwitchContext(ctx context.Context, contextName string) error
}

// ResourceManager handles Kubernetes resource operations.
type ResourceManager interface {
	// Get retrieves a specific resource by name and namespace.
	Get(ctx context.Context, kubeContext, namespace, resourceType, name string) (*unstructured.Unstructured, error)

	// List retrieves resources of a type in a namespace.
	List(ctx context.Context, kubeContext, namespace, resourceType string, opts ListOptions) ([]unstructured.Unstructured, error)

	// Manifest renders a resource as YAML. Secret data values are redacted.
	Manifest(ctx context.Context, kubeContext, namespace, resourceType, name string) (string, error)
}

// PodManager handles pod-specific operations.
type PodManager interface {
	// GetLogs retrieves logs from a pod container.
	GetLogs(ctx context.Context, kubeContext, namespace, podName, containerName string, opts LogOptions) (string, error)

	// GetAssociatedPods lists pods matching a label selector.
	GetAssociatedPods(ctx context.Context, kubeContext, namespace, labelSelector string) ([]PodInfo, error)

	// GetPodMetrics fetches CPU and memory usage for a pod from the metrics
	// API. A nil result with a nil error means metrics are unavailable.
	GetPodMetrics(ctx context.Context, kubeContext, namespace, podName string) (*PodMetrics, error)
}

// ContextInfo represents information about a Kubernetes context.
type ContextInfo struct {
	Name      string `json:"name"`
	Cluster   string `json:"cluster"`
	User      string `json:"user"`
	Namespace string `json:"namespace"`
	Current   bool   `json:"current"`
}

// ListOptions provides configuration for list operations.
type ListOptions struct {
	LabelSelector string `json:"labelSelector,omitempty"`
	FieldSelector string `json:"fieldSelector,omitempty"`

	// Limit caps the number of items returned (0 = no limit).
	Limit int64 `json:"limit,omitempty"`
}

// LogOptions configures log retrieval.
type LogOptions struct {
	Previous   bool       `json:"previous,omitempty"`
	Timestamps bool       `json:"timestamps,omitempty"`
	SinceTime  *time.Time `json:"sinceTime,omitempty"`

	// TailLines limits output to the last N lines. When nil,
	// DefaultLogTailLines is used.
	TailLines *int64 `json:"tailLines,omitempty"`
}

// PodInfo summarizes a pod for list views.
type PodInfo struct {
	Name       string    `json:"name"`
	Namespace  string    `json:"namespace"`
	Phase      string    `json:"phase"`
	Ready      string    `json:"ready"`
	Restarts   int32     `json:"restarts"`
	Node       string    `json:"node"`
	CreatedAt  time.Time `json:"createdAt"`
	Containers []string  `json:"containers"`
}

// PodMetrics holds resource usage for a pod as reported by metrics.k8s.io.
type PodMetrics struct {
	PodName    string           `json:"podName"`
	Containers []ContainerUsage `json:"containers"`

	// Totals across all containers.
	CPUMillicores int64   `json:"cpuMillicores"`
	MemoryMB      float64 `json:"memoryMB"`
}

// ContainerUsage holds resource usage for a single container.
type ContainerUsage struct {
	Name          string  `json:"name"`
	CPUMillicores int64   `json:"cpuMillicores"`
	MemoryMB      float64 `json:"memoryMB"`
}
