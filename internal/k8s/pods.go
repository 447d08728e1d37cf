package k8s

import (
	"context"
	"fmt"
	"io"
	"sort"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// podMetricsGVR addresses the metrics.k8s.io pods resource through the
// dynamic client.
var podMetricsGVR = schema.GroupVersionResource{
	Group:    "metrics.k8s.io",
	Version:  "v1beta1",
	Resource: "pods",
}

// PodManager implementation

// GetLogs retrieves logs from a pod container. When no tail length is given
// the last DefaultLogTailLines lines are fetched.
func (c *kubernetesClient) GetLogs(ctx context.Context, kubeContext, namespace, podName, containerName string, opts LogOptions) (string, error) {
	c.logOperation("get-logs", kubeContext, namespace, "pod", podName)

	clientset, err := c.getClientset(kubeContext)
	if err != nil {
		return "", err
	}

	logOpts := &corev1.PodLogOptions{
		Container:  containerName,
		Previous:   opts.Previous,
		Timestamps: opts.Timestamps,
	}

	if opts.SinceTime != nil {
		logOpts.SinceTime = &metav1.Time{Time: *opts.SinceTime}
	}

	if opts.TailLines != nil {
		logOpts.TailLines = opts.TailLines
	} else {
		tail := int64(DefaultLogTailLines)
		logOpts.TailLines = &tail
	}

	req := clientset.CoreV1().Pods(namespace).GetLogs(podName, logOpts)

	stream, err := req.Stream(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get logs for pod %s/%s: %w", namespace, podName, err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return "", fmt.Errorf("failed to read logs for pod %s/%s: %w", namespace, podName, err)
	}

	return string(data), nil
}

// GetAssociatedPods lists pods matching a label selector, sorted by name.
func (c *kubernetesClient) GetAssociatedPods(ctx context.Context, kubeContext, namespace, labelSelector string) ([]PodInfo, error) {
	c.logOperation("get-associated-pods", kubeContext, namespace, "pods", labelSelector)

	clientset, err := c.getClientset(kubeContext)
	if err != nil {
		return nil, err
	}

	podList, err := clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods with selector %q: %w", labelSelector, err)
	}

	pods := make([]PodInfo, 0, len(podList.Items))
	for i := range podList.Items {
		pods = append(pods, summarizePod(&podList.Items[i]))
	}

	sort.Slice(pods, func(i, j int) bool {
		return pods[i].Name < pods[j].Name
	})

	return pods, nil
}

// summarizePod condenses a pod into the fields the dashboard shows.
func summarizePod(pod *corev1.Pod) PodInfo {
	info := PodInfo{
		Name:      pod.Name,
		Namespace: pod.Namespace,
		Phase:     string(pod.Status.Phase),
		Node:      pod.Spec.NodeName,
		CreatedAt: pod.CreationTimestamp.Time,
	}

	for _, container := range pod.Spec.Containers {
		info.Containers = append(info.Containers, container.Name)
	}

	ready := 0
	for _, status := range pod.Status.ContainerStatuses {
		if status.Ready {
			ready++
		}
		info.Restarts += status.RestartCount
	}
	info.Ready = fmt.Sprintf("%d/%d", ready, len(pod.Spec.Containers))

	return info
}

// GetPodMetrics fetches CPU and memory usage from the metrics API. Clusters
// without a metrics server return no metrics rather than an error.
func (c *kubernetesClient) GetPodMetrics(ctx context.Context, kubeContext, namespace, podName string) (*PodMetrics, error) {
	c.logOperation("get-pod-metrics", kubeContext, namespace, "podmetrics", podName)

	dynamicClient, err := c.getDynamicClient(kubeContext)
	if err != nil {
		return nil, err
	}

	obj, err := dynamicClient.Resource(podMetricsGVR).Namespace(namespace).Get(ctx, podName, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) || meta.IsNoMatchError(err) {
			return nil, nil
		}
		if c.config.Logger != nil {
			c.config.Logger.Debug("pod metrics unavailable", "pod", podName, "error", err)
		}
		return nil, nil
	}

	return podMetricsFromUnstructured(obj, podName), nil
}

// podMetricsFromUnstructured converts a metrics.k8s.io PodMetrics object.
// Unparseable quantities count as zero.
func podMetricsFromUnstructured(obj *unstructured.Unstructured, podName string) *PodMetrics {
	metrics := &PodMetrics{PodName: podName}

	containers, found, _ := unstructured.NestedSlice(obj.Object, "containers")
	if !found {
		return metrics
	}

	for _, item := range containers {
		container, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		name, _, _ := unstructured.NestedString(container, "name")
		cpuStr, _, _ := unstructured.NestedString(container, "usage", "cpu")
		memStr, _, _ := unstructured.NestedString(container, "usage", "memory")

		usage := ContainerUsage{Name: name}
		if q, err := resource.ParseQuantity(cpuStr); err == nil {
			usage.CPUMillicores = q.MilliValue()
		}
		if q, err := resource.ParseQuantity(memStr); err == nil {
			usage.MemoryMB = float64(q.Value()) / (1024 * 1024)
		}

		metrics.Containers = append(metrics.Containers, usage)
		metrics.CPUMillicores += usage.CPUMillicores
		metrics.MemoryMB += usage.MemoryMB
	}

	return metrics
}
