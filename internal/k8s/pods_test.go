package k8s

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes/fake"
)

// newFakeClientset builds a client backed by a fake clientset seeded with
// the given objects.
func newFakeClientset(t *testing.T, objects ...runtime.Object) *kubernetesClient {
	t.Helper()

	client, err := NewClient(&ClientConfig{
		KubeconfigPath: writeTestKubeconfig(t),
	})
	require.NoError(t, err)

	client.clientsets["kognitos-dev"] = fake.NewSimpleClientset(objects...)

	return client
}

func newWorkerPod(namespace, name, connectionName string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels: map[string]string{
				BookConnectionPodLabel: connectionName,
			},
		},
		Spec: corev1.PodSpec{
			NodeName: "node-1",
			Containers: []corev1.Container{
				{Name: "worker"},
				{Name: "sidecar"},
			},
		},
		Status: corev1.PodStatus{
			Phase: corev1.PodRunning,
			ContainerStatuses: []corev1.ContainerStatus{
				{Name: "worker", Ready: true, RestartCount: 2},
				{Name: "sidecar", Ready: false, RestartCount: 0},
			},
		},
	}
}

func TestGetLogs(t *testing.T) {
	client := newFakeClientset(t, newWorkerPod("bdk", "worker-abc", "invoice-processing"))

	logs, err := client.GetLogs(context.Background(), "kognitos-dev", "bdk", "worker-abc", "", LogOptions{})
	require.NoError(t, err)
	// The fake clientset returns a fixed log body.
	assert.Equal(t, "fake logs", logs)
}

func TestGetAssociatedPods(t *testing.T) {
	client := newFakeClientset(t,
		newWorkerPod("bdk", "worker-b", "invoice-processing"),
		newWorkerPod("bdk", "worker-a", "invoice-processing"),
		newWorkerPod("bdk", "other-worker", "email-triage"),
	)

	pods, err := client.GetAssociatedPods(context.Background(), "kognitos-dev", "bdk",
		BookConnectionPodLabel+"=invoice-processing")
	require.NoError(t, err)
	require.Len(t, pods, 2)

	// Sorted by name
	assert.Equal(t, "worker-a", pods[0].Name)
	assert.Equal(t, "worker-b", pods[1].Name)

	pod := pods[0]
	assert.Equal(t, "Running", pod.Phase)
	assert.Equal(t, "1/2", pod.Ready)
	assert.Equal(t, int32(2), pod.Restarts)
	assert.Equal(t, "node-1", pod.Node)
	assert.Equal(t, []string{"worker", "sidecar"}, pod.Containers)
}

func TestGetAssociatedPodsEmpty(t *testing.T) {
	client := newFakeClientset(t)

	pods, err := client.GetAssociatedPods(context.Background(), "kognitos-dev", "bdk",
		BookConnectionPodLabel+"=nothing-here")
	require.NoError(t, err)
	assert.Empty(t, pods)
}

func newPodMetrics(namespace, name string) *unstructured.Unstructured {
	return &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "metrics.k8s.io/v1beta1",
			"kind":       "PodMetrics",
			"metadata": map[string]interface{}{
				"name":      name,
				"namespace": namespace,
			},
			"containers": []interface{}{
				map[string]interface{}{
					"name": "worker",
					"usage": map[string]interface{}{
						"cpu":    "250m",
						"memory": "512Mi",
					},
				},
				map[string]interface{}{
					"name": "sidecar",
					"usage": map[string]interface{}{
						"cpu":    "1500000n",
						"memory": "1024Ki",
					},
				},
			},
		},
	}
}

func TestGetPodMetrics(t *testing.T) {
	client := newFakeDynamicClient(t)
	// Seed through the tracker with an explicit GVR: the fake client would
	// otherwise guess "podmetricses" from the kind, but metrics.k8s.io
	// irregularly serves PodMetrics under the "pods" resource.
	fakeClient := client.dynamicClients["kognitos-dev"].(*dynamicfake.FakeDynamicClient)
	require.NoError(t, fakeClient.Tracker().Create(podMetricsGVR, newPodMetrics("bdk", "worker-abc"), "bdk"))

	metrics, err := client.GetPodMetrics(context.Background(), "kognitos-dev", "bdk", "worker-abc")
	require.NoError(t, err)
	require.NotNil(t, metrics)

	require.Len(t, metrics.Containers, 2)
	assert.Equal(t, "worker", metrics.Containers[0].Name)
	assert.Equal(t, int64(250), metrics.Containers[0].CPUMillicores)
	assert.InDelta(t, 512.0, metrics.Containers[0].MemoryMB, 0.01)

	assert.Equal(t, "sidecar", metrics.Containers[1].Name)
	assert.Equal(t, int64(2), metrics.Containers[1].CPUMillicores) // 1500000n rounds up
	assert.InDelta(t, 1.0, metrics.Containers[1].MemoryMB, 0.01)

	assert.Equal(t, int64(252), metrics.CPUMillicores)
	assert.InDelta(t, 513.0, metrics.MemoryMB, 0.01)
}

func TestGetPodMetricsUnavailable(t *testing.T) {
	client := newFakeDynamicClient(t)

	metrics, err := client.GetPodMetrics(context.Background(), "kognitos-dev", "bdk", "worker-abc")
	require.NoError(t, err)
	assert.Nil(t, metrics)
}
