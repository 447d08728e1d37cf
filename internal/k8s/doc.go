// Package k8s provides the Kubernetes client layer for the dashboard.
//
// It wraps client-go behind a Client interface that supports multiple
// kubeconfig contexts, caching one clientset, dynamic client and discovery
// client per context. Resource access goes through the dynamic client so
// Kognitos custom resources (books, bookconnections, triggerinstances) are
// handled the same way as builtin kinds.
package k8s
