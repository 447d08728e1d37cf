package k8s

import (
	"context"
	"fmt"
	"strings"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"sigs.k8s.io/yaml"
)

// RedactedValue replaces secret data values in rendered manifests.
const RedactedValue = "<REDACTED>"

// ResourceManager implementation

// Get retrieves a specific resource by name and namespace.
func (c *kubernetesClient) Get(ctx context.Context, kubeContext, namespace, resourceType, name string) (*unstructured.Unstructured, error) {
	c.logOperation("get", kubeContext, namespace, resourceType, name)

	dynamicClient, err := c.getDynamicClient(kubeContext)
	if err != nil {
		return nil, err
	}

	gvr, namespaced, err := c.resolveResourceType(resourceType, kubeContext)
	if err != nil {
		return nil, err
	}

	var resourceInterface dynamic.ResourceInterface
	if namespaced && namespace != "" {
		resourceInterface = dynamicClient.Resource(gvr).Namespace(namespace)
	} else {
		resourceInterface = dynamicClient.Resource(gvr)
	}

	obj, err := resourceInterface.Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %q: %w", resourceType, name, err)
	}

	return obj, nil
}

// List retrieves resources of a type in a namespace. An empty result is
// returned as an empty slice, not an error.
func (c *kubernetesClient) List(ctx context.Context, kubeContext, namespace, resourceType string, opts ListOptions) ([]unstructured.Unstructured, error) {
	c.logOperation("list", kubeContext, namespace, resourceType, "")

	dynamicClient, err := c.getDynamicClient(kubeContext)
	if err != nil {
		return nil, err
	}

	gvr, namespaced, err := c.resolveResourceType(resourceType, kubeContext)
	if err != nil {
		return nil, err
	}

	listOpts := metav1.ListOptions{
		LabelSelector: opts.LabelSelector,
		FieldSelector: opts.FieldSelector,
		Limit:         opts.Limit,
	}

	var resourceInterface dynamic.ResourceInterface
	if namespaced && namespace != "" {
		resourceInterface = dynamicClient.Resource(gvr).Namespace(namespace)
	} else {
		resourceInterface = dynamicClient.Resource(gvr)
	}

	list, err := resourceInterface.List(ctx, listOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", resourceType, err)
	}

	return list.Items, nil
}

// Manifest renders a resource as YAML. Secret data and stringData values are
// replaced with RedactedValue before rendering.
func (c *kubernetesClient) Manifest(ctx context.Context, kubeContext, namespace, resourceType, name string) (string, error) {
	obj, err := c.Get(ctx, kubeContext, namespace, resourceType, name)
	if err != nil {
		return "", err
	}

	if strings.EqualFold(obj.GetKind(), "Secret") {
		redactSecretData(obj)
	}

	// managedFields add noise without telling the operator anything.
	unstructured.RemoveNestedField(obj.Object, "metadata", "managedFields")

	data, err := yaml.Marshal(obj.Object)
	if err != nil {
		return "", fmt.Errorf("failed to render %s %q as YAML: %w", resourceType, name, err)
	}

	return string(data), nil
}

// redactSecretData replaces every value under data and stringData.
func redactSecretData(obj *unstructured.Unstructured) {
	for _, field := range []string{"data", "stringData"} {
		values, found, _ := unstructured.NestedMap(obj.Object, field)
		if !found {
			continue
		}
		for key := range values {
			values[key] = RedactedValue
		}
		_ = unstructured.SetNestedMap(obj.Object, values, field)
	}
}

// resolveResourceType determines the GroupVersionResource for a given resource type.
func (c *kubernetesClient) resolveResourceType(resourceType, contextName string) (schema.GroupVersionResource, bool, error) {
	resourceType = strings.ToLower(resourceType)

	// Check built-in resources first
	if gvr, exists := c.builtinResources[resourceType]; exists {
		return gvr, c.isResourceNamespaced(gvr), nil
	}

	// Fall back to API discovery. Concurrent lookups for the same context
	// share a single discovery round trip.
	resourceLists, err := c.discoverResources(contextName)
	if err != nil {
		return schema.GroupVersionResource{}, false, err
	}

	for _, resourceList := range resourceLists {
		if resourceList == nil {
			continue
		}

		gv, err := schema.ParseGroupVersion(resourceList.GroupVersion)
		if err != nil {
			continue
		}

		for _, resource := range resourceList.APIResources {
			matches := []string{
				strings.ToLower(resource.Name),
				strings.ToLower(resource.Kind),
				strings.ToLower(resource.SingularName),
			}
			for _, shortName := range resource.ShortNames {
				matches = append(matches, strings.ToLower(shortName))
			}

			for _, match := range matches {
				if match == resourceType {
					return gv.WithResource(resource.Name), resource.Namespaced, nil
				}
			}
		}
	}

	return schema.GroupVersionResource{}, false, fmt.Errorf("unknown resource type: %s", resourceType)
}

// discoverResources calls ServerPreferredResources for the context, bounded
// by a timeout and deduplicated across concurrent callers.
func (c *kubernetesClient) discoverResources(contextName string) ([]*metav1.APIResourceList, error) {
	discoveryClient, err := c.getDiscoveryClient(contextName)
	if err != nil {
		return nil, fmt.Errorf("failed to get discovery client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), DiscoveryTimeoutSeconds*time.Second)
	defer cancel()

	type discoveryResult struct {
		resourceLists []*metav1.APIResourceList
		err           error
	}

	resultChan := c.discoveryGroup.DoChan(contextName, func() (interface{}, error) {
		resourceLists, err := discoveryClient.ServerPreferredResources()
		return discoveryResult{resourceLists: resourceLists, err: err}, nil
	})

	select {
	case res := <-resultChan:
		result := res.Val.(discoveryResult)
		if result.err != nil && c.config.Logger != nil {
			// Partial discovery results are common, keep going with what we got.
			c.config.Logger.Warn("API discovery returned partial results", "error", result.err)
		}
		return result.resourceLists, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("API discovery timed out after %d seconds", DiscoveryTimeoutSeconds)
	}
}

// isResourceNamespaced determines if a resource is namespaced based on its GroupVersionResource.
func (c *kubernetesClient) isResourceNamespaced(gvr schema.GroupVersionResource) bool {
	// Cluster-scoped resources
	clusterScopedResources := map[string]bool{
		"nodes":                     true,
		"persistentvolumes":         true,
		"clusterroles":              true,
		"clusterrolebindings":       true,
		"namespaces":                true,
		"storageclasses":            true,
		"ingressclasses":            true,
		"customresourcedefinitions": true,
		"apiservices":               true,
	}

	return !clusterScopedResources[gvr.Resource]
}
