package k8s

import "k8s.io/apimachinery/pkg/runtime/schema"

// initBuiltinResources initializes the builtin resources mapping.
// Kognitos custom resources are listed alongside the Kubernetes kinds the
// dashboard browses so they resolve without a discovery round trip.
func initBuiltinResources() map[string]schema.GroupVersionResource {
	return map[string]schema.GroupVersionResource{
		// Kognitos custom resources
		"books":            {Group: KognitosGroup, Version: "v1alpha1", Resource: "books"},
		"book":             {Group: KognitosGroup, Version: "v1alpha1", Resource: "books"},
		"bookconnections":  {Group: KognitosGroup, Version: "v1alpha1", Resource: "bookconnections"},
		"bookconnection":   {Group: KognitosGroup, Version: "v1alpha1", Resource: "bookconnections"},
		"triggerinstances": {Group: KognitosGroup, Version: "v1alpha1", Resource: "triggerinstances"},
		"triggerinstance":  {Group: KognitosGroup, Version: "v1alpha1", Resource: "triggerinstances"},

		// Core/v1 resources
		"pods":       {Group: "", Version: "v1", Resource: "pods"},
		"pod":        {Group: "", Version: "v1", Resource: "pods"},
		"services":   {Group: "", Version: "v1", Resource: "services"},
		"service":    {Group: "", Version: "v1", Resource: "services"},
		"svc":        {Group: "", Version: "v1", Resource: "services"},
		"namespaces": {Group: "", Version: "v1", Resource: "namespaces"},
		"namespace":  {Group: "", Version: "v1", Resource: "namespaces"},
		"ns":         {Group: "", Version: "v1", Resource: "namespaces"},
		"configmaps": {Group: "", Version: "v1", Resource: "configmaps"},
		"configmap":  {Group: "", Version: "v1", Resource: "configmaps"},
		"cm":         {Group: "", Version: "v1", Resource: "configmaps"},
		"secrets":    {Group: "", Version: "v1", Resource: "secrets"},
		"secret":     {Group: "", Version: "v1", Resource: "secrets"},

		// Apps/v1 resources
		"deployments":  {Group: "apps", Version: "v1", Resource: "deployments"},
		"deployment":   {Group: "apps", Version: "v1", Resource: "deployments"},
		"deploy":       {Group: "apps", Version: "v1", Resource: "deployments"},
		"replicasets":  {Group: "apps", Version: "v1", Resource: "replicasets"},
		"replicaset":   {Group: "apps", Version: "v1", Resource: "replicasets"},
		"rs":           {Group: "apps", Version: "v1", Resource: "replicasets"},
		"statefulsets": {Group: "apps", Version: "v1", Resource: "statefulsets"},
		"statefulset":  {Group: "apps", Version: "v1", Resource: "statefulsets"},
		"sts":          {Group: "apps", Version: "v1", Resource: "statefulsets"},

		// Metrics API
		"podmetrics": {Group: "metrics.k8s.io", Version: "v1beta1", Resource: "pods"},
	}
}
