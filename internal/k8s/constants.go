package k8s

const (
	// DefaultNamespace is where Kognitos platform resources live unless a
	// workspace namespace is selected.
	DefaultNamespace = "bdk"

	// BookConnectionPodLabel is the label linking worker pods to the
	// BookConnection they serve.
	BookConnectionPodLabel = "bookconnection.kognitos.com/name"

	// KognitosGroup is the API group of the Kognitos custom resources.
	KognitosGroup = "kognitos.com"

	// Default performance settings
	DefaultQPSLimit   = 20.0
	DefaultBurstLimit = 30
	DefaultTimeout    = 30 // seconds

	// DefaultLogTailLines is how many lines of pod logs are fetched when the
	// caller does not ask for a specific tail length.
	DefaultLogTailLines = 500

	// Discovery timeout
	DiscoveryTimeoutSeconds = 30
)
