package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/kognitos/mission-control/internal/appurl"
	"github.com/kognitos/mission-control/internal/auth"
	"github.com/kognitos/mission-control/internal/instrumentation"
	"github.com/kognitos/mission-control/internal/k8s"
	"github.com/kognitos/mission-control/internal/logging"
)

// Handlers answer fragments for htmx requests and full pages otherwise.
// Kubernetes API failures never fail the response; they render as inline
// messages in the content area.

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.handleBooks(w, r)
}

// --- Books ---

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	namespace := s.namespaceParam(r)

	page := booksPage{Slug: "books", Namespace: namespace}
	items, err := s.list(r.Context(), namespace, "books")
	if err != nil {
		page.Error = errorMessage(err)
	} else {
		for i := range items {
			page.Books = append(page.Books, k8s.SummarizeBook(&items[i]))
		}
	}

	s.respond(w, r, "books", page)
}

func (s *Server) handleBookManifest(w http.ResponseWriter, r *http.Request) {
	s.handleManifestModal(w, r, "books", "Book")
}

// --- Book Connections ---

func (s *Server) handleBookConnections(w http.ResponseWriter, r *http.Request) {
	page := s.bookConnectionsPage(r.Context(), s.namespaceParam(r), "")
	s.respond(w, r, "book-connections", page)
}

func (s *Server) handleBookConnectionsFromURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rawURL := r.URL.Query().Get("url")
	namespace := s.serverContext.Config().DefaultNamespace

	var urlError string
	if rawURL != "" {
		location, err := appurl.Parse(rawURL)
		if err != nil {
			urlError = "Could not parse URL. Context and namespace are unchanged."
		} else {
			namespace = location.Namespace
			if match, found := appurl.MatchContext(location.Env, s.contextNames(ctx)); found {
				_ = s.switchContext(ctx, match)
			}
		}
	}

	page := s.bookConnectionsPage(ctx, namespace, rawURL)
	page.URLError = urlError

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Header.Get("HX-Request") != "" {
		// A context switch may have happened; swap the header dropdown
		// out-of-band alongside the refreshed content.
		contexts, _ := s.contexts(ctx)
		if err := s.views.Render(w, "context_dropdown", dropdownData{Contexts: contexts, OOB: true}); err != nil {
			s.renderError(w, err)
			return
		}
		if err := s.views.Render(w, "book-connections", page); err != nil {
			s.renderError(w, err)
		}
		return
	}

	s.respondFull(w, r, "book-connections", page)
}

func (s *Server) bookConnectionsPage(ctx context.Context, namespace, rawURL string) bookConnectionsPage {
	page := bookConnectionsPage{
		Slug:           "book-connections",
		Namespace:      namespace,
		URL:            rawURL,
		CurrentContext: s.currentContextName(ctx),
	}

	items, err := s.list(ctx, namespace, "bookconnections")
	if err != nil {
		page.Error = errorMessage(err)
		return page
	}
	for i := range items {
		page.Connections = append(page.Connections, k8s.SummarizeBookConnection(&items[i]))
	}
	return page
}

func (s *Server) handleBookConnectionManifest(w http.ResponseWriter, r *http.Request) {
	s.handleManifestModal(w, r, "bookconnections", "BookConnection")
}

func (s *Server) handleBookConnectionPod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	namespace := r.PathValue("namespace")
	name := r.PathValue("name")

	data := bookConnectionPodData{Namespace: namespace, Name: name}

	selector := k8s.BookConnectionPodLabel + "=" + name
	pods, err := s.serverContext.K8sClient().GetAssociatedPods(ctx, "", namespace, selector)
	if err != nil {
		s.serverContext.Logger().Warn("Failed to look up associated pods",
			logging.KeyNamespace, namespace, "selector", selector, logging.KeyError, err)
	}
	if len(pods) > 0 {
		pod := pods[0]
		data.Pod = &pod
		// Metrics are best-effort: absent metrics-server means no numbers.
		metrics, merr := s.serverContext.K8sClient().GetPodMetrics(ctx, "", namespace, pod.Name)
		if merr == nil {
			data.Metrics = metrics
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.views.Render(w, "book_connection_pod", data); err != nil {
		s.renderError(w, err)
	}
}

func (s *Server) handleBookConnectionRow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	namespace := r.PathValue("namespace")
	name := r.PathValue("name")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	items, err := s.list(ctx, namespace, "bookconnections")
	if err != nil {
		return
	}
	for i := range items {
		if items[i].GetName() == name {
			summary := k8s.SummarizeBookConnection(&items[i])
			if err := s.views.Render(w, "book_connection_row", summary); err != nil {
				s.renderError(w, err)
			}
			return
		}
	}
}

// --- Trigger Instances ---

func (s *Server) handleTriggerInstances(w http.ResponseWriter, r *http.Request) {
	namespace := s.namespaceParam(r)

	page := triggerInstancesPage{Slug: "trigger-instances", Namespace: namespace}
	items, err := s.list(r.Context(), namespace, "triggerinstances")
	if err != nil {
		page.Error = errorMessage(err)
	} else {
		for i := range items {
			page.Instances = append(page.Instances, k8s.SummarizeTriggerInstance(&items[i]))
		}
	}

	s.respond(w, r, "trigger-instances", page)
}

func (s *Server) handleTriggerInstanceManifest(w http.ResponseWriter, r *http.Request) {
	s.handleManifestModal(w, r, "triggerinstances", "TriggerInstance")
}

// --- Deployments ---

func (s *Server) handleDeployments(w http.ResponseWriter, r *http.Request) {
	namespace := s.namespaceParam(r)

	page := deploymentsPage{Slug: "deployments", Namespace: namespace}
	items, err := s.list(r.Context(), namespace, "deployments")
	if err != nil {
		page.Error = errorMessage(err)
	} else {
		for i := range items {
			page.Deployments = append(page.Deployments, k8s.SummarizeDeployment(&items[i]))
		}
	}

	s.respond(w, r, "deployments", page)
}

func (s *Server) handleDeploymentManifest(w http.ResponseWriter, r *http.Request) {
	s.handleManifestModal(w, r, "deployments", "Deployment")
}

// --- Secrets ---

func (s *Server) handleSecrets(w http.ResponseWriter, r *http.Request) {
	namespace := s.namespaceParam(r)

	page := secretsPage{Slug: "secrets", Namespace: namespace}
	items, err := s.list(r.Context(), namespace, "secrets")
	if err != nil {
		page.Error = errorMessage(err)
	} else {
		for i := range items {
			page.Secrets = append(page.Secrets, k8s.SummarizeSecret(&items[i]))
		}
	}

	s.respond(w, r, "secrets", page)
}

func (s *Server) handleSecretManifest(w http.ResponseWriter, r *http.Request) {
	s.handleManifestModal(w, r, "secrets", "Secret")
}

// --- Pods ---

func (s *Server) handlePodManifest(w http.ResponseWriter, r *http.Request) {
	s.handleManifestModal(w, r, "pods", "Pod")
}

func (s *Server) handlePodLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	namespace := r.PathValue("namespace")
	name := r.PathValue("name")

	ctx, span := instrumentation.StartK8sSpan(ctx, "logs", "pods", namespace,
		attribute.String(instrumentation.SpanAttrResourceName, name))
	defer span.End()

	start := time.Now()
	content, err := s.serverContext.K8sClient().GetLogs(ctx, "", namespace, name, "", k8s.LogOptions{})
	s.recordK8s(ctx, span, "logs", "pods", namespace, start, err)
	if err != nil {
		content = errorMessage(err)
	}

	s.renderModal(w, "Logs: "+name, content)
}

// --- Context switching and login ---

func (s *Server) handleSwitchContext(w http.ResponseWriter, r *http.Request) {
	contextName := r.FormValue("context")
	if contextName == "" {
		http.Error(w, "context is required", http.StatusBadRequest)
		return
	}

	if err := s.switchContext(r.Context(), contextName); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleLoginContext(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	manager := s.serverContext.AuthManager()
	if manager == nil {
		http.Error(w, "login is not configured", http.StatusBadRequest)
		return
	}

	current, err := s.serverContext.K8sClient().GetCurrentContext(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	env, err := manager.Login(ctx, current.Name)
	s.recordLogin(ctx, string(env), err)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// loginStatus is the /check-login-status payload consumed by the toast
// script after each htmx request.
type loginStatus struct {
	LoggedIn bool   `json:"logged_in"`
	Env      string `json:"env,omitempty"`
}

func (s *Server) handleCheckLoginStatus(w http.ResponseWriter, r *http.Request) {
	status := loginStatus{}
	if manager := s.serverContext.AuthManager(); manager != nil {
		if env, performed := manager.ConsumeLoginFlag(); performed {
			status.LoggedIn = true
			status.Env = string(env)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

// --- UI support ---

func (s *Server) handleCloseManifest(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleKeyboardShortcuts(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.serverContext.FileConfig().ShortcutsOrEmpty())
}

// --- Helpers ---

func (s *Server) namespaceParam(r *http.Request) string {
	if namespace := r.URL.Query().Get("namespace"); namespace != "" {
		return namespace
	}
	return s.serverContext.Config().DefaultNamespace
}

// respond renders a fragment for htmx requests and a full page otherwise.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Header.Get("HX-Request") != "" {
		if err := s.views.Render(w, name, data); err != nil {
			s.renderError(w, err)
		}
		return
	}
	s.respondFull(w, r, name, data)
}

func (s *Server) respondFull(w http.ResponseWriter, r *http.Request, name string, data any) {
	contexts, current := s.contexts(r.Context())
	if err := s.views.RenderPage(w, name, data, contexts, current); err != nil {
		s.renderError(w, err)
	}
}

func (s *Server) renderError(w http.ResponseWriter, err error) {
	s.serverContext.Logger().Error("Failed to render view", logging.KeyError, err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (s *Server) renderModal(w http.ResponseWriter, title, content string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.views.Render(w, "modal", modalData{Title: title, Content: content}); err != nil {
		s.renderError(w, err)
	}
}

func (s *Server) handleManifestModal(w http.ResponseWriter, r *http.Request, resourceType, kind string) {
	namespace := r.PathValue("namespace")
	name := r.PathValue("name")

	content, err := s.manifest(r.Context(), namespace, resourceType, name)
	if err != nil {
		content = errorMessage(err)
	}

	s.renderModal(w, kind+": "+name, content)
}

func (s *Server) contexts(ctx context.Context) ([]k8s.ContextInfo, string) {
	contexts, err := s.serverContext.K8sClient().ListContexts(ctx)
	if err != nil {
		s.serverContext.Logger().Warn("Failed to list contexts", logging.KeyError, err)
		return nil, ""
	}
	for _, info := range contexts {
		if info.Current {
			return contexts, info.Name
		}
	}
	return contexts, ""
}

func (s *Server) contextNames(ctx context.Context) []string {
	contexts, _ := s.contexts(ctx)
	names := make([]string, 0, len(contexts))
	for _, info := range contexts {
		names = append(names, info.Name)
	}
	return names
}

func (s *Server) currentContextName(ctx context.Context) string {
	current, err := s.serverContext.K8sClient().GetCurrentContext(ctx)
	if err != nil {
		return ""
	}
	return current.Name
}

// list fetches resources in the current context, retrying once after an
// automatic login when the failure looks like expired credentials.
func (s *Server) list(ctx context.Context, namespace, resourceType string) ([]unstructured.Unstructured, error) {
	ctx, span := instrumentation.StartK8sSpan(ctx, "list", resourceType, namespace)
	defer span.End()

	start := time.Now()
	items, err := s.serverContext.K8sClient().List(ctx, "", namespace, resourceType, k8s.ListOptions{})
	if err != nil && s.loginAndRetry(ctx, err) {
		items, err = s.serverContext.K8sClient().List(ctx, "", namespace, resourceType, k8s.ListOptions{})
	}
	s.recordK8s(ctx, span, "list", resourceType, namespace, start, err)
	return items, err
}

func (s *Server) manifest(ctx context.Context, namespace, resourceType, name string) (string, error) {
	ctx, span := instrumentation.StartK8sSpan(ctx, "get", resourceType, namespace,
		attribute.String(instrumentation.SpanAttrResourceName, name))
	defer span.End()

	start := time.Now()
	content, err := s.serverContext.K8sClient().Manifest(ctx, "", namespace, resourceType, name)
	if err != nil && s.loginAndRetry(ctx, err) {
		content, err = s.serverContext.K8sClient().Manifest(ctx, "", namespace, resourceType, name)
	}
	s.recordK8s(ctx, span, "get", resourceType, namespace, start, err)
	return content, err
}

// loginAndRetry attempts an automatic environment login when err looks
// like an authentication failure. It reports whether the caller should
// retry the operation.
func (s *Server) loginAndRetry(ctx context.Context, err error) bool {
	manager := s.serverContext.AuthManager()
	if manager == nil || !auth.IsAuthError(err) {
		return false
	}

	current, cerr := s.serverContext.K8sClient().GetCurrentContext(ctx)
	if cerr != nil {
		return false
	}

	env, lerr := manager.Login(ctx, current.Name)
	s.recordLogin(ctx, string(env), lerr)
	if lerr != nil {
		s.serverContext.Logger().Warn("Automatic login failed",
			logging.KeyContext, current.Name, logging.KeyError, lerr)
		return false
	}

	s.serverContext.Logger().Info("Automatic login succeeded",
		logging.KeyContext, current.Name, logging.KeyEnvironment, string(env))
	return true
}

func (s *Server) switchContext(ctx context.Context, contextName string) error {
	err := s.serverContext.K8sClient().SwitchContext(ctx, contextName)

	status := logging.StatusSuccess
	if err != nil {
		status = logging.StatusError
	}
	if provider := s.serverContext.InstrumentationProvider(); provider != nil && provider.Enabled() {
		provider.Metrics().RecordContextSwitch(ctx, contextName, status)
	}
	if err != nil {
		s.serverContext.Logger().Warn("Context switch failed",
			logging.KeyContext, contextName, logging.KeyError, err)
		return err
	}

	s.serverContext.Logger().Info("Switched kube context", logging.KeyContext, contextName)
	return nil
}

func (s *Server) recordK8s(ctx context.Context, span trace.Span, operation, resourceType, namespace string, start time.Time, err error) {
	if err != nil {
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}

	status := logging.StatusSuccess
	if err != nil {
		status = logging.StatusError
	}
	if provider := s.serverContext.InstrumentationProvider(); provider != nil && provider.Enabled() {
		provider.Metrics().RecordK8sOperation(ctx, operation, resourceType, namespace, status, time.Since(start))
	}
}

func (s *Server) recordLogin(ctx context.Context, environment string, err error) {
	status := logging.StatusSuccess
	if err != nil {
		status = logging.StatusError
	}
	if provider := s.serverContext.InstrumentationProvider(); provider != nil && provider.Enabled() {
		provider.Metrics().RecordLogin(ctx, environment, status)
	}
}

// errorMessage turns a Kubernetes API error into the inline message the
// content area shows.
func errorMessage(err error) string {
	switch {
	case apierrors.IsNotFound(err):
		return "Resource not found."
	case apierrors.IsForbidden(err):
		return "Access to this resource was denied by the cluster."
	default:
		return "Kubernetes API error: " + logging.SanitizeHost(err.Error())
	}
}
