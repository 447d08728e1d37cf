// Package dashboard serves the Mission Control web UI.
//
// The UI is server-rendered HTML with htmx driving partial updates.
// Every route answers either a full page or a fragment depending on the
// HX-Request header, so each view is addressable directly and from the
// sidebar alike. Kubernetes API failures render as inline messages in
// the content area instead of error pages.
package dashboard
