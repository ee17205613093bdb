// Package handler exposes the notification delivery engine over HTTP: a
// long-lived SSE subscribe stream per recipient, single and batch publish
// endpoints, a counter snapshot, and a liveness probe.
package handler
