package httpserver

import "net/http"

// HealthCheckHandler returns a plain liveness probe handler. It answers
// 200 OK with body "ALIVE"; the process serving it is, by definition, alive.
func HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ALIVE"))
	}
}
