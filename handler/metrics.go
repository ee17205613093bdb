package handler

import (
	"net/http"

	"github.com/pushfeed/pushfeed/pkg/metrics"
)

type metricsResponse struct {
	metrics.Snapshot
	RecipientsConnected int `json:"recipientsConnected"`
}

// metrics answers a point-in-time snapshot of the delivery counters plus the
// number of distinct recipients with at least one live channel.
func (h *handlers) metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metricsResponse{
		Snapshot:            h.engine.Counters().Snapshot(),
		RecipientsConnected: h.engine.Registry().Recipients(),
	})
}
