package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pushfeed/pushfeed/pkg/delivery"
	"github.com/pushfeed/pushfeed/pkg/registry"
)

// subscribe opens the long-lived SSE stream for one recipient. The frame
// sequence is: one connected marker, zero or more missed frames oldest first,
// then live frames as published, interleaved with comment pings while idle.
func (h *handlers) subscribe(w http.ResponseWriter, r *http.Request) {
	recipientID := r.URL.Query().Get("recipientId")
	if recipientID == "" {
		writeError(w, http.StatusBadRequest, "recipientId is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch := registry.NewChannel[delivery.Envelope](recipientID, h.cfg.ChannelBufferSize)
	replay, err := h.engine.Subscribe(r.Context(), recipientID, ch)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// The request context is gone once the client disconnects, but the
	// unregister bookkeeping must still run.
	defer h.engine.Disconnect(context.WithoutCancel(r.Context()), recipientID, ch)

	// The replay prologue goes straight to the wire, not through the bounded
	// queue, so a history longer than the queue arrives intact.
	for _, env := range replay {
		writeFrame(w, env)
	}
	flusher.Flush()

	ticker := time.NewTicker(h.cfg.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch.Done():
			// Evicted by a newer connection; flush whatever is queued.
			for env := range ch.Receive() {
				writeFrame(w, env)
			}
			flusher.Flush()
			return
		case env, open := <-ch.Receive():
			if !open {
				return
			}
			writeFrame(w, env)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

// writeFrame writes one envelope as an SSE data frame.
func writeFrame(w http.ResponseWriter, env delivery.Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}
