package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pushfeed/pushfeed/pkg/delivery"
)

type publishResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

type batchRequest struct {
	Notifications []delivery.PublishRequest `json:"notifications"`
}

type batchResponse struct {
	OK    bool                `json:"ok"`
	Count int                 `json:"count"`
	IDs   []delivery.Accepted `json:"ids"`
}

// publish accepts {recipientId, message} and answers 202 with the new
// notification id. Validation failures answer 400.
func (h *handlers) publish(w http.ResponseWriter, r *http.Request) {
	var req delivery.PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := h.engine.Publish(r.Context(), req.RecipientID, req.Message)
	if err != nil {
		if errors.Is(err, delivery.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to publish notification")
		return
	}

	writeJSON(w, http.StatusAccepted, publishResponse{OK: true, ID: id})
}

// publishBatch accepts {notifications: [...]}. Invalid entries inside the
// array are skipped silently; only a missing or empty array is a 400.
func (h *handlers) publishBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	accepted, err := h.engine.PublishBatch(r.Context(), req.Notifications)
	if err != nil {
		if errors.Is(err, delivery.ErrEmptyBatch) {
			writeError(w, http.StatusBadRequest, "notifications array is required")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to publish batch")
		return
	}

	writeJSON(w, http.StatusAccepted, batchResponse{OK: true, Count: len(accepted), IDs: accepted})
}
