package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"driftwatch/pkg/feed"
	"driftwatch/pkg/request"
)

// FeedHandler relays one raw hourly file from upstream.
type FeedHandler struct {
	src feed.Source
}

func NewFeedHandler(src feed.Source) *FeedHandler {
	return &FeedHandler{src: src}
}

func (h *FeedHandler) Handle(w http.ResponseWriter, r *http.Request) {
	hour, err := strconv.Atoi(r.PathValue("hour"))
	if err != nil || hour < 0 || hour >= feed.Hours {
		http.Error(w, "Invalid hour (0-23)", http.StatusBadRequest)
		return
	}

	body, err := h.src.Fetch(r.Context(), hour)
	if err != nil {
		status := http.StatusBadGateway
		var se *request.StatusError
		if errors.As(err, &se) {
			status = se.Code
		}
		slog.Warn("Feed relay failed", "hour", hour, "status", status, "error", err)
		http.Error(w, "Failed to fetch hour "+feed.FileName(hour), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	if _, err := w.Write(body); err != nil {
		slog.Error("Failed to write feed response", "error", err)
	}
}
