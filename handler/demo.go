package handler

import (
	_ "embed"
	"net/http"
)

//go:embed index.html
var demoHTML []byte

func (h *handlers) demoPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(demoHTML)
}
