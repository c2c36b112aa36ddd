package handlers

import (
	"net/http"
	"time"
)

func (api *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "briefcase-devserver",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
