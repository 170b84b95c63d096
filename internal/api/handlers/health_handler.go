package handlers

import "net/http"

// Health returns a liveness handler reporting the given service name.
func Health(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": service})
	}
}
