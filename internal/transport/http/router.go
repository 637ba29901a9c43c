package http

import "net/http"

// NewRouter mounts the websocket gateway, health check and optional metrics.
func NewRouter(ws *WSHandler, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", ws.ServeWS)
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return mux
}
