// Package server wires HTTP handlers into a ServeMux for the Parley gateway
// via routing helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with all gateway
// routes: health check, WebSocket endpoint, debug room table, and the
// browser test page.
func SetupRoutes(srv *Server) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.HandleFunc("/ws", srv.WebSocketHandler)
	mux.HandleFunc("/debug/rooms", srv.DebugRoomsHandler)
	mux.HandleFunc("/test", TestPageHandler)
	return mux
}
